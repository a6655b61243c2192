// internal/domain/models/contact.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is one row of uploaded spreadsheet data, scoped to a
// (district, village) pair. Contacts are immutable once uploaded;
// cleanup happens wholesale per scope, never row by row.
//
// Mobile is normalized at import time (see csvutil.PreScanContactsCSV);
// any spreadsheet columns beyond the recognized ones are preserved in
// Extra so exports can round-trip them.
type Contact struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	District   string             `bson:"district" json:"district"`
	DistrictCI string             `bson:"district_ci" json:"district_ci"`
	Village    string             `bson:"village" json:"village"`
	VillageCI  string             `bson:"village_ci" json:"village_ci"`
	Name       string             `bson:"name" json:"name"`
	Mobile     string             `bson:"mobile" json:"mobile"`
	Address    string             `bson:"address,omitempty" json:"address,omitempty"`
	Extra      map[string]string  `bson:"extra,omitempty" json:"extra,omitempty"`

	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}
