// internal/domain/models/messagerecord.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dispatch channels.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
	ChannelVoice    = "voice"
)

// Batch send statuses.
const (
	SendStatusSent    = "sent"    // every recipient accepted
	SendStatusPartial = "partial" // some failed
	SendStatusFailed  = "failed"  // nothing went through
)

// MessageRecord is the log of one dispatch batch — one document per
// batch, not per recipient.
type MessageRecord struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BatchID string             `bson:"batch_id" json:"batch_id"`

	SentBy      primitive.ObjectID `bson:"sent_by" json:"sent_by"`
	SentByEmail string             `bson:"sent_by_email,omitempty" json:"sent_by_email,omitempty"`

	Channel string `bson:"channel" json:"channel"` // whatsapp | sms | voice
	Message string `bson:"message" json:"message"`
	Area    string `bson:"area" json:"area"` // human description of the scope, e.g. "Pune / Shirur"

	RecipientCount int `bson:"recipient_count" json:"recipient_count"`
	SentCount      int `bson:"sent_count" json:"sent_count"`
	FailedCount    int `bson:"failed_count" json:"failed_count"`

	SendStatus string    `bson:"send_status" json:"send_status"`
	SentAt     time.Time `bson:"sent_at" json:"sent_at"`
}
