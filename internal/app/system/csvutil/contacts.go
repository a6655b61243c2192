// internal/app/system/csvutil/contacts.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/prabhatdev/gramvani/internal/app/system/normalize"
)

// mobileColumns is the priority-ordered list of header names recognized
// as the phone-number column. The column is resolved once per file at
// import time; files without one are rejected outright, so stored
// contacts always carry a clean `mobile` field and nothing downstream
// has to guess.
var mobileColumns = []string{"mobile", "mobile_number", "phone", "phone_number", "contact", "whatsapp"}

// nameColumns is the priority-ordered list of header names recognized as
// the contact-name column.
var nameColumns = []string{"name", "full_name", "contact_name"}

// addressColumns is the priority-ordered list of header names recognized
// as the address column. Optional.
var addressColumns = []string{"address", "addr", "location"}

// ContactCSVRow is one validated, normalized row from an uploaded file.
type ContactCSVRow struct {
	Name    string
	Mobile  string
	Address string
	Extra   map[string]string // unrecognized columns, preserved for export
}

// RowError describes why a single data row was rejected.
type RowError struct {
	Line   int // 1-based line number in the file, header included
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// PreScanContactsCSV reads the whole file from r, validates the header
// against the required schema, and returns the normalized rows.
//
// It never writes anywhere; callers run it before any mutation so a bad
// file rejects cleanly. On a schema problem it returns an error; on bad
// data rows it returns the rows that did parse plus a RowError per
// rejected row (capped at maxRowErrors).
func PreScanContactsCSV(r io.Reader) (rows []ContactCSVRow, rowErrs []RowError, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, herr := reader.Read()
	if herr == io.EOF {
		return nil, nil, fmt.Errorf("empty file: a header row is required")
	}
	if herr != nil {
		return nil, nil, fmt.Errorf("reading header: %w", herr)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	mobileIdx := findColumn(cols, mobileColumns)
	if mobileIdx < 0 {
		return nil, nil, fmt.Errorf("no phone-number column found; header must include one of: %s",
			strings.Join(mobileColumns, ", "))
	}
	nameIdx := findColumn(cols, nameColumns)
	if nameIdx < 0 {
		return nil, nil, fmt.Errorf("no name column found; header must include one of: %s",
			strings.Join(nameColumns, ", "))
	}
	addrIdx := findColumn(cols, addressColumns)

	known := map[int]bool{mobileIdx: true, nameIdx: true}
	if addrIdx >= 0 {
		known[addrIdx] = true
	}

	const maxRowErrors = 20
	line := 1 // header was line 1
	for {
		rec, rerr := reader.Read()
		if rerr == io.EOF {
			break
		}
		line++
		if len(rows) >= MaxRows {
			return nil, nil, fmt.Errorf("file has more than %d data rows; split it and upload in parts", MaxRows)
		}
		if rerr != nil {
			if len(rowErrs) < maxRowErrors {
				rowErrs = append(rowErrs, RowError{Line: line, Reason: rerr.Error()})
			}
			continue
		}

		row := ContactCSVRow{
			Name:   normalize.Name(field(rec, nameIdx)),
			Mobile: normalize.Mobile(field(rec, mobileIdx)),
		}
		if addrIdx >= 0 {
			row.Address = normalize.Name(field(rec, addrIdx))
		}
		if row.Name == "" && row.Mobile == "" {
			continue // blank row
		}
		if row.Mobile == "" {
			if len(rowErrs) < maxRowErrors {
				rowErrs = append(rowErrs, RowError{Line: line, Reason: "missing mobile number"})
			}
			continue
		}

		for h, i := range cols {
			if known[i] || i >= len(rec) {
				continue
			}
			if v := strings.TrimSpace(rec[i]); v != "" {
				if row.Extra == nil {
					row.Extra = make(map[string]string)
				}
				row.Extra[h] = v
			}
		}
		rows = append(rows, row)
	}

	return rows, rowErrs, nil
}

// WriteContactsCSV writes rows in the canonical export layout:
// name, mobile, address, then any extra columns sorted by header.
func WriteContactsCSV(w io.Writer, rows []ContactCSVRow, extraHeaders []string) error {
	cw := csv.NewWriter(w)
	header := append([]string{"name", "mobile", "address"}, extraHeaders...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		rec := []string{row.Name, row.Mobile, row.Address}
		for _, h := range extraHeaders {
			rec = append(rec, row.Extra[h])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func findColumn(cols map[string]int, candidates []string) int {
	for _, c := range candidates {
		if i, ok := cols[c]; ok {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
