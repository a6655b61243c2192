package csvutil

import (
	"strings"
	"testing"
)

func TestPreScanContactsCSV(t *testing.T) {
	in := strings.Join([]string{
		"Name,Mobile,Address,Ward",
		"Asha Patil,98765 43210,Main Road,3",
		"Ravi Kumar,9123456789,,",
		",,,",
	}, "\n")

	rows, rowErrs, err := PreScanContactsCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("PreScanContactsCSV failed: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("expected no row errors, got %v", rowErrs)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if rows[0].Name != "Asha Patil" {
		t.Errorf("Name: got %q", rows[0].Name)
	}
	if rows[0].Mobile != "9876543210" {
		t.Errorf("Mobile: got %q, want normalized digits", rows[0].Mobile)
	}
	if rows[0].Address != "Main Road" {
		t.Errorf("Address: got %q", rows[0].Address)
	}
	if rows[0].Extra["ward"] != "3" {
		t.Errorf("Extra[ward]: got %q, want %q", rows[0].Extra["ward"], "3")
	}
	if rows[1].Extra != nil {
		t.Errorf("expected no extras on second row, got %v", rows[1].Extra)
	}
}

func TestPreScanContactsCSV_ColumnPriority(t *testing.T) {
	// "mobile" outranks "phone" when both are present.
	in := "name,phone,mobile\nAsha,1111111111,2222222222\n"
	rows, _, err := PreScanContactsCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("PreScanContactsCSV failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Mobile != "2222222222" {
		t.Fatalf("expected mobile column to win, got %+v", rows)
	}
	// The losing phone column is preserved as an extra.
	if rows[0].Extra["phone"] != "1111111111" {
		t.Errorf("Extra[phone]: got %q", rows[0].Extra["phone"])
	}
}

func TestPreScanContactsCSV_MissingMobileColumn(t *testing.T) {
	in := "name,address\nAsha,Main Road\n"
	_, _, err := PreScanContactsCSV(strings.NewReader(in))
	if err == nil {
		t.Fatal("expected schema error for missing mobile column")
	}
	if !strings.Contains(err.Error(), "phone-number column") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPreScanContactsCSV_MissingNameColumn(t *testing.T) {
	in := "mobile,address\n9876543210,Main Road\n"
	_, _, err := PreScanContactsCSV(strings.NewReader(in))
	if err == nil {
		t.Fatal("expected schema error for missing name column")
	}
}

func TestPreScanContactsCSV_EmptyFile(t *testing.T) {
	_, _, err := PreScanContactsCSV(strings.NewReader(""))
	if err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestPreScanContactsCSV_RowErrors(t *testing.T) {
	in := "name,mobile\nAsha,9876543210\nRavi,\n"
	rows, rowErrs, err := PreScanContactsCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("PreScanContactsCSV failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 good row, got %d", len(rows))
	}
	if len(rowErrs) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(rowErrs))
	}
	if rowErrs[0].Line != 3 {
		t.Errorf("Line: got %d, want 3", rowErrs[0].Line)
	}
	if !strings.Contains(rowErrs[0].Reason, "missing mobile") {
		t.Errorf("Reason: got %q", rowErrs[0].Reason)
	}
}

func TestWriteContactsCSV(t *testing.T) {
	rows := []ContactCSVRow{
		{Name: "Asha", Mobile: "9876543210", Address: "Main Road", Extra: map[string]string{"ward": "3"}},
		{Name: "Ravi", Mobile: "9123456789"},
	}
	var b strings.Builder
	if err := WriteContactsCSV(&b, rows, []string{"ward"}); err != nil {
		t.Fatalf("WriteContactsCSV failed: %v", err)
	}
	got := b.String()
	want := "name,mobile,address,ward\nAsha,9876543210,Main Road,3\nRavi,9123456789,,\n"
	if got != want {
		t.Errorf("output mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}
