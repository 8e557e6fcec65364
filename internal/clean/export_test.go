package clean

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/listclean/listclean/internal/classify"
)

func exportRecords() []Record {
	return []Record{
		{
			Original:   " Ann@X.com ",
			Email:      "ann@x.com",
			Name:       "Ann Ames",
			Status:     classify.StatusValid,
			SourceFile: "a.csv",
			Columns:    makeRow("Email", " Ann@X.com ", "Company", "Acme"),
		},
		{
			Original:   "admin@x.com",
			Email:      "admin@x.com",
			Name:       "",
			Status:     classify.StatusRoleBased,
			SourceFile: "b.csv",
			Columns:    makeRow("Email", "admin@x.com", "Dept", "IT"),
		},
	}
}

func TestProject_SingleEmailField(t *testing.T) {
	rows := Project(exportRecords(), []string{"email"})

	want := [][]string{
		{"Email"},
		{"ann@x.com"},
		{"admin@x.com"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Project() = %v, want %v", rows, want)
	}
}

func TestProject_RejectListFields(t *testing.T) {
	rows := Project(exportRecords()[1:], []string{"email", "status"})

	want := [][]string{
		{"Email", "Status"},
		{"admin@x.com", "role_based"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Project() = %v, want %v", rows, want)
	}
}

func TestProject_UnknownFieldKeepsNameAndFillsEmpty(t *testing.T) {
	rows := Project(exportRecords(), []string{"email", "Company"})

	want := [][]string{
		{"Email", "Company"},
		{"ann@x.com", "Acme"},
		{"admin@x.com", ""}, // second record has no Company column
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Project() = %v, want %v", rows, want)
	}
}

func TestProject_NoFieldListExportsEverything(t *testing.T) {
	rows := Project(exportRecords(), nil)

	wantHeader := []string{"original", "email", "name", "status", "source_file", "Email", "Company", "Dept"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Fatalf("header = %v, want %v", rows[0], wantHeader)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	// Original columns round-trip; missing ones come out empty.
	if rows[1][6] != "Acme" || rows[1][7] != "" {
		t.Errorf("row 1 extras = %q/%q, want Acme/empty", rows[1][6], rows[1][7])
	}
	if rows[2][6] != "" || rows[2][7] != "IT" {
		t.Errorf("row 2 extras = %q/%q, want empty/IT", rows[2][6], rows[2][7])
	}
}

func TestProject_EmptyRecordList(t *testing.T) {
	rows := Project(nil, []string{"email"})
	if len(rows) != 1 || rows[0][0] != "Email" {
		t.Errorf("Project(nil) = %v, want header only", rows)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, exportRecords(), []string{"email", "status"}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"Email,Status", "ann@x.com,valid", "admin@x.com,role_based"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WriteCSV() = %v, want %v", got, want)
	}
}
