package content

import (
	"testing"

	"github.com/DARK-V-98/oshadividarshana-api/core/unit"
)

func TestFileName(t *testing.T) {
	cases := []struct {
		itemType unit.ItemType
		want     string
	}{
		{unit.SinhalaNote, "sinhala-note.pdf"},
		{unit.SinhalaAssignment, "sinhala-assignment.pdf"},
		{unit.EnglishNote, "english-note.pdf"},
		{unit.EnglishAssignment, "english-assignment.pdf"},
		{unit.ItemType("bogus"), ""},
	}

	for _, c := range cases {
		if got := FileName(c.itemType); got != c.want {
			t.Errorf("FileName(%q): expected %q, got %q", c.itemType, c.want, got)
		}
	}
}

func TestPaths(t *testing.T) {
	if got, want := MasterPath("BD-M01", unit.SinhalaNote), "units/BD-M01/sinhala-note.pdf"; got != want {
		t.Errorf("master path: expected %q, got %q", want, got)
	}

	got := UserPath("u1", "o1", "BD-M01", unit.EnglishAssignment)
	want := "user-content/u1/o1/BD-M01-englishAssignment.pdf"
	if got != want {
		t.Errorf("user path: expected %q, got %q", want, got)
	}
}
