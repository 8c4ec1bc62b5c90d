package textutil

import (
	"testing"

	"golang.org/x/text/language"
)

func TestRemoveDiacritics(t *testing.T) {
	tests := map[string]string{
		"Conférence":    "Conference",
		"Table Ronde":   "Table Ronde",
		"ÉTÉ à Noël":    "ETE a Noel",
		"façade naïve":  "facade naive",
		"":              "",
		"øresund":       "øresund",
		"Capitole ☺ ok": "Capitole ☺ ok",
	}
	for in, want := range tests {
		if got := RemoveDiacritics(in); got != want {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("Conférence", language.French); got != "conference" {
		t.Errorf("Fold = %q", got)
	}
	if got := Fold("ATELIER", language.French); got != "atelier" {
		t.Errorf("Fold = %q", got)
	}
	if got := Lower("I", language.French); got != "i" {
		t.Errorf("Lower(fr) = %q", got)
	}
	if got := Lower("I", language.Turkish); got != "ı" {
		t.Errorf("Lower(tr) = %q", got)
	}
}
