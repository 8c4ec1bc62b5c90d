package dateutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr error
	}{
		{in: "09:30", want: Clock{9, 30}},
		{in: "00:00", want: Clock{0, 0}},
		{in: "48:05", want: Clock{48, 5}},
		{in: "9:30", wantErr: ErrClockFormat},
		{in: "09h30", wantErr: ErrClockFormat},
		{in: "0a:30", wantErr: ErrClockFormat},
		{in: "09:3", wantErr: ErrClockFormat},
		{in: "09:300", wantErr: ErrClockFormat},
		{in: "", wantErr: ErrClockFormat},
		{in: "09:60", wantErr: ErrClockRange},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseClock(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimeOfDayRejectsHour24(t *testing.T) {
	if _, err := ParseTimeOfDay("24:00"); !errors.Is(err, ErrClockRange) {
		t.Fatalf("ParseTimeOfDay(24:00) error = %v, want ErrClockRange", err)
	}
	if c, err := ParseTimeOfDay("23:59"); err != nil || c != (Clock{23, 59}) {
		t.Fatalf("ParseTimeOfDay(23:59) = %v, %v", c, err)
	}
}

func TestAtAndAdd(t *testing.T) {
	loc := DefaultLocation()
	day, err := ParseDate("2024-06-01", loc)
	if err != nil {
		t.Fatal(err)
	}

	start := At(day, Clock{9, 30}, loc)
	want := time.Date(2024, time.June, 1, 9, 30, 0, 0, loc)
	if !start.Equal(want) {
		t.Fatalf("At = %v, want %v", start, want)
	}

	end := Add(start, Clock{1, 15})
	if want := time.Date(2024, time.June, 1, 10, 45, 0, 0, loc); !end.Equal(want) {
		t.Fatalf("Add = %v, want %v", end, want)
	}
}

func TestAddRollsOverMonth(t *testing.T) {
	loc := DefaultLocation()
	day, _ := ParseDate("2024-02-29", loc)
	start := At(day, Clock{23, 0}, loc)
	end := Add(start, Clock{2, 30})
	if want := time.Date(2024, time.March, 1, 1, 30, 0, 0, loc); !end.Equal(want) {
		t.Fatalf("Add across month = %v, want %v", end, want)
	}
}

func TestParseDate(t *testing.T) {
	loc := DefaultLocation()
	got, err := ParseDate("2024-11-16", loc)
	if err != nil {
		t.Fatal(err)
	}
	if got.Location().String() != loc.String() || got.Hour() != 0 || got.Day() != 16 {
		t.Fatalf("ParseDate = %v", got)
	}
	if _, err := ParseDate("16/11/2024", loc); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestClockString(t *testing.T) {
	if s := (Clock{Hours: 1, Minutes: 5}).String(); s != "01:05" {
		t.Fatalf("String() = %q", s)
	}
	if d := (Clock{Hours: 1, Minutes: 15}).Duration(); d != 75*time.Minute {
		t.Fatalf("Duration() = %v", d)
	}
}
