package typelib

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if want := (Date{2024, time.March, 5}); d != want {
		t.Errorf("ParseDate = %+v, want %+v", d, want)
	}
	if got := d.String(); got != "2024-03-05" {
		t.Errorf("String = %q, want 2024-03-05", got)
	}
	if _, err := ParseDate("03/05/2024"); err == nil {
		t.Error("ParseDate accepted non-ISO input")
	}
}

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want TimeOfDay
		str  string
	}{
		{"13:14:15", TimeOfDay{13, 14, 15, 0}, "13:14:15"},
		{"13:14", TimeOfDay{13, 14, 0, 0}, "13:14:00"},
		{"13:14:15.25", TimeOfDay{13, 14, 15, 250000000}, "13:14:15.25"},
	}
	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.in)
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
		if s := got.String(); s != tc.str {
			t.Errorf("String of %q = %q, want %q", tc.in, s, tc.str)
		}
	}
	if _, err := ParseTimeOfDay("25:99"); err == nil {
		t.Error("ParseTimeOfDay accepted out-of-range input")
	}
}
