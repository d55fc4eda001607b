package json_types

import (
	"encoding/json"
	"testing"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
		fails   bool
	}{
		{"09:30", 570, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		// Хвост с секундами допускается
		{"09:30:45", 570, false},
		{"9:30", 0, true},
		{"", 0, true},
		{"garbage", 0, true},
	}

	for _, tc := range cases {
		clock, err := ParseClock(tc.in)
		if tc.fails {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error %v", tc.in, err)
			continue
		}
		if clock.Minutes() != tc.minutes {
			t.Errorf("ParseClock(%q) = %d minutes, want %d", tc.in, clock.Minutes(), tc.minutes)
		}
	}
}

func TestClockTime_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(NewClock(14, 5))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"14:05"` {
		t.Errorf("expected \"14:05\", got %s", data)
	}

	var parsed ClockTime
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if parsed.Minutes() != 845 {
		t.Errorf("expected 845 minutes, got %d", parsed.Minutes())
	}
}

func TestClockTime_Before(t *testing.T) {
	if !NewClock(9, 0).Before(NewClock(9, 1)) {
		t.Error("09:00 is before 09:01")
	}
	if NewClock(9, 0).Before(NewClock(9, 0)) {
		t.Error("equal times are not before each other")
	}
}

func TestDate_Unmarshal(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-01-15"`), &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if d.Date.Year() != 2024 || d.Date.Month() != 1 || d.Date.Day() != 15 {
		t.Errorf("unexpected date %s", d.Date)
	}

	// Дата со временем и таймзоной тоже читается
	if err := json.Unmarshal([]byte(`"2024-01-15T10:00:00Z"`), &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if d.Date.Hour() != 10 {
		t.Errorf("expected hour 10, got %d", d.Date.Hour())
	}
}
