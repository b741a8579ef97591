package timefmt

import (
	"testing"
	"time"
)

func TestClockTime(t *testing.T) {
	at := time.Date(2025, 6, 1, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		clock Clock
		want  string
	}{
		{Clock12, "3:04 PM"},
		{Clock24, "15:04"},
		{Clock(""), "3:04 PM"},       // unset falls back to 12h
		{Clock("metric"), "3:04 PM"}, // unknown falls back to 12h
	}

	for _, tt := range tests {
		if got := tt.clock.Time(at); got != tt.want {
			t.Errorf("Clock(%q).Time = %q, want %q", tt.clock, got, tt.want)
		}
	}
}

func TestClockDateTime(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	if got := Clock24.DateTime(at); got != "Jun 1, 2025 09:30" {
		t.Errorf("DateTime = %q", got)
	}
}

func TestValid(t *testing.T) {
	if !Clock12.Valid() || !Clock24.Valid() {
		t.Error("Expected 12 and 24 to be valid")
	}
	if Clock("").Valid() {
		t.Error("Expected empty clock to be invalid")
	}
}
