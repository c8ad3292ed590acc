package sources

import (
	"testing"
	"time"
)

func TestIsFresh_RelativeTimes(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	window := 48 * time.Hour

	tests := []struct {
		published string
		want      bool
	}{
		{"5 minutes ago", true},
		{"3 hours ago", true},
		{"1 day ago", true},
		{"2 days ago", true},
		{"3 days ago", false},
		{"1 week ago", false},
		{"47 hours ago", true},
		{"49 hours ago", false},
	}

	for _, tt := range tests {
		if got := IsFresh(tt.published, now, window); got != tt.want {
			t.Errorf("IsFresh(%q) = %v, want %v", tt.published, got, tt.want)
		}
	}
}

func TestIsFresh_AbsoluteTimes(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	window := 48 * time.Hour

	tests := []struct {
		published string
		want      bool
	}{
		{"2025-06-10T08:00:00Z", true},
		{"2025-06-09 12:00:00", true},
		{"2025-06-01T08:00:00Z", false},
		{"Jun 10, 2025", true},
		{"Jan 2, 2020", false},
	}

	for _, tt := range tests {
		if got := IsFresh(tt.published, now, window); got != tt.want {
			t.Errorf("IsFresh(%q) = %v, want %v", tt.published, got, tt.want)
		}
	}
}

func TestIsFresh_UnparseableExcluded(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	window := 48 * time.Hour

	for _, published := range []string{"", "yesterday-ish", "soon", "not a date"} {
		if IsFresh(published, now, window) {
			t.Errorf("IsFresh(%q) should be false for unparseable input", published)
		}
	}
}

func TestIsFresh_FutureTimestampsExcluded(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	if IsFresh("2025-06-12T12:00:00Z", now, 48*time.Hour) {
		t.Errorf("Timestamps far in the future should be excluded")
	}
}
