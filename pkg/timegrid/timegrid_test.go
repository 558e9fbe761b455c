package timegrid

import (
	"testing"
	"time"
)

func TestBuckets(t *testing.T) {
	tests := []struct {
		name     string
		startMin int
		endMin   int
		want     []int
	}{
		{"one hour on boundary", 540, 600, []int{108, 109, 110, 111, 112, 113, 114, 115, 116, 117, 118, 119}},
		{"single bucket", 540, 545, []int{108}},
		{"partial bucket still claims it", 540, 541, []int{108}},
		{"unaligned start", 542, 550, []int{108, 109}},
		{"end on boundary excludes next bucket", 595, 600, []int{119}},
		{"empty range", 600, 600, nil},
		{"inverted range", 600, 540, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Buckets(tt.startMin, tt.endMin)
			if len(got) != len(tt.want) {
				t.Fatalf("Buckets(%d, %d) = %v, want %v", tt.startMin, tt.endMin, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Buckets(%d, %d)[%d] = %d, want %d", tt.startMin, tt.endMin, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		s1, e1, s2, e2             int
		want                       bool
	}{
		{"identical ranges", 540, 600, 540, 600, true},
		{"partial overlap", 540, 600, 570, 630, true},
		{"containment", 540, 600, 550, 560, true},
		{"touching ranges do not conflict", 540, 600, 600, 660, false},
		{"touching reversed", 600, 660, 540, 600, false},
		{"disjoint", 540, 600, 700, 760, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.s1, tt.e1, tt.s2, tt.e2); got != tt.want {
				t.Errorf("Overlaps(%d,%d,%d,%d) = %v, want %v", tt.s1, tt.e1, tt.s2, tt.e2, got, tt.want)
			}
		})
	}
}

func TestDateKeyRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}

	// 23:30 UTC on Aug 30 is already Aug 31 in the studio timezone.
	utc := time.Date(2026, 8, 30, 23, 30, 0, 0, time.UTC)
	key := DateKey(utc, loc)
	if key != "2026-08-31" {
		t.Fatalf("DateKey = %q, want 2026-08-31", key)
	}

	day, err := ParseDateKey(key, loc)
	if err != nil {
		t.Fatalf("ParseDateKey: %v", err)
	}
	if DateKey(day, loc) != key {
		t.Errorf("round trip changed key: %q -> %q", key, DateKey(day, loc))
	}
}

func TestParseDateKeyRejectsGarbage(t *testing.T) {
	loc := time.UTC
	for _, bad := range []string{"", "31-08-2026", "2026/08/31", "tomorrow"} {
		if _, err := ParseDateKey(bad, loc); err == nil {
			t.Errorf("ParseDateKey(%q) accepted invalid input", bad)
		}
	}
}

func TestSlotStart(t *testing.T) {
	loc := time.UTC
	start, err := SlotStart("2026-09-01", 540, loc)
	if err != nil {
		t.Fatalf("SlotStart: %v", err)
	}
	want := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("SlotStart = %v, want %v", start, want)
	}
}

func TestValidRange(t *testing.T) {
	if !ValidRange(0, MinutesPerDay) {
		t.Error("full day should be valid")
	}
	if ValidRange(600, 600) {
		t.Error("empty range should be invalid")
	}
	if ValidRange(-5, 60) {
		t.Error("negative start should be invalid")
	}
	if ValidRange(600, MinutesPerDay+5) {
		t.Error("range past midnight should be invalid")
	}
}

func TestFormatMinute(t *testing.T) {
	if got := FormatMinute(540); got != "09:00" {
		t.Errorf("FormatMinute(540) = %q, want 09:00", got)
	}
	if got := FormatMinute(605); got != "10:05" {
		t.Errorf("FormatMinute(605) = %q, want 10:05", got)
	}
}
