// Package timegrid holds the pure time arithmetic shared by slots and
// exclusivity locks: minute-of-day ranges, business-timezone date keys,
// and the fixed 5-minute bucket grid that lock ownership is keyed on.
package timegrid

import (
	"fmt"
	"time"
)

// MinutesPerBucket is the exclusivity-lock granularity. It defines the
// minimum schedulable time resolution and must not change: bucket
// indices are persisted in lock documents.
const MinutesPerBucket = 5

const (
	// MinutesPerDay bounds every minute-of-day value.
	MinutesPerDay = 24 * 60

	dateKeyLayout = "2006-01-02"
)

// Bucket returns the bucket index containing the given minute of day.
func Bucket(minute int) int {
	return minute / MinutesPerBucket
}

// Buckets returns the bucket indices covering [startMin, endMin) in
// increasing order. An empty or inverted range yields nil.
func Buckets(startMin, endMin int) []int {
	if endMin <= startMin {
		return nil
	}
	first := Bucket(startMin)
	// endMin is exclusive: a range ending exactly on a bucket boundary
	// does not claim the following bucket.
	last := Bucket(endMin - 1)
	out := make([]int, 0, last-first+1)
	for b := first; b <= last; b++ {
		out = append(out, b)
	}
	return out
}

// Overlaps reports whether two half-open minute ranges intersect.
// Touching ranges (end == start) do not overlap.
func Overlaps(start1, end1, start2, end2 int) bool {
	return start1 < end2 && end1 > start2
}

// ValidRange reports whether the pair is a well-formed minute-of-day range.
func ValidRange(startMin, endMin int) bool {
	return startMin >= 0 && endMin <= MinutesPerDay && startMin < endMin
}

// DateKey renders t as a calendar date string in the studio timezone.
// All slot and lock documents are keyed by these strings, never by
// instants, so a slot on "2026-09-01" stays on that date across DST.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateKeyLayout)
}

// ParseDateKey validates a date-key string and returns its midnight in
// the studio timezone.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// MinuteOfDay returns t's minute offset within its studio-timezone day.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// SlotStart converts a date key plus minute-of-day back into an instant.
func SlotStart(dateKey string, startMin int, loc *time.Location) (time.Time, error) {
	day, err := ParseDateKey(dateKey, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(startMin) * time.Minute), nil
}

// FormatMinute renders a minute-of-day as HH:MM for human-facing output.
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
