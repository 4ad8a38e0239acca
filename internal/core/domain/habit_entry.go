package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date format (must be YYYY-MM-DD)")

// HabitLogEntry is one day of a habit's history as reported by the client.
// Date is kept as received so that a malformed value only disqualifies the
// entry it belongs to.
type HabitLogEntry struct {
	Date          string   `json:"date"`
	Completed     bool     `json:"completed"`
	FailureReason []string `json:"failure_reason,omitempty"`
}

func (e HabitLogEntry) Day() (time.Time, error) {
	d, err := ParseDate(e.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("log entry %q: %w", e.Date, err)
	}
	return d, nil
}

// Weekday returns the ISO weekday of the entry (1=Mon ... 7=Sun), or 0 when
// the date is malformed.
func (e HabitLogEntry) Weekday() int {
	d, err := e.Day()
	if err != nil {
		return 0
	}
	return ISOWeekday(d)
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
