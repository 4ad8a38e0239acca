package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid report period")

type ReportType string

const (
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
)

// ParseReportType is case-insensitive. Anything that is not weekly falls back
// to monthly; ok reports whether the input was recognised.
func ParseReportType(s string) (t ReportType, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ReportWeekly):
		return ReportWeekly, true
	case string(ReportMonthly):
		return ReportMonthly, true
	}
	return ReportMonthly, false
}

func (t ReportType) LookbackDays() int {
	if t == ReportWeekly {
		return 7
	}
	return 30
}

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// DefaultPeriod looks back from the day of now: [today-N, today].
func DefaultPeriod(t ReportType, now time.Time) Period {
	end := calendarDay(now)
	return Period{Start: end.AddDate(0, 0, -t.LookbackDays()), End: end}
}

// ResolvePeriod uses the explicit range when both bounds are given and the
// default lookback window otherwise.
func ResolvePeriod(t ReportType, startDate, endDate string, now time.Time) (Period, error) {
	if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
		return DefaultPeriod(t, now), nil
	}

	start, err := ParseDate(startDate)
	if err != nil {
		return Period{}, errors.Join(ErrInvalidPeriod, err)
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return Period{}, errors.Join(ErrInvalidPeriod, err)
	}
	if start.After(end) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

func (p Period) Contains(day time.Time) bool {
	d := calendarDay(day)
	return !d.Before(p.Start) && !d.After(p.End)
}

func (p Period) StartDate() string { return FormatDate(p.Start) }

func (p Period) EndDate() string { return FormatDate(p.End) }

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
