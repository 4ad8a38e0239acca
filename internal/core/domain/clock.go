package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidClock = errors.New("invalid time of day (must be HH:MM or HH:MM:SS)")

const minutesPerDay = 24 * 60

// NormalizeClock turns a time of day into canonical "HH:MM".
// Accepted forms, tried in order: "15:04", "15:04:05", then a plain colon
// split of integers such as "21:5:00". Seconds are discarded.
func NormalizeClock(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", ErrInvalidClock
	}

	for _, layout := range []string{"15:04", "15:04:05"} {
		if parsed, err := time.Parse(layout, t); err == nil {
			return parsed.Format("15:04"), nil
		}
	}

	parts := strings.Split(t, ":")
	if len(parts) < 2 {
		return "", ErrInvalidClock
	}
	hh, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", ErrInvalidClock
	}
	mm, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", ErrInvalidClock
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return "", ErrInvalidClock
	}
	return fmt.Sprintf("%02d:%02d", hh, mm), nil
}

func clockMinutes(s string) (int, error) {
	n, err := NormalizeClock(s)
	if err != nil {
		return 0, err
	}
	hh, _ := strconv.Atoi(n[:2])
	mm, _ := strconv.Atoi(n[3:])
	return hh*60 + mm, nil
}

// MinutesBetween returns the session length from start to end. Inverted or
// unparsable times yield zero. Sessions crossing midnight are not considered.
func MinutesBetween(start, end string) int {
	s, err := clockMinutes(start)
	if err != nil {
		return 0
	}
	e, err := clockMinutes(end)
	if err != nil {
		return 0
	}
	return max(e-s, 0)
}

// AddMinutes shifts a time of day, wrapping around midnight.
func AddMinutes(clock string, delta int) (string, error) {
	m, err := clockMinutes(clock)
	if err != nil {
		return "", err
	}
	m = ((m+delta)%minutesPerDay + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}
