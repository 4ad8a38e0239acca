package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidBundle  = errors.New("invalid habit bundle")
	ErrNoActiveHabits = errors.New("no habit activity in the report period")
)

var DefaultWeekdays = []int{1, 2, 3, 4, 5}

type Habit struct {
	HabitID   ID              `json:"habit_id"`
	Name      string          `json:"name"`
	DayOfWeek []int           `json:"day_of_week"`
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time"`
	HabitLog  []HabitLogEntry `json:"habit_log"`
}

// Clone returns a deep copy so that filtering never touches caller-owned data.
func (h Habit) Clone() Habit {
	out := h
	if h.DayOfWeek != nil {
		out.DayOfWeek = append([]int(nil), h.DayOfWeek...)
	}
	if h.HabitLog != nil {
		out.HabitLog = make([]HabitLogEntry, len(h.HabitLog))
		for i, e := range h.HabitLog {
			out.HabitLog[i] = e
			if e.FailureReason != nil {
				out.HabitLog[i].FailureReason = append([]string(nil), e.FailureReason...)
			}
		}
	}
	return out
}

// Bundle is the per-user input of one report run.
type Bundle struct {
	UserID          ID       `json:"user_id"`
	Nickname        string   `json:"nickname"`
	BirthYear       *int     `json:"birth_year,omitempty"`
	Gender          string   `json:"gender,omitempty"`
	Job             string   `json:"job,omitempty"`
	Age             *int     `json:"age,omitempty"`
	Occupation      string   `json:"occupation,omitempty"`
	Characteristics []string `json:"characteristics,omitempty"`
	Type            string   `json:"type"`
	Habits          []Habit  `json:"habits"`
}

func (b Bundle) Validate() error {
	if b.UserID.IsZero() {
		return fmt.Errorf("%w: user_id is required", ErrInvalidBundle)
	}
	for i, h := range b.Habits {
		if h.HabitID.IsZero() {
			return fmt.Errorf("%w: habit %d has no habit_id", ErrInvalidBundle, i)
		}
		for _, other := range b.Habits[:i] {
			if other.HabitID.Equal(h.HabitID) {
				return fmt.Errorf("%w: duplicate habit_id %s", ErrInvalidBundle, h.HabitID)
			}
		}
	}
	return nil
}

func (b Bundle) DisplayName() string {
	if n := strings.TrimSpace(b.Nickname); n != "" {
		return n
	}
	return b.UserID.String()
}
