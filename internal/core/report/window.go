package report

import (
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

// FilterHabit returns a copy of h whose log only holds entries dated inside p.
// Entries with a malformed date are dropped. Start and end times are
// normalised to HH:MM on the copy when they parse; otherwise they are kept
// as received.
func FilterHabit(h domain.Habit, p domain.Period) domain.Habit {
	out := h.Clone()
	kept := out.HabitLog[:0]
	for _, e := range out.HabitLog {
		day, err := e.Day()
		if err != nil {
			continue
		}
		if p.Contains(day) {
			kept = append(kept, e)
		}
	}
	out.HabitLog = kept

	if t, err := domain.NormalizeClock(out.StartTime); err == nil {
		out.StartTime = t
	}
	if t, err := domain.NormalizeClock(out.EndTime); err == nil {
		out.EndTime = t
	}
	return out
}

// ActiveHabits filters every habit to p and keeps, in input order, the ones
// with at least one entry left. The returned order is the contract every
// later stage aligns to.
func ActiveHabits(habits []domain.Habit, p domain.Period) []domain.Habit {
	active := make([]domain.Habit, 0, len(habits))
	for _, h := range habits {
		filtered := FilterHabit(h, p)
		if len(filtered.HabitLog) > 0 {
			active = append(active, filtered)
		}
	}
	return active
}
