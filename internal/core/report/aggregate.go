package report

import (
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

func Aggregate(h domain.Habit) domain.HabitStats {
	stats := domain.HabitStats{
		HabitID:  h.HabitID,
		Name:     h.Name,
		Attempts: len(h.HabitLog),
	}
	for _, e := range h.HabitLog {
		if e.Completed {
			stats.Successes++
		}
	}
	stats.SuccessRate = domain.Rate(stats.Successes, stats.Attempts)
	return stats
}

// AggregateAll returns per-habit stats in input order plus the overall rate,
// computed from summed attempts and successes rather than averaged rates.
func AggregateAll(habits []domain.Habit) ([]domain.HabitStats, domain.OverallStats) {
	perHabit := make([]domain.HabitStats, 0, len(habits))
	var overall domain.OverallStats

	for _, h := range habits {
		s := Aggregate(h)
		perHabit = append(perHabit, s)
		overall.Attempts += s.Attempts
		overall.Successes += s.Successes
	}

	overall.SuccessRate = domain.Rate(overall.Successes, overall.Attempts)
	return perHabit, overall
}
