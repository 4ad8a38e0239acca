package report_test

import (
	"time"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func period(start, end string) domain.Period {
	return domain.Period{Start: day(start), End: day(end)}
}

func entry(date string, completed bool, reasons ...string) domain.HabitLogEntry {
	return domain.HabitLogEntry{Date: date, Completed: completed, FailureReason: reasons}
}

func habit(id domain.ID, name, start, end string, days []int, logs ...domain.HabitLogEntry) domain.Habit {
	return domain.Habit{
		HabitID:   id,
		Name:      name,
		StartTime: start,
		EndTime:   end,
		DayOfWeek: days,
		HabitLog:  logs,
	}
}

func activeFixture() []domain.Habit {
	return []domain.Habit{
		habit(domain.IntID(1), "Run", "09:00", "10:00", []int{1, 3, 5}, entry("2024-01-15", true)),
		habit(domain.IntID(2), "Read", "21:00", "21:30", []int{1, 2, 3, 4, 5, 6, 7}, entry("2024-01-15", false, "피곤")),
		habit(domain.IntID(3), "Meditate", "", "", nil, entry("2024-01-16", false)),
	}
}

func ids(recs []domain.Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.HabitID.String())
	}
	return out
}
