package report

import (
	"strings"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

const (
	fallbackTrimMinutes    = 15
	fallbackMinSession     = 10
	fallbackDefaultStart   = "00:00"
	fallbackDefaultEnd     = "00:30"
	fallbackNameSuffix     = " (가벼운 버전)"
	fallbackDefaultHabitNm = "습관"
)

// ReconcileStats counts the repairs applied to a recommendation list.
type ReconcileStats struct {
	RepairedByName    int
	RepairedFallback  int
	DuplicatesDropped int
	Synthesized       int
}

func (s ReconcileStats) Clean() bool {
	return s == ReconcileStats{}
}

// ParseRecommendations reads the reply's recommendation field. A bare object
// is treated as a one-element list; anything else yields no candidates.
func ParseRecommendations(obj map[string]any) []domain.Recommendation {
	items := asObjects(obj["recommendation"])
	out := make([]domain.Recommendation, 0, len(items))
	for _, item := range items {
		id, _ := domain.ParseID(item["habit_id"])
		out = append(out, domain.Recommendation{
			HabitID:   id,
			Name:      asString(item["name"]),
			StartTime: normalizeOrKeep(asString(item["start_time"])),
			EndTime:   normalizeOrKeep(asString(item["end_time"])),
			DayOfWeek: asInts(item["day_of_week"]),
		})
	}
	return out
}

// ReconcileRecommendations turns whatever the generator proposed into exactly
// one recommendation per active habit, in active order, each carrying that
// habit's id. Running it on its own output returns the same list.
func ReconcileRecommendations(candidates []domain.Recommendation, active []domain.Habit) ([]domain.Recommendation, ReconcileStats) {
	var stats ReconcileStats
	if len(active) == 0 {
		return []domain.Recommendation{}, stats
	}

	byID := make(map[string]int, len(active))
	for i, h := range active {
		byID[h.HabitID.String()] = i
	}

	chosen := make(map[string]domain.Recommendation, len(active))
	for _, rec := range candidates {
		idx, ok := byID[rec.HabitID.String()]
		if !ok || rec.HabitID.IsZero() {
			idx, ok = matchName(rec.Name, active)
			if ok {
				stats.RepairedByName++
			} else {
				idx = 0
				stats.RepairedFallback++
			}
		}

		h := active[idx]
		key := h.HabitID.String()
		if _, taken := chosen[key]; taken {
			stats.DuplicatesDropped++
			continue
		}
		rec.HabitID = h.HabitID
		chosen[key] = fillFromHabit(rec, h)
	}

	out := make([]domain.Recommendation, 0, len(active))
	for _, h := range active {
		rec, ok := chosen[h.HabitID.String()]
		if !ok {
			rec = FallbackRecommendation(h)
			stats.Synthesized++
		}
		out = append(out, rec)
	}
	return out, stats
}

// FallbackRecommendation proposes a lighter session for h: same start, 15
// minutes shorter (never below 10 minutes), same weekdays.
func FallbackRecommendation(h domain.Habit) domain.Recommendation {
	start := strings.TrimSpace(h.StartTime)
	if start == "" {
		start = fallbackDefaultStart
	}
	end := strings.TrimSpace(h.EndTime)
	if end == "" {
		end = fallbackDefaultEnd
	}
	start = normalizeOrKeep(start)
	end = normalizeOrKeep(end)

	session := max(fallbackMinSession, domain.MinutesBetween(start, end)-fallbackTrimMinutes)
	newEnd, err := domain.AddMinutes(start, session)
	if err != nil {
		newEnd = end
	}

	name := strings.TrimSpace(h.Name)
	if name == "" {
		name = fallbackDefaultHabitNm
	}

	return domain.Recommendation{
		HabitID:   h.HabitID,
		Name:      name + fallbackNameSuffix,
		StartTime: start,
		EndTime:   newEnd,
		DayOfWeek: habitWeekdays(h),
	}
}

func matchName(name string, active []domain.Habit) (int, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false
	}
	for i, h := range active {
		if strings.EqualFold(name, strings.TrimSpace(h.Name)) {
			return i, true
		}
	}
	return 0, false
}

// fillFromHabit completes fields the generator left empty.
func fillFromHabit(rec domain.Recommendation, h domain.Habit) domain.Recommendation {
	if rec.Name == "" {
		rec.Name = h.Name
	}
	if rec.StartTime == "" {
		rec.StartTime = h.StartTime
	}
	if rec.EndTime == "" {
		rec.EndTime = h.EndTime
	}
	if len(rec.DayOfWeek) == 0 {
		rec.DayOfWeek = habitWeekdays(h)
	}
	return rec
}

func habitWeekdays(h domain.Habit) []int {
	if len(h.DayOfWeek) == 0 {
		return append([]int(nil), domain.DefaultWeekdays...)
	}
	return append([]int(nil), h.DayOfWeek...)
}

func normalizeOrKeep(clock string) string {
	if n, err := domain.NormalizeClock(clock); err == nil {
		return n
	}
	return clock
}
