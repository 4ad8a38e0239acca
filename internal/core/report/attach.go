package report

import (
	"strings"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

// AttachFailureReasons reads top_failure_reasons from a reply object and
// makes sure every entry points at an active habit. The singular key and a
// bare object are both accepted. Entries are returned in reply order.
func AttachFailureReasons(obj map[string]any, active []domain.Habit) []domain.FailureReasons {
	raw, ok := obj["top_failure_reasons"]
	if !ok || raw == nil {
		raw = obj["top_failure_reason"]
	}

	items := asObjects(raw)
	if len(items) == 0 || len(active) == 0 {
		return []domain.FailureReasons{}
	}

	out := make([]domain.FailureReasons, 0, len(items))
	for _, item := range items {
		id, _ := domain.ParseID(item["habit_id"])
		name := asString(item["name"])
		h := active[resolveHabit(id, name, active)]

		reasons := asStrings(item["reasons"])
		if reasons == nil {
			reasons = asStrings(item["reason"])
		}
		if reasons == nil {
			reasons = []string{}
		}
		if name == "" {
			name = h.Name
		}

		out = append(out, domain.FailureReasons{
			HabitID: h.HabitID,
			Name:    name,
			Reasons: reasons,
		})
	}
	return out
}

// AlignFailureReasons returns one entry per active habit, in order. The first
// generated entry with reasons wins; habits the reply skipped or left empty
// get the computed entry.
func AlignFailureReasons(generated, computed []domain.FailureReasons, active []domain.Habit) []domain.FailureReasons {
	byID := make(map[string]domain.FailureReasons, len(generated))
	for _, fr := range generated {
		if len(fr.Reasons) == 0 {
			continue
		}
		key := fr.HabitID.String()
		if _, ok := byID[key]; !ok {
			byID[key] = fr
		}
	}
	for _, fr := range computed {
		key := fr.HabitID.String()
		if _, ok := byID[key]; !ok {
			byID[key] = fr
		}
	}

	out := make([]domain.FailureReasons, 0, len(active))
	for _, h := range active {
		fr, ok := byID[h.HabitID.String()]
		if !ok {
			fr = domain.FailureReasons{HabitID: h.HabitID, Name: h.Name, Reasons: []string{}}
		}
		out = append(out, fr)
	}
	return out
}

// resolveHabit picks the index of the active habit an entry belongs to:
// matching id, then exact name, then substring either way, then the first.
func resolveHabit(id domain.ID, name string, active []domain.Habit) int {
	if !id.IsZero() {
		for i, h := range active {
			if h.HabitID.Equal(id) {
				return i
			}
		}
	}

	if idx, ok := matchName(name, active); ok {
		return idx
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle != "" {
		for i, h := range active {
			hay := strings.ToLower(strings.TrimSpace(h.Name))
			if hay == "" {
				continue
			}
			if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
				return i
			}
		}
	}

	return 0
}
