package report

import (
	"regexp"
	"sort"
	"strings"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

// FailureCategory is one of the six failure reason buckets. The numeric
// value is also the tie-break priority: lower wins.
type FailureCategory int

const (
	CategoryWillpower FailureCategory = iota
	CategoryHealth
	CategoryOverAmbitious
	CategoryTimeScarcity
	CategoryScheduleConflict
	CategoryOther
)

var Categories = []FailureCategory{
	CategoryWillpower,
	CategoryHealth,
	CategoryOverAmbitious,
	CategoryTimeScarcity,
	CategoryScheduleConflict,
	CategoryOther,
}

func (c FailureCategory) String() string {
	switch c {
	case CategoryWillpower:
		return "willpower"
	case CategoryHealth:
		return "health"
	case CategoryOverAmbitious:
		return "over_ambitious_goal"
	case CategoryTimeScarcity:
		return "time_scarcity"
	case CategoryScheduleConflict:
		return "schedule_conflict"
	default:
		return "other"
	}
}

// Label is the text shown to end users.
func (c FailureCategory) Label() string {
	switch c {
	case CategoryWillpower:
		return "의지 부족"
	case CategoryHealth:
		return "건강 문제"
	case CategoryOverAmbitious:
		return "과도한 목표 설정"
	case CategoryTimeScarcity:
		return "시간 부족"
	case CategoryScheduleConflict:
		return "일정 충돌"
	default:
		return "기타 (직접 입력)"
	}
}

type classificationRule struct {
	pattern  *regexp.Regexp
	category FailureCategory
}

// Evaluated top to bottom; the first match wins.
var classificationRules = []classificationRule{
	// procrastination, low motivation, "didn't feel like it"
	{regexp.MustCompile(`의욕\s*저하|동기\s*저하|하기\s*싫|미루|귀찮|의지\s*부족|싫어서|노트북\s*펴기\s*싫`), CategoryWillpower},
	// fatigue, sleep, illness, pain
	{regexp.MustCompile(`피곤|피로|수면\s*부족|졸림|늦잠|알람\s*(못\s*들음|실패)|컨디션\s*저하|감기|두통|생리|근육통|통증|부상|과로|몸\s*상태\s*안좋`), CategoryHealth},
	// goal too big, too long, too frequent
	{regexp.MustCompile(`과도|무리|버겁|부담|강도\s*높|시간\s*너무\s*길|빈도\s*너무\s*잦|목표\s*크|빡세`), CategoryOverAmbitious},
	// work, school, chores
	{regexp.MustCompile(`시간\s*부족|바쁨|바빠|업무|회사|과제|숙제|시험\s*공부|준비\s*하느라|마감|알바|출근|등교|가사|집안일`), CategoryTimeScarcity},
	// appointments, events, travel, weekends
	{regexp.MustCompile(`일정\s*충돌|외출\s*일정|약속|행사|모임|여행|스케줄\s*겹|주말|공휴일`), CategoryScheduleConflict},
	// weather goes to the catch-all on purpose so the user's own words are shown
	{regexp.MustCompile(`날씨|더움|추움|폭염|폭우|눈\s*옴|한파|비\s*옴`), CategoryOther},
}

// Classification is the result of classifying one free-text reason. Text is
// only set for CategoryOther.
type Classification struct {
	Category FailureCategory
	Text     string
}

func Classify(text string) Classification {
	original := strings.TrimSpace(text)
	if original == "" {
		return Classification{Category: CategoryOther}
	}

	normalized := strings.Join(strings.Fields(strings.ToLower(original)), " ")
	for _, rule := range classificationRules {
		if rule.pattern.MatchString(normalized) {
			if rule.category == CategoryOther {
				break
			}
			return Classification{Category: rule.category}
		}
	}
	return Classification{Category: CategoryOther, Text: original}
}

// TopFailureReasons ranks the failure categories of h's failed entries and
// returns the top k labels. Ties are broken by category priority. A
// catch-all slot is replaced by up to k of the user's own reasons, most
// frequent first and then in first-seen order.
func TopFailureReasons(h domain.Habit, k int) domain.FailureReasons {
	counts := make(map[FailureCategory]int)
	textCounts := make(map[string]int)
	var textOrder []string

	for _, e := range h.HabitLog {
		if e.Completed {
			continue
		}
		for _, raw := range e.FailureReason {
			c := Classify(raw)
			counts[c.Category]++
			if c.Text == "" {
				continue
			}
			if _, seen := textCounts[c.Text]; !seen {
				textOrder = append(textOrder, c.Text)
			}
			textCounts[c.Text]++
		}
	}

	ranked := make([]FailureCategory, 0, len(counts))
	for _, c := range Categories {
		if counts[c] > 0 {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	reasons := make([]string, 0, len(ranked))
	for _, c := range ranked {
		if c != CategoryOther || len(textOrder) == 0 {
			reasons = append(reasons, c.Label())
			continue
		}

		texts := append([]string(nil), textOrder...)
		sort.SliceStable(texts, func(i, j int) bool {
			return textCounts[texts[i]] > textCounts[texts[j]]
		})
		if len(texts) > k {
			texts = texts[:k]
		}
		reasons = append(reasons, texts...)
	}

	return domain.FailureReasons{
		HabitID: h.HabitID,
		Name:    h.Name,
		Reasons: reasons,
	}
}

// ComputeFailureReasons returns one entry per habit, in order.
func ComputeFailureReasons(active []domain.Habit, k int) []domain.FailureReasons {
	out := make([]domain.FailureReasons, 0, len(active))
	for _, h := range active {
		out = append(out, TopFailureReasons(h, k))
	}
	return out
}
