package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/report"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     report.FailureCategory
		wantText string
	}{
		{"Willpower phrase", "의지 부족 때문에 못했어요", report.CategoryWillpower, ""},
		{"Willpower procrastination", "계속 미루다가 못함", report.CategoryWillpower, ""},
		{"Health sleep", "수면 부족", report.CategoryHealth, ""},
		{"Health extra spaces", "  컨디션    저하  ", report.CategoryHealth, ""},
		{"Over ambitious", "목표가 너무 버겁다", report.CategoryOverAmbitious, ""},
		{"Time scarcity", "회사 업무가 많아서", report.CategoryTimeScarcity, ""},
		{"Schedule conflict", "친구와 약속", report.CategoryScheduleConflict, ""},
		{"Weather goes to catch-all", "날씨가 너무 더움", report.CategoryOther, "날씨가 너무 더움"},
		{"Unmatched keeps text", "갑자기 비가 와서", report.CategoryOther, "갑자기 비가 와서"},
		{"Empty", "   ", report.CategoryOther, ""},
		{"First match wins", "피곤하고 하기 싫었음", report.CategoryWillpower, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := report.Classify(tt.input)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, tt.wantText, got.Text)
		})
	}
}

func TestFailureCategory_Label(t *testing.T) {
	assert.Equal(t, "의지 부족", report.CategoryWillpower.Label())
	assert.Equal(t, "기타 (직접 입력)", report.CategoryOther.Label())
	assert.Equal(t, "schedule_conflict", report.CategoryScheduleConflict.String())
}

func TestTopFailureReasons(t *testing.T) {
	t.Run("Success: Catch-all slot is replaced by user text by frequency", func(t *testing.T) {
		h := habit(domain.IntID(7), "Walk", "", "", nil,
			entry("2024-01-10", false, "피곤"),
			entry("2024-01-11", false, "피곤"),
			entry("2024-01-12", false, "친구 약속"),
			entry("2024-01-13", false, "눈이 많이"),
			entry("2024-01-14", false, "갑자기 비가 와서"),
			entry("2024-01-15", false, "갑자기 비가 와서"),
			entry("2024-01-16", true, "피곤"),
		)

		fr := report.TopFailureReasons(h, 2)

		assert.Equal(t, "7", fr.HabitID.String())
		assert.Equal(t, "Walk", fr.Name)
		assert.Equal(t, []string{"갑자기 비가 와서", "눈이 많이", "건강 문제"}, fr.Reasons)
	})

	t.Run("Success: Ties are broken by category priority", func(t *testing.T) {
		h := habit(domain.IntID(1), "A", "", "", nil,
			entry("2024-01-10", false, "마감"),
			entry("2024-01-11", false, "두통"),
			entry("2024-01-12", false, "귀찮"),
		)

		fr := report.TopFailureReasons(h, 2)

		assert.Equal(t, []string{"의지 부족", "건강 문제"}, fr.Reasons)
	})

	t.Run("Success: Equal text counts keep first-seen order", func(t *testing.T) {
		h := habit(domain.IntID(1), "A", "", "", nil,
			entry("2024-01-10", false, "고양이"),
			entry("2024-01-11", false, "강아지"),
			entry("2024-01-12", false, "햄스터"),
		)

		fr := report.TopFailureReasons(h, 2)

		assert.Equal(t, []string{"고양이", "강아지"}, fr.Reasons)
	})

	t.Run("Edge Case: No failures yields an empty list", func(t *testing.T) {
		h := habit(domain.IntID(1), "A", "", "", nil, entry("2024-01-10", true))

		fr := report.TopFailureReasons(h, 2)

		assert.NotNil(t, fr.Reasons)
		assert.Empty(t, fr.Reasons)
	})

	t.Run("Edge Case: Empty reason counts as catch-all without text", func(t *testing.T) {
		h := habit(domain.IntID(1), "A", "", "", nil, entry("2024-01-10", false, ""))

		fr := report.TopFailureReasons(h, 2)

		assert.Equal(t, []string{"기타 (직접 입력)"}, fr.Reasons)
	})
}

func TestComputeFailureReasons(t *testing.T) {
	out := report.ComputeFailureReasons(activeFixture(), 2)

	assert.Len(t, out, 3)
	assert.Equal(t, "1", out[0].HabitID.String())
	assert.Equal(t, []string{"건강 문제"}, out[1].Reasons)
}
