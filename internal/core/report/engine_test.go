package report_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/report"
)

func fixedNow() time.Time {
	return time.Date(2024, 1, 17, 15, 30, 0, 0, time.UTC)
}

func weeklyBundle() domain.Bundle {
	return domain.Bundle{
		UserID:   domain.IntID(10),
		Nickname: "minji",
		Type:     "weekly",
		Habits: []domain.Habit{
			habit(domain.IntID(1), "Run", "09:00", "10:00", []int{1, 3, 5},
				entry("2024-01-15", true),
				entry("2024-01-16", false, "의지 부족"),
			),
			habit(domain.IntID(2), "Read", "21:00:00", "21:30:00", nil,
				entry("2024-01-16", false, "갑자기 비가 와서"),
			),
			habit(domain.IntID(3), "Old", "07:00", "07:30", nil,
				entry("2023-06-01", true),
			),
		},
	}
}

func TestEngine_ResolvePeriod(t *testing.T) {
	e := report.NewEngine(report.Config{Now: fixedNow})

	t.Run("Success: Weekly default window", func(t *testing.T) {
		typ, p, err := e.ResolvePeriod(weeklyBundle(), "", "")
		require.NoError(t, err)

		assert.Equal(t, domain.ReportWeekly, typ)
		assert.Equal(t, "2024-01-10", p.StartDate())
		assert.Equal(t, "2024-01-17", p.EndDate())
	})

	t.Run("Success: Unknown type falls back to monthly", func(t *testing.T) {
		b := weeklyBundle()
		b.Type = "yearly"

		typ, p, err := e.ResolvePeriod(b, "", "")
		require.NoError(t, err)

		assert.Equal(t, domain.ReportMonthly, typ)
		assert.Equal(t, "2023-12-18", p.StartDate())
	})

	t.Run("Success: Explicit range overrides the default", func(t *testing.T) {
		_, p, err := e.ResolvePeriod(weeklyBundle(), "2023-06-01", "2023-06-30")
		require.NoError(t, err)
		assert.Equal(t, "2023-06-01", p.StartDate())
	})

	t.Run("Error: Inverted range", func(t *testing.T) {
		_, _, err := e.ResolvePeriod(weeklyBundle(), "2024-02-01", "2024-01-01")
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
	})
}

func TestEngine_Prepare(t *testing.T) {
	e := report.NewEngine(report.Config{Now: fixedNow})

	t.Run("Success: Only active habits are prepared", func(t *testing.T) {
		_, p, _ := e.ResolvePeriod(weeklyBundle(), "", "")

		prep, err := e.Prepare(weeklyBundle(), p)
		require.NoError(t, err)

		require.Len(t, prep.Active, 2)
		assert.Equal(t, "21:00", prep.Active[1].StartTime)
		assert.Equal(t, 3, prep.Overall.Attempts)
		assert.Equal(t, 1, prep.Overall.Successes)
		assert.Equal(t, []string{"의지 부족"}, prep.Reasons[0].Reasons)
		assert.Equal(t, []string{"갑자기 비가 와서"}, prep.Reasons[1].Reasons)
		assert.Equal(t, 2, prep.Request.ExpectedRecommendations)
		assert.NotEmpty(t, prep.Request.Prompt)
	})

	t.Run("Success: Configured top k reaches the request", func(t *testing.T) {
		e := report.NewEngine(report.Config{Now: fixedNow, TopK: 3})
		_, p, _ := e.ResolvePeriod(weeklyBundle(), "", "")

		prep, err := e.Prepare(weeklyBundle(), p)
		require.NoError(t, err)
		assert.Equal(t, 3, prep.Request.TopK)
		assert.Contains(t, prep.Request.Prompt, "상위 3개")
	})

	t.Run("Error: No activity in the window", func(t *testing.T) {
		prep, err := e.Prepare(weeklyBundle(), period("2030-01-01", "2030-01-07"))

		assert.Nil(t, prep)
		assert.ErrorIs(t, err, domain.ErrNoActiveHabits)
	})
}

func TestEngine_Finalize(t *testing.T) {
	prepare := func(t *testing.T, e *report.Engine) *report.Preparation {
		t.Helper()
		_, p, err := e.ResolvePeriod(weeklyBundle(), "", "")
		require.NoError(t, err)
		prep, err := e.Prepare(weeklyBundle(), p)
		require.NoError(t, err)
		return prep
	}

	t.Run("Success: Partial reply is reconciled into a full record", func(t *testing.T) {
		e := report.NewEngine(report.Config{Now: fixedNow})
		prep := prepare(t, e)

		raw := "Sure!\n```json\n" + `{
			"start_date": "1999-01-01",
			"summary": {
				"empathetic_message": "잘하고 있어요",
				"per_habit_analysis": "달리기는 좋았어요"
			},
			"recommendation": [{"habit_id": 2, "name": "Read 15m", "start_time": "21:00", "end_time": "21:15", "day_of_week": [1]}]
		}` + "\n```"

		rec, stats, err := e.Finalize(prep, raw)
		require.NoError(t, err)

		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, "minji", rec.Nickname)
		assert.Equal(t, domain.ReportWeekly, rec.Type)
		assert.Equal(t, "2024-01-10", rec.StartDate)
		assert.Equal(t, "2024-01-17", rec.EndDate)
		assert.False(t, rec.Failed())

		require.Len(t, rec.Recommendation, 2)
		assert.Equal(t, []string{"1", "2"}, ids(rec.Recommendation))
		assert.Equal(t, "09:45", rec.Recommendation[0].EndTime)
		assert.Equal(t, "Read 15m", rec.Recommendation[1].Name)
		assert.Equal(t, 1, stats.Synthesized)

		assert.Equal(t, "달리기는 좋았어요\n잘하고 있어요", rec.Summary)
		require.NotNil(t, rec.ConsistencyIndex)
		assert.Equal(t, 33.3, rec.ConsistencyIndex.SuccessRate)
		assert.Equal(t, domain.LevelLow, rec.ConsistencyIndex.Level)
		assert.Equal(t, prep.Reasons, rec.TopFailureReasons)
		assert.Equal(t, fixedNow(), rec.CreatedAt)
	})

	t.Run("Success: Generated reasons are used when configured", func(t *testing.T) {
		e := report.NewEngine(report.Config{Now: fixedNow, ReasonSource: report.ReasonsGenerated})
		prep := prepare(t, e)

		rec, _, err := e.Finalize(prep, `{"top_failure_reasons": [{"name": "run", "reasons": ["늦잠"]}], "summary": "ok"}`)
		require.NoError(t, err)

		require.Len(t, rec.TopFailureReasons, 2)
		assert.Equal(t, []string{"늦잠"}, rec.TopFailureReasons[0].Reasons)
		assert.Equal(t, prep.Reasons[1], rec.TopFailureReasons[1])
	})

	t.Run("Success: Missing summary is filled from the stats", func(t *testing.T) {
		e := report.NewEngine(report.Config{Now: fixedNow})
		prep := prepare(t, e)

		rec, _, err := e.Finalize(prep, `{"recommendation": []}`)
		require.NoError(t, err)

		assert.Equal(t, report.DefaultSummary(prep), rec.Summary)
		assert.Contains(t, rec.Summary, "Run: 1/2 (50.0%)")
	})

	t.Run("Error: Unparseable reply keeps the raw text", func(t *testing.T) {
		e := report.NewEngine(report.Config{Now: fixedNow})
		prep := prepare(t, e)
		raw := "Sorry, I cannot help with that."

		rec, stats, err := e.Finalize(prep, raw)

		assert.ErrorIs(t, err, domain.ErrUnparseableReply)
		require.NotNil(t, rec)
		assert.True(t, rec.Failed())
		assert.Equal(t, raw, rec.RawResponse)
		assert.Equal(t, "2024-01-10", rec.StartDate)
		assert.Empty(t, rec.Recommendation)
		assert.Nil(t, rec.ConsistencyIndex)
		assert.True(t, stats.Clean())
	})
}

func TestEngine_TransportFailure(t *testing.T) {
	e := report.NewEngine(report.Config{Now: fixedNow})
	_, p, _ := e.ResolvePeriod(weeklyBundle(), "", "")
	prep, err := e.Prepare(weeklyBundle(), p)
	require.NoError(t, err)

	rec := e.TransportFailure(prep, errors.New("deadline exceeded"))

	assert.True(t, rec.Failed())
	assert.Contains(t, rec.Error, "deadline exceeded")
	assert.Empty(t, rec.RawResponse)
	assert.Equal(t, "2024-01-17", rec.EndDate)
}

func TestParseReasonSource(t *testing.T) {
	src, ok := report.ParseReasonSource("Generated")
	assert.True(t, ok)
	assert.Equal(t, report.ReasonsGenerated, src)

	src, ok = report.ParseReasonSource("llm")
	assert.False(t, ok)
	assert.Equal(t, report.ReasonsComputed, src)
}
