package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

func TestParseReportType(t *testing.T) {
	typ, ok := domain.ParseReportType(" Weekly ")
	assert.True(t, ok)
	assert.Equal(t, domain.ReportWeekly, typ)
	assert.Equal(t, 7, typ.LookbackDays())

	typ, ok = domain.ParseReportType("")
	assert.False(t, ok)
	assert.Equal(t, domain.ReportMonthly, typ)
	assert.Equal(t, 30, typ.LookbackDays())
}

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)

	t.Run("Success: Default weekly window is inclusive of today", func(t *testing.T) {
		p, err := domain.ResolvePeriod(domain.ReportWeekly, "", "", now)
		require.NoError(t, err)

		assert.Equal(t, "2024-02-23", p.StartDate())
		assert.Equal(t, "2024-03-01", p.EndDate())
		assert.True(t, p.Contains(now))
		assert.True(t, p.Contains(time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC)))
		assert.False(t, p.Contains(time.Date(2024, 2, 22, 23, 0, 0, 0, time.UTC)))
	})

	t.Run("Success: Only one explicit date keeps the default", func(t *testing.T) {
		p, err := domain.ResolvePeriod(domain.ReportMonthly, "2024-01-01", "", now)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-31", p.StartDate())
	})

	t.Run("Success: Explicit range", func(t *testing.T) {
		p, err := domain.ResolvePeriod(domain.ReportWeekly, "2024-01-01", "2024-01-01", now)
		require.NoError(t, err)
		assert.Equal(t, p.Start, p.End)
	})

	t.Run("Error: Malformed date", func(t *testing.T) {
		_, err := domain.ResolvePeriod(domain.ReportWeekly, "2024-01-01", "tomorrow", now)
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
		assert.ErrorIs(t, err, domain.ErrInvalidDate)
	})

	t.Run("Error: Start after end", func(t *testing.T) {
		_, err := domain.ResolvePeriod(domain.ReportWeekly, "2024-01-02", "2024-01-01", now)
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
	})
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, domain.Rate(0, 0))
	assert.Equal(t, 50.0, domain.Rate(1, 2))
}
