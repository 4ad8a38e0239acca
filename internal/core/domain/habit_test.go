package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

const bundleJSON = `{
	"user_id": 10,
	"nickname": "minji",
	"age": 29,
	"type": "weekly",
	"habits": [
		{
			"habit_id": 1,
			"name": "Run",
			"day_of_week": [1, 3, 5],
			"start_time": "09:00",
			"end_time": "10:00",
			"habit_log": [
				{"date": "2024-01-15", "completed": true},
				{"date": "2024-01-16", "completed": false, "failure_reason": ["피곤"]}
			]
		},
		{"habit_id": "read-1", "name": "Read", "habit_log": []}
	]
}`

func TestBundle_Decode(t *testing.T) {
	var b domain.Bundle
	require.NoError(t, json.Unmarshal([]byte(bundleJSON), &b))

	assert.Equal(t, "10", b.UserID.String())
	assert.True(t, b.UserID.IsNumeric())
	require.NotNil(t, b.Age)
	assert.Equal(t, 29, *b.Age)
	assert.Nil(t, b.BirthYear)

	require.Len(t, b.Habits, 2)
	assert.Equal(t, []int{1, 3, 5}, b.Habits[0].DayOfWeek)
	assert.Equal(t, []string{"피곤"}, b.Habits[0].HabitLog[1].FailureReason)
	assert.Equal(t, "read-1", b.Habits[1].HabitID.String())
	assert.False(t, b.Habits[1].HabitID.IsNumeric())

	assert.NoError(t, b.Validate())
}

func TestBundle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bundle  domain.Bundle
		wantErr bool
	}{
		{
			name:   "Success: Valid bundle",
			bundle: domain.Bundle{UserID: domain.IntID(1), Habits: []domain.Habit{{HabitID: domain.IntID(1)}, {HabitID: domain.IntID(2)}}},
		},
		{
			name:   "Success: No habits is still a valid bundle",
			bundle: domain.Bundle{UserID: domain.NewID("u1")},
		},
		{
			name:    "Error: Missing user id",
			bundle:  domain.Bundle{Habits: []domain.Habit{{HabitID: domain.IntID(1)}}},
			wantErr: true,
		},
		{
			name:    "Error: Missing habit id",
			bundle:  domain.Bundle{UserID: domain.IntID(1), Habits: []domain.Habit{{Name: "x"}}},
			wantErr: true,
		},
		{
			name:    "Error: Duplicate habit id across kinds",
			bundle:  domain.Bundle{UserID: domain.IntID(1), Habits: []domain.Habit{{HabitID: domain.IntID(4)}, {HabitID: domain.NewID("4")}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bundle.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidBundle)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBundle_DisplayName(t *testing.T) {
	assert.Equal(t, "minji", domain.Bundle{UserID: domain.IntID(1), Nickname: " minji "}.DisplayName())
	assert.Equal(t, "1", domain.Bundle{UserID: domain.IntID(1)}.DisplayName())
}

func TestHabit_Clone(t *testing.T) {
	h := domain.Habit{
		HabitID:   domain.IntID(1),
		DayOfWeek: []int{1, 2},
		HabitLog: []domain.HabitLogEntry{
			{Date: "2024-01-01", FailureReason: []string{"피곤"}},
		},
	}

	c := h.Clone()
	c.DayOfWeek[0] = 7
	c.HabitLog[0].Date = "2025-01-01"
	c.HabitLog[0].FailureReason[0] = "changed"

	assert.Equal(t, 1, h.DayOfWeek[0])
	assert.Equal(t, "2024-01-01", h.HabitLog[0].Date)
	assert.Equal(t, "피곤", h.HabitLog[0].FailureReason[0])
}
