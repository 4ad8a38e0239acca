package domain

import (
	"errors"
	"time"
)

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrUnparseableReply  = errors.New("generation reply is not a JSON object")
	ErrGenerationFailed  = errors.New("report generation request failed")
	ErrGeneratorDisabled = errors.New("report generator is not configured")
)

type ConsistencyLevel string

const (
	LevelLow    ConsistencyLevel = "low"
	LevelMedium ConsistencyLevel = "medium"
	LevelHigh   ConsistencyLevel = "high"
)

type ConsistencyThresholds struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
}

type ConsistencyIndex struct {
	SuccessRate float64               `json:"success_rate"`
	Level       ConsistencyLevel      `json:"level"`
	Thresholds  ConsistencyThresholds `json:"thresholds"`
}

type FailureReasons struct {
	HabitID ID       `json:"habit_id"`
	Name    string   `json:"name"`
	Reasons []string `json:"reasons"`
}

type Recommendation struct {
	HabitID   ID     `json:"habit_id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	DayOfWeek []int  `json:"day_of_week"`
}

// ReportRecord is the final output of one report run. Fallback records carry
// Error (and RawResponse for unparseable replies) next to the period fields.
type ReportRecord struct {
	ID                string            `json:"id"`
	UserID            ID                `json:"user_id"`
	Nickname          string            `json:"nickname"`
	Type              ReportType        `json:"type"`
	StartDate         string            `json:"start_date"`
	EndDate           string            `json:"end_date"`
	TopFailureReasons []FailureReasons  `json:"top_failure_reasons"`
	ConsistencyIndex  *ConsistencyIndex `json:"consistency_index,omitempty"`
	Summary           string            `json:"summary,omitempty"`
	Recommendation    []Recommendation  `json:"recommendation"`
	Error             string            `json:"error,omitempty"`
	RawResponse       string            `json:"raw_response,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

func (r *ReportRecord) Failed() bool {
	return r.Error != ""
}
