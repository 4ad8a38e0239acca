package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

const DefaultTopK = 2

// Generator turns a request into free-form reply text. Implementations live
// in the adapters layer.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// ReasonSource selects where a record's top_failure_reasons come from.
type ReasonSource string

const (
	ReasonsComputed  ReasonSource = "computed"
	ReasonsGenerated ReasonSource = "generated"
)

func ParseReasonSource(s string) (ReasonSource, bool) {
	switch ReasonSource(strings.ToLower(strings.TrimSpace(s))) {
	case ReasonsComputed:
		return ReasonsComputed, true
	case ReasonsGenerated:
		return ReasonsGenerated, true
	}
	return ReasonsComputed, false
}

type Config struct {
	TopK         int
	ReasonSource ReasonSource
	Now          func() time.Time
}

// Engine holds no state between runs; one value can serve many goroutines.
type Engine struct {
	topK         int
	reasonSource ReasonSource
	now          func() time.Time
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		topK:         cfg.TopK,
		reasonSource: cfg.ReasonSource,
		now:          cfg.Now,
	}
	if e.topK <= 0 {
		e.topK = DefaultTopK
	}
	if e.reasonSource == "" {
		e.reasonSource = ReasonsComputed
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Preparation is the locally computed half of a report run.
type Preparation struct {
	Bundle  domain.Bundle
	Type    domain.ReportType
	Period  domain.Period
	Active  []domain.Habit
	Stats   []domain.HabitStats
	Overall domain.OverallStats
	Reasons []domain.FailureReasons
	Request GenerationRequest
}

// ResolvePeriod returns the bundle's report type and the window to report
// on. Explicit dates must both be present to override the default lookback.
func (e *Engine) ResolvePeriod(b domain.Bundle, startDate, endDate string) (domain.ReportType, domain.Period, error) {
	reportType, _ := domain.ParseReportType(b.Type)
	p, err := domain.ResolvePeriod(reportType, startDate, endDate, e.now())
	if err != nil {
		return reportType, domain.Period{}, err
	}
	return reportType, p, nil
}

func (e *Engine) Prepare(b domain.Bundle, p domain.Period) (*Preparation, error) {
	reportType, _ := domain.ParseReportType(b.Type)

	active := ActiveHabits(b.Habits, p)
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: %s ~ %s", domain.ErrNoActiveHabits, p.StartDate(), p.EndDate())
	}

	stats, overall := AggregateAll(active)
	req, err := BuildRequest(b, reportType, p, active, stats, overall, e.topK)
	if err != nil {
		return nil, err
	}

	return &Preparation{
		Bundle:  b,
		Type:    reportType,
		Period:  p,
		Active:  active,
		Stats:   stats,
		Overall: overall,
		Reasons: ComputeFailureReasons(active, e.topK),
		Request: req,
	}, nil
}

// Finalize merges the generator's raw reply with the prepared data. A reply
// that cannot be read as an object yields a fallback record that keeps the
// raw text, together with an error wrapping ErrUnparseableReply. Any other
// deviation is repaired silently and reported through ReconcileStats.
func (e *Engine) Finalize(prep *Preparation, raw string) (*domain.ReportRecord, ReconcileStats, error) {
	obj, err := ParseReply(raw).Object()
	if err != nil {
		rec := e.fallbackRecord(prep)
		rec.Error = err.Error()
		rec.RawResponse = raw
		return rec, ReconcileStats{}, err
	}

	recs, stats := ReconcileRecommendations(ParseRecommendations(obj), prep.Active)

	reasons := prep.Reasons
	if e.reasonSource == ReasonsGenerated {
		reasons = AlignFailureReasons(AttachFailureReasons(obj, prep.Active), prep.Reasons, prep.Active)
	}

	summary := asSummary(obj["summary"])
	if summary == "" {
		summary = DefaultSummary(prep)
	}

	rec := e.newRecord(prep)
	rec.TopFailureReasons = reasons
	rec.ConsistencyIndex = NewConsistencyIndex(prep.Overall.SuccessRate)
	rec.Summary = summary
	rec.Recommendation = recs
	return rec, stats, nil
}

// TransportFailure builds the record for a run whose generator call failed.
func (e *Engine) TransportFailure(prep *Preparation, cause error) *domain.ReportRecord {
	rec := e.fallbackRecord(prep)
	rec.Error = fmt.Errorf("%w: %v", domain.ErrGenerationFailed, cause).Error()
	return rec
}

// DefaultSummary describes the period's numbers when the reply has none.
func DefaultSummary(prep *Preparation) string {
	var b strings.Builder
	for _, s := range prep.Stats {
		fmt.Fprintf(&b, "%s: %d/%d (%.1f%%)\n", s.Name, s.Successes, s.Attempts, s.SuccessRate)
	}
	fmt.Fprintf(&b, "전체 성공률: %.1f%% (%d/%d)", prep.Overall.SuccessRate, prep.Overall.Successes, prep.Overall.Attempts)
	return b.String()
}

func (e *Engine) newRecord(prep *Preparation) *domain.ReportRecord {
	return &domain.ReportRecord{
		ID:        uuid.NewString(),
		UserID:    prep.Bundle.UserID,
		Nickname:  prep.Bundle.DisplayName(),
		Type:      prep.Type,
		StartDate: prep.Period.StartDate(),
		EndDate:   prep.Period.EndDate(),
		CreatedAt: e.now().UTC(),
	}
}

func (e *Engine) fallbackRecord(prep *Preparation) *domain.ReportRecord {
	rec := e.newRecord(prep)
	rec.TopFailureReasons = []domain.FailureReasons{}
	rec.Recommendation = []domain.Recommendation{}
	return rec
}
