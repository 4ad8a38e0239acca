package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/report"
	"github.com/comitanigiacomo/kanso-report-engine/internal/metrics"
)

const (
	DefaultGenerationTimeout = 60 * time.Second
	DefaultBatchConcurrency  = 4
)

type ReportConfig struct {
	GenerationTimeout time.Duration
	BatchConcurrency  int
}

type ReportService struct {
	engine    *report.Engine
	generator report.Generator
	repo      domain.ReportRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       ReportConfig
}

// NewReportService wires the engine to its collaborators. generator may be
// nil, in which case every run ends with a generation failure record.
func NewReportService(engine *report.Engine, generator report.Generator, repo domain.ReportRepository, m *metrics.Metrics, logger *zap.Logger, cfg ReportConfig) *ReportService {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultGenerationTimeout
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = DefaultBatchConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		engine:    engine,
		generator: generator,
		repo:      repo,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
	}
}

type GenerateInput struct {
	Bundle    domain.Bundle
	StartDate string
	EndDate   string
}

// Generate runs one report. Validation problems and an empty period return
// an error and no record. When the generator fails or its reply cannot be
// read, the fallback record is returned together with an error wrapping
// ErrGenerationFailed or ErrUnparseableReply. Only clean records are stored.
func (s *ReportService) Generate(ctx context.Context, in GenerateInput) (*domain.ReportRecord, error) {
	if err := in.Bundle.Validate(); err != nil {
		return nil, err
	}

	if _, ok := domain.ParseReportType(in.Bundle.Type); !ok {
		s.logger.Warn("unknown report type, using monthly",
			zap.String("user_id", in.Bundle.UserID.String()),
			zap.String("type", in.Bundle.Type),
		)
	}

	reportType, period, err := s.engine.ResolvePeriod(in.Bundle, in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	prep, err := s.engine.Prepare(in.Bundle, period)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveHabits) {
			s.metrics.RecordReport(string(reportType), string(StatusNoData))
		}
		return nil, err
	}

	raw, err := s.callGenerator(ctx, prep)
	if err != nil {
		s.metrics.RecordReport(string(reportType), string(StatusGenerationFailed))
		s.logger.Error("report generation failed",
			zap.String("user_id", in.Bundle.UserID.String()),
			zap.Error(err),
		)
		return s.engine.TransportFailure(prep, err), fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	rec, stats, err := s.engine.Finalize(prep, raw)
	if err != nil {
		s.metrics.RecordReport(string(reportType), string(StatusParseFailed))
		s.logger.Error("report reply could not be parsed",
			zap.String("user_id", in.Bundle.UserID.String()),
			zap.Int("raw_len", len(raw)),
			zap.Error(err),
		)
		return rec, err
	}

	if !stats.Clean() {
		s.metrics.RecordRepairs(stats.RepairedByName, stats.RepairedFallback, stats.DuplicatesDropped, stats.Synthesized)
		s.logger.Info("recommendations reconciled",
			zap.String("user_id", in.Bundle.UserID.String()),
			zap.Int("by_name", stats.RepairedByName),
			zap.Int("fallback_id", stats.RepairedFallback),
			zap.Int("duplicates", stats.DuplicatesDropped),
			zap.Int("synthesized", stats.Synthesized),
		)
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, rec); err != nil {
			s.metrics.RecordReport(string(reportType), string(StatusError))
			return rec, fmt.Errorf("report service: failed to save report: %w", err)
		}
	}

	s.metrics.RecordReport(string(reportType), string(StatusOK))
	return rec, nil
}

func (s *ReportService) callGenerator(ctx context.Context, prep *report.Preparation) (string, error) {
	if s.generator == nil {
		return "", domain.ErrGeneratorDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.generator.Generate(ctx, prep.Request)
	if err != nil {
		s.metrics.ObserveGeneration("error", time.Since(start))
		return "", err
	}
	s.metrics.ObserveGeneration("ok", time.Since(start))
	return raw, nil
}

// Latest returns the most recent stored report of a user.
func (s *ReportService) Latest(ctx context.Context, userID domain.ID, reportType domain.ReportType) (*domain.ReportRecord, error) {
	if s.repo == nil {
		return nil, domain.ErrReportNotFound
	}
	return s.repo.GetLatest(ctx, userID, reportType)
}

type BatchStatus string

const (
	StatusOK               BatchStatus = "ok"
	StatusNoData           BatchStatus = "no_data"
	StatusInvalid          BatchStatus = "invalid"
	StatusGenerationFailed BatchStatus = "generation_failed"
	StatusParseFailed      BatchStatus = "parse_failed"
	StatusError            BatchStatus = "error"
)

// BatchInput is one unit of a batch. Err carries a failure that happened
// before the bundle could be read; such inputs are reported, not run.
type BatchInput struct {
	Source    string
	Bundle    domain.Bundle
	StartDate string
	EndDate   string
	Err       error
}

type BatchResult struct {
	Source   string               `json:"source,omitempty"`
	UserID   domain.ID            `json:"user_id"`
	Nickname string               `json:"nickname,omitempty"`
	Type     domain.ReportType    `json:"type,omitempty"`
	Status   BatchStatus          `json:"status"`
	Error    string               `json:"error,omitempty"`
	Report   *domain.ReportRecord `json:"report,omitempty"`
}

// RunBatch generates reports for every input concurrently and returns one
// result per input, in input order. A failing input never stops the others.
func (s *ReportService) RunBatch(ctx context.Context, inputs []BatchInput) []BatchResult {
	s.metrics.ObserveBatch(len(inputs))
	results := make([]BatchResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(s.cfg.BatchConcurrency)

	for i, in := range inputs {
		g.Go(func() error {
			results[i] = s.runOne(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, r := range results {
		if r.Status == StatusOK {
			ok++
		}
	}
	s.logger.Info("batch finished", zap.Int("total", len(results)), zap.Int("ok", ok))
	return results
}

func (s *ReportService) runOne(ctx context.Context, in BatchInput) BatchResult {
	res := BatchResult{
		Source:   in.Source,
		UserID:   in.Bundle.UserID,
		Nickname: in.Bundle.Nickname,
	}
	res.Type, _ = domain.ParseReportType(in.Bundle.Type)

	if in.Err != nil {
		res.Status = StatusInvalid
		res.Error = in.Err.Error()
		return res
	}

	rec, err := s.Generate(ctx, GenerateInput{Bundle: in.Bundle, StartDate: in.StartDate, EndDate: in.EndDate})
	res.Report = rec
	res.Status = StatusFor(err)
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// StatusFor maps a Generate error to its batch status.
func StatusFor(err error) BatchStatus {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, domain.ErrNoActiveHabits):
		return StatusNoData
	case errors.Is(err, domain.ErrInvalidBundle), errors.Is(err, domain.ErrInvalidPeriod):
		return StatusInvalid
	case errors.Is(err, domain.ErrGenerationFailed):
		return StatusGenerationFailed
	case errors.Is(err, domain.ErrUnparseableReply):
		return StatusParseFailed
	default:
		return StatusError
	}
}
