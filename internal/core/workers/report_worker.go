package workers

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-report-engine/internal/metrics"
)

const defaultQueueSize = 100

type BatchRunner interface {
	RunBatch(ctx context.Context, inputs []services.BatchInput) []services.BatchResult
}

// ResultSink receives the results of a finished background batch.
type ResultSink func(jobID string, results []services.BatchResult)

type BatchJob struct {
	ID     string
	Inputs []services.BatchInput
}

type ReportWorker struct {
	runner  BatchRunner
	sink    ResultSink
	metrics *metrics.Metrics
	logger  *zap.Logger
	jobs    chan BatchJob
}

func NewReportWorker(runner BatchRunner, sink ResultSink, m *metrics.Metrics, logger *zap.Logger, queueSize int) *ReportWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportWorker{
		runner:  runner,
		sink:    sink,
		metrics: m,
		logger:  logger,
		jobs:    make(chan BatchJob, queueSize),
	}
}

func (w *ReportWorker) Start(ctx context.Context) {
	go func() {
		w.logger.Info("report worker started")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				w.logger.Info("report worker shutting down")
				return
			}
		}
	}()
}

// Enqueue schedules a batch and returns its job id. It never blocks: when
// the queue is full the batch is dropped and ok is false.
func (w *ReportWorker) Enqueue(inputs []services.BatchInput) (jobID string, ok bool) {
	job := BatchJob{ID: uuid.NewString(), Inputs: inputs}
	select {
	case w.jobs <- job:
		return job.ID, true
	default:
		w.metrics.RecordQueueDrop()
		w.logger.Warn("report worker queue full, dropping batch", zap.Int("bundles", len(inputs)))
		return "", false
	}
}

func (w *ReportWorker) processJob(ctx context.Context, job BatchJob) {
	results := w.runner.RunBatch(ctx, job.Inputs)

	failed := 0
	for _, r := range results {
		if r.Status != services.StatusOK {
			failed++
		}
	}
	w.logger.Info("background batch done",
		zap.String("job_id", job.ID),
		zap.Int("bundles", len(results)),
		zap.Int("not_ok", failed),
	)

	if w.sink != nil {
		w.sink(job.ID, results)
	}
}
