package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

var _ domain.ReportRepository = (*InMemoryReportRepository)(nil)

// InMemoryReportRepository keeps the latest report per user and type. It is
// used when no database is configured and in tests.
type InMemoryReportRepository struct {
	store map[string][]byte

	mu sync.RWMutex
}

func NewInMemoryReportRepository() *InMemoryReportRepository {
	return &InMemoryReportRepository{
		store: make(map[string][]byte),
	}
}

func latestKey(userID domain.ID, reportType domain.ReportType) string {
	return fmt.Sprintf("%s|%s", userID.String(), reportType)
}

func (r *InMemoryReportRepository) Save(ctx context.Context, rec *domain.ReportRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("repository: marshal report: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := latestKey(rec.UserID, rec.Type)
	if prev, ok := r.store[key]; ok {
		var old domain.ReportRecord
		if err := json.Unmarshal(prev, &old); err == nil && old.CreatedAt.After(rec.CreatedAt) {
			return nil
		}
	}
	r.store[key] = data
	return nil
}

func (r *InMemoryReportRepository) GetLatest(ctx context.Context, userID domain.ID, reportType domain.ReportType) (*domain.ReportRecord, error) {
	r.mu.RLock()
	data, ok := r.store[latestKey(userID, reportType)]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrReportNotFound
	}

	var rec domain.ReportRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("repository: corrupted report: %w", err)
	}
	return &rec, nil
}
