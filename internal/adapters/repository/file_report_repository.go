package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

var _ domain.ReportRepository = (*FileReportRepository)(nil)

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// FileReportRepository writes one JSON file per user and report type:
//
//	<root>/weekly_report/user_<id>_<nickname>_weekly_report.json
//
// Raw replies that could not be parsed are kept next to them as
// _raw_<id>_<nickname>_<type>.txt.
type FileReportRepository struct {
	root string
}

func NewFileReportRepository(root string) *FileReportRepository {
	return &FileReportRepository{root: root}
}

func (r *FileReportRepository) dir(t domain.ReportType) string {
	return filepath.Join(r.root, fmt.Sprintf("%s_report", t))
}

func safeName(s string) string {
	return unsafeFileChars.ReplaceAllString(s, "_")
}

// ReportPath is where rec is written.
func (r *FileReportRepository) ReportPath(rec *domain.ReportRecord) string {
	name := fmt.Sprintf("user_%s_%s_%s_report.json", safeName(rec.UserID.String()), safeName(rec.Nickname), rec.Type)
	return filepath.Join(r.dir(rec.Type), name)
}

func (r *FileReportRepository) RawPath(rec *domain.ReportRecord) string {
	name := fmt.Sprintf("_raw_%s_%s_%s.txt", safeName(rec.UserID.String()), safeName(rec.Nickname), rec.Type)
	return filepath.Join(r.dir(rec.Type), name)
}

func (r *FileReportRepository) Save(ctx context.Context, rec *domain.ReportRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("repository: marshal report: %w", err)
	}
	return writeFileAtomic(r.ReportPath(rec), data)
}

// SaveRaw keeps the unparsed reply of a failed run for later inspection.
func (r *FileReportRepository) SaveRaw(ctx context.Context, rec *domain.ReportRecord) error {
	if rec.RawResponse == "" {
		return nil
	}
	return writeFileAtomic(r.RawPath(rec), []byte(rec.RawResponse))
}

func (r *FileReportRepository) GetLatest(ctx context.Context, userID domain.ID, reportType domain.ReportType) (*domain.ReportRecord, error) {
	pattern := filepath.Join(r.dir(reportType), fmt.Sprintf("user_%s_*_%s_report.json", safeName(userID.String()), reportType))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("repository: glob reports: %w", err)
	}

	var latest *domain.ReportRecord
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("repository: read %s: %w", path, err)
		}
		var rec domain.ReportRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("repository: corrupted report %s: %w", path, err)
		}
		if !rec.UserID.Equal(userID) {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = &rec
		}
	}

	if latest == nil {
		return nil, domain.ErrReportNotFound
	}
	return latest, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("repository: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("repository: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("repository: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("repository: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Join(fmt.Errorf("repository: rename into %s", path), err)
	}
	return nil
}
