package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ domain.ReportRepository = (*PostgresReportRepository)(nil)

const uniqueViolation = "23505"

const reportSchema = `
CREATE TABLE IF NOT EXISTS report_records (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    report_type TEXT NOT NULL,
    start_date  TEXT NOT NULL,
    end_date    TEXT NOT NULL,
    payload     JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    UNIQUE (user_id, report_type, start_date, end_date)
);
CREATE INDEX IF NOT EXISTS idx_report_records_latest
    ON report_records (user_id, report_type, created_at DESC);`

// OpenPostgres connects with either the "pgx" or the "postgres" (lib/pq)
// driver and applies the pool settings used by the API server.
func OpenPostgres(driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "pgx"
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: connect %s: %w", driver, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

type PostgresReportRepository struct {
	db *sqlx.DB
}

func NewPostgresReportRepository(db *sqlx.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

func (r *PostgresReportRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, reportSchema); err != nil {
		return fmt.Errorf("repository: migrate report_records: %w", err)
	}
	return nil
}

type reportRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	ReportType string    `db:"report_type"`
	StartDate  string    `db:"start_date"`
	EndDate    string    `db:"end_date"`
	Payload    []byte    `db:"payload"`
	CreatedAt  time.Time `db:"created_at"`
}

// Save stores rec. A second report for the same user, type and period
// replaces the first one.
func (r *PostgresReportRepository) Save(ctx context.Context, rec *domain.ReportRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("repository: marshal report: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO report_records (id, user_id, report_type, start_date, end_date, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID.String(), string(rec.Type), rec.StartDate, rec.EndDate, string(payload), rec.CreatedAt,
	)
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("repository: insert report failed: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE report_records
		SET id = $1, payload = $6, created_at = $7
		WHERE user_id = $2 AND report_type = $3 AND start_date = $4 AND end_date = $5`,
		rec.ID, rec.UserID.String(), string(rec.Type), rec.StartDate, rec.EndDate, string(payload), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: replace report failed: %w", err)
	}
	return nil
}

func (r *PostgresReportRepository) GetLatest(ctx context.Context, userID domain.ID, reportType domain.ReportType) (*domain.ReportRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var row reportRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, user_id, report_type, start_date, end_date, payload, created_at
		FROM report_records
		WHERE user_id = $1 AND report_type = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		userID.String(), string(reportType),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("repository: get latest report failed: %w", err)
	}

	var rec domain.ReportRecord
	if err := json.Unmarshal(row.Payload, &rec); err != nil {
		return nil, fmt.Errorf("repository: corrupted report %s: %w", row.ID, err)
	}
	return &rec, nil
}

// isUniqueViolation recognizes the error of either supported driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
