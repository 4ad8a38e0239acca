package domain

import "context"

type ReportRepository interface {
	// Save stores a finished report. Saving a report for the same user, type
	// and period again replaces the previous one.
	Save(ctx context.Context, report *ReportRecord) error

	// GetLatest returns the most recently created report of the given type.
	GetLatest(ctx context.Context, userID ID, reportType ReportType) (*ReportRecord, error)
}
