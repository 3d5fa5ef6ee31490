package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ram-app/ram-api/internal/models"
)

type ReportRepository interface {
	CreateReport(ctx context.Context, report models.Report) (models.Report, error)
	GetReportByID(ctx context.Context, reportID string) (models.Report, error)
	ListOpenReports(ctx context.Context, limit int) ([]models.Report, error)
	// ResolveReport transitions an open report; resolving an already
	// handled report affects no rows.
	ResolveReport(ctx context.Context, reportID, adminID string, status models.ReportStatus) (models.Report, error)
}

type reportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

const reportColumns = `id, reporter_id, subject_type, subject_id, reason, status, resolved_by, resolved_at, created_at`

func (r *reportRepository) CreateReport(ctx context.Context, report models.Report) (models.Report, error) {
	const query = `
		INSERT INTO reports (reporter_id, subject_type, subject_id, reason, status)
		VALUES ($1, $2, $3, $4, 'open')
		RETURNING id, status, created_at`
	err := r.db.QueryRowContext(ctx, query,
		report.ReporterID,
		report.Subject,
		report.SubjectID,
		strings.TrimSpace(report.Reason),
	).Scan(&report.ID, &report.Status, &report.CreatedAt)
	if err != nil {
		return models.Report{}, err
	}
	return report, nil
}

func (r *reportRepository) GetReportByID(ctx context.Context, reportID string) (models.Report, error) {
	const query = `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE id = $1`
	return scanReport(r.db.QueryRowContext(ctx, query, reportID))
}

func (r *reportRepository) ListOpenReports(ctx context.Context, limit int) ([]models.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	const query = `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE status = 'open'
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var report models.Report
		var resolvedBy sql.NullString
		var resolvedAt sql.NullTime
		if err := rows.Scan(&report.ID, &report.ReporterID, &report.Subject, &report.SubjectID, &report.Reason, &report.Status, &resolvedBy, &resolvedAt, &report.CreatedAt); err != nil {
			return nil, err
		}
		if resolvedBy.Valid {
			report.ResolvedBy = &resolvedBy.String
		}
		if resolvedAt.Valid {
			t := resolvedAt.Time
			report.ResolvedAt = &t
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (r *reportRepository) ResolveReport(ctx context.Context, reportID, adminID string, status models.ReportStatus) (models.Report, error) {
	const query = `
		UPDATE reports
		SET status = $3, resolved_by = $2, resolved_at = now()
		WHERE id = $1 AND status = 'open'
		RETURNING ` + reportColumns
	return scanReport(r.db.QueryRowContext(ctx, query, reportID, adminID, status))
}

func scanReport(row *sql.Row) (models.Report, error) {
	var report models.Report
	var resolvedBy sql.NullString
	var resolvedAt sql.NullTime
	err := row.Scan(&report.ID, &report.ReporterID, &report.Subject, &report.SubjectID, &report.Reason, &report.Status, &resolvedBy, &resolvedAt, &report.CreatedAt)
	if err != nil {
		return models.Report{}, err
	}
	if resolvedBy.Valid {
		report.ResolvedBy = &resolvedBy.String
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		report.ResolvedAt = &t
	}
	return report, nil
}
