package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/authz"
	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/notification"
	"github.com/ram-app/ram-api/internal/repository"
)

type ReportHandler struct {
	reportRepository repository.ReportRepository
	notifications    notification.Service
	logger           zerolog.Logger
}

func NewReportHandler(reportRepository repository.ReportRepository, notifications notification.Service, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reportRepository: reportRepository,
		notifications:    notifications,
		logger:           logger,
	}
}

func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	reporterID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		SubjectType string `json:"subject_type"`
		SubjectID   string `json:"subject_id"`
		Reason      string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	subject := models.ReportSubject(strings.ToLower(strings.TrimSpace(req.SubjectType)))
	if !models.IsValidReportSubject(subject) {
		http.Error(w, "subject_type must be pet, provider or post", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.SubjectID) == "" || strings.TrimSpace(req.Reason) == "" {
		http.Error(w, "subject_id and reason are required", http.StatusBadRequest)
		return
	}

	report, err := h.reportRepository.CreateReport(r.Context(), models.Report{
		ReporterID: reporterID,
		Subject:    subject,
		SubjectID:  strings.TrimSpace(req.SubjectID),
		Reason:     req.Reason,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create report")
		http.Error(w, "failed to create report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(report)
}

func (h *ReportHandler) ListOpenReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reportRepository.ListOpenReports(r.Context(), intQuery(r, "limit", 50))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list reports")
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reports)
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := pathID(w, r, "reportID")
	if !ok {
		return
	}

	report, err := h.reportRepository.GetReportByID(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("report_id", reportID).Msg("failed to load report")
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (h *ReportHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := pathID(w, r, "reportID")
	if !ok {
		return
	}

	adminID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	status := models.ReportStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != models.ReportStatusResolved && status != models.ReportStatusRejected {
		http.Error(w, "status must be resolved or rejected", http.StatusBadRequest)
		return
	}

	report, err := h.reportRepository.ResolveReport(r.Context(), reportID, adminID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Absent or already handled; the conditional update refused.
			http.Error(w, "report not found or already handled", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Str("report_id", reportID).Msg("failed to resolve report")
		http.Error(w, "failed to resolve report", http.StatusInternalServerError)
		return
	}

	if _, err := h.notifications.Publish(r.Context(), notification.Event{
		UserID:  report.ReporterID,
		Event:   models.NotificationEventReportUpdated,
		Title:   "Your report was reviewed",
		Message: "A moderator marked your report as " + string(report.Status) + ".",
	}); err != nil {
		h.logger.Warn().Err(err).Str("report_id", reportID).Msg("report notification dropped")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
