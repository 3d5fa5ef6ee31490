package models

import "time"

type ReportStatus string

const (
	ReportStatusOpen     ReportStatus = "open"
	ReportStatusResolved ReportStatus = "resolved"
	ReportStatusRejected ReportStatus = "rejected"
)

type ReportSubject string

const (
	ReportSubjectPet      ReportSubject = "pet"
	ReportSubjectProvider ReportSubject = "provider"
	ReportSubjectPost     ReportSubject = "post"
)

// Report is a moderation complaint filed by a user against a pet profile,
// a directory entry, or a blog post.
type Report struct {
	ID         string        `json:"id"`
	ReporterID string        `json:"reporter_id"`
	Subject    ReportSubject `json:"subject_type"`
	SubjectID  string        `json:"subject_id"`
	Reason     string        `json:"reason"`
	Status     ReportStatus  `json:"status"`
	ResolvedBy *string       `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

func IsValidReportSubject(s ReportSubject) bool {
	switch s {
	case ReportSubjectPet, ReportSubjectProvider, ReportSubjectPost:
		return true
	}
	return false
}
