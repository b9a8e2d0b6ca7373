package models

import (
	"time"

	"github.com/google/uuid"
)

// Report types accepted by the backend
const (
	ReportFraud         = "FRAUD"
	ReportFalsePositive = "FALSE_POSITIVE"
	ReportFeedback      = "FEEDBACK"
)

// ReportInput is a user-filed report about a message or a verdict
type ReportInput struct {
	MessageID      *uuid.UUID `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	VerificationID *uuid.UUID `json:"verification_id,omitempty" yaml:"verification_id,omitempty"`
	ReportType     string     `json:"report_type" yaml:"report_type" validate:"required,oneof=FRAUD FALSE_POSITIVE FEEDBACK"`
	Content        string     `json:"content" yaml:"content" validate:"required,notblank,max=1000"`
	SenderHeader   string     `json:"sender_header" yaml:"sender_header" validate:"required,notblank,max=50"`
	Description    string     `json:"description" yaml:"description" validate:"required,notblank,max=500"`
}

// Report is a filed report as returned by the backend
type Report struct {
	ID           uuid.UUID  `json:"id" yaml:"id"`
	ReportType   string     `json:"report_type" yaml:"report_type"`
	Content      string     `json:"content" yaml:"content"`
	SenderHeader string     `json:"sender_header" yaml:"sender_header"`
	Description  string     `json:"description" yaml:"description"`
	Status       string     `json:"status" yaml:"status"`
	Priority     string     `json:"priority" yaml:"priority"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty" yaml:"reviewed_at,omitempty"`
	ReviewNotes  *string    `json:"review_notes,omitempty" yaml:"review_notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
}

// ReportList is the data payload of the report listing endpoint
type ReportList struct {
	Reports []Report `json:"reports"`
}

// ReportStats holds aggregate report counters
type ReportStats struct {
	TotalReports    int            `json:"total_reports" yaml:"total_reports"`
	PendingReports  int            `json:"pending_reports" yaml:"pending_reports"`
	ResolvedReports int            `json:"resolved_reports" yaml:"resolved_reports"`
	ByType          map[string]int `json:"by_type" yaml:"by_type"`
	ByPriority      map[string]int `json:"by_priority" yaml:"by_priority"`
	Last24Hours     int            `json:"last_24_hours" yaml:"last_24_hours"`
	Last7Days       int            `json:"last_7_days" yaml:"last_7_days"`
}
