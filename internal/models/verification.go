package models

import (
	"time"

	"github.com/google/uuid"
)

// Risk levels reported by the scoring backend
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// Message channels accepted by the verify endpoint
const (
	MessageTypeSMS      = "SMS"
	MessageTypeWhatsApp = "WhatsApp"
	MessageTypeEmail    = "Email"
)

// FraudTypes maps backend fraud type codes to display labels
var FraudTypes = map[string]string{
	"kyc_fraud":     "KYC Fraud",
	"phishing":      "Phishing",
	"vishing":       "Vishing",
	"urgency_scam":  "Urgency Scam",
	"impersonation": "Impersonation",
	"generic_fraud": "Generic Fraud",
	"none":          "None",
}

// VerificationRequest is a message submitted for scoring
type VerificationRequest struct {
	Content      string     `json:"content" yaml:"content" validate:"required,notblank,max=1000"`
	SenderHeader string     `json:"sender_header" yaml:"sender_header" validate:"required,notblank,max=50"`
	MessageType  string     `json:"message_type,omitempty" yaml:"message_type,omitempty" validate:"omitempty,oneof=SMS WhatsApp Email"`
	ReceivedAt   *time.Time `json:"received_at,omitempty" yaml:"received_at,omitempty"`
	PhoneNumber  string     `json:"phone_number,omitempty" yaml:"phone_number,omitempty" validate:"omitempty,phone"`
}

// VerificationResult is the backend's verdict on one message
type VerificationResult struct {
	ID               uuid.UUID      `json:"id" yaml:"id" validate:"required"`
	MessageID        uuid.UUID      `json:"message_id" yaml:"message_id"`
	IsFraud          bool           `json:"is_fraud" yaml:"is_fraud"`
	FraudScore       float64        `json:"fraud_score" yaml:"fraud_score" validate:"gte=0,lte=1"`
	FraudType        *string        `json:"fraud_type,omitempty" yaml:"fraud_type,omitempty" validate:"omitempty,oneof=kyc_fraud phishing vishing urgency_scam impersonation generic_fraud none"`
	Confidence       float64        `json:"confidence" yaml:"confidence" validate:"gte=0,lte=1"`
	RiskLevel        string         `json:"risk_level" yaml:"risk_level" validate:"oneof=LOW MEDIUM HIGH CRITICAL"`
	HeaderVerified   bool           `json:"header_verified" yaml:"header_verified"`
	RBICompliant     bool           `json:"rbi_compliant" yaml:"rbi_compliant"`
	Explanation      string         `json:"explanation" yaml:"explanation"`
	Recommendations  []string       `json:"recommendations" yaml:"recommendations"`
	ModelPredictions map[string]any `json:"model_predictions,omitempty" yaml:"model_predictions,omitempty"`
	ProcessingTimeMs int            `json:"processing_time_ms" yaml:"processing_time_ms"`
	VerifiedAt       time.Time      `json:"verified_at" yaml:"verified_at"`
}

// VerificationHistory is the data payload of the history endpoint
type VerificationHistory struct {
	Verifications []VerificationResult `json:"verifications"`
}

// VerificationStats holds aggregate counters for the current user
type VerificationStats struct {
	TotalVerifications int     `json:"total_verifications" yaml:"total_verifications"`
	FraudDetected      int     `json:"fraud_detected" yaml:"fraud_detected"`
	FraudRate          float64 `json:"fraud_rate" yaml:"fraud_rate"`
	AvgFraudScore      float64 `json:"avg_fraud_score" yaml:"avg_fraud_score"`
	AvgProcessingTime  float64 `json:"avg_processing_time" yaml:"avg_processing_time"`
	Last24Hours        int     `json:"last_24_hours" yaml:"last_24_hours"`
	Last7Days          int     `json:"last_7_days" yaml:"last_7_days"`
}
