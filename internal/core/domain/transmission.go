package domain

import "time"

// TransmissionStatus is the delivery-level status of a queued message.
type TransmissionStatus string

const (
	TransmissionPending  TransmissionStatus = "PENDING"
	TransmissionSent     TransmissionStatus = "SENT"
	TransmissionReceived TransmissionStatus = "RECEIVED"
	TransmissionAccepted TransmissionStatus = "ACCEPTED"
	TransmissionRejected TransmissionStatus = "REJECTED"
	TransmissionErrored  TransmissionStatus = "ERROR"
)

// FailureKind classifies a transmission failure. Only NETWORK and TIMEOUT
// are retryable; a retry must never be spent on an error it cannot fix.
type FailureKind string

const (
	FailureNetwork          FailureKind = "NETWORK"
	FailureTimeout          FailureKind = "TIMEOUT"
	FailureValidation       FailureKind = "VALIDATION"
	FailureServer           FailureKind = "SERVER"
	FailureUnknown          FailureKind = "UNKNOWN"
	FailureMaxRetryExceeded FailureKind = "MAX_RETRY_EXCEEDED"
	FailureDocumentLocked   FailureKind = "DOCUMENT_LOCKED"
)

// IsRetryable reports whether a failure of this kind may schedule a retry.
func (k FailureKind) IsRetryable() bool {
	return k == FailureNetwork || k == FailureTimeout
}

// DefaultMaxRetries is the fixed retry budget for a transmission unit.
const DefaultMaxRetries = 3

// TransmissionUnit is one queued delivery attempt history for a declaration.
// It is owned exclusively by the queue until it reaches a terminal status
// or exhausts its retries.
type TransmissionUnit struct {
	UnitID         string             `json:"unitID"`
	DocumentType   DocumentType       `json:"documentType"`
	DeclarationID  string             `json:"declarationID"`
	DocumentNumber string             `json:"documentNumber"`
	XMLContent     string             `json:"xmlContent"`
	XMLHash        string             `json:"xmlHash"`
	Status         TransmissionStatus `json:"status"`
	RetryCount     int                `json:"retryCount"`
	MaxRetries     int                `json:"maxRetries"`
	Errors         []string           `json:"errors"`
	CreatedAt      time.Time          `json:"createdAt"`
	LastAttemptAt  *time.Time         `json:"lastAttemptAt,omitempty"`
	NextRetryAt    *time.Time         `json:"nextRetryAt,omitempty"`
}

// RetriesExhausted reports whether the unit has used its full retry budget.
func (u *TransmissionUnit) RetriesExhausted() bool {
	return u.RetryCount >= u.MaxRetries
}

// NextBackoff returns the exponential backoff delay for the current attempt
// count: 2^retryCount minutes.
func (u *TransmissionUnit) NextBackoff() time.Duration {
	return time.Duration(1<<uint(u.RetryCount)) * time.Minute
}

// TransmissionError is a classified failure returned by the authority
// client. The kind decides whether the queue may schedule a retry.
type TransmissionError struct {
	Kind    FailureKind
	Message string
}

func (e *TransmissionError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// TransmissionResult is returned to the caller after a transmit attempt.
type TransmissionResult struct {
	Success        bool               `json:"success"`
	MessageID      string             `json:"message_id"`
	CeisaReference string             `json:"ceisa_reference,omitempty"`
	Status         TransmissionStatus `json:"status"`
	FailureKind    FailureKind        `json:"failure_kind,omitempty"`
	RetryAllowed   bool               `json:"retry_allowed"`
	Errors         []string           `json:"errors,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}

// QueueStats exposes per-status counts of the outgoing queue.
type QueueStats struct {
	Pending  int `json:"pending"`
	Sent     int `json:"sent"`
	Received int `json:"received"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Errored  int `json:"errored"`
}
