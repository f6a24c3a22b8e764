package domain

import (
	"encoding/json"
	"time"
)

// AuditAction enumerates the state-changing operations recorded on the trail.
type AuditAction string

const (
	AuditActionCreate      AuditAction = "CREATE"
	AuditActionUpdate      AuditAction = "UPDATE"
	AuditActionDelete      AuditAction = "DELETE"
	AuditActionLock        AuditAction = "LOCK"
	AuditActionUnlock      AuditAction = "UNLOCK"
	AuditActionGenerateXML AuditAction = "GENERATE_XML"
	AuditActionSubmit      AuditAction = "SUBMIT"
	AuditActionTransmit    AuditAction = "TRANSMIT"
	AuditActionResponse    AuditAction = "RESPONSE_PROCESSED"
)

// AuditLog is one entry on the audit trail, recorded on every
// state-changing operation.
type AuditLog struct {
	AuditID    string          `json:"auditID"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityID"`
	Action     AuditAction     `json:"action"`
	BeforeData json.RawMessage `json:"beforeData,omitempty"`
	AfterData  json.RawMessage `json:"afterData,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	ActorID    string          `json:"actorID"`
	CreatedAt  time.Time       `json:"createdAt"`
}
