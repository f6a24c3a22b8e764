package dto

import (
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// IncomingMessageResponse mirrors a stored authority response.
type IncomingMessageResponse struct {
	MessageID         string                 `json:"messageID"`
	DocumentType      string                 `json:"documentType"`
	DeclarationID     string                 `json:"declarationID"`
	DocumentNumber    string                 `json:"documentNumber"`
	CeisaReference    string                 `json:"ceisaReference,omitempty"`
	Status            string                 `json:"status"`
	Parsed            *domain.ParsedResponse `json:"parsed,omitempty"`
	ErrorGroups       []domain.ErrorGroup    `json:"errorGroups,omitempty"`
	IntegrityVerified bool                   `json:"integrityVerified"`
	ReceivedAt        time.Time              `json:"receivedAt"`
	ProcessedAt       *time.Time             `json:"processedAt,omitempty"`
}

// SimulateResponseRequest asks the simulator to generate an authority
// response for a declaration, for testing without the real channel.
type SimulateResponseRequest struct {
	DeclarationID string `json:"declarationID" binding:"required"`
	Outcome       string `json:"outcome" binding:"required,oneof=ACCEPT REJECT PENDING RECEIVE"`
}

// ToIncomingMessageResponse maps a domain incoming message to its API shape.
func ToIncomingMessageResponse(m *domain.IncomingMessage) IncomingMessageResponse {
	return IncomingMessageResponse{
		MessageID:         m.MessageID,
		DocumentType:      string(m.DocumentType),
		DeclarationID:     m.DeclarationID,
		DocumentNumber:    m.DocumentNumber,
		CeisaReference:    m.CeisaReference,
		Status:            string(m.Status),
		Parsed:            m.Parsed,
		ErrorGroups:       m.ErrorGroups,
		IntegrityVerified: m.IntegrityVerified,
		ReceivedAt:        m.ReceivedAt,
		ProcessedAt:       m.ProcessedAt,
	}
}
