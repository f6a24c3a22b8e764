package dto

import (
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// TransmissionUnitResponse mirrors a queued transmission unit. The raw XML
// is omitted from list views; the archive export endpoint serves content.
type TransmissionUnitResponse struct {
	UnitID         string     `json:"unitID"`
	DocumentType   string     `json:"documentType"`
	DeclarationID  string     `json:"declarationID"`
	DocumentNumber string     `json:"documentNumber"`
	XMLHash        string     `json:"xmlHash"`
	Status         string     `json:"status"`
	RetryCount     int        `json:"retryCount"`
	MaxRetries     int        `json:"maxRetries"`
	Errors         []string   `json:"errors,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastAttemptAt  *time.Time `json:"lastAttemptAt,omitempty"`
	NextRetryAt    *time.Time `json:"nextRetryAt,omitempty"`
}

// ListTransmissionUnitsResponse wraps a unit list.
type ListTransmissionUnitsResponse struct {
	Units []TransmissionUnitResponse `json:"units"`
}

// ProcessQueueResponse reports the results of one queue drain.
type ProcessQueueResponse struct {
	Results []domain.TransmissionResult `json:"results"`
}

// ToTransmissionUnitResponse maps a domain unit to its API shape.
func ToTransmissionUnitResponse(unit domain.TransmissionUnit) TransmissionUnitResponse {
	return TransmissionUnitResponse{
		UnitID:         unit.UnitID,
		DocumentType:   string(unit.DocumentType),
		DeclarationID:  unit.DeclarationID,
		DocumentNumber: unit.DocumentNumber,
		XMLHash:        unit.XMLHash,
		Status:         string(unit.Status),
		RetryCount:     unit.RetryCount,
		MaxRetries:     unit.MaxRetries,
		Errors:         unit.Errors,
		CreatedAt:      unit.CreatedAt,
		LastAttemptAt:  unit.LastAttemptAt,
		NextRetryAt:    unit.NextRetryAt,
	}
}

// ToTransmissionUnitResponses maps a unit slice.
func ToTransmissionUnitResponses(units []domain.TransmissionUnit) []TransmissionUnitResponse {
	out := make([]TransmissionUnitResponse, 0, len(units))
	for _, unit := range units {
		out = append(out, ToTransmissionUnitResponse(unit))
	}
	return out
}
