package services

import (
	"context"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// TransmissionSvcFacade owns the outgoing queue: it is the only component
// that attempts delivery, counts retries and schedules backoff. It never
// owns a timer; an external scheduler polls RetryItems / ProcessRetries.
type TransmissionSvcFacade interface {
	// Enqueue canonicalizes, hashes and signs the declaration and appends
	// a PENDING unit. Callers must not double-enqueue an already-queued
	// declaration.
	Enqueue(ctx context.Context, declaration *domain.Declaration, userID string) (*domain.TransmissionUnit, error)

	// Transmit performs one delivery attempt for the unit. Concurrent
	// calls for the same declaration are serialized per document id.
	Transmit(ctx context.Context, unitID string) (*domain.TransmissionResult, error)

	// ProcessQueue drains all PENDING units FIFO by creation order.
	ProcessQueue(ctx context.Context) ([]domain.TransmissionResult, error)

	// RetryItems lists ERROR units whose nextRetryAt has elapsed with
	// attempts remaining.
	RetryItems(ctx context.Context) ([]domain.TransmissionUnit, error)

	// ProcessRetries re-transmits everything RetryItems returns.
	ProcessRetries(ctx context.Context) ([]domain.TransmissionResult, error)

	GetUnit(ctx context.Context, unitID string) (*domain.TransmissionUnit, error)
	ListUnitsByDeclaration(ctx context.Context, declarationID string) ([]domain.TransmissionUnit, error)
	QueueStats(ctx context.Context) (domain.QueueStats, error)
}

// CeisaClient is the outbound port to the clearance authority channel.
// Implementations return the raw response XML on success, or a
// *domain.TransmissionError classifying the failure.
type CeisaClient interface {
	SubmitDeclaration(ctx context.Context, unit domain.TransmissionUnit) (responseXML string, err error)
}
