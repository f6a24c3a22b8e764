package repositories

import (
	"context"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// TransmissionRepository persists the outgoing transmission queue.
type TransmissionRepository interface {
	// SaveUnit appends a new transmission unit.
	SaveUnit(ctx context.Context, unit domain.TransmissionUnit) error

	// FindUnitByID returns a unit or apperrors.ErrNotFound.
	FindUnitByID(ctx context.Context, unitID string) (*domain.TransmissionUnit, error)

	// FindPendingUnits returns all PENDING units FIFO by creation order.
	FindPendingUnits(ctx context.Context) ([]domain.TransmissionUnit, error)

	// FindRetryableUnits returns ERROR units whose nextRetryAt has elapsed
	// and whose retry budget is not exhausted, FIFO by creation order.
	FindRetryableUnits(ctx context.Context, now time.Time) ([]domain.TransmissionUnit, error)

	// FindUnitsByDeclaration returns the attempt history for a declaration,
	// newest first.
	FindUnitsByDeclaration(ctx context.Context, declarationID string) ([]domain.TransmissionUnit, error)

	// UpdateUnit persists attempt counters, status, errors and retry stamps.
	UpdateUnit(ctx context.Context, unit domain.TransmissionUnit) error

	// CountByStatus returns queue statistics.
	CountByStatus(ctx context.Context) (domain.QueueStats, error)
}
