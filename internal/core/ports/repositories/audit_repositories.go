package repositories

import (
	"context"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// AuditRepository persists the audit trail of state-changing operations.
type AuditRepository interface {
	// SaveAuditLog appends an audit entry.
	SaveAuditLog(ctx context.Context, log domain.AuditLog) error

	// FindByEntity returns the audit history of one entity, newest first.
	FindByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditLog, error)
}
