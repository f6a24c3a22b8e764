package services

import (
	"context"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// AuditSvcFacade records every state-changing operation on the audit trail.
type AuditSvcFacade interface {
	// Record serializes before/after snapshots and appends an audit entry.
	// Audit failures are logged, never propagated: the business operation
	// has already happened.
	Record(ctx context.Context, entityType, entityID string, action domain.AuditAction, before, after any, notes, actorID string)

	History(ctx context.Context, entityType, entityID string) ([]domain.AuditLog, error)
}
