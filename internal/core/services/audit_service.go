package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/google/uuid"
)

// auditServiceImpl records state-changing operations on the audit trail.
type auditServiceImpl struct {
	BaseService
	auditRepo portsrepo.AuditRepository
}

// NewAuditService creates the audit trail service.
func NewAuditService(repo portsrepo.AuditRepository) portssvc.AuditSvcFacade {
	return &auditServiceImpl{auditRepo: repo}
}

var _ portssvc.AuditSvcFacade = (*auditServiceImpl)(nil)

// Record appends an audit entry. Failures are logged, never propagated:
// the business operation being audited has already committed.
func (s *auditServiceImpl) Record(ctx context.Context, entityType, entityID string, action domain.AuditAction, before, after any, notes, actorID string) {
	entry := domain.AuditLog{
		AuditID:    uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Notes:      notes,
		ActorID:    actorID,
		CreatedAt:  time.Now(),
	}
	entry.BeforeData = marshalSnapshot(before)
	entry.AfterData = marshalSnapshot(after)

	if err := s.auditRepo.SaveAuditLog(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to record audit entry",
			slog.String("entity_type", entityType),
			slog.String("entity_id", entityID),
			slog.String("action", string(action)))
	}
}

func (s *auditServiceImpl) History(ctx context.Context, entityType, entityID string) ([]domain.AuditLog, error) {
	logs, err := s.auditRepo.FindByEntity(ctx, entityType, entityID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load audit history",
			slog.String("entity_type", entityType),
			slog.String("entity_id", entityID))
		return nil, err
	}
	if logs == nil {
		return []domain.AuditLog{}, nil
	}
	return logs, nil
}

func marshalSnapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
