package pgsql

import (
	"context"
	"fmt"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditRepository struct {
	pool *pgxpool.Pool
}

// NewPgxAuditRepository creates the postgres-backed audit trail.
func NewPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepository {
	return &PgxAuditRepository{pool: pool}
}

func (r *PgxAuditRepository) SaveAuditLog(ctx context.Context, log domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (audit_id, entity_type, entity_id, action,
		                        before_data, after_data, notes, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.pool.Exec(ctx, query,
		log.AuditID,
		log.EntityType,
		log.EntityID,
		log.Action,
		log.BeforeData,
		log.AfterData,
		log.Notes,
		log.ActorID,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit log %s: %w", log.AuditID, err)
	}
	return nil
}

func (r *PgxAuditRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditLog, error) {
	query := `
		SELECT audit_id, entity_type, entity_id, action,
		       before_data, after_data, notes, actor_id, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC;
	`
	rows, err := r.pool.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs for %s/%s: %w", entityType, entityID, err)
	}
	defer rows.Close()

	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditLog, error) {
		var log domain.AuditLog
		err := row.Scan(
			&log.AuditID,
			&log.EntityType,
			&log.EntityID,
			&log.Action,
			&log.BeforeData,
			&log.AfterData,
			&log.Notes,
			&log.ActorID,
			&log.CreatedAt,
		)
		return log, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit logs: %w", err)
	}
	return logs, nil
}
