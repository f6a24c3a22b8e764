package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const unitColumns = `
	unit_id, document_type, declaration_id, document_number,
	xml_content, xml_hash, status, retry_count, max_retries, errors,
	created_at, last_attempt_at, next_retry_at`

type PgxTransmissionRepository struct {
	pool *pgxpool.Pool
}

// NewPgxTransmissionRepository creates the postgres-backed outgoing queue.
func NewPgxTransmissionRepository(pool *pgxpool.Pool) portsrepo.TransmissionRepository {
	return &PgxTransmissionRepository{pool: pool}
}

func (r *PgxTransmissionRepository) SaveUnit(ctx context.Context, unit domain.TransmissionUnit) error {
	query := `
		INSERT INTO transmission_units (` + unitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.pool.Exec(ctx, query,
		unit.UnitID,
		unit.DocumentType,
		unit.DeclarationID,
		unit.DocumentNumber,
		unit.XMLContent,
		unit.XMLHash,
		unit.Status,
		unit.RetryCount,
		unit.MaxRetries,
		unit.Errors,
		unit.CreatedAt,
		unit.LastAttemptAt,
		unit.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save transmission unit %s: %w", unit.UnitID, err)
	}
	return nil
}

func (r *PgxTransmissionRepository) FindUnitByID(ctx context.Context, unitID string) (*domain.TransmissionUnit, error) {
	query := `SELECT ` + unitColumns + ` FROM transmission_units WHERE unit_id = $1;`

	unit, err := scanUnit(r.pool.QueryRow(ctx, query, unitID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transmission unit %s: %w", unitID, err)
	}
	return unit, nil
}

// FindPendingUnits returns PENDING units FIFO by creation order; the queue
// drains oldest first.
func (r *PgxTransmissionRepository) FindPendingUnits(ctx context.Context) ([]domain.TransmissionUnit, error) {
	query := `SELECT ` + unitColumns + `
		FROM transmission_units
		WHERE status = 'PENDING'
		ORDER BY created_at;
	`
	return r.collectUnits(ctx, query)
}

// FindRetryableUnits returns ERROR units whose backoff has elapsed and
// whose retry budget is not exhausted.
func (r *PgxTransmissionRepository) FindRetryableUnits(ctx context.Context, now time.Time) ([]domain.TransmissionUnit, error) {
	query := `SELECT ` + unitColumns + `
		FROM transmission_units
		WHERE status = 'ERROR'
		  AND next_retry_at IS NOT NULL
		  AND next_retry_at <= $1
		  AND retry_count < max_retries
		ORDER BY created_at;
	`
	return r.collectUnits(ctx, query, now)
}

func (r *PgxTransmissionRepository) FindUnitsByDeclaration(ctx context.Context, declarationID string) ([]domain.TransmissionUnit, error) {
	query := `SELECT ` + unitColumns + `
		FROM transmission_units
		WHERE declaration_id = $1
		ORDER BY created_at DESC;
	`
	return r.collectUnits(ctx, query, declarationID)
}

func (r *PgxTransmissionRepository) collectUnits(ctx context.Context, query string, args ...any) ([]domain.TransmissionUnit, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transmission units: %w", err)
	}
	defer rows.Close()

	units, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TransmissionUnit, error) {
		unit, err := scanUnit(row)
		if err != nil {
			return domain.TransmissionUnit{}, err
		}
		return *unit, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan transmission units: %w", err)
	}
	return units, nil
}

func (r *PgxTransmissionRepository) UpdateUnit(ctx context.Context, unit domain.TransmissionUnit) error {
	query := `
		UPDATE transmission_units
		SET status = $2, retry_count = $3, errors = $4,
		    last_attempt_at = $5, next_retry_at = $6
		WHERE unit_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query,
		unit.UnitID,
		unit.Status,
		unit.RetryCount,
		unit.Errors,
		unit.LastAttemptAt,
		unit.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update transmission unit %s: %w", unit.UnitID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxTransmissionRepository) CountByStatus(ctx context.Context) (domain.QueueStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'SENT'),
			COUNT(*) FILTER (WHERE status = 'RECEIVED'),
			COUNT(*) FILTER (WHERE status = 'ACCEPTED'),
			COUNT(*) FILTER (WHERE status = 'REJECTED'),
			COUNT(*) FILTER (WHERE status = 'ERROR')
		FROM transmission_units;
	`
	var stats domain.QueueStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Pending,
		&stats.Sent,
		&stats.Received,
		&stats.Accepted,
		&stats.Rejected,
		&stats.Errored,
	)
	if err != nil {
		return domain.QueueStats{}, fmt.Errorf("failed to count transmission units: %w", err)
	}
	return stats, nil
}

func scanUnit(row pgx.Row) (*domain.TransmissionUnit, error) {
	var unit domain.TransmissionUnit
	err := row.Scan(
		&unit.UnitID,
		&unit.DocumentType,
		&unit.DeclarationID,
		&unit.DocumentNumber,
		&unit.XMLContent,
		&unit.XMLHash,
		&unit.Status,
		&unit.RetryCount,
		&unit.MaxRetries,
		&unit.Errors,
		&unit.CreatedAt,
		&unit.LastAttemptAt,
		&unit.NextRetryAt,
	)
	if err != nil {
		return nil, err
	}
	return &unit, nil
}
