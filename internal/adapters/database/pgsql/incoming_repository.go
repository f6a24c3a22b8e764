package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const incomingColumns = `
	message_id, document_type, declaration_id, document_number, ceisa_reference,
	response_xml, parsed, status, error_groups, integrity_verified,
	received_at, processed_at`

type PgxIncomingRepository struct {
	pool *pgxpool.Pool
}

// NewPgxIncomingRepository creates the postgres-backed incoming message store.
func NewPgxIncomingRepository(pool *pgxpool.Pool) portsrepo.IncomingRepository {
	return &PgxIncomingRepository{pool: pool}
}

func (r *PgxIncomingRepository) SaveIncoming(ctx context.Context, message domain.IncomingMessage) error {
	parsed, err := json.Marshal(message.Parsed)
	if err != nil {
		return fmt.Errorf("failed to serialize parsed response for %s: %w", message.MessageID, err)
	}
	errorGroups, err := json.Marshal(message.ErrorGroups)
	if err != nil {
		return fmt.Errorf("failed to serialize error groups for %s: %w", message.MessageID, err)
	}

	query := `
		INSERT INTO incoming_messages (` + incomingColumns + `)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = r.pool.Exec(ctx, query,
		message.MessageID,
		message.DocumentType,
		message.DeclarationID,
		message.DocumentNumber,
		message.CeisaReference,
		message.ResponseXML,
		parsed,
		message.Status,
		errorGroups,
		message.IntegrityVerified,
		message.ReceivedAt,
		message.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save incoming message %s: %w", message.MessageID, err)
	}
	return nil
}

func (r *PgxIncomingRepository) FindIncomingByID(ctx context.Context, messageID string) (*domain.IncomingMessage, error) {
	query := `SELECT ` + incomingColumns + ` FROM incoming_messages WHERE message_id = $1;`

	message, err := scanIncoming(r.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find incoming message %s: %w", messageID, err)
	}
	return message, nil
}

func (r *PgxIncomingRepository) ListIncomingByDeclaration(ctx context.Context, declarationID string) ([]domain.IncomingMessage, error) {
	query := `SELECT ` + incomingColumns + `
		FROM incoming_messages
		WHERE declaration_id = $1
		ORDER BY received_at DESC;
	`
	rows, err := r.pool.Query(ctx, query, declarationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query incoming messages for %s: %w", declarationID, err)
	}
	defer rows.Close()

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.IncomingMessage, error) {
		message, err := scanIncoming(row)
		if err != nil {
			return domain.IncomingMessage{}, err
		}
		return *message, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan incoming messages: %w", err)
	}
	return messages, nil
}

// MarkProcessed stamps processed_at exactly once; an already-stamped row is
// left untouched.
func (r *PgxIncomingRepository) MarkProcessed(ctx context.Context, messageID string, processedAt time.Time) error {
	query := `
		UPDATE incoming_messages
		SET processed_at = $2
		WHERE message_id = $1 AND processed_at IS NULL;
	`
	tag, err := r.pool.Exec(ctx, query, messageID, processedAt)
	if err != nil {
		return fmt.Errorf("failed to mark incoming message %s processed: %w", messageID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanIncoming(row pgx.Row) (*domain.IncomingMessage, error) {
	var (
		message       domain.IncomingMessage
		declarationID *string
		parsed        []byte
		errorGroups   []byte
	)
	err := row.Scan(
		&message.MessageID,
		&message.DocumentType,
		&declarationID,
		&message.DocumentNumber,
		&message.CeisaReference,
		&message.ResponseXML,
		&parsed,
		&message.Status,
		&errorGroups,
		&message.IntegrityVerified,
		&message.ReceivedAt,
		&message.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	if declarationID != nil {
		message.DeclarationID = *declarationID
	}
	if len(parsed) > 0 {
		if err := json.Unmarshal(parsed, &message.Parsed); err != nil {
			return nil, fmt.Errorf("failed to decode parsed response for %s: %w", message.MessageID, err)
		}
	}
	if len(errorGroups) > 0 {
		if err := json.Unmarshal(errorGroups, &message.ErrorGroups); err != nil {
			return nil, fmt.Errorf("failed to decode error groups for %s: %w", message.MessageID, err)
		}
	}
	return &message, nil
}
