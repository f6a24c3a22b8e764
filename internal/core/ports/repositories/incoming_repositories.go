package repositories

import (
	"context"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// IncomingRepository persists authority response messages. Rows are
// immutable after insert except for the single processed-at stamp.
type IncomingRepository interface {
	// SaveIncoming inserts a received message.
	SaveIncoming(ctx context.Context, message domain.IncomingMessage) error

	// FindIncomingByID returns a message or apperrors.ErrNotFound.
	FindIncomingByID(ctx context.Context, messageID string) (*domain.IncomingMessage, error)

	// ListIncomingByDeclaration returns messages for a declaration,
	// newest first.
	ListIncomingByDeclaration(ctx context.Context, declarationID string) ([]domain.IncomingMessage, error)

	// MarkProcessed stamps processedAt exactly once.
	MarkProcessed(ctx context.Context, messageID string, processedAt time.Time) error
}
