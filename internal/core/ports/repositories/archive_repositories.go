package repositories

import (
	"context"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// ArchiveRepository is the append-only store of exchanged messages.
// Entries are never updated in place; the only deletion path is the
// age-based retention purge.
type ArchiveRepository interface {
	// SaveEntry appends an archive entry.
	SaveEntry(ctx context.Context, entry domain.ArchiveEntry) error

	// FindEntryByID returns an entry or apperrors.ErrNotFound.
	FindEntryByID(ctx context.Context, entryID string) (*domain.ArchiveEntry, error)

	// QueryEntries applies the query filters, ordered by archivedAt
	// descending, capped at query.Limit.
	QueryEntries(ctx context.Context, query domain.ArchiveQuery) ([]domain.ArchiveEntry, error)

	// DeleteOlderThan removes entries archived strictly before the cutoff
	// and returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
