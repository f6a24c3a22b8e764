package services

import (
	"context"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// ArchiveSvcFacade is the append-only message archive: every exchanged
// message lands here with its content hash, and tampering is detectable by
// re-hashing.
type ArchiveSvcFacade interface {
	// ArchiveMessage hashes the content, derives the deterministic archive
	// path and appends an entry.
	ArchiveMessage(ctx context.Context, messageID string, docType domain.DocumentType, documentNumber string, direction domain.Direction, xmlContent string) (*domain.ArchiveEntry, error)

	// VerifyEntry recomputes the hash from stored content to detect
	// post-hoc tampering.
	VerifyEntry(ctx context.Context, entryID string) (*domain.VerificationResult, error)

	GetEntry(ctx context.Context, entryID string) (*domain.ArchiveEntry, error)
	QueryEntries(ctx context.Context, query domain.ArchiveQuery) ([]domain.ArchiveEntry, error)

	// Purge removes entries strictly older than the cutoff; the only
	// permitted deletion path.
	Purge(ctx context.Context, olderThanDays int) (int64, error)
}
