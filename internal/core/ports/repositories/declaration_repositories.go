package repositories

import (
	"context"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// DeclarationRepository persists declarations and their line items.
type DeclarationRepository interface {
	// SaveDeclaration inserts a declaration together with its line items.
	SaveDeclaration(ctx context.Context, declaration domain.Declaration) error

	// FindDeclarationByID returns the declaration with its items, or
	// apperrors.ErrNotFound.
	FindDeclarationByID(ctx context.Context, declarationID string) (*domain.Declaration, error)

	// FindDeclarationByNumber resolves a document number to a declaration.
	FindDeclarationByNumber(ctx context.Context, documentNumber string) (*domain.Declaration, error)

	// ListDeclarations returns declarations ordered by creation time
	// descending, optionally filtered by document type.
	ListDeclarations(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]domain.Declaration, error)

	// UpdateDeclaration replaces the header fields and line items of an
	// unlocked declaration. The update is guarded in SQL: it only applies
	// while locked=false, returning apperrors.ErrDocumentLocked otherwise.
	UpdateDeclaration(ctx context.Context, declaration domain.Declaration) error

	// DeleteDeclaration removes a DRAFT declaration and cascades to its
	// items. Locked or non-draft records return apperrors.ErrDocumentLocked.
	DeleteDeclaration(ctx context.Context, declarationID string) error

	// MarkSubmitted atomically transitions DRAFT -> SUBMITTED and sets
	// locked=true in a single guarded statement, so no window exists where
	// the XML is persisted but the record is still editable.
	MarkSubmitted(ctx context.Context, declarationID, userID string, now time.Time) error

	// UpdateStatus applies a lifecycle status change with an optional lock
	// flag change, guarded by the expected current status.
	UpdateStatus(ctx context.Context, declarationID string, from, to domain.DeclarationStatus, locked bool, userID string, now time.Time) error

	// SetAuthorityReferences stores the registration/clearance identifiers
	// and lane assignment extracted from a correlated response.
	SetAuthorityReferences(ctx context.Context, declarationID, ceisaReference, clearanceNumber, lane string, now time.Time) error

	// MarkLocked atomically sets locked=true and advances the status to
	// COMPLETED in a single guarded statement; an already-locked record
	// returns apperrors.ErrDocumentLocked.
	MarkLocked(ctx context.Context, declarationID, userID string, now time.Time) error

	// SetLocked flips only the locked flag; used by the administrative
	// unlock escape hatch.
	SetLocked(ctx context.Context, declarationID string, locked bool, userID string, now time.Time) error
}
