package services

import (
	"context"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	"github.com/nusatrade/ceisa_exchange_app/internal/dto"
)

// DeclarationSvcFacade governs declaration CRUD, the submission gate and
// the lock state machine. Every mutation entry point enforces the locked
// invariant before touching any field.
type DeclarationSvcFacade interface {
	CreateDeclaration(ctx context.Context, req dto.CreateDeclarationRequest, userID string) (*domain.Declaration, error)
	GetDeclarationByID(ctx context.Context, declarationID string) (*domain.Declaration, error)
	ListDeclarations(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]domain.Declaration, error)
	UpdateDeclaration(ctx context.Context, declarationID string, req dto.UpdateDeclarationRequest, userID string) (*domain.Declaration, error)
	DeleteDeclaration(ctx context.Context, declarationID string, userID string) error

	// GenerateXML canonicalizes, hashes and signs the declaration for
	// preview. Locked declarations refuse regeneration.
	GenerateXML(ctx context.Context, declarationID string, userID string) (string, error)

	// SubmitDeclaration runs the validation gate, persists the signed XML
	// as a queued transmission unit, and atomically locks the record.
	SubmitDeclaration(ctx context.Context, declarationID string, userID string) (*domain.SubmissionReceipt, error)

	// LockDeclaration is idempotent-refusing: locking an already-locked
	// record is an error, not a no-op.
	LockDeclaration(ctx context.Context, declarationID string, userID string) error

	// UnlockDeclaration is the administrative escape hatch; the reason is
	// mandatory and recorded on the audit trail.
	UnlockDeclaration(ctx context.Context, declarationID, reason string, userID string) error

	// ReviseRejected returns an AUTHORITY_REJECTED declaration to DRAFT
	// for a new submission cycle.
	ReviseRejected(ctx context.Context, declarationID string, userID string) (*domain.Declaration, error)

	// CompleteDeclaration closes out a CLEARANCE_ISSUED declaration.
	CompleteDeclaration(ctx context.Context, declarationID string, userID string) (*domain.Declaration, error)
}
