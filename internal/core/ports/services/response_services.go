package services

import (
	"context"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// ResponseSvcFacade correlates authority responses back to their
// declarations: parse, classify, verify integrity, group errors, archive
// the incoming message and advance the declaration lifecycle.
type ResponseSvcFacade interface {
	// ProcessIncoming handles one raw response message end to end.
	ProcessIncoming(ctx context.Context, responseXML string) (*domain.IncomingMessage, error)

	GetIncoming(ctx context.Context, messageID string) (*domain.IncomingMessage, error)
	ListIncomingByDeclaration(ctx context.Context, declarationID string) ([]domain.IncomingMessage, error)
}
