package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/ceisaxml"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/google/uuid"
)

// responseServiceImpl correlates authority responses back to declarations.
type responseServiceImpl struct {
	BaseService
	incomingRepo portsrepo.IncomingRepository
	declRepo     portsrepo.DeclarationRepository
	unitRepo     portsrepo.TransmissionRepository
	archive      portssvc.ArchiveSvcFacade
	audit        portssvc.AuditSvcFacade
}

// NewResponseService creates the response correlation service.
func NewResponseService(incomingRepo portsrepo.IncomingRepository, declRepo portsrepo.DeclarationRepository, unitRepo portsrepo.TransmissionRepository, archive portssvc.ArchiveSvcFacade, audit portssvc.AuditSvcFacade) portssvc.ResponseSvcFacade {
	return &responseServiceImpl{
		incomingRepo: incomingRepo,
		declRepo:     declRepo,
		unitRepo:     unitRepo,
		archive:      archive,
		audit:        audit,
	}
}

var _ portssvc.ResponseSvcFacade = (*responseServiceImpl)(nil)

// ProcessIncoming handles one raw authority response end to end: parse,
// verify integrity, classify, group errors, persist, archive, correlate
// and advance the declaration lifecycle. An uncorrelated message is still
// stored and archived; correlation failure must never lose a response.
func (s *responseServiceImpl) ProcessIncoming(ctx context.Context, responseXML string) (*domain.IncomingMessage, error) {
	parsed, err := ceisaxml.ParseResponse(responseXML)
	if err != nil {
		s.LogWarn(ctx, "Rejected unparseable incoming message", slog.String("error", err.Error()))
		return nil, fmt.Errorf("unparseable response message: %v: %w", err, apperrors.ErrValidation)
	}

	verified, hasDigest := ceisaxml.Verify(responseXML)
	integrityOK := verified && hasDigest
	if hasDigest && !verified {
		s.LogWarn(ctx, "Incoming message failed integrity verification",
			slog.String("document_number", parsed.DocumentNumber))
	}

	status := domain.Classify(parsed)
	now := time.Now()
	message := domain.IncomingMessage{
		MessageID:         uuid.NewString(),
		DocumentType:      parsed.DocumentType,
		DocumentNumber:    parsed.DocumentNumber,
		CeisaReference:    parsed.RegistrationNumber,
		ResponseXML:       responseXML,
		Parsed:            parsed,
		Status:            status,
		ErrorGroups:       domain.GroupFieldErrors(parsed.Errors),
		IntegrityVerified: integrityOK,
		ReceivedAt:        now,
	}

	declaration, err := s.declRepo.FindDeclarationByNumber(ctx, parsed.DocumentNumber)
	switch {
	case err == nil:
		message.DeclarationID = declaration.DeclarationID
	case errors.Is(err, apperrors.ErrNotFound):
		s.LogWarn(ctx, "Incoming message does not correlate to any declaration",
			slog.String("document_number", parsed.DocumentNumber))
	default:
		return nil, err
	}

	if err := s.incomingRepo.SaveIncoming(ctx, message); err != nil {
		s.LogError(ctx, err, "Failed to persist incoming message",
			slog.String("document_number", parsed.DocumentNumber))
		return nil, err
	}

	if _, err := s.archive.ArchiveMessage(ctx, message.MessageID, message.DocumentType, message.DocumentNumber, domain.DirectionIncoming, responseXML); err != nil {
		s.LogError(ctx, err, "Failed to archive incoming message", slog.String("message_id", message.MessageID))
	}

	if declaration != nil {
		s.applyToDeclaration(ctx, declaration, parsed, status, now)
		s.applyToLatestUnit(ctx, declaration.DeclarationID, status)
	}

	processedAt := time.Now()
	if err := s.incomingRepo.MarkProcessed(ctx, message.MessageID, processedAt); err != nil {
		s.LogError(ctx, err, "Failed to stamp incoming message as processed", slog.String("message_id", message.MessageID))
	} else {
		message.ProcessedAt = &processedAt
	}

	s.audit.Record(ctx, "incoming_message", message.MessageID, domain.AuditActionResponse, nil, message,
		string(status), "system")
	s.LogInfo(ctx, "Incoming message processed",
		slog.String("message_id", message.MessageID),
		slog.String("document_number", message.DocumentNumber),
		slog.String("status", string(status)),
		slog.Bool("integrity_verified", integrityOK))
	return &message, nil
}

// applyToDeclaration advances the declaration lifecycle according to the
// classified status. Transitions are guarded by expected current status so
// duplicate or out-of-order responses cannot corrupt the state machine.
func (s *responseServiceImpl) applyToDeclaration(ctx context.Context, declaration *domain.Declaration, parsed *domain.ParsedResponse, status domain.TransmissionStatus, now time.Time) {
	if parsed.RegistrationNumber != "" || parsed.ClearanceNumber != "" || parsed.Lane != "" {
		if err := s.declRepo.SetAuthorityReferences(ctx, declaration.DeclarationID, parsed.RegistrationNumber, parsed.ClearanceNumber, parsed.Lane, now); err != nil {
			s.LogError(ctx, err, "Failed to store authority references",
				slog.String("declaration_id", declaration.DeclarationID))
		}
	}

	var transitionErr error
	switch status {
	case domain.TransmissionAccepted:
		transitionErr = s.declRepo.UpdateStatus(ctx, declaration.DeclarationID, domain.StatusSentToBroker, domain.StatusAuthorityAccepted, true, "system", now)
		if transitionErr == nil && parsed.ClearanceNumber != "" {
			transitionErr = s.declRepo.UpdateStatus(ctx, declaration.DeclarationID, domain.StatusAuthorityAccepted, domain.StatusClearanceIssued, true, "system", now)
		}
	case domain.TransmissionRejected:
		// Rejected declarations stay locked until explicitly revised.
		transitionErr = s.declRepo.UpdateStatus(ctx, declaration.DeclarationID, domain.StatusSentToBroker, domain.StatusAuthorityRejected, true, "system", now)
	}
	if transitionErr != nil && !errors.Is(transitionErr, apperrors.ErrNotFound) {
		s.LogError(ctx, transitionErr, "Failed to advance declaration from response",
			slog.String("declaration_id", declaration.DeclarationID),
			slog.String("status", string(status)))
	}
}

// applyToLatestUnit reflects the response status onto the most recent
// non-terminal transmission unit for the declaration.
func (s *responseServiceImpl) applyToLatestUnit(ctx context.Context, declarationID string, status domain.TransmissionStatus) {
	if status != domain.TransmissionReceived && status != domain.TransmissionAccepted && status != domain.TransmissionRejected {
		return
	}
	units, err := s.unitRepo.FindUnitsByDeclaration(ctx, declarationID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load transmission units for response", slog.String("declaration_id", declarationID))
		return
	}
	for _, unit := range units {
		if unit.Status == domain.TransmissionSent || unit.Status == domain.TransmissionReceived {
			unit.Status = status
			if err := s.unitRepo.UpdateUnit(ctx, unit); err != nil {
				s.LogError(ctx, err, "Failed to update transmission unit from response", slog.String("unit_id", unit.UnitID))
			}
			return
		}
	}
}

func (s *responseServiceImpl) GetIncoming(ctx context.Context, messageID string) (*domain.IncomingMessage, error) {
	return s.incomingRepo.FindIncomingByID(ctx, messageID)
}

func (s *responseServiceImpl) ListIncomingByDeclaration(ctx context.Context, declarationID string) ([]domain.IncomingMessage, error) {
	messages, err := s.incomingRepo.ListIncomingByDeclaration(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		return []domain.IncomingMessage{}, nil
	}
	return messages, nil
}
