package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/ceisaxml"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portsrepo "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/repositories"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/google/uuid"
)

// transmissionServiceImpl owns the outgoing queue and all delivery
// attempts. It computes retry schedules but never owns a timer; the
// scheduler in cmd polls ProcessRetries.
type transmissionServiceImpl struct {
	BaseService
	unitRepo   portsrepo.TransmissionRepository
	declRepo   portsrepo.DeclarationRepository
	archive    portssvc.ArchiveSvcFacade
	audit      portssvc.AuditSvcFacade
	client     portssvc.CeisaClient
	maxRetries int

	// docLocks serializes transmit attempts per declaration id so two
	// callers can never race an attempt on the same document.
	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// NewTransmissionService creates the outgoing transmission queue service.
func NewTransmissionService(unitRepo portsrepo.TransmissionRepository, declRepo portsrepo.DeclarationRepository, archive portssvc.ArchiveSvcFacade, audit portssvc.AuditSvcFacade, client portssvc.CeisaClient, maxRetries int) portssvc.TransmissionSvcFacade {
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	return &transmissionServiceImpl{
		unitRepo:   unitRepo,
		declRepo:   declRepo,
		archive:    archive,
		audit:      audit,
		client:     client,
		maxRetries: maxRetries,
		docLocks:   make(map[string]*sync.Mutex),
	}
}

var _ portssvc.TransmissionSvcFacade = (*transmissionServiceImpl)(nil)

func (s *transmissionServiceImpl) lockFor(declarationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.docLocks[declarationID]
	if !ok {
		lock = &sync.Mutex{}
		s.docLocks[declarationID] = lock
	}
	return lock
}

// Enqueue canonicalizes, hashes and signs the declaration and appends a
// PENDING unit to the queue.
func (s *transmissionServiceImpl) Enqueue(ctx context.Context, declaration *domain.Declaration, userID string) (*domain.TransmissionUnit, error) {
	canonical, err := ceisaxml.Canonicalize(declaration)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize declaration %s: %w", declaration.DeclarationID, err)
	}

	now := time.Now()
	signed, degraded := ceisaxml.Sign(canonical, ceisaxml.Hash(canonical), now)
	if degraded {
		// The signature landed outside the root element; the message is
		// still transmittable but must not pass unnoticed.
		s.LogWarn(ctx, "Signature block appended outside root element",
			slog.String("declaration_id", declaration.DeclarationID))
	}

	unit := domain.TransmissionUnit{
		UnitID:         uuid.NewString(),
		DocumentType:   declaration.DocumentType,
		DeclarationID:  declaration.DeclarationID,
		DocumentNumber: declaration.DocumentNumber,
		XMLContent:     signed,
		XMLHash:        ceisaxml.Hash(signed),
		Status:         domain.TransmissionPending,
		RetryCount:     0,
		MaxRetries:     s.maxRetries,
		CreatedAt:      now,
	}

	if err := s.unitRepo.SaveUnit(ctx, unit); err != nil {
		s.LogError(ctx, err, "Failed to enqueue transmission unit",
			slog.String("declaration_id", declaration.DeclarationID))
		return nil, err
	}

	s.audit.Record(ctx, "transmission_unit", unit.UnitID, domain.AuditActionCreate, nil, unit, "queued for transmission", userID)
	s.LogInfo(ctx, "Transmission unit enqueued",
		slog.String("unit_id", unit.UnitID),
		slog.String("document_number", unit.DocumentNumber))
	return &unit, nil
}

// Transmit performs one delivery attempt. Attempts for the same
// declaration are serialized through a per-document mutex.
func (s *transmissionServiceImpl) Transmit(ctx context.Context, unitID string) (*domain.TransmissionResult, error) {
	unit, err := s.unitRepo.FindUnitByID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(unit.DeclarationID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a concurrent attempt may have finished.
	unit, err = s.unitRepo.FindUnitByID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	if unit.Status != domain.TransmissionPending && unit.Status != domain.TransmissionErrored {
		return nil, fmt.Errorf("unit %s is %s and cannot be transmitted: %w", unitID, unit.Status, apperrors.ErrValidation)
	}
	if unit.RetriesExhausted() {
		return &domain.TransmissionResult{
			Success:      false,
			MessageID:    unit.UnitID,
			Status:       unit.Status,
			FailureKind:  domain.FailureMaxRetryExceeded,
			RetryAllowed: false,
			Errors:       []string{"retry budget exhausted"},
			Timestamp:    time.Now(),
		}, nil
	}

	now := time.Now()
	unit.RetryCount++
	unit.LastAttemptAt = &now
	unit.NextRetryAt = nil

	responseXML, sendErr := s.client.SubmitDeclaration(ctx, *unit)

	var result *domain.TransmissionResult
	if sendErr != nil {
		result = s.handleSendFailure(ctx, unit, sendErr, now)
	} else {
		result = s.handleSendSuccess(ctx, unit, responseXML, now)
	}

	if err := s.unitRepo.UpdateUnit(ctx, *unit); err != nil {
		s.LogError(ctx, err, "Failed to persist transmission attempt", slog.String("unit_id", unit.UnitID))
		return nil, err
	}

	s.audit.Record(ctx, "transmission_unit", unit.UnitID, domain.AuditActionTransmit, nil, result,
		fmt.Sprintf("attempt %d of %d", unit.RetryCount, unit.MaxRetries), "system")
	return result, nil
}

func (s *transmissionServiceImpl) handleSendFailure(ctx context.Context, unit *domain.TransmissionUnit, sendErr error, now time.Time) *domain.TransmissionResult {
	kind := domain.FailureUnknown
	var classified *domain.TransmissionError
	if errors.As(sendErr, &classified) {
		kind = classified.Kind
	}

	unit.Status = domain.TransmissionErrored
	unit.Errors = append(unit.Errors, sendErr.Error())

	retryAllowed := false
	switch {
	case kind.IsRetryable() && unit.RetriesExhausted():
		kind = domain.FailureMaxRetryExceeded
	case kind.IsRetryable():
		// Exponential backoff: 2^retryCount minutes after this attempt.
		next := now.Add(unit.NextBackoff())
		unit.NextRetryAt = &next
		retryAllowed = true
	}

	s.LogWarn(ctx, "Transmission attempt failed",
		slog.String("unit_id", unit.UnitID),
		slog.String("failure_kind", string(kind)),
		slog.Int("retry_count", unit.RetryCount),
		slog.Bool("retry_allowed", retryAllowed))

	return &domain.TransmissionResult{
		Success:      false,
		MessageID:    unit.UnitID,
		Status:       domain.TransmissionErrored,
		FailureKind:  kind,
		RetryAllowed: retryAllowed,
		Errors:       []string{sendErr.Error()},
		Timestamp:    now,
	}
}

func (s *transmissionServiceImpl) handleSendSuccess(ctx context.Context, unit *domain.TransmissionUnit, responseXML string, now time.Time) *domain.TransmissionResult {
	// The channel accepted the message; archive the outgoing XML once.
	if s.archiveOutgoingOnce(ctx, unit) {
		s.advanceToBroker(ctx, unit, now)
	}

	parsed, err := ceisaxml.ParseResponse(responseXML)
	if err != nil {
		// Sent, but the receipt is unreadable. Not retryable: the message
		// is already with the authority.
		unit.Status = domain.TransmissionSent
		unit.Errors = append(unit.Errors, "unreadable receipt: "+err.Error())
		s.LogWarn(ctx, "Transmission receipt could not be parsed",
			slog.String("unit_id", unit.UnitID), slog.String("error", err.Error()))
		return &domain.TransmissionResult{
			Success:      true,
			MessageID:    unit.UnitID,
			Status:       domain.TransmissionSent,
			RetryAllowed: false,
			Timestamp:    now,
		}
	}

	status := domain.Classify(parsed)
	unit.Status = status
	if parsed.RegistrationNumber != "" {
		if err := s.declRepo.SetAuthorityReferences(ctx, unit.DeclarationID, parsed.RegistrationNumber, parsed.ClearanceNumber, parsed.Lane, now); err != nil {
			s.LogError(ctx, err, "Failed to store authority references", slog.String("unit_id", unit.UnitID))
		}
	}

	var messages []string
	for _, fieldErr := range parsed.Errors {
		messages = append(messages, fieldErr.Code+": "+fieldErr.Message)
	}

	s.LogInfo(ctx, "Transmission attempt succeeded",
		slog.String("unit_id", unit.UnitID),
		slog.String("status", string(status)),
		slog.String("ceisa_reference", parsed.RegistrationNumber))

	return &domain.TransmissionResult{
		Success:        true,
		MessageID:      unit.UnitID,
		CeisaReference: parsed.RegistrationNumber,
		Status:         status,
		RetryAllowed:   false,
		Errors:         messages,
		Timestamp:      now,
	}
}

// archiveOutgoingOnce archives the outgoing message on the first attempt
// that reaches the channel. Reports whether this was the first time.
func (s *transmissionServiceImpl) archiveOutgoingOnce(ctx context.Context, unit *domain.TransmissionUnit) bool {
	existing, err := s.archive.QueryEntries(ctx, domain.ArchiveQuery{MessageID: unit.UnitID, Direction: domain.DirectionOutgoing, Limit: 1})
	if err != nil {
		s.LogError(ctx, err, "Failed to check archive for outgoing message", slog.String("unit_id", unit.UnitID))
		return false
	}
	if len(existing) > 0 {
		return false
	}
	if _, err := s.archive.ArchiveMessage(ctx, unit.UnitID, unit.DocumentType, unit.DocumentNumber, domain.DirectionOutgoing, unit.XMLContent); err != nil {
		s.LogError(ctx, err, "Failed to archive outgoing message", slog.String("unit_id", unit.UnitID))
	}
	return true
}

// advanceToBroker moves a freshly submitted declaration to SENT_TO_BROKER.
// Best effort: a declaration already past SUBMITTED is left untouched.
func (s *transmissionServiceImpl) advanceToBroker(ctx context.Context, unit *domain.TransmissionUnit, now time.Time) {
	err := s.declRepo.UpdateStatus(ctx, unit.DeclarationID, domain.StatusSubmitted, domain.StatusSentToBroker, true, "system", now)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to advance declaration to broker", slog.String("declaration_id", unit.DeclarationID))
	}
}

// ProcessQueue drains all currently PENDING units FIFO by creation order.
// Per-unit failures are captured in the results, never thrown past the
// queue boundary.
func (s *transmissionServiceImpl) ProcessQueue(ctx context.Context) ([]domain.TransmissionResult, error) {
	pending, err := s.unitRepo.FindPendingUnits(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]domain.TransmissionResult, 0, len(pending))
	for _, unit := range pending {
		result, err := s.Transmit(ctx, unit.UnitID)
		if err != nil {
			s.LogError(ctx, err, "Queue processing failed for unit", slog.String("unit_id", unit.UnitID))
			results = append(results, domain.TransmissionResult{
				Success:     false,
				MessageID:   unit.UnitID,
				Status:      domain.TransmissionErrored,
				FailureKind: domain.FailureUnknown,
				Errors:      []string{err.Error()},
				Timestamp:   time.Now(),
			})
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// RetryItems returns ERROR units whose nextRetryAt has elapsed and whose
// retry budget is not exhausted.
func (s *transmissionServiceImpl) RetryItems(ctx context.Context) ([]domain.TransmissionUnit, error) {
	units, err := s.unitRepo.FindRetryableUnits(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	if units == nil {
		return []domain.TransmissionUnit{}, nil
	}
	return units, nil
}

// ProcessRetries re-transmits every due retry item.
func (s *transmissionServiceImpl) ProcessRetries(ctx context.Context) ([]domain.TransmissionResult, error) {
	due, err := s.RetryItems(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]domain.TransmissionResult, 0, len(due))
	for _, unit := range due {
		result, err := s.Transmit(ctx, unit.UnitID)
		if err != nil {
			s.LogError(ctx, err, "Retry processing failed for unit", slog.String("unit_id", unit.UnitID))
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

func (s *transmissionServiceImpl) GetUnit(ctx context.Context, unitID string) (*domain.TransmissionUnit, error) {
	return s.unitRepo.FindUnitByID(ctx, unitID)
}

func (s *transmissionServiceImpl) ListUnitsByDeclaration(ctx context.Context, declarationID string) ([]domain.TransmissionUnit, error) {
	units, err := s.unitRepo.FindUnitsByDeclaration(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if units == nil {
		return []domain.TransmissionUnit{}, nil
	}
	return units, nil
}

func (s *transmissionServiceImpl) QueueStats(ctx context.Context) (domain.QueueStats, error) {
	return s.unitRepo.CountByStatus(ctx)
}
