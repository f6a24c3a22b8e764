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
	"github.com/nusatrade/ceisa_exchange_app/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// declarationServiceImpl governs declaration CRUD, the submission gate and
// the lock state machine.
type declarationServiceImpl struct {
	BaseService
	declRepo     portsrepo.DeclarationRepository
	transmission portssvc.TransmissionSvcFacade
	audit        portssvc.AuditSvcFacade
	validate     *validator.Validate
	admins       map[string]bool
}

// NewDeclarationService creates the declaration service. adminUserIDs are
// the subjects permitted to use the administrative unlock.
func NewDeclarationService(declRepo portsrepo.DeclarationRepository, transmission portssvc.TransmissionSvcFacade, audit portssvc.AuditSvcFacade, adminUserIDs []string) portssvc.DeclarationSvcFacade {
	admins := make(map[string]bool, len(adminUserIDs))
	for _, id := range adminUserIDs {
		admins[id] = true
	}
	return &declarationServiceImpl{
		declRepo:     declRepo,
		transmission: transmission,
		audit:        audit,
		validate:     validator.New(),
		admins:       admins,
	}
}

var _ portssvc.DeclarationSvcFacade = (*declarationServiceImpl)(nil)

func (s *declarationServiceImpl) CreateDeclaration(ctx context.Context, req dto.CreateDeclarationRequest, userID string) (*domain.Declaration, error) {
	existing, err := s.declRepo.FindDeclarationByNumber(ctx, req.DocumentNumber)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("document number %s: %w", req.DocumentNumber, apperrors.ErrDuplicate)
	}

	now := time.Now()
	declaration := domain.Declaration{
		DeclarationID:      uuid.NewString(),
		DocumentType:       domain.DocumentType(req.DocumentType),
		DocumentNumber:     req.DocumentNumber,
		Status:             domain.StatusDraft,
		Locked:             false,
		TraderName:         req.TraderName,
		TraderTaxID:        req.TraderTaxID,
		ConsigneeName:      req.ConsigneeName,
		BrokerLicense:      req.BrokerLicense,
		TransportMode:      domain.TransportMode(req.TransportMode),
		VesselName:         req.VesselName,
		VoyageNumber:       req.VoyageNumber,
		PortOfLoading:      req.PortOfLoading,
		PortOfDest:         req.PortOfDest,
		Incoterm:           req.Incoterm,
		CurrencyCode:       req.CurrencyCode,
		ExchangeRate:       req.ExchangeRate,
		TotalValue:         req.TotalValue,
		TotalTax:           req.TotalTax,
		BillOfLadingNumber: req.BillOfLadingNumber,
		AirwayBillNumber:   req.AirwayBillNumber,
		Items:              buildLineItems(req.Items),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	for i := range declaration.Items {
		declaration.Items[i].DeclarationID = declaration.DeclarationID
	}

	if err := s.declRepo.SaveDeclaration(ctx, declaration); err != nil {
		s.LogError(ctx, err, "Failed to create declaration", slog.String("document_number", req.DocumentNumber))
		return nil, err
	}

	s.audit.Record(ctx, "declaration", declaration.DeclarationID, domain.AuditActionCreate, nil, declaration, "", userID)
	s.LogInfo(ctx, "Declaration created",
		slog.String("declaration_id", declaration.DeclarationID),
		slog.String("document_type", string(declaration.DocumentType)),
		slog.String("document_number", declaration.DocumentNumber))
	return &declaration, nil
}

func (s *declarationServiceImpl) GetDeclarationByID(ctx context.Context, declarationID string) (*domain.Declaration, error) {
	return s.declRepo.FindDeclarationByID(ctx, declarationID)
}

func (s *declarationServiceImpl) ListDeclarations(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]domain.Declaration, error) {
	if limit <= 0 {
		limit = 50
	}
	declarations, err := s.declRepo.ListDeclarations(ctx, docType, limit, offset)
	if err != nil {
		return nil, err
	}
	if declarations == nil {
		return []domain.Declaration{}, nil
	}
	return declarations, nil
}

func (s *declarationServiceImpl) UpdateDeclaration(ctx context.Context, declarationID string, req dto.UpdateDeclarationRequest, userID string) (*domain.Declaration, error) {
	declaration, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if declaration.IsLocked() {
		return nil, fmt.Errorf("declaration %s: %w", declarationID, apperrors.ErrDocumentLocked)
	}

	before := *declaration
	applyUpdate(declaration, req)
	declaration.LastUpdatedAt = time.Now()
	declaration.LastUpdatedBy = userID

	if err := s.declRepo.UpdateDeclaration(ctx, *declaration); err != nil {
		s.LogError(ctx, err, "Failed to update declaration", slog.String("declaration_id", declarationID))
		return nil, err
	}

	s.audit.Record(ctx, "declaration", declarationID, domain.AuditActionUpdate, before, declaration, "", userID)
	return declaration, nil
}

func (s *declarationServiceImpl) DeleteDeclaration(ctx context.Context, declarationID string, userID string) error {
	declaration, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return err
	}
	if declaration.IsLocked() || declaration.Status != domain.StatusDraft {
		return fmt.Errorf("only unlocked DRAFT declarations can be deleted: %w", apperrors.ErrDocumentLocked)
	}

	if err := s.declRepo.DeleteDeclaration(ctx, declarationID); err != nil {
		s.LogError(ctx, err, "Failed to delete declaration", slog.String("declaration_id", declarationID))
		return err
	}

	s.audit.Record(ctx, "declaration", declarationID, domain.AuditActionDelete, declaration, nil, "", userID)
	s.LogInfo(ctx, "Declaration deleted", slog.String("declaration_id", declarationID))
	return nil
}

// GenerateXML canonicalizes, hashes and signs the declaration for preview.
// Locked declarations refuse regeneration: the archived XML is the record.
func (s *declarationServiceImpl) GenerateXML(ctx context.Context, declarationID string, userID string) (string, error) {
	declaration, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return "", err
	}
	if declaration.IsLocked() {
		return "", fmt.Errorf("XML regeneration refused for declaration %s: %w", declarationID, apperrors.ErrDocumentLocked)
	}

	canonical, err := ceisaxml.Canonicalize(declaration)
	if err != nil {
		return "", err
	}
	signed, degraded := ceisaxml.Sign(canonical, ceisaxml.Hash(canonical), time.Now())
	if degraded {
		s.LogWarn(ctx, "Signature block appended outside root element", slog.String("declaration_id", declarationID))
	}

	s.audit.Record(ctx, "declaration", declarationID, domain.AuditActionGenerateXML, nil, nil, "", userID)
	return signed, nil
}

// SubmitDeclaration runs the validation gate, atomically locks the record
// in the same step that marks it SUBMITTED, and enqueues the signed XML.
func (s *declarationServiceImpl) SubmitDeclaration(ctx context.Context, declarationID string, userID string) (*domain.SubmissionReceipt, error) {
	declaration, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if declaration.IsLocked() {
		return nil, fmt.Errorf("declaration %s: %w", declarationID, apperrors.ErrDocumentLocked)
	}
	if declaration.Status != domain.StatusDraft {
		return nil, fmt.Errorf("declaration %s is %s, only DRAFT can be submitted: %w",
			declarationID, declaration.Status, apperrors.ErrValidation)
	}

	messages, warnings := s.validateForSubmission(declaration)
	if len(messages) > 0 {
		return nil, &apperrors.ValidationError{Messages: messages}
	}

	now := time.Now()
	if err := s.declRepo.MarkSubmitted(ctx, declarationID, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to mark declaration submitted", slog.String("declaration_id", declarationID))
		return nil, err
	}

	declaration, err = s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}

	unit, err := s.transmission.Enqueue(ctx, declaration, userID)
	if err != nil {
		// The record is already locked; an operator resolves this through
		// the administrative unlock.
		s.LogError(ctx, err, "Submitted declaration could not be enqueued",
			slog.String("declaration_id", declarationID))
		return nil, err
	}

	s.audit.Record(ctx, "declaration", declarationID, domain.AuditActionSubmit, nil, declaration, "", userID)
	s.LogInfo(ctx, "Declaration submitted",
		slog.String("declaration_id", declarationID),
		slog.String("unit_id", unit.UnitID),
		slog.Int("warnings", len(warnings)))
	return &domain.SubmissionReceipt{Declaration: declaration, Unit: *unit, Warnings: warnings}, nil
}

// validateForSubmission is the submission gate. It returns blocking
// messages and non-blocking warnings separately; only messages stop the
// submission.
func (s *declarationServiceImpl) validateForSubmission(d *domain.Declaration) (messages, warnings []string) {
	if err := s.validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				messages = append(messages, fmt.Sprintf("field %s failed rule %s", fe.Field(), fe.Tag()))
			}
		} else {
			messages = append(messages, err.Error())
		}
	}

	if len(d.Items) == 0 {
		messages = append(messages, "at least one line item is required")
	}
	if !d.TotalValue.IsPositive() {
		messages = append(messages, "total value must be greater than zero")
	}
	for _, item := range d.Items {
		if err := s.validate.Struct(item); err != nil {
			messages = append(messages, fmt.Sprintf("item %d is incomplete", item.Sequence))
		}
		if !item.Quantity.IsPositive() {
			messages = append(messages, fmt.Sprintf("item %d quantity must be positive", item.Sequence))
		}
	}

	// Supporting documents are required per transport mode.
	switch d.TransportMode {
	case domain.TransportSea:
		if d.BillOfLadingNumber == "" {
			messages = append(messages, "bill of lading number is required for sea transport")
		}
	case domain.TransportAir:
		if d.AirwayBillNumber == "" {
			messages = append(messages, "airway bill number is required for air transport")
		}
	}

	if !d.TotalValue.Equal(d.ItemsTotal()) {
		warnings = append(warnings, fmt.Sprintf("declared total value %s does not match item total %s",
			d.TotalValue, d.ItemsTotal()))
	}
	if !d.TotalTax.Equal(d.ItemsTaxTotal()) {
		warnings = append(warnings, fmt.Sprintf("declared total tax %s does not match item tax total %s",
			d.TotalTax, d.ItemsTaxTotal()))
	}
	return messages, warnings
}

// LockDeclaration is idempotent-refusing: locking an already-locked record
// is an error, not a no-op. Locking finalizes the record: the status
// advances to COMPLETED in the same guarded statement that sets the flag.
func (s *declarationServiceImpl) LockDeclaration(ctx context.Context, declarationID string, userID string) error {
	declaration, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return err
	}
	if declaration.IsLocked() {
		return fmt.Errorf("declaration %s is already locked: %w", declarationID, apperrors.ErrDocumentLocked)
	}

	if err := s.declRepo.MarkLocked(ctx, declarationID, userID, time.Now()); err != nil {
		return err
	}
	s.audit.Record(ctx, "declaration", declarationID, domain.AuditActionLock, nil, nil, "finalized", userID)
	s.LogInfo(ctx, "Declaration locked and finalized", slog.String("declaration_id", declarationID))
	return nil
}

// UnlockDeclaration is the administrative escape hatch. It flips only the
// Locked flag; a status in the locked-state set keeps the record read-only.
// Only configured administrator subjects may invoke it.
func (s *declarationServiceImpl) UnlockDeclaration(ctx context.Context, declarationID, reason string, userID string) error {
	if reason == "" {
		return fmt.Errorf("an unlock reason is mandatory: %w", apperrors.ErrValidation)
	}
	if !s.admins[userID] {
		return fmt.Errorf("user %s may not unlock declarations: %w", userID, apperrors.ErrForbidden)
	}
	declaration, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return err
	}
	if !declaration.Locked {
		return fmt.Errorf("declaration %s is not locked: %w", declarationID, apperrors.ErrValidation)
	}

	if err := s.declRepo.SetLocked(ctx, declarationID, false, userID, time.Now()); err != nil {
		return err
	}
	s.audit.Record(ctx, "declaration", declarationID, domain.AuditActionUnlock, nil, nil, reason, userID)
	s.LogWarn(ctx, "Declaration unlocked administratively",
		slog.String("declaration_id", declarationID),
		slog.String("reason", reason),
		slog.String("user_id", userID))
	return nil
}

// ReviseRejected returns an AUTHORITY_REJECTED declaration to DRAFT so the
// operator can correct and resubmit it.
func (s *declarationServiceImpl) ReviseRejected(ctx context.Context, declarationID string, userID string) (*domain.Declaration, error) {
	declaration, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if declaration.Status != domain.StatusAuthorityRejected {
		return nil, fmt.Errorf("declaration %s is %s, only AUTHORITY_REJECTED can be revised: %w",
			declarationID, declaration.Status, apperrors.ErrValidation)
	}

	now := time.Now()
	if err := s.declRepo.UpdateStatus(ctx, declarationID, domain.StatusAuthorityRejected, domain.StatusDraft, false, userID, now); err != nil {
		return nil, err
	}

	declaration, err = s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "declaration", declarationID, domain.AuditActionUpdate, nil, declaration, "revised after rejection", userID)
	s.LogInfo(ctx, "Rejected declaration returned to draft", slog.String("declaration_id", declarationID))
	return declaration, nil
}

// CompleteDeclaration closes out a CLEARANCE_ISSUED declaration.
func (s *declarationServiceImpl) CompleteDeclaration(ctx context.Context, declarationID string, userID string) (*domain.Declaration, error) {
	declaration, err := s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if declaration.Status != domain.StatusClearanceIssued {
		return nil, fmt.Errorf("declaration %s is %s, only CLEARANCE_ISSUED can be completed: %w",
			declarationID, declaration.Status, apperrors.ErrValidation)
	}

	now := time.Now()
	if err := s.declRepo.UpdateStatus(ctx, declarationID, domain.StatusClearanceIssued, domain.StatusCompleted, true, userID, now); err != nil {
		return nil, err
	}

	declaration, err = s.declRepo.FindDeclarationByID(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "declaration", declarationID, domain.AuditActionUpdate, nil, declaration, "completed", userID)
	s.LogInfo(ctx, "Declaration completed", slog.String("declaration_id", declarationID))
	return declaration, nil
}

func buildLineItems(requests []dto.LineItemRequest) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(requests))
	for i, req := range requests {
		item := domain.LineItem{
			ItemID:      uuid.NewString(),
			Sequence:    i + 1,
			HSCode:      req.HSCode,
			Description: req.Description,
			Quantity:    req.Quantity,
			UnitCode:    req.UnitCode,
			UnitValue:   req.UnitValue,
			TaxRate:     req.TaxRate,
		}
		item.ComputeItemAmounts()
		items = append(items, item)
	}
	return items
}

func applyUpdate(d *domain.Declaration, req dto.UpdateDeclarationRequest) {
	if req.TraderName != nil {
		d.TraderName = *req.TraderName
	}
	if req.TraderTaxID != nil {
		d.TraderTaxID = *req.TraderTaxID
	}
	if req.ConsigneeName != nil {
		d.ConsigneeName = *req.ConsigneeName
	}
	if req.BrokerLicense != nil {
		d.BrokerLicense = *req.BrokerLicense
	}
	if req.TransportMode != nil {
		d.TransportMode = domain.TransportMode(*req.TransportMode)
	}
	if req.VesselName != nil {
		d.VesselName = *req.VesselName
	}
	if req.VoyageNumber != nil {
		d.VoyageNumber = *req.VoyageNumber
	}
	if req.PortOfLoading != nil {
		d.PortOfLoading = *req.PortOfLoading
	}
	if req.PortOfDest != nil {
		d.PortOfDest = *req.PortOfDest
	}
	if req.Incoterm != nil {
		d.Incoterm = *req.Incoterm
	}
	if req.CurrencyCode != nil {
		d.CurrencyCode = *req.CurrencyCode
	}
	if req.ExchangeRate != nil {
		d.ExchangeRate = *req.ExchangeRate
	}
	if req.TotalValue != nil {
		d.TotalValue = *req.TotalValue
	}
	if req.TotalTax != nil {
		d.TotalTax = *req.TotalTax
	}
	if req.BillOfLadingNumber != nil {
		d.BillOfLadingNumber = *req.BillOfLadingNumber
	}
	if req.AirwayBillNumber != nil {
		d.AirwayBillNumber = *req.AirwayBillNumber
	}
	if req.Items != nil {
		items := buildLineItems(req.Items)
		for i := range items {
			items[i].DeclarationID = d.DeclarationID
		}
		d.Items = items
	}
}
