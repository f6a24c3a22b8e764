package services_test

import (
	"context"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// --- Mock DeclarationRepository ---
type MockDeclarationRepository struct {
	mock.Mock
}

func (m *MockDeclarationRepository) SaveDeclaration(ctx context.Context, declaration domain.Declaration) error {
	args := m.Called(ctx, declaration)
	return args.Error(0)
}

func (m *MockDeclarationRepository) FindDeclarationByID(ctx context.Context, declarationID string) (*domain.Declaration, error) {
	args := m.Called(ctx, declarationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Declaration), args.Error(1)
}

func (m *MockDeclarationRepository) FindDeclarationByNumber(ctx context.Context, documentNumber string) (*domain.Declaration, error) {
	args := m.Called(ctx, documentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Declaration), args.Error(1)
}

func (m *MockDeclarationRepository) ListDeclarations(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]domain.Declaration, error) {
	args := m.Called(ctx, docType, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Declaration), args.Error(1)
}

func (m *MockDeclarationRepository) UpdateDeclaration(ctx context.Context, declaration domain.Declaration) error {
	args := m.Called(ctx, declaration)
	return args.Error(0)
}

func (m *MockDeclarationRepository) DeleteDeclaration(ctx context.Context, declarationID string) error {
	args := m.Called(ctx, declarationID)
	return args.Error(0)
}

func (m *MockDeclarationRepository) MarkSubmitted(ctx context.Context, declarationID, userID string, now time.Time) error {
	args := m.Called(ctx, declarationID, userID, now)
	return args.Error(0)
}

func (m *MockDeclarationRepository) UpdateStatus(ctx context.Context, declarationID string, from, to domain.DeclarationStatus, locked bool, userID string, now time.Time) error {
	args := m.Called(ctx, declarationID, from, to, locked, userID, now)
	return args.Error(0)
}

func (m *MockDeclarationRepository) SetAuthorityReferences(ctx context.Context, declarationID, ceisaReference, clearanceNumber, lane string, now time.Time) error {
	args := m.Called(ctx, declarationID, ceisaReference, clearanceNumber, lane, now)
	return args.Error(0)
}

func (m *MockDeclarationRepository) MarkLocked(ctx context.Context, declarationID, userID string, now time.Time) error {
	args := m.Called(ctx, declarationID, userID, now)
	return args.Error(0)
}

func (m *MockDeclarationRepository) SetLocked(ctx context.Context, declarationID string, locked bool, userID string, now time.Time) error {
	args := m.Called(ctx, declarationID, locked, userID, now)
	return args.Error(0)
}

// --- Mock TransmissionRepository ---
type MockTransmissionRepository struct {
	mock.Mock
}

func (m *MockTransmissionRepository) SaveUnit(ctx context.Context, unit domain.TransmissionUnit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockTransmissionRepository) FindUnitByID(ctx context.Context, unitID string) (*domain.TransmissionUnit, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransmissionUnit), args.Error(1)
}

func (m *MockTransmissionRepository) FindPendingUnits(ctx context.Context) ([]domain.TransmissionUnit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransmissionUnit), args.Error(1)
}

func (m *MockTransmissionRepository) FindRetryableUnits(ctx context.Context, now time.Time) ([]domain.TransmissionUnit, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransmissionUnit), args.Error(1)
}

func (m *MockTransmissionRepository) FindUnitsByDeclaration(ctx context.Context, declarationID string) ([]domain.TransmissionUnit, error) {
	args := m.Called(ctx, declarationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransmissionUnit), args.Error(1)
}

func (m *MockTransmissionRepository) UpdateUnit(ctx context.Context, unit domain.TransmissionUnit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockTransmissionRepository) CountByStatus(ctx context.Context) (domain.QueueStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.QueueStats), args.Error(1)
}

// --- Mock IncomingRepository ---
type MockIncomingRepository struct {
	mock.Mock
}

func (m *MockIncomingRepository) SaveIncoming(ctx context.Context, message domain.IncomingMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockIncomingRepository) FindIncomingByID(ctx context.Context, messageID string) (*domain.IncomingMessage, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IncomingMessage), args.Error(1)
}

func (m *MockIncomingRepository) ListIncomingByDeclaration(ctx context.Context, declarationID string) ([]domain.IncomingMessage, error) {
	args := m.Called(ctx, declarationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IncomingMessage), args.Error(1)
}

func (m *MockIncomingRepository) MarkProcessed(ctx context.Context, messageID string, processedAt time.Time) error {
	args := m.Called(ctx, messageID, processedAt)
	return args.Error(0)
}

// --- Mock ArchiveRepository ---
type MockArchiveRepository struct {
	mock.Mock
}

func (m *MockArchiveRepository) SaveEntry(ctx context.Context, entry domain.ArchiveEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockArchiveRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.ArchiveEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArchiveEntry), args.Error(1)
}

func (m *MockArchiveRepository) QueryEntries(ctx context.Context, query domain.ArchiveQuery) ([]domain.ArchiveEntry, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArchiveEntry), args.Error(1)
}

func (m *MockArchiveRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock AuditRepository ---
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) SaveAuditLog(ctx context.Context, log domain.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditLog, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

// --- Mock CeisaClient ---
type MockCeisaClient struct {
	mock.Mock
}

func (m *MockCeisaClient) SubmitDeclaration(ctx context.Context, unit domain.TransmissionUnit) (string, error) {
	args := m.Called(ctx, unit)
	return args.String(0), args.Error(1)
}

// --- Mock ArchiveSvcFacade ---
type MockArchiveSvc struct {
	mock.Mock
}

func (m *MockArchiveSvc) ArchiveMessage(ctx context.Context, messageID string, docType domain.DocumentType, documentNumber string, direction domain.Direction, xmlContent string) (*domain.ArchiveEntry, error) {
	args := m.Called(ctx, messageID, docType, documentNumber, direction, xmlContent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArchiveEntry), args.Error(1)
}

func (m *MockArchiveSvc) VerifyEntry(ctx context.Context, entryID string) (*domain.VerificationResult, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationResult), args.Error(1)
}

func (m *MockArchiveSvc) GetEntry(ctx context.Context, entryID string) (*domain.ArchiveEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArchiveEntry), args.Error(1)
}

func (m *MockArchiveSvc) QueryEntries(ctx context.Context, query domain.ArchiveQuery) ([]domain.ArchiveEntry, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArchiveEntry), args.Error(1)
}

func (m *MockArchiveSvc) Purge(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock AuditSvcFacade ---
type MockAuditSvc struct {
	mock.Mock
}

func (m *MockAuditSvc) Record(ctx context.Context, entityType, entityID string, action domain.AuditAction, before, after any, notes, actorID string) {
	m.Called(ctx, entityType, entityID, action, before, after, notes, actorID)
}

func (m *MockAuditSvc) History(ctx context.Context, entityType, entityID string) ([]domain.AuditLog, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

// --- Mock TransmissionSvcFacade ---
type MockTransmissionSvc struct {
	mock.Mock
}

func (m *MockTransmissionSvc) Enqueue(ctx context.Context, declaration *domain.Declaration, userID string) (*domain.TransmissionUnit, error) {
	args := m.Called(ctx, declaration, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransmissionUnit), args.Error(1)
}

func (m *MockTransmissionSvc) Transmit(ctx context.Context, unitID string) (*domain.TransmissionResult, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransmissionResult), args.Error(1)
}

func (m *MockTransmissionSvc) ProcessQueue(ctx context.Context) ([]domain.TransmissionResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransmissionResult), args.Error(1)
}

func (m *MockTransmissionSvc) RetryItems(ctx context.Context) ([]domain.TransmissionUnit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransmissionUnit), args.Error(1)
}

func (m *MockTransmissionSvc) ProcessRetries(ctx context.Context) ([]domain.TransmissionResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransmissionResult), args.Error(1)
}

func (m *MockTransmissionSvc) GetUnit(ctx context.Context, unitID string) (*domain.TransmissionUnit, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransmissionUnit), args.Error(1)
}

func (m *MockTransmissionSvc) ListUnitsByDeclaration(ctx context.Context, declarationID string) ([]domain.TransmissionUnit, error) {
	args := m.Called(ctx, declarationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransmissionUnit), args.Error(1)
}

func (m *MockTransmissionSvc) QueueStats(ctx context.Context) (domain.QueueStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.QueueStats), args.Error(1)
}
