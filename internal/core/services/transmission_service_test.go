package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/ceisaxml"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TransmissionServiceTestSuite struct {
	suite.Suite
	mockUnitRepo *MockTransmissionRepository
	mockDeclRepo *MockDeclarationRepository
	mockArchive  *MockArchiveSvc
	mockAudit    *MockAuditSvc
	mockClient   *MockCeisaClient
	service      portssvc.TransmissionSvcFacade
}

func (suite *TransmissionServiceTestSuite) SetupTest() {
	suite.mockUnitRepo = new(MockTransmissionRepository)
	suite.mockDeclRepo = new(MockDeclarationRepository)
	suite.mockArchive = new(MockArchiveSvc)
	suite.mockAudit = new(MockAuditSvc)
	suite.mockClient = new(MockCeisaClient)
	suite.service = services.NewTransmissionService(suite.mockUnitRepo, suite.mockDeclRepo, suite.mockArchive, suite.mockAudit, suite.mockClient, domain.DefaultMaxRetries)
	suite.mockAudit.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
}

func queuedDeclaration() *domain.Declaration {
	return &domain.Declaration{
		DeclarationID:  uuid.NewString(),
		DocumentType:   domain.DocumentTypePEB,
		DocumentNumber: "PEB-2025-000123",
		Status:         domain.StatusSubmitted,
		TraderName:     "PT Maju Ekspor",
		TraderTaxID:    "01.234.567.8-901.000",
		ConsigneeName:  "Acme Trading Co",
		TransportMode:  domain.TransportSea,
		VesselName:     "MV Nusantara",
		PortOfLoading:  "IDTPP",
		PortOfDest:     "SGSIN",
		Incoterm:       "FOB",
		CurrencyCode:   "USD",
		ExchangeRate:   decimal.NewFromInt(15500),
		TotalValue:     decimal.NewFromInt(1000),
		Items: []domain.LineItem{{
			ItemID:    uuid.NewString(),
			Sequence:  1,
			HSCode:    "0901.21.10",
			Quantity:  decimal.NewFromInt(100),
			UnitValue: decimal.NewFromInt(10),
			ItemValue: decimal.NewFromInt(1000),
		}},
		AuditFields: domain.AuditFields{
			CreatedAt:     time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			LastUpdatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
	}
}

func queuedUnit(retryCount, maxRetries int) *domain.TransmissionUnit {
	return &domain.TransmissionUnit{
		UnitID:         uuid.NewString(),
		DocumentType:   domain.DocumentTypePEB,
		DeclarationID:  uuid.NewString(),
		DocumentNumber: "PEB-2025-000123",
		XMLContent:     "<PEB><HEADER/></PEB>",
		XMLHash:        ceisaxml.Hash("<PEB><HEADER/></PEB>"),
		Status:         domain.TransmissionPending,
		RetryCount:     retryCount,
		MaxRetries:     maxRetries,
		CreatedAt:      time.Now().Add(-time.Minute),
	}
}

func acceptedResponseXML(suite *TransmissionServiceTestSuite, documentNumber string) string {
	xml, err := ceisaxml.BuildResponse(ceisaxml.ResponseDocument{
		DocumentType:       string(domain.DocumentTypePEB),
		DocumentNumber:     documentNumber,
		ResponseCode:       domain.ResponseCodeSuccess,
		ResponseMessage:    "Clearance issued",
		RegistrationNumber: "REG-556677",
		NPENumber:          "NPE-889900",
		Lane:               domain.LaneGreen,
	}, time.Now())
	suite.Require().NoError(err)
	return xml
}

// --- Enqueue ---

func (suite *TransmissionServiceTestSuite) TestEnqueue_QueuesSignedPendingUnit() {
	ctx := context.Background()
	declaration := queuedDeclaration()

	var saved domain.TransmissionUnit
	suite.mockUnitRepo.On("SaveUnit", ctx, mock.MatchedBy(func(u domain.TransmissionUnit) bool {
		saved = u
		return u.DeclarationID == declaration.DeclarationID &&
			u.Status == domain.TransmissionPending &&
			u.RetryCount == 0 &&
			u.MaxRetries == domain.DefaultMaxRetries
	})).Return(nil).Once()

	unit, err := suite.service.Enqueue(ctx, declaration, "user-1")

	suite.Require().NoError(err)
	suite.Require().NotNil(unit)
	suite.Equal(declaration.DocumentNumber, unit.DocumentNumber)
	suite.Equal(ceisaxml.Hash(saved.XMLContent), saved.XMLHash)

	verified, hasDigest := ceisaxml.Verify(saved.XMLContent)
	suite.True(hasDigest)
	suite.True(verified)

	suite.mockUnitRepo.AssertExpectations(suite.T())
}

func (suite *TransmissionServiceTestSuite) TestEnqueue_SaveError() {
	ctx := context.Background()
	declaration := queuedDeclaration()

	suite.mockUnitRepo.On("SaveUnit", ctx, mock.AnythingOfType("domain.TransmissionUnit")).
		Return(assert.AnError).Once()

	unit, err := suite.service.Enqueue(ctx, declaration, "user-1")

	suite.Require().Error(err)
	suite.Nil(unit)
	suite.mockUnitRepo.AssertExpectations(suite.T())
}

// --- Transmit ---

func (suite *TransmissionServiceTestSuite) TestTransmit_AcceptedResponse() {
	ctx := context.Background()
	unit := queuedUnit(0, 3)
	responseXML := acceptedResponseXML(suite, unit.DocumentNumber)

	suite.mockUnitRepo.On("FindUnitByID", ctx, unit.UnitID).Return(unit, nil).Twice()
	suite.mockClient.On("SubmitDeclaration", ctx, mock.AnythingOfType("domain.TransmissionUnit")).
		Return(responseXML, nil).Once()
	suite.mockArchive.On("QueryEntries", ctx, mock.MatchedBy(func(q domain.ArchiveQuery) bool {
		return q.MessageID == unit.UnitID && q.Direction == domain.DirectionOutgoing
	})).Return([]domain.ArchiveEntry{}, nil).Once()
	suite.mockArchive.On("ArchiveMessage", ctx, unit.UnitID, unit.DocumentType, unit.DocumentNumber, domain.DirectionOutgoing, unit.XMLContent).
		Return(&domain.ArchiveEntry{EntryID: uuid.NewString()}, nil).Once()
	suite.mockDeclRepo.On("UpdateStatus", ctx, unit.DeclarationID, domain.StatusSubmitted, domain.StatusSentToBroker, true, "system", mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockDeclRepo.On("SetAuthorityReferences", ctx, unit.DeclarationID, "REG-556677", "NPE-889900", domain.LaneGreen, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	var updated domain.TransmissionUnit
	suite.mockUnitRepo.On("UpdateUnit", ctx, mock.MatchedBy(func(u domain.TransmissionUnit) bool {
		updated = u
		return u.UnitID == unit.UnitID
	})).Return(nil).Once()

	result, err := suite.service.Transmit(ctx, unit.UnitID)

	suite.Require().NoError(err)
	suite.True(result.Success)
	suite.Equal(domain.TransmissionAccepted, result.Status)
	suite.Equal("REG-556677", result.CeisaReference)
	suite.False(result.RetryAllowed)

	suite.Equal(domain.TransmissionAccepted, updated.Status)
	suite.Equal(1, updated.RetryCount)
	suite.Require().NotNil(updated.LastAttemptAt)
	suite.Nil(updated.NextRetryAt)

	suite.mockUnitRepo.AssertExpectations(suite.T())
	suite.mockArchive.AssertExpectations(suite.T())
	suite.mockDeclRepo.AssertExpectations(suite.T())
	suite.mockClient.AssertExpectations(suite.T())
}

func (suite *TransmissionServiceTestSuite) TestTransmit_NetworkFailureSchedulesBackoff() {
	ctx := context.Background()
	unit := queuedUnit(0, 3)

	suite.mockUnitRepo.On("FindUnitByID", ctx, unit.UnitID).Return(unit, nil).Twice()
	suite.mockClient.On("SubmitDeclaration", ctx, mock.AnythingOfType("domain.TransmissionUnit")).
		Return("", &domain.TransmissionError{Kind: domain.FailureNetwork, Message: "connection refused"}).Once()

	var updated domain.TransmissionUnit
	suite.mockUnitRepo.On("UpdateUnit", ctx, mock.MatchedBy(func(u domain.TransmissionUnit) bool {
		updated = u
		return u.UnitID == unit.UnitID
	})).Return(nil).Once()

	result, err := suite.service.Transmit(ctx, unit.UnitID)

	suite.Require().NoError(err)
	suite.False(result.Success)
	suite.Equal(domain.FailureNetwork, result.FailureKind)
	suite.True(result.RetryAllowed)
	suite.Equal(domain.TransmissionErrored, updated.Status)
	suite.Equal(1, updated.RetryCount)

	// First retry lands ~2^1 minutes after the attempt.
	suite.Require().NotNil(updated.NextRetryAt)
	suite.Require().NotNil(updated.LastAttemptAt)
	suite.WithinDuration(updated.LastAttemptAt.Add(2*time.Minute), *updated.NextRetryAt, time.Second)

	suite.mockUnitRepo.AssertExpectations(suite.T())
	suite.mockClient.AssertExpectations(suite.T())
}

func (suite *TransmissionServiceTestSuite) TestTransmit_ValidationFailureNeverRetries() {
	ctx := context.Background()
	unit := queuedUnit(0, 3)

	suite.mockUnitRepo.On("FindUnitByID", ctx, unit.UnitID).Return(unit, nil).Twice()
	suite.mockClient.On("SubmitDeclaration", ctx, mock.AnythingOfType("domain.TransmissionUnit")).
		Return("", &domain.TransmissionError{Kind: domain.FailureValidation, Message: "schema violation"}).Once()

	var updated domain.TransmissionUnit
	suite.mockUnitRepo.On("UpdateUnit", ctx, mock.MatchedBy(func(u domain.TransmissionUnit) bool {
		updated = u
		return true
	})).Return(nil).Once()

	result, err := suite.service.Transmit(ctx, unit.UnitID)

	suite.Require().NoError(err)
	suite.False(result.Success)
	suite.Equal(domain.FailureValidation, result.FailureKind)
	suite.False(result.RetryAllowed)
	suite.Nil(updated.NextRetryAt)

	suite.mockUnitRepo.AssertExpectations(suite.T())
}

func (suite *TransmissionServiceTestSuite) TestTransmit_LastAttemptExhaustsBudget() {
	ctx := context.Background()
	unit := queuedUnit(2, 3)
	unit.Status = domain.TransmissionErrored

	suite.mockUnitRepo.On("FindUnitByID", ctx, unit.UnitID).Return(unit, nil).Twice()
	suite.mockClient.On("SubmitDeclaration", ctx, mock.AnythingOfType("domain.TransmissionUnit")).
		Return("", &domain.TransmissionError{Kind: domain.FailureTimeout, Message: "deadline exceeded"}).Once()

	var updated domain.TransmissionUnit
	suite.mockUnitRepo.On("UpdateUnit", ctx, mock.MatchedBy(func(u domain.TransmissionUnit) bool {
		updated = u
		return true
	})).Return(nil).Once()

	result, err := suite.service.Transmit(ctx, unit.UnitID)

	suite.Require().NoError(err)
	suite.Equal(domain.FailureMaxRetryExceeded, result.FailureKind)
	suite.False(result.RetryAllowed)
	suite.Equal(3, updated.RetryCount)
	suite.Nil(updated.NextRetryAt)

	suite.mockUnitRepo.AssertExpectations(suite.T())
}

func (suite *TransmissionServiceTestSuite) TestTransmit_ExhaustedUnitNeverReachesClient() {
	ctx := context.Background()
	unit := queuedUnit(3, 3)
	unit.Status = domain.TransmissionErrored

	suite.mockUnitRepo.On("FindUnitByID", ctx, unit.UnitID).Return(unit, nil).Twice()

	result, err := suite.service.Transmit(ctx, unit.UnitID)

	suite.Require().NoError(err)
	suite.Equal(domain.FailureMaxRetryExceeded, result.FailureKind)
	suite.False(result.RetryAllowed)
	suite.mockClient.AssertNotCalled(suite.T(), "SubmitDeclaration", mock.Anything, mock.Anything)
}

func (suite *TransmissionServiceTestSuite) TestTransmit_TerminalUnitRefused() {
	ctx := context.Background()
	unit := queuedUnit(1, 3)
	unit.Status = domain.TransmissionAccepted

	suite.mockUnitRepo.On("FindUnitByID", ctx, unit.UnitID).Return(unit, nil).Twice()

	result, err := suite.service.Transmit(ctx, unit.UnitID)

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockClient.AssertNotCalled(suite.T(), "SubmitDeclaration", mock.Anything, mock.Anything)
}

// --- ProcessQueue / retries ---

func (suite *TransmissionServiceTestSuite) TestProcessQueue_DrainsFIFO() {
	ctx := context.Background()
	first := queuedUnit(0, 3)
	second := queuedUnit(0, 3)
	second.DocumentNumber = "PEB-2025-000124"

	suite.mockUnitRepo.On("FindPendingUnits", ctx).Return([]domain.TransmissionUnit{*first, *second}, nil).Once()
	suite.mockUnitRepo.On("FindUnitByID", ctx, first.UnitID).Return(first, nil)
	suite.mockUnitRepo.On("FindUnitByID", ctx, second.UnitID).Return(second, nil)
	suite.mockClient.On("SubmitDeclaration", ctx, mock.AnythingOfType("domain.TransmissionUnit")).
		Return("", &domain.TransmissionError{Kind: domain.FailureNetwork, Message: "unreachable"}).Twice()
	suite.mockUnitRepo.On("UpdateUnit", ctx, mock.AnythingOfType("domain.TransmissionUnit")).Return(nil).Twice()

	results, err := suite.service.ProcessQueue(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(results, 2)
	suite.Equal(first.UnitID, results[0].MessageID)
	suite.Equal(second.UnitID, results[1].MessageID)

	suite.mockUnitRepo.AssertExpectations(suite.T())
	suite.mockClient.AssertExpectations(suite.T())
}

func (suite *TransmissionServiceTestSuite) TestRetryItems_EmptyWhenNothingDue() {
	ctx := context.Background()
	suite.mockUnitRepo.On("FindRetryableUnits", ctx, mock.AnythingOfType("time.Time")).
		Return([]domain.TransmissionUnit{}, nil).Once()

	due, err := suite.service.RetryItems(ctx)

	suite.Require().NoError(err)
	suite.Empty(due)
	suite.mockUnitRepo.AssertExpectations(suite.T())
}

func (suite *TransmissionServiceTestSuite) TestQueueStats() {
	ctx := context.Background()
	stats := domain.QueueStats{Pending: 2, Errored: 1, Accepted: 4}
	suite.mockUnitRepo.On("CountByStatus", ctx).Return(stats, nil).Once()

	got, err := suite.service.QueueStats(ctx)

	suite.Require().NoError(err)
	suite.Equal(stats, got)
}

func TestTransmissionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransmissionServiceTestSuite))
}
