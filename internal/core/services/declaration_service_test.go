package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/services"
	"github.com/nusatrade/ceisa_exchange_app/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type DeclarationServiceTestSuite struct {
	suite.Suite
	mockDeclRepo     *MockDeclarationRepository
	mockTransmission *MockTransmissionSvc
	mockAudit        *MockAuditSvc
	service          portssvc.DeclarationSvcFacade
}

func (suite *DeclarationServiceTestSuite) SetupTest() {
	suite.mockDeclRepo = new(MockDeclarationRepository)
	suite.mockTransmission = new(MockTransmissionSvc)
	suite.mockAudit = new(MockAuditSvc)
	suite.service = services.NewDeclarationService(suite.mockDeclRepo, suite.mockTransmission, suite.mockAudit, []string{"admin-1"})
	suite.mockAudit.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
}

func createRequest() dto.CreateDeclarationRequest {
	return dto.CreateDeclarationRequest{
		DocumentType:       "PEB",
		DocumentNumber:     "PEB-2025-000100",
		TraderName:         "PT Maju Ekspor",
		TraderTaxID:        "01.234.567.8-901.000",
		ConsigneeName:      "Acme Trading Co",
		TransportMode:      "SEA",
		VesselName:         "MV Nusantara",
		PortOfLoading:      "IDTPP",
		PortOfDest:         "SGSIN",
		Incoterm:           "FOB",
		CurrencyCode:       "USD",
		ExchangeRate:       decimal.NewFromInt(15500),
		TotalValue:         decimal.NewFromInt(1000),
		TotalTax:           decimal.NewFromInt(100),
		BillOfLadingNumber: "BL-556677",
		Items: []dto.LineItemRequest{{
			HSCode:      "0901.21.10",
			Description: "Roasted coffee beans",
			Quantity:    decimal.NewFromInt(100),
			UnitCode:    "KG",
			UnitValue:   decimal.NewFromInt(10),
			TaxRate:     decimal.NewFromInt(10),
		}},
	}
}

func draftDeclaration() *domain.Declaration {
	req := createRequest()
	d := &domain.Declaration{
		DeclarationID:      uuid.NewString(),
		DocumentType:       domain.DocumentTypePEB,
		DocumentNumber:     req.DocumentNumber,
		Status:             domain.StatusDraft,
		TraderName:         req.TraderName,
		TraderTaxID:        req.TraderTaxID,
		ConsigneeName:      req.ConsigneeName,
		TransportMode:      domain.TransportSea,
		VesselName:         req.VesselName,
		PortOfLoading:      req.PortOfLoading,
		PortOfDest:         req.PortOfDest,
		Incoterm:           req.Incoterm,
		CurrencyCode:       req.CurrencyCode,
		ExchangeRate:       req.ExchangeRate,
		TotalValue:         req.TotalValue,
		TotalTax:           req.TotalTax,
		BillOfLadingNumber: req.BillOfLadingNumber,
		Items: []domain.LineItem{{
			ItemID:      uuid.NewString(),
			Sequence:    1,
			HSCode:      "0901.21.10",
			Description: "Roasted coffee beans",
			Quantity:    decimal.NewFromInt(100),
			UnitCode:    "KG",
			UnitValue:   decimal.NewFromInt(10),
			ItemValue:   decimal.NewFromInt(1000),
			TaxRate:     decimal.NewFromInt(10),
			ItemTax:     decimal.NewFromInt(100),
		}},
		AuditFields: domain.AuditFields{
			CreatedAt:     time.Now().Add(-time.Hour),
			LastUpdatedAt: time.Now().Add(-time.Hour),
		},
	}
	return d
}

// --- Create ---

func (suite *DeclarationServiceTestSuite) TestCreateDeclaration_Success() {
	ctx := context.Background()
	userID := uuid.NewString()
	req := createRequest()

	suite.mockDeclRepo.On("FindDeclarationByNumber", ctx, req.DocumentNumber).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockDeclRepo.On("SaveDeclaration", ctx, mock.MatchedBy(func(d domain.Declaration) bool {
		return d.DocumentNumber == req.DocumentNumber &&
			d.Status == domain.StatusDraft &&
			!d.Locked &&
			d.CreatedBy == userID &&
			len(d.Items) == 1
	})).Return(nil).Once()

	declaration, err := suite.service.CreateDeclaration(ctx, req, userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(declaration)
	suite.Equal(domain.StatusDraft, declaration.Status)
	suite.False(declaration.Locked)

	// Derived item amounts: 100 * 10 = 1000 value, 10% tax = 100.
	suite.True(declaration.Items[0].ItemValue.Equal(decimal.NewFromInt(1000)))
	suite.True(declaration.Items[0].ItemTax.Equal(decimal.NewFromInt(100)))

	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestCreateDeclaration_DuplicateNumber() {
	ctx := context.Background()
	req := createRequest()
	existing := draftDeclaration()

	suite.mockDeclRepo.On("FindDeclarationByNumber", ctx, req.DocumentNumber).
		Return(existing, nil).Once()

	declaration, err := suite.service.CreateDeclaration(ctx, req, "user-1")

	suite.Require().Error(err)
	suite.Nil(declaration)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "SaveDeclaration", mock.Anything, mock.Anything)
}

// --- Update / Delete lock enforcement ---

func (suite *DeclarationServiceTestSuite) TestUpdateDeclaration_LockedRefused() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Locked = true

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	newName := "PT Berubah"
	updated, err := suite.service.UpdateDeclaration(ctx, declaration.DeclarationID, dto.UpdateDeclarationRequest{TraderName: &newName}, "user-1")

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrDocumentLocked)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "UpdateDeclaration", mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestUpdateDeclaration_LockedStatusRefused() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Status = domain.StatusSentToBroker
	declaration.Locked = false

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	newName := "PT Berubah"
	_, err := suite.service.UpdateDeclaration(ctx, declaration.DeclarationID, dto.UpdateDeclarationRequest{TraderName: &newName}, "user-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDocumentLocked)
}

func (suite *DeclarationServiceTestSuite) TestUpdateDeclaration_Success() {
	ctx := context.Background()
	declaration := draftDeclaration()

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	newName := "PT Maju Terus"
	suite.mockDeclRepo.On("UpdateDeclaration", ctx, mock.MatchedBy(func(d domain.Declaration) bool {
		return d.TraderName == newName && d.LastUpdatedBy == "user-2"
	})).Return(nil).Once()

	updated, err := suite.service.UpdateDeclaration(ctx, declaration.DeclarationID, dto.UpdateDeclarationRequest{TraderName: &newName}, "user-2")

	suite.Require().NoError(err)
	suite.Equal(newName, updated.TraderName)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestDeleteDeclaration_NonDraftRefused() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Status = domain.StatusAuthorityRejected

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	err := suite.service.DeleteDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDocumentLocked)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "DeleteDeclaration", mock.Anything, mock.Anything)
}

// --- GenerateXML ---

func (suite *DeclarationServiceTestSuite) TestGenerateXML_Draft() {
	ctx := context.Background()
	declaration := draftDeclaration()

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	xml, err := suite.service.GenerateXML(ctx, declaration.DeclarationID, "user-1")

	suite.Require().NoError(err)
	suite.Contains(xml, "<PEB>")
	suite.Contains(xml, declaration.DocumentNumber)
	suite.Contains(xml, "<SIGNATURE>")
}

func (suite *DeclarationServiceTestSuite) TestGenerateXML_LockedRefused() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Locked = true

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	xml, err := suite.service.GenerateXML(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.Empty(xml)
	suite.ErrorIs(err, apperrors.ErrDocumentLocked)
}

// --- Submit ---

func (suite *DeclarationServiceTestSuite) TestSubmitDeclaration_Success() {
	ctx := context.Background()
	declaration := draftDeclaration()
	submitted := *declaration
	submitted.Status = domain.StatusSubmitted
	submitted.Locked = true

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()
	suite.mockDeclRepo.On("MarkSubmitted", ctx, declaration.DeclarationID, "user-1", mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(&submitted, nil).Once()

	unit := &domain.TransmissionUnit{UnitID: uuid.NewString(), Status: domain.TransmissionPending}
	suite.mockTransmission.On("Enqueue", ctx, &submitted, "user-1").Return(unit, nil).Once()

	receipt, err := suite.service.SubmitDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().NoError(err)
	suite.Require().NotNil(receipt)
	suite.Equal(domain.StatusSubmitted, receipt.Declaration.Status)
	suite.True(receipt.Declaration.Locked)
	suite.Equal(unit.UnitID, receipt.Unit.UnitID)
	suite.Empty(receipt.Warnings)

	suite.mockDeclRepo.AssertExpectations(suite.T())
	suite.mockTransmission.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestSubmitDeclaration_MissingBillOfLading() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.BillOfLadingNumber = ""

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	receipt, err := suite.service.SubmitDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.Nil(receipt)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Contains(err.Error(), "bill of lading")
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "MarkSubmitted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestSubmitDeclaration_MissingAirwayBill() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.TransportMode = domain.TransportAir
	declaration.BillOfLadingNumber = ""
	declaration.AirwayBillNumber = ""

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	_, err := suite.service.SubmitDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Contains(err.Error(), "airway bill")
}

func (suite *DeclarationServiceTestSuite) TestSubmitDeclaration_NoItemsRefused() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Items = nil

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	_, err := suite.service.SubmitDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Contains(err.Error(), "line item")
}

func (suite *DeclarationServiceTestSuite) TestSubmitDeclaration_ZeroTotalRefused() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.TotalValue = decimal.Zero

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	receipt, err := suite.service.SubmitDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.Nil(receipt)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Contains(err.Error(), "total value must be greater than zero")
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "MarkSubmitted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockTransmission.AssertNotCalled(suite.T(), "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestSubmitDeclaration_TotalsMismatchWarnsOnly() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.TotalValue = decimal.NewFromInt(999)
	submitted := *declaration
	submitted.Status = domain.StatusSubmitted
	submitted.Locked = true

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()
	suite.mockDeclRepo.On("MarkSubmitted", ctx, declaration.DeclarationID, "user-1", mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(&submitted, nil).Once()
	unit := &domain.TransmissionUnit{UnitID: uuid.NewString()}
	suite.mockTransmission.On("Enqueue", ctx, &submitted, "user-1").Return(unit, nil).Once()

	receipt, err := suite.service.SubmitDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().NoError(err)
	suite.Require().Len(receipt.Warnings, 1)
	suite.Contains(receipt.Warnings[0], "does not match")
}

func (suite *DeclarationServiceTestSuite) TestSubmitDeclaration_TaxTotalMismatchWarnsOnly() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.TotalTax = decimal.NewFromInt(77)
	submitted := *declaration
	submitted.Status = domain.StatusSubmitted
	submitted.Locked = true

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()
	suite.mockDeclRepo.On("MarkSubmitted", ctx, declaration.DeclarationID, "user-1", mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(&submitted, nil).Once()
	unit := &domain.TransmissionUnit{UnitID: uuid.NewString()}
	suite.mockTransmission.On("Enqueue", ctx, &submitted, "user-1").Return(unit, nil).Once()

	receipt, err := suite.service.SubmitDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().NoError(err)
	suite.Require().Len(receipt.Warnings, 1)
	suite.Contains(receipt.Warnings[0], "total tax")
}

func (suite *DeclarationServiceTestSuite) TestSubmitDeclaration_LockedRefused() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Locked = true

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	receipt, err := suite.service.SubmitDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.Nil(receipt)
	suite.ErrorIs(err, apperrors.ErrDocumentLocked)
}

// --- Lock state machine ---

func (suite *DeclarationServiceTestSuite) TestLockDeclaration_AlreadyLockedRefused() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Locked = true

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	err := suite.service.LockDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDocumentLocked)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "MarkLocked", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestLockDeclaration_FinalizesRecord() {
	ctx := context.Background()
	declaration := draftDeclaration()

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()
	suite.mockDeclRepo.On("MarkLocked", ctx, declaration.DeclarationID, "user-1", mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	err := suite.service.LockDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().NoError(err)
	suite.mockDeclRepo.AssertExpectations(suite.T())
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "SetLocked", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestUnlockDeclaration_NonAdminForbidden() {
	ctx := context.Background()

	err := suite.service.UnlockDeclaration(ctx, uuid.NewString(), "correcting a mis-keyed consignee name", "user-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "SetLocked", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestUnlockDeclaration_RequiresReason() {
	ctx := context.Background()

	err := suite.service.UnlockDeclaration(ctx, uuid.NewString(), "", "admin-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *DeclarationServiceTestSuite) TestUnlockDeclaration_Success() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Locked = true

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()
	suite.mockDeclRepo.On("SetLocked", ctx, declaration.DeclarationID, false, "admin-1", mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	err := suite.service.UnlockDeclaration(ctx, declaration.DeclarationID, "correcting a mis-keyed consignee name", "admin-1")

	suite.Require().NoError(err)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestReviseRejected_WrongStatusRefused() {
	ctx := context.Background()
	declaration := draftDeclaration()

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	revised, err := suite.service.ReviseRejected(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.Nil(revised)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *DeclarationServiceTestSuite) TestReviseRejected_ReturnsToDraft() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Status = domain.StatusAuthorityRejected
	declaration.Locked = true
	revised := *declaration
	revised.Status = domain.StatusDraft
	revised.Locked = false

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()
	suite.mockDeclRepo.On("UpdateStatus", ctx, declaration.DeclarationID, domain.StatusAuthorityRejected, domain.StatusDraft, false, "user-1", mock.AnythingOfType("time.Time")).
		Return(nil).Once()
	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(&revised, nil).Once()

	got, err := suite.service.ReviseRejected(ctx, declaration.DeclarationID, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.StatusDraft, got.Status)
	suite.False(got.Locked)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestCompleteDeclaration_RequiresClearance() {
	ctx := context.Background()
	declaration := draftDeclaration()
	declaration.Status = domain.StatusSentToBroker

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, declaration.DeclarationID).
		Return(declaration, nil).Once()

	completed, err := suite.service.CompleteDeclaration(ctx, declaration.DeclarationID, "user-1")

	suite.Require().Error(err)
	suite.Nil(completed)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestDeclarationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DeclarationServiceTestSuite))
}
