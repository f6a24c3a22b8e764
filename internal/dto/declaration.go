package dto

import (
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LineItemRequest is one declared goods line on a create/update request.
type LineItemRequest struct {
	HSCode      string          `json:"hsCode" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitCode    string          `json:"unitCode" binding:"required"`
	UnitValue   decimal.Decimal `json:"unitValue" binding:"required"`
	TaxRate     decimal.Decimal `json:"taxRate"`
}

// CreateDeclarationRequest creates a new DRAFT declaration.
type CreateDeclarationRequest struct {
	DocumentType   string `json:"documentType" binding:"required,oneof=PEB PIB"`
	DocumentNumber string `json:"documentNumber" binding:"required"`

	TraderName    string `json:"traderName" binding:"required"`
	TraderTaxID   string `json:"traderTaxID" binding:"required"`
	ConsigneeName string `json:"consigneeName" binding:"required"`
	BrokerLicense string `json:"brokerLicense"`

	TransportMode string `json:"transportMode" binding:"required,oneof=SEA AIR LAND"`
	VesselName    string `json:"vesselName"`
	VoyageNumber  string `json:"voyageNumber"`
	PortOfLoading string `json:"portOfLoading" binding:"required"`
	PortOfDest    string `json:"portOfDest" binding:"required"`

	Incoterm     string          `json:"incoterm" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	TotalTax     decimal.Decimal `json:"totalTax"`

	BillOfLadingNumber string `json:"billOfLadingNumber"`
	AirwayBillNumber   string `json:"airwayBillNumber"`

	Items []LineItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateDeclarationRequest patches an unlocked declaration. Nil fields are
// left untouched; a non-nil Items slice replaces all line items.
type UpdateDeclarationRequest struct {
	TraderName    *string `json:"traderName,omitempty"`
	TraderTaxID   *string `json:"traderTaxID,omitempty"`
	ConsigneeName *string `json:"consigneeName,omitempty"`
	BrokerLicense *string `json:"brokerLicense,omitempty"`

	TransportMode *string `json:"transportMode,omitempty" binding:"omitempty,oneof=SEA AIR LAND"`
	VesselName    *string `json:"vesselName,omitempty"`
	VoyageNumber  *string `json:"voyageNumber,omitempty"`
	PortOfLoading *string `json:"portOfLoading,omitempty"`
	PortOfDest    *string `json:"portOfDest,omitempty"`

	Incoterm     *string          `json:"incoterm,omitempty"`
	CurrencyCode *string          `json:"currencyCode,omitempty" binding:"omitempty,len=3"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"`
	TotalValue   *decimal.Decimal `json:"totalValue,omitempty"`
	TotalTax     *decimal.Decimal `json:"totalTax,omitempty"`

	BillOfLadingNumber *string `json:"billOfLadingNumber,omitempty"`
	AirwayBillNumber   *string `json:"airwayBillNumber,omitempty"`

	Items []LineItemRequest `json:"items,omitempty" binding:"omitempty,dive"`
}

// UnlockDeclarationRequest is the administrative unlock escape hatch. The
// justification is mandatory and lands on the audit trail.
type UnlockDeclarationRequest struct {
	Reason string `json:"reason" binding:"required,min=10"`
}

// LineItemResponse mirrors a stored line item.
type LineItemResponse struct {
	ItemID      string          `json:"itemID"`
	Sequence    int             `json:"sequence"`
	HSCode      string          `json:"hsCode"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCode    string          `json:"unitCode"`
	UnitValue   decimal.Decimal `json:"unitValue"`
	ItemValue   decimal.Decimal `json:"itemValue"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	ItemTax     decimal.Decimal `json:"itemTax"`
}

// DeclarationResponse is the API representation of a declaration.
type DeclarationResponse struct {
	DeclarationID  string `json:"declarationID"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	Status         string `json:"status"`
	Locked         bool   `json:"locked"`

	TraderName    string `json:"traderName"`
	TraderTaxID   string `json:"traderTaxID"`
	ConsigneeName string `json:"consigneeName"`
	BrokerLicense string `json:"brokerLicense,omitempty"`

	TransportMode string `json:"transportMode"`
	VesselName    string `json:"vesselName,omitempty"`
	VoyageNumber  string `json:"voyageNumber,omitempty"`
	PortOfLoading string `json:"portOfLoading"`
	PortOfDest    string `json:"portOfDest"`

	Incoterm     string          `json:"incoterm"`
	CurrencyCode string          `json:"currencyCode"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	TotalTax     decimal.Decimal `json:"totalTax"`

	BillOfLadingNumber string `json:"billOfLadingNumber,omitempty"`
	AirwayBillNumber   string `json:"airwayBillNumber,omitempty"`

	CeisaReference  string `json:"ceisaReference,omitempty"`
	ClearanceNumber string `json:"clearanceNumber,omitempty"`
	Lane            string `json:"lane,omitempty"`

	Items []LineItemResponse `json:"items"`

	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// ListDeclarationsResponse wraps a declaration page.
type ListDeclarationsResponse struct {
	Declarations []DeclarationResponse `json:"declarations"`
}

// SubmitDeclarationResponse is returned after a successful submission.
type SubmitDeclarationResponse struct {
	Declaration DeclarationResponse      `json:"declaration"`
	Unit        TransmissionUnitResponse `json:"unit"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

// ToLineItemResponse maps a domain line item to its API shape.
func ToLineItemResponse(item domain.LineItem) LineItemResponse {
	return LineItemResponse{
		ItemID:      item.ItemID,
		Sequence:    item.Sequence,
		HSCode:      item.HSCode,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitCode:    item.UnitCode,
		UnitValue:   item.UnitValue,
		ItemValue:   item.ItemValue,
		TaxRate:     item.TaxRate,
		ItemTax:     item.ItemTax,
	}
}

// ToDeclarationResponse maps a domain declaration to its API shape.
func ToDeclarationResponse(d *domain.Declaration) DeclarationResponse {
	items := make([]LineItemResponse, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, ToLineItemResponse(item))
	}
	return DeclarationResponse{
		DeclarationID:      d.DeclarationID,
		DocumentType:       string(d.DocumentType),
		DocumentNumber:     d.DocumentNumber,
		Status:             string(d.Status),
		Locked:             d.Locked,
		TraderName:         d.TraderName,
		TraderTaxID:        d.TraderTaxID,
		ConsigneeName:      d.ConsigneeName,
		BrokerLicense:      d.BrokerLicense,
		TransportMode:      string(d.TransportMode),
		VesselName:         d.VesselName,
		VoyageNumber:       d.VoyageNumber,
		PortOfLoading:      d.PortOfLoading,
		PortOfDest:         d.PortOfDest,
		Incoterm:           d.Incoterm,
		CurrencyCode:       d.CurrencyCode,
		ExchangeRate:       d.ExchangeRate,
		TotalValue:         d.TotalValue,
		TotalTax:           d.TotalTax,
		BillOfLadingNumber: d.BillOfLadingNumber,
		AirwayBillNumber:   d.AirwayBillNumber,
		CeisaReference:     d.CeisaReference,
		ClearanceNumber:    d.ClearanceNumber,
		Lane:               d.Lane,
		Items:              items,
		CreatedAt:          d.CreatedAt,
		LastUpdatedAt:      d.LastUpdatedAt,
	}
}

// ToSubmitDeclarationResponse maps a submission receipt to its API shape.
func ToSubmitDeclarationResponse(receipt *domain.SubmissionReceipt) SubmitDeclarationResponse {
	return SubmitDeclarationResponse{
		Declaration: ToDeclarationResponse(receipt.Declaration),
		Unit:        ToTransmissionUnitResponse(receipt.Unit),
		Warnings:    receipt.Warnings,
	}
}
