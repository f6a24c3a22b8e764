package domain

import (
	"github.com/shopspring/decimal"
)

// DocumentType distinguishes the two declaration kinds exchanged with CEISA.
type DocumentType string

const (
	DocumentTypePEB DocumentType = "PEB" // export declaration
	DocumentTypePIB DocumentType = "PIB" // import declaration
)

// DeclarationStatus is the lifecycle status of a declaration.
type DeclarationStatus string

const (
	StatusDraft             DeclarationStatus = "DRAFT"
	StatusSubmitted         DeclarationStatus = "SUBMITTED"
	StatusSentToBroker      DeclarationStatus = "SENT_TO_BROKER"
	StatusAuthorityAccepted DeclarationStatus = "AUTHORITY_ACCEPTED"
	StatusAuthorityRejected DeclarationStatus = "AUTHORITY_REJECTED"
	StatusClearanceIssued   DeclarationStatus = "CLEARANCE_ISSUED"
	StatusCompleted         DeclarationStatus = "COMPLETED"
)

// lockedStatuses are the statuses in which a declaration is read-only
// regardless of the Locked flag.
var lockedStatuses = map[DeclarationStatus]bool{
	StatusSentToBroker:      true,
	StatusAuthorityAccepted: true,
	StatusClearanceIssued:   true,
	StatusCompleted:         true,
}

// allowedTransitions is the legal status transition table.
// AUTHORITY_REJECTED is the only state that can return to an editable
// condition; the operator revises and resubmits via a new DRAFT cycle.
var allowedTransitions = map[DeclarationStatus][]DeclarationStatus{
	StatusDraft:             {StatusSubmitted},
	StatusSubmitted:         {StatusSentToBroker, StatusAuthorityRejected},
	StatusSentToBroker:      {StatusAuthorityAccepted, StatusAuthorityRejected},
	StatusAuthorityAccepted: {StatusClearanceIssued},
	StatusAuthorityRejected: {StatusDraft},
	StatusClearanceIssued:   {StatusCompleted},
	StatusCompleted:         {},
}

// CanTransition reports whether moving from one lifecycle status to another is legal.
func CanTransition(from, to DeclarationStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransportMode enumerates the mode-of-transport codes used on the header.
type TransportMode string

const (
	TransportSea  TransportMode = "SEA"
	TransportAir  TransportMode = "AIR"
	TransportLand TransportMode = "LAND"
)

// Declaration is a customs export (PEB) or import (PIB) declaration.
// Once Locked is set the record is read-only and its XML can never be
// regenerated; mutability is gated jointly by Status and Locked.
type Declaration struct {
	DeclarationID  string            `json:"declarationID"`
	DocumentType   DocumentType      `json:"documentType"`
	DocumentNumber string            `json:"documentNumber"`
	Status         DeclarationStatus `json:"status"`
	Locked         bool              `json:"locked"`

	// Parties
	TraderName    string `json:"traderName" validate:"required"`
	TraderTaxID   string `json:"traderTaxID" validate:"required"`
	ConsigneeName string `json:"consigneeName" validate:"required"`
	BrokerLicense string `json:"brokerLicense"` // PPJK license, optional when self-filed

	// Transport
	TransportMode TransportMode `json:"transportMode" validate:"required,oneof=SEA AIR LAND"`
	VesselName    string        `json:"vesselName"`
	VoyageNumber  string        `json:"voyageNumber"`
	PortOfLoading string        `json:"portOfLoading" validate:"required"`
	PortOfDest    string        `json:"portOfDest" validate:"required"`

	// Trade terms and totals
	Incoterm     string          `json:"incoterm" validate:"required"`
	CurrencyCode string          `json:"currencyCode" validate:"required,len=3"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	TotalTax     decimal.Decimal `json:"totalTax"`

	// Supporting documents, required per transport mode at submission.
	BillOfLadingNumber string `json:"billOfLadingNumber"` // SEA
	AirwayBillNumber   string `json:"airwayBillNumber"`   // AIR

	// Authority references, set from correlated responses.
	CeisaReference  string `json:"ceisaReference"`
	ClearanceNumber string `json:"clearanceNumber"` // NPE for PEB, SPPB for PIB
	Lane            string `json:"lane"`            // routing lane assignment

	Items []LineItem `json:"items"`

	AuditFields
}

// LineItem is a single declared goods line, owned by its declaration.
type LineItem struct {
	ItemID        string          `json:"itemID"`
	DeclarationID string          `json:"declarationID"`
	Sequence      int             `json:"sequence"`
	HSCode        string          `json:"hsCode" validate:"required"`
	Description   string          `json:"description" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCode      string          `json:"unitCode"`
	UnitValue     decimal.Decimal `json:"unitValue"`
	ItemValue     decimal.Decimal `json:"itemValue"` // computed: quantity * unit value
	TaxRate       decimal.Decimal `json:"taxRate"`   // percentage
	ItemTax       decimal.Decimal `json:"itemTax"`   // computed: item value * tax rate / 100
}

// ComputeItemAmounts fills the derived per-item value and tax fields.
func (li *LineItem) ComputeItemAmounts() {
	li.ItemValue = li.Quantity.Mul(li.UnitValue)
	li.ItemTax = li.ItemValue.Mul(li.TaxRate).Div(decimal.NewFromInt(100))
}

// ItemsTotal sums the item values over all line items.
func (d *Declaration) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.ItemValue)
	}
	return total
}

// ItemsTaxTotal sums the item taxes over all line items.
func (d *Declaration) ItemsTaxTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.ItemTax)
	}
	return total
}

// IsLocked reports whether the declaration is read-only. True when the
// Locked flag is set or the status belongs to the locked-state set.
func (d *Declaration) IsLocked() bool {
	return d.Locked || lockedStatuses[d.Status]
}

// SubmissionReceipt is returned to the caller after a successful submit:
// the locked declaration, the queued transmission unit, and any
// non-blocking warnings raised by the validation gate.
type SubmissionReceipt struct {
	Declaration *Declaration     `json:"declaration"`
	Unit        TransmissionUnit `json:"unit"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// IssuanceNumberLabel names the type-specific clearance document.
func (t DocumentType) IssuanceNumberLabel() string {
	if t == DocumentTypePEB {
		return "NPE"
	}
	return "SPPB"
}
