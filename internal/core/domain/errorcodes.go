package domain

// Logical sections used to group field-level errors for presentation,
// in fixed priority order.
const (
	SectionDocument   = "Document"
	SectionTrader     = "Trader"
	SectionConsignee  = "Consignee"
	SectionBroker     = "Broker"
	SectionTransport  = "Transport"
	SectionTradeTerms = "Trade Terms"
	SectionItems      = "Items"
	SectionValuation  = "Valuation"
	SectionTax        = "Tax"
	SectionSecurity   = "Security"
	SectionOther      = "Other"
)

// SectionPriority orders sections for display; unknown sections sort last.
var SectionPriority = map[string]int{
	SectionDocument:   1,
	SectionTrader:     2,
	SectionConsignee:  3,
	SectionBroker:     4,
	SectionTransport:  5,
	SectionTradeTerms: 6,
	SectionItems:      7,
	SectionValuation:  8,
	SectionTax:        9,
	SectionSecurity:   10,
	SectionOther:      11,
}

// FieldSection maps a response error field to its logical section.
var FieldSection = map[string]string{
	"DOCUMENT_NUMBER":  SectionDocument,
	"DOCUMENT_TYPE":    SectionDocument,
	"REGISTRATION":     SectionDocument,
	"TRADER_NAME":      SectionTrader,
	"TRADER_TAX_ID":    SectionTrader,
	"CONSIGNEE_NAME":   SectionConsignee,
	"BROKER_LICENSE":   SectionBroker,
	"TRANSPORT_MODE":   SectionTransport,
	"VESSEL_NAME":      SectionTransport,
	"VOYAGE_NUMBER":    SectionTransport,
	"PORT_OF_LOADING":  SectionTransport,
	"PORT_OF_DEST":     SectionTransport,
	"BILL_OF_LADING":   SectionTransport,
	"AIRWAY_BILL":      SectionTransport,
	"INCOTERM":         SectionTradeTerms,
	"CURRENCY_CODE":    SectionTradeTerms,
	"EXCHANGE_RATE":    SectionTradeTerms,
	"HS_CODE":          SectionItems,
	"ITEM_DESCRIPTION": SectionItems,
	"ITEM_QUANTITY":    SectionItems,
	"ITEM_UNIT":        SectionItems,
	"ITEM_VALUE":       SectionValuation,
	"TOTAL_VALUE":      SectionValuation,
	"ITEM_TAX":         SectionTax,
	"TOTAL_TAX":        SectionTax,
	"TAX_RATE":         SectionTax,
	"SIGNATURE":        SectionSecurity,
	"HASH_VALUE":       SectionSecurity,
}

// FieldLabel maps a response error field to its human-readable label.
var FieldLabel = map[string]string{
	"DOCUMENT_NUMBER":  "Document Number",
	"DOCUMENT_TYPE":    "Document Type",
	"REGISTRATION":     "Registration Number",
	"TRADER_NAME":      "Trader Name",
	"TRADER_TAX_ID":    "Trader Tax ID (NPWP)",
	"CONSIGNEE_NAME":   "Consignee Name",
	"BROKER_LICENSE":   "Broker (PPJK) License",
	"TRANSPORT_MODE":   "Mode of Transport",
	"VESSEL_NAME":      "Vessel Name",
	"VOYAGE_NUMBER":    "Voyage Number",
	"PORT_OF_LOADING":  "Port of Loading",
	"PORT_OF_DEST":     "Port of Destination",
	"BILL_OF_LADING":   "Bill of Lading Number",
	"AIRWAY_BILL":      "Airway Bill Number",
	"INCOTERM":         "Incoterm",
	"CURRENCY_CODE":    "Currency",
	"EXCHANGE_RATE":    "Exchange Rate",
	"HS_CODE":          "HS Tariff Code",
	"ITEM_DESCRIPTION": "Item Description",
	"ITEM_QUANTITY":    "Item Quantity",
	"ITEM_UNIT":        "Item Unit",
	"ITEM_VALUE":       "Item Value",
	"TOTAL_VALUE":      "Total Value",
	"ITEM_TAX":         "Item Tax",
	"TOTAL_TAX":        "Total Tax",
	"TAX_RATE":         "Tax Rate",
	"SIGNATURE":        "Message Signature",
	"HASH_VALUE":       "Message Digest",
}

// ErrorCodeEntry describes one entry of the fixed authority error registry.
type ErrorCodeEntry struct {
	Field   string
	Message string
}

// ErrorRegistry is the fixed registry of authority error codes.
var ErrorRegistry = map[string]ErrorCodeEntry{
	"E001": {"DOCUMENT_NUMBER", "Document number is missing or malformed"},
	"E002": {"DOCUMENT_TYPE", "Unknown document type"},
	"E003": {"TRADER_NAME", "Trader name is required"},
	"E004": {"TRADER_TAX_ID", "Trader tax ID is invalid"},
	"E005": {"CONSIGNEE_NAME", "Consignee name is required"},
	"E006": {"BROKER_LICENSE", "Broker license is not registered"},
	"E007": {"TRANSPORT_MODE", "Mode of transport is invalid"},
	"E008": {"VESSEL_NAME", "Vessel name is required for sea transport"},
	"E009": {"VOYAGE_NUMBER", "Voyage number is invalid"},
	"E010": {"PORT_OF_LOADING", "Port of loading is not a known port code"},
	"E011": {"PORT_OF_DEST", "Port of destination is not a known port code"},
	"E012": {"BILL_OF_LADING", "Bill of lading number is missing"},
	"E013": {"AIRWAY_BILL", "Airway bill number is missing"},
	"E014": {"INCOTERM", "Incoterm is not recognised"},
	"E015": {"CURRENCY_CODE", "Currency code is not a known ISO code"},
	"E016": {"EXCHANGE_RATE", "Exchange rate is missing or non-positive"},
	"E017": {"HS_CODE", "HS tariff code is not found in the tariff book"},
	"E018": {"ITEM_DESCRIPTION", "Item description is required"},
	"E019": {"ITEM_QUANTITY", "Item quantity must be positive"},
	"E020": {"ITEM_UNIT", "Item unit code is unknown"},
	"E021": {"ITEM_VALUE", "Item value does not match quantity times unit value"},
	"E022": {"TOTAL_VALUE", "Header total does not match sum of item values"},
	"E023": {"TAX_RATE", "Tax rate is outside the permitted range"},
	"E024": {"TOTAL_TAX", "Header tax total does not match sum of item taxes"},
	"E025": {"HASH_VALUE", "Message digest does not match content"},
}

// Suggestions maps error codes to operator remediation hints.
var Suggestions = map[string]string{
	"E001": "Check the document number format against the numbering scheme for this document type.",
	"E004": "Verify the 15/16 digit tax ID with the trader master data.",
	"E006": "Confirm the PPJK license is active, or clear the field to self-file.",
	"E008": "Fill in the carrying vessel name for sea shipments.",
	"E010": "Look up the port code in the ports master data.",
	"E011": "Look up the port code in the ports master data.",
	"E012": "Attach the bill of lading before resubmitting.",
	"E013": "Attach the airway bill before resubmitting.",
	"E015": "Use the three-letter ISO 4217 currency code.",
	"E016": "Use the customs exchange rate published for the submission week.",
	"E017": "Re-check the HS code against the current tariff book edition.",
	"E021": "Recompute the item value; it must equal quantity times unit value.",
	"E022": "Recompute header totals from the line items before resubmitting.",
	"E025": "Regenerate the declaration XML; the content was altered after signing.",
}
