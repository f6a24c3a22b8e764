// Package ceisaxml builds, hashes, signs and parses the XML messages
// exchanged with the CEISA clearance authority. Serialization goes through
// encoding/xml with fixed struct layouts so that tag order is deterministic.
package ceisaxml

import "encoding/xml"

// MessageVersion is the exchange protocol version stamped on every envelope.
const MessageVersion = "1.0"

// Envelope is the MESSAGE block carried by every exchanged document.
type Envelope struct {
	MessageID   string `xml:"MESSAGE_ID"`
	MessageType string `xml:"MESSAGE_TYPE"`
	Timestamp   string `xml:"TIMESTAMP"`
	Version     string `xml:"VERSION"`
}

// declarationDoc is the canonical declaration document. Field order is the
// canonical tag order; do not reorder.
type declarationDoc struct {
	XMLName    xml.Name
	Message    Envelope       `xml:"MESSAGE"`
	Header     headerBlock    `xml:"HEADER"`
	Parties    partiesBlock   `xml:"PARTIES"`
	Transport  transportBlock `xml:"TRANSPORT"`
	TradeTerms termsBlock     `xml:"TRADE_TERMS"`
	Items      itemsBlock     `xml:"ITEMS"`
	Totals     totalsBlock    `xml:"TOTALS"`
}

type headerBlock struct {
	DocumentNumber string `xml:"DOCUMENT_NUMBER"`
	DocumentType   string `xml:"DOCUMENT_TYPE"`
}

type partiesBlock struct {
	Trader    traderBlock    `xml:"TRADER"`
	Consignee consigneeBlock `xml:"CONSIGNEE"`
	Broker    *brokerBlock   `xml:"BROKER,omitempty"`
}

type traderBlock struct {
	Name  string `xml:"NAME"`
	TaxID string `xml:"TAX_ID"`
}

type consigneeBlock struct {
	Name string `xml:"NAME"`
}

type brokerBlock struct {
	License string `xml:"LICENSE"`
}

type transportBlock struct {
	Mode          string `xml:"MODE"`
	VesselName    string `xml:"VESSEL_NAME,omitempty"`
	VoyageNumber  string `xml:"VOYAGE_NUMBER,omitempty"`
	PortOfLoading string `xml:"PORT_OF_LOADING"`
	PortOfDest    string `xml:"PORT_OF_DEST"`
	BillOfLading  string `xml:"BILL_OF_LADING,omitempty"`
	AirwayBill    string `xml:"AIRWAY_BILL,omitempty"`
}

type termsBlock struct {
	Incoterm     string `xml:"INCOTERM"`
	CurrencyCode string `xml:"CURRENCY_CODE"`
	ExchangeRate string `xml:"EXCHANGE_RATE"`
}

type itemsBlock struct {
	Items []itemBlock `xml:"ITEM"`
}

type itemBlock struct {
	Sequence    int    `xml:"SEQ,attr"`
	HSCode      string `xml:"HS_CODE"`
	Description string `xml:"DESCRIPTION"`
	Quantity    string `xml:"QUANTITY"`
	UnitCode    string `xml:"UNIT_CODE"`
	UnitValue   string `xml:"UNIT_VALUE"`
	ItemValue   string `xml:"ITEM_VALUE"`
	TaxRate     string `xml:"TAX_RATE"`
	ItemTax     string `xml:"ITEM_TAX"`
}

type totalsBlock struct {
	TotalValue string `xml:"TOTAL_VALUE"`
	TotalTax   string `xml:"TOTAL_TAX"`
}

// ResponseDocument is the authority response message as decoded from the
// wire. Both issuance number variants are present as optional tags; the
// parser discriminates per document kind.
type ResponseDocument struct {
	XMLName            xml.Name        `xml:"RESPONSE"`
	Message            Envelope        `xml:"MESSAGE"`
	DocumentType       string          `xml:"DOCUMENT_TYPE"`
	DocumentNumber     string          `xml:"DOCUMENT_NUMBER"`
	ResponseCode       string          `xml:"RESPONSE_CODE"`
	ResponseMessage    string          `xml:"RESPONSE_MESSAGE"`
	RegistrationNumber string          `xml:"REGISTRATION_NUMBER,omitempty"`
	NPENumber          string          `xml:"NPE_NUMBER,omitempty"`
	SPPBNumber         string          `xml:"SPPB_NUMBER,omitempty"`
	Lane               string          `xml:"LANE,omitempty"`
	Errors             *ResponseErrors `xml:"ERRORS,omitempty"`
}

type ResponseErrors struct {
	Errors []ResponseError `xml:"ERROR"`
}

type ResponseError struct {
	Code    string `xml:"CODE"`
	Field   string `xml:"FIELD"`
	Message string `xml:"MESSAGE"`
	Value   string `xml:"VALUE,omitempty"`
}

// signatureBlock is the trailing SIGNATURE element spliced into signed
// messages. It sits outside the hashed content.
type signatureBlock struct {
	XMLName       xml.Name `xml:"SIGNATURE"`
	HashAlgorithm string   `xml:"HASH_ALGORITHM"`
	HashValue     string   `xml:"HASH_VALUE"`
	Timestamp     string   `xml:"TIMESTAMP"`
}
