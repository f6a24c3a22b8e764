package domain

import "time"

// Authority response codes carried in RESPONSE_CODE.
const (
	ResponseCodeSuccess = "00"
	ResponseCodePending = "10"
)

// Routing lanes assigned by the authority on acceptance.
const (
	LaneGreen  = "GREEN"
	LaneYellow = "YELLOW"
	LaneRed    = "RED"
)

// FieldError is a single field-level error reported by the authority.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Severity of a field error, derived from its code prefix.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Severity derives the severity from the code prefix: W downgrades to
// warning, I to info, everything else is an error.
func (e FieldError) Severity() Severity {
	if len(e.Code) == 0 {
		return SeverityError
	}
	switch e.Code[0] {
	case 'W':
		return SeverityWarning
	case 'I':
		return SeverityInfo
	default:
		return SeverityError
	}
}

// ParsedResponse is the structured form of an authority response message,
// discriminated per document kind at parse time.
type ParsedResponse struct {
	DocumentType       DocumentType `json:"documentType"`
	DocumentNumber     string       `json:"documentNumber"`
	ResponseCode       string       `json:"responseCode"`
	ResponseMessage    string       `json:"responseMessage"`
	RegistrationNumber string       `json:"registrationNumber,omitempty"` // CEISA reference
	ClearanceNumber    string       `json:"clearanceNumber,omitempty"`    // NPE (PEB) / SPPB (PIB)
	Lane               string       `json:"lane,omitempty"`
	Errors             []FieldError `json:"errors,omitempty"`
}

// Success reports whether the response carries the success code.
func (p *ParsedResponse) Success() bool {
	return p.ResponseCode == ResponseCodeSuccess
}

// Classify resolves a parsed response into a transmission status. The
// ordered precedence is load-bearing: when success is true the richest
// successful signal wins over error presence; when success is false a
// response carrying clearance fields still classifies as REJECTED.
func Classify(p *ParsedResponse) TransmissionStatus {
	switch {
	case p.Success() && p.ClearanceNumber != "":
		return TransmissionAccepted
	case p.Success() && p.RegistrationNumber != "":
		return TransmissionReceived
	case p.Success():
		return TransmissionSent
	case p.ResponseCode == ResponseCodePending:
		return TransmissionPending
	case len(p.Errors) > 0 || p.ClearanceNumber != "" || p.RegistrationNumber != "":
		return TransmissionRejected
	default:
		return TransmissionErrored
	}
}

// IncomingMessage records one authority response as received. It is
// immutable after creation except for the single ProcessedAt stamp.
type IncomingMessage struct {
	MessageID         string             `json:"messageID"`
	DocumentType      DocumentType       `json:"documentType"`
	DeclarationID     string             `json:"declarationID"`
	DocumentNumber    string             `json:"documentNumber"`
	CeisaReference    string             `json:"ceisaReference"`
	ResponseXML       string             `json:"responseXML"`
	Parsed            *ParsedResponse    `json:"parsed,omitempty"`
	Status            TransmissionStatus `json:"status"`
	ErrorGroups       []ErrorGroup       `json:"errorGroups,omitempty"`
	IntegrityVerified bool               `json:"integrityVerified"`
	ReceivedAt        time.Time          `json:"receivedAt"`
	ProcessedAt       *time.Time         `json:"processedAt,omitempty"`
}

// ErrorGroup bundles field errors belonging to one logical section of the
// declaration, ordered for presentation.
type ErrorGroup struct {
	Section  string         `json:"section"`
	Priority int            `json:"priority"`
	Errors   []GroupedError `json:"errors"`
}

// GroupedError is a field error enriched with a human-readable label and an
// optional remediation suggestion.
type GroupedError struct {
	FieldError
	FieldLabel string `json:"fieldLabel"`
	Suggestion string `json:"suggestion,omitempty"`
}
