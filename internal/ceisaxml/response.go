package ceisaxml

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
)

// ParseResponse decodes a raw authority response message into its
// structured form. A trailing signature block, if present, is stripped
// before decoding; integrity checking is a separate concern (Verify).
func ParseResponse(responseXML string) (*domain.ParsedResponse, error) {
	var doc ResponseDocument
	if err := xml.Unmarshal([]byte(StripSignature(stripProlog(responseXML))), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode response message: %w", err)
	}

	docType := domain.DocumentType(doc.DocumentType)
	parsed := &domain.ParsedResponse{
		DocumentType:       docType,
		DocumentNumber:     doc.DocumentNumber,
		ResponseCode:       doc.ResponseCode,
		ResponseMessage:    doc.ResponseMessage,
		RegistrationNumber: doc.RegistrationNumber,
		Lane:               doc.Lane,
	}

	// The issuance number is discriminated per document kind: NPE for
	// export declarations, SPPB for import declarations.
	switch docType {
	case domain.DocumentTypePEB:
		parsed.ClearanceNumber = doc.NPENumber
	case domain.DocumentTypePIB:
		parsed.ClearanceNumber = doc.SPPBNumber
	default:
		return nil, fmt.Errorf("response carries unknown document type %q", doc.DocumentType)
	}

	if doc.Errors != nil {
		for _, e := range doc.Errors.Errors {
			parsed.Errors = append(parsed.Errors, domain.FieldError{
				Code:    e.Code,
				Field:   e.Field,
				Message: e.Message,
				Value:   e.Value,
			})
		}
	}
	return parsed, nil
}

// BuildResponse renders an authority response document as signed XML. It is
// used by the response simulator and by tests; the real channel delivers
// wire messages already rendered.
func BuildResponse(doc ResponseDocument, now time.Time) (string, error) {
	if doc.Message.MessageType == "" {
		doc.Message.MessageType = "RESPONSE"
	}
	if doc.Message.Timestamp == "" {
		doc.Message.Timestamp = now.UTC().Format(time.RFC3339)
	}
	if doc.Message.Version == "" {
		doc.Message.Version = MessageVersion
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal response message: %w", err)
	}
	content := xmlProlog + "\n" + string(out)
	signed, _ := Sign(content, Hash(content), now)
	return signed, nil
}
