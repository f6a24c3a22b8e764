package ceisaxml_test

import (
	"testing"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/ceisaxml"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_AcceptedPEB(t *testing.T) {
	raw, err := ceisaxml.BuildResponse(ceisaxml.ResponseDocument{
		Message:            ceisaxml.Envelope{MessageID: "resp-1"},
		DocumentType:       "PEB",
		DocumentNumber:     "PEB-2025-000123",
		ResponseCode:       "00",
		ResponseMessage:    "Declaration accepted",
		RegistrationNumber: "CEISA-881234",
		NPENumber:          "NPE-000991",
		Lane:               domain.LaneGreen,
	}, time.Now())
	require.NoError(t, err)

	parsed, err := ceisaxml.ParseResponse(raw)
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentTypePEB, parsed.DocumentType)
	assert.Equal(t, "PEB-2025-000123", parsed.DocumentNumber)
	assert.True(t, parsed.Success())
	assert.Equal(t, "CEISA-881234", parsed.RegistrationNumber)
	assert.Equal(t, "NPE-000991", parsed.ClearanceNumber)
	assert.Equal(t, domain.LaneGreen, parsed.Lane)
	assert.Empty(t, parsed.Errors)
}

func TestParseResponse_ClearanceDiscriminatedByType(t *testing.T) {
	raw, err := ceisaxml.BuildResponse(ceisaxml.ResponseDocument{
		DocumentType:   "PIB",
		DocumentNumber: "PIB-2025-000007",
		ResponseCode:   "00",
		SPPBNumber:     "SPPB-778",
		NPENumber:      "NPE-should-be-ignored",
	}, time.Now())
	require.NoError(t, err)

	parsed, err := ceisaxml.ParseResponse(raw)
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentTypePIB, parsed.DocumentType)
	assert.Equal(t, "SPPB-778", parsed.ClearanceNumber)
}

func TestParseResponse_RejectionWithFieldErrors(t *testing.T) {
	raw, err := ceisaxml.BuildResponse(ceisaxml.ResponseDocument{
		DocumentType:    "PEB",
		DocumentNumber:  "PEB-2025-000123",
		ResponseCode:    "40",
		ResponseMessage: "Validation failed",
		Errors: &ceisaxml.ResponseErrors{Errors: []ceisaxml.ResponseError{
			{Code: "E017", Field: "HS_CODE", Message: "HS tariff code is not found", Value: "9999.99.99"},
			{Code: "W001", Field: "TOTAL_VALUE", Message: "Rounded total"},
		}},
	}, time.Now())
	require.NoError(t, err)

	parsed, err := ceisaxml.ParseResponse(raw)
	require.NoError(t, err)

	assert.False(t, parsed.Success())
	require.Len(t, parsed.Errors, 2)
	assert.Equal(t, "E017", parsed.Errors[0].Code)
	assert.Equal(t, "9999.99.99", parsed.Errors[0].Value)
	assert.Equal(t, domain.SeverityWarning, parsed.Errors[1].Severity())
}

func TestParseResponse_UnknownDocumentType(t *testing.T) {
	raw, err := ceisaxml.BuildResponse(ceisaxml.ResponseDocument{
		DocumentType:   "BC23",
		DocumentNumber: "X-1",
		ResponseCode:   "00",
	}, time.Now())
	require.NoError(t, err)

	_, err = ceisaxml.ParseResponse(raw)
	assert.Error(t, err)
}

func TestParseResponse_Garbage(t *testing.T) {
	_, err := ceisaxml.ParseResponse("this is not xml")
	assert.Error(t, err)
}

func TestBuildResponse_SignedAndVerifiable(t *testing.T) {
	raw, err := ceisaxml.BuildResponse(ceisaxml.ResponseDocument{
		DocumentType:   "PEB",
		DocumentNumber: "PEB-1",
		ResponseCode:   "00",
	}, time.Now())
	require.NoError(t, err)

	valid, hasDigest := ceisaxml.Verify(raw)
	assert.True(t, hasDigest)
	assert.True(t, valid)
}
