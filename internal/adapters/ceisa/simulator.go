package ceisa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/ceisaxml"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
)

// Simulator is a local stand-in for the CEISA channel. It acknowledges
// every submission with a registration receipt; richer outcomes (clearance,
// rejection) are produced through the response simulation endpoint.
type Simulator struct {
	log *slog.Logger
}

// NewSimulator creates the simulated channel client.
func NewSimulator(log *slog.Logger) portssvc.CeisaClient {
	return &Simulator{log: log}
}

var _ portssvc.CeisaClient = (*Simulator)(nil)

// SubmitDeclaration returns a registration receipt for the submitted unit.
func (s *Simulator) SubmitDeclaration(ctx context.Context, unit domain.TransmissionUnit) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.TransmissionError{Kind: domain.FailureTimeout, Message: err.Error()}
	}

	receipt, err := ceisaxml.BuildResponse(ceisaxml.ResponseDocument{
		DocumentType:       string(unit.DocumentType),
		DocumentNumber:     unit.DocumentNumber,
		ResponseCode:       domain.ResponseCodeSuccess,
		ResponseMessage:    "Document registered",
		RegistrationNumber: simulatedRegistrationNumber(unit),
	}, time.Now())
	if err != nil {
		return "", &domain.TransmissionError{Kind: domain.FailureUnknown, Message: err.Error()}
	}

	s.log.Info("Simulated CEISA submission",
		slog.String("unit_id", unit.UnitID),
		slog.String("document_number", unit.DocumentNumber))
	return receipt, nil
}

func simulatedRegistrationNumber(unit domain.TransmissionUnit) string {
	suffix := strings.ReplaceAll(unit.UnitID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("SIM-%s-%s", unit.DocumentType, strings.ToUpper(suffix))
}
