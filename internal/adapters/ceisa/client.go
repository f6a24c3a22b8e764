// Package ceisa contains the outbound channel adapters to the CEISA
// clearance authority: the real HTTP client and a local simulator for
// development environments.
package ceisa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
)

// Client submits declaration XML to the CEISA exchange endpoint over HTTP.
// Every failure is classified before it leaves this package so the queue
// never has to guess whether a retry can help.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates the HTTP channel client.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) portssvc.CeisaClient {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

var _ portssvc.CeisaClient = (*Client)(nil)

// SubmitDeclaration posts the signed XML and returns the raw receipt XML.
func (c *Client) SubmitDeclaration(ctx context.Context, unit domain.TransmissionUnit) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/documents/%s", c.baseURL, strings.ToLower(string(unit.DocumentType)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(unit.XMLContent))
	if err != nil {
		return "", &domain.TransmissionError{Kind: domain.FailureUnknown, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Message-Id", unit.UnitID)
	req.Header.Set("X-Content-Hash", unit.XMLHash)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.TransmissionError{Kind: domain.FailureNetwork, Message: "failed to read response body: " + err.Error()}
	}

	c.log.Debug("CEISA submission completed",
		slog.String("unit_id", unit.UnitID),
		slog.Int("status_code", resp.StatusCode))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return string(body), nil
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return "", &domain.TransmissionError{Kind: domain.FailureValidation, Message: trimBody(body)}
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return "", &domain.TransmissionError{Kind: domain.FailureTimeout, Message: trimBody(body)}
	case resp.StatusCode >= 500:
		return "", &domain.TransmissionError{Kind: domain.FailureServer, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, trimBody(body))}
	default:
		return "", &domain.TransmissionError{Kind: domain.FailureUnknown, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, trimBody(body))}
	}
}

func classifyTransportError(err error) *domain.TransmissionError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.TransmissionError{Kind: domain.FailureTimeout, Message: err.Error()}
	case isTimeout(err):
		return &domain.TransmissionError{Kind: domain.FailureTimeout, Message: err.Error()}
	case isNetworkError(err):
		return &domain.TransmissionError{Kind: domain.FailureNetwork, Message: err.Error()}
	default:
		return &domain.TransmissionError{Kind: domain.FailureUnknown, Message: err.Error()}
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func trimBody(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
