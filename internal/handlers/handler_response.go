package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/ceisaxml"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/nusatrade/ceisa_exchange_app/internal/dto"
	"github.com/nusatrade/ceisa_exchange_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// responseHandler receives authority responses: the inbound webhook the
// channel calls, and a simulation endpoint for development environments.
type responseHandler struct {
	responseService    portssvc.ResponseSvcFacade
	declarationService portssvc.DeclarationSvcFacade
	simulationMode     bool
}

func newResponseHandler(rs portssvc.ResponseSvcFacade, ds portssvc.DeclarationSvcFacade, simulationMode bool) *responseHandler {
	return &responseHandler{responseService: rs, declarationService: ds, simulationMode: simulationMode}
}

// registerResponseWebhookRoutes registers the unauthenticated endpoints the
// exchange channel calls back into. The channel signs content, not requests,
// so these sit outside the JWT group.
func registerResponseWebhookRoutes(rg *gin.RouterGroup, rs portssvc.ResponseSvcFacade, ds portssvc.DeclarationSvcFacade, simulationMode bool) {
	h := newResponseHandler(rs, ds, simulationMode)

	responses := rg.Group("/responses")
	{
		responses.POST("/inbound", h.inboundResponse)
		responses.POST("/simulate", h.simulateResponse)
	}
}

// registerResponseRoutes registers the authenticated read side of incoming
// responses.
func registerResponseRoutes(rg *gin.RouterGroup, rs portssvc.ResponseSvcFacade, ds portssvc.DeclarationSvcFacade) {
	h := newResponseHandler(rs, ds, false)

	responses := rg.Group("/responses")
	{
		responses.GET("/:id", h.getIncoming)
		responses.GET("/declarations/:id", h.listIncomingByDeclaration)
	}
}

// inboundResponse godoc
// @Summary Receive an authority response
// @Description Webhook called by the exchange channel with a raw response XML body
// @Tags responses
// @Accept xml
// @Produce json
// @Success 200 {object} dto.IncomingMessageResponse
// @Failure 400 {object} map[string]string "Unparseable message"
// @Router /responses/inbound [post]
func (h *responseHandler) inboundResponse(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty request body"})
		return
	}

	message, err := h.responseService.ProcessIncoming(c.Request.Context(), string(body))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to process inbound response", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process inbound response"})
		return
	}

	c.JSON(http.StatusOK, dto.ToIncomingMessageResponse(message))
}

// simulateResponse godoc
// @Summary Simulate an authority response
// @Description Generates a response for a declaration and runs it through the inbound pipeline; only available in simulation mode
// @Tags responses
// @Accept json
// @Produce json
// @Param request body dto.SimulateResponseRequest true "Simulation parameters"
// @Success 200 {object} dto.IncomingMessageResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Declaration not found"
// @Router /responses/simulate [post]
func (h *responseHandler) simulateResponse(c *gin.Context) {
	if !h.simulationMode {
		c.JSON(http.StatusForbidden, gin.H{"error": "Response simulation is disabled"})
		return
	}

	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SimulateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	declaration, err := h.declarationService.GetDeclarationByID(c.Request.Context(), req.DeclarationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Declaration not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load declaration"})
		return
	}

	responseXML, err := ceisaxml.BuildResponse(simulatedOutcome(declaration, req.Outcome), time.Now())
	if err != nil {
		logger.Error("Failed to build simulated response", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build simulated response"})
		return
	}

	message, err := h.responseService.ProcessIncoming(c.Request.Context(), responseXML)
	if err != nil {
		logger.Error("Failed to process simulated response", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process simulated response"})
		return
	}

	c.JSON(http.StatusOK, dto.ToIncomingMessageResponse(message))
}

// simulatedOutcome assembles the response document for a requested outcome.
func simulatedOutcome(declaration *domain.Declaration, outcome string) ceisaxml.ResponseDocument {
	doc := ceisaxml.ResponseDocument{
		DocumentType:   string(declaration.DocumentType),
		DocumentNumber: declaration.DocumentNumber,
	}
	registration := declaration.CeisaReference
	if registration == "" {
		registration = "SIM-REG-" + uuid.NewString()[:8]
	}

	switch outcome {
	case "ACCEPT":
		doc.ResponseCode = domain.ResponseCodeSuccess
		doc.ResponseMessage = "Clearance issued"
		doc.RegistrationNumber = registration
		doc.Lane = domain.LaneGreen
		clearance := "SIM-" + declaration.DocumentType.IssuanceNumberLabel() + "-" + uuid.NewString()[:8]
		if declaration.DocumentType == domain.DocumentTypePEB {
			doc.NPENumber = clearance
		} else {
			doc.SPPBNumber = clearance
		}
	case "RECEIVE":
		doc.ResponseCode = domain.ResponseCodeSuccess
		doc.ResponseMessage = "Document registered"
		doc.RegistrationNumber = registration
	case "PENDING":
		doc.ResponseCode = domain.ResponseCodePending
		doc.ResponseMessage = "Document queued for processing"
	case "REJECT":
		doc.ResponseCode = "20"
		doc.ResponseMessage = "Document rejected"
		doc.Errors = &ceisaxml.ResponseErrors{Errors: []ceisaxml.ResponseError{
			{Code: "E004", Field: "TRADER_TAX_ID", Message: "Trader tax identification number failed format validation"},
			{Code: "E017", Field: "HS_CODE", Message: "HS code is not present in the current tariff book"},
		}}
	}
	return doc
}

// getIncoming godoc
// @Summary Get an incoming message
// @Tags responses
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} dto.IncomingMessageResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /responses/{id} [get]
func (h *responseHandler) getIncoming(c *gin.Context) {
	message, err := h.responseService.GetIncoming(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Incoming message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get incoming message"})
		return
	}
	c.JSON(http.StatusOK, dto.ToIncomingMessageResponse(message))
}

// listIncomingByDeclaration godoc
// @Summary Incoming messages for a declaration
// @Tags responses
// @Produce json
// @Param id path string true "Declaration ID"
// @Success 200 {array} dto.IncomingMessageResponse
// @Security BearerAuth
// @Router /responses/declarations/{id} [get]
func (h *responseHandler) listIncomingByDeclaration(c *gin.Context) {
	messages, err := h.responseService.ListIncomingByDeclaration(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list incoming messages"})
		return
	}

	out := make([]dto.IncomingMessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, dto.ToIncomingMessageResponse(&messages[i]))
	}
	c.JSON(http.StatusOK, out)
}
