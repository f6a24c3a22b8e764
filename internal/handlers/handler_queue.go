package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/nusatrade/ceisa_exchange_app/internal/dto"
	"github.com/nusatrade/ceisa_exchange_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// queueHandler exposes the outgoing transmission queue.
type queueHandler struct {
	transmissionService portssvc.TransmissionSvcFacade
}

func newQueueHandler(ts portssvc.TransmissionSvcFacade) *queueHandler {
	return &queueHandler{transmissionService: ts}
}

// registerQueueRoutes registers routes related to the transmission queue.
func registerQueueRoutes(rg *gin.RouterGroup, ts portssvc.TransmissionSvcFacade) {
	h := newQueueHandler(ts)

	queue := rg.Group("/queue")
	{
		queue.GET("/stats", h.queueStats)
		queue.POST("/process", h.processQueue)
		queue.POST("/retries", h.processRetries)
		queue.GET("/units/:id", h.getUnit)
		queue.POST("/units/:id/transmit", h.transmitUnit)
		queue.GET("/declarations/:id/units", h.listUnitsByDeclaration)
	}
}

// queueStats godoc
// @Summary Queue statistics
// @Description Per-status counts of the outgoing transmission queue
// @Tags queue
// @Produce json
// @Success 200 {object} domain.QueueStats
// @Security BearerAuth
// @Router /queue/stats [get]
func (h *queueHandler) queueStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	stats, err := h.transmissionService.QueueStats(c.Request.Context())
	if err != nil {
		logger.Error("Failed to load queue stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load queue stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// processQueue godoc
// @Summary Drain the pending queue
// @Description Transmits all PENDING units FIFO; per-unit failures are reported in the results
// @Tags queue
// @Produce json
// @Success 200 {object} dto.ProcessQueueResponse
// @Security BearerAuth
// @Router /queue/process [post]
func (h *queueHandler) processQueue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	results, err := h.transmissionService.ProcessQueue(c.Request.Context())
	if err != nil {
		logger.Error("Failed to process queue", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process queue"})
		return
	}
	c.JSON(http.StatusOK, dto.ProcessQueueResponse{Results: results})
}

// processRetries godoc
// @Summary Process due retries
// @Description Re-transmits every ERROR unit whose backoff has elapsed
// @Tags queue
// @Produce json
// @Success 200 {object} dto.ProcessQueueResponse
// @Security BearerAuth
// @Router /queue/retries [post]
func (h *queueHandler) processRetries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	results, err := h.transmissionService.ProcessRetries(c.Request.Context())
	if err != nil {
		logger.Error("Failed to process retries", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process retries"})
		return
	}
	c.JSON(http.StatusOK, dto.ProcessQueueResponse{Results: results})
}

// getUnit godoc
// @Summary Get a transmission unit
// @Tags queue
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} dto.TransmissionUnitResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /queue/units/{id} [get]
func (h *queueHandler) getUnit(c *gin.Context) {
	unit, err := h.transmissionService.GetUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transmission unit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transmission unit"})
		return
	}
	c.JSON(http.StatusOK, dto.ToTransmissionUnitResponse(*unit))
}

// transmitUnit godoc
// @Summary Transmit a unit now
// @Description Performs one delivery attempt for the unit, bypassing the scheduler
// @Tags queue
// @Produce json
// @Param id path string true "Unit ID"
// @Success 200 {object} domain.TransmissionResult
// @Failure 400 {object} map[string]string "Unit not transmittable"
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /queue/units/{id}/transmit [post]
func (h *queueHandler) transmitUnit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	result, err := h.transmissionService.Transmit(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Transmission unit not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to transmit unit", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to transmit unit"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// listUnitsByDeclaration godoc
// @Summary Transmission history for a declaration
// @Tags queue
// @Produce json
// @Param id path string true "Declaration ID"
// @Success 200 {object} dto.ListTransmissionUnitsResponse
// @Security BearerAuth
// @Router /queue/declarations/{id}/units [get]
func (h *queueHandler) listUnitsByDeclaration(c *gin.Context) {
	units, err := h.transmissionService.ListUnitsByDeclaration(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transmission units"})
		return
	}
	c.JSON(http.StatusOK, dto.ListTransmissionUnitsResponse{Units: dto.ToTransmissionUnitResponses(units)})
}
