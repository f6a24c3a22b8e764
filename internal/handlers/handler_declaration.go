package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nusatrade/ceisa_exchange_app/internal/apperrors"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/domain"
	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/nusatrade/ceisa_exchange_app/internal/dto"
	"github.com/nusatrade/ceisa_exchange_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// declarationHandler handles HTTP requests related to declarations.
type declarationHandler struct {
	declarationService portssvc.DeclarationSvcFacade
	auditService       portssvc.AuditSvcFacade
}

func newDeclarationHandler(ds portssvc.DeclarationSvcFacade, as portssvc.AuditSvcFacade) *declarationHandler {
	return &declarationHandler{declarationService: ds, auditService: as}
}

// registerDeclarationRoutes registers routes related to declarations.
func registerDeclarationRoutes(rg *gin.RouterGroup, ds portssvc.DeclarationSvcFacade, as portssvc.AuditSvcFacade) {
	h := newDeclarationHandler(ds, as)

	declarations := rg.Group("/declarations")
	{
		declarations.POST("", h.createDeclaration)
		declarations.GET("", h.listDeclarations)
		declarations.GET("/:id", h.getDeclarationByID)
		declarations.PUT("/:id", h.updateDeclaration)
		declarations.DELETE("/:id", h.deleteDeclaration)
		declarations.GET("/:id/xml", h.generateXML)
		declarations.POST("/:id/submit", h.submitDeclaration)
		declarations.POST("/:id/lock", h.lockDeclaration)
		declarations.POST("/:id/unlock", h.unlockDeclaration)
		declarations.POST("/:id/revise", h.reviseDeclaration)
		declarations.POST("/:id/complete", h.completeDeclaration)
		declarations.GET("/:id/audit", h.declarationAuditHistory)
	}
}

// createDeclaration godoc
// @Summary Create a new declaration
// @Description Creates a PEB or PIB declaration in DRAFT status
// @Tags declarations
// @Accept json
// @Produce json
// @Param declaration body dto.CreateDeclarationRequest true "Declaration details"
// @Success 201 {object} dto.DeclarationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Document number already exists"
// @Security BearerAuth
// @Router /declarations [post]
func (h *declarationHandler) createDeclaration(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateDeclaration", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	declaration, err := h.declarationService.CreateDeclaration(c.Request.Context(), req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Document number '" + req.DocumentNumber + "' already exists"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create declaration", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create declaration"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToDeclarationResponse(declaration))
}

// listDeclarations godoc
// @Summary List declarations
// @Description Lists declarations newest first, optionally filtered by document type
// @Tags declarations
// @Produce json
// @Param type query string false "Document type filter (PEB or PIB)"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} dto.ListDeclarationsResponse
// @Security BearerAuth
// @Router /declarations [get]
func (h *declarationHandler) listDeclarations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	docType := domain.DocumentType(c.Query("type"))
	if docType != "" && docType != domain.DocumentTypePEB && docType != domain.DocumentTypePIB {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be PEB or PIB"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	declarations, err := h.declarationService.ListDeclarations(c.Request.Context(), docType, limit, offset)
	if err != nil {
		logger.Error("Failed to list declarations", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list declarations"})
		return
	}

	out := dto.ListDeclarationsResponse{Declarations: make([]dto.DeclarationResponse, 0, len(declarations))}
	for i := range declarations {
		out.Declarations = append(out.Declarations, dto.ToDeclarationResponse(&declarations[i]))
	}
	c.JSON(http.StatusOK, out)
}

// getDeclarationByID godoc
// @Summary Get a declaration
// @Tags declarations
// @Produce json
// @Param id path string true "Declaration ID"
// @Success 200 {object} dto.DeclarationResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /declarations/{id} [get]
func (h *declarationHandler) getDeclarationByID(c *gin.Context) {
	declaration, err := h.declarationService.GetDeclarationByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get declaration")
		return
	}
	c.JSON(http.StatusOK, dto.ToDeclarationResponse(declaration))
}

// updateDeclaration godoc
// @Summary Update a declaration
// @Description Patches an unlocked DRAFT declaration; a locked record is refused
// @Tags declarations
// @Accept json
// @Produce json
// @Param id path string true "Declaration ID"
// @Param declaration body dto.UpdateDeclarationRequest true "Fields to update"
// @Success 200 {object} dto.DeclarationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 423 {object} map[string]string "Document is locked"
// @Security BearerAuth
// @Router /declarations/{id} [put]
func (h *declarationHandler) updateDeclaration(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateDeclaration", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	declaration, err := h.declarationService.UpdateDeclaration(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		h.respondError(c, err, "Failed to update declaration")
		return
	}
	c.JSON(http.StatusOK, dto.ToDeclarationResponse(declaration))
}

// deleteDeclaration godoc
// @Summary Delete a declaration
// @Description Deletes an unlocked DRAFT declaration and its line items
// @Tags declarations
// @Param id path string true "Declaration ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 423 {object} map[string]string "Document is locked"
// @Security BearerAuth
// @Router /declarations/{id} [delete]
func (h *declarationHandler) deleteDeclaration(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.declarationService.DeleteDeclaration(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.respondError(c, err, "Failed to delete declaration")
		return
	}
	c.Status(http.StatusNoContent)
}

// generateXML godoc
// @Summary Generate declaration XML
// @Description Canonicalizes, hashes and signs the declaration XML for preview
// @Tags declarations
// @Produce xml
// @Param id path string true "Declaration ID"
// @Success 200 {string} string "Signed XML"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 423 {object} map[string]string "Document is locked"
// @Security BearerAuth
// @Router /declarations/{id}/xml [get]
func (h *declarationHandler) generateXML(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	xml, err := h.declarationService.GenerateXML(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err, "Failed to generate XML")
		return
	}
	c.Data(http.StatusOK, "application/xml", []byte(xml))
}

// submitDeclaration godoc
// @Summary Submit a declaration
// @Description Runs the validation gate, locks the record and queues the signed XML for transmission
// @Tags declarations
// @Produce json
// @Param id path string true "Declaration ID"
// @Success 200 {object} dto.SubmitDeclarationResponse
// @Failure 400 {object} map[string]string "Validation failed"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 423 {object} map[string]string "Document is locked"
// @Security BearerAuth
// @Router /declarations/{id}/submit [post]
func (h *declarationHandler) submitDeclaration(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	receipt, err := h.declarationService.SubmitDeclaration(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		var validationErr *apperrors.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "messages": validationErr.Messages})
			return
		}
		h.respondError(c, err, "Failed to submit declaration")
		return
	}

	logger.Info("Declaration submitted", slog.String("declaration_id", c.Param("id")))
	c.JSON(http.StatusOK, dto.ToSubmitDeclarationResponse(receipt))
}

// lockDeclaration godoc
// @Summary Lock a declaration
// @Description Locks the record; locking an already-locked record is refused
// @Tags declarations
// @Param id path string true "Declaration ID"
// @Success 204 "Locked"
// @Failure 423 {object} map[string]string "Already locked"
// @Security BearerAuth
// @Router /declarations/{id}/lock [post]
func (h *declarationHandler) lockDeclaration(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.declarationService.LockDeclaration(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.respondError(c, err, "Failed to lock declaration")
		return
	}
	c.Status(http.StatusNoContent)
}

// unlockDeclaration godoc
// @Summary Unlock a declaration
// @Description Administrative escape hatch; the reason is mandatory and audited
// @Tags declarations
// @Accept json
// @Param id path string true "Declaration ID"
// @Param request body dto.UnlockDeclarationRequest true "Unlock justification"
// @Success 204 "Unlocked"
// @Failure 400 {object} map[string]string "Missing reason"
// @Failure 403 {object} map[string]string "Caller is not a configured administrator"
// @Security BearerAuth
// @Router /declarations/{id}/unlock [post]
func (h *declarationHandler) unlockDeclaration(c *gin.Context) {
	var req dto.UnlockDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An unlock reason of at least 10 characters is required"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.declarationService.UnlockDeclaration(c.Request.Context(), c.Param("id"), req.Reason, userID); err != nil {
		h.respondError(c, err, "Failed to unlock declaration")
		return
	}
	c.Status(http.StatusNoContent)
}

// reviseDeclaration godoc
// @Summary Revise a rejected declaration
// @Description Returns an AUTHORITY_REJECTED declaration to DRAFT for correction
// @Tags declarations
// @Produce json
// @Param id path string true "Declaration ID"
// @Success 200 {object} dto.DeclarationResponse
// @Failure 400 {object} map[string]string "Wrong status"
// @Security BearerAuth
// @Router /declarations/{id}/revise [post]
func (h *declarationHandler) reviseDeclaration(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	declaration, err := h.declarationService.ReviseRejected(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err, "Failed to revise declaration")
		return
	}
	c.JSON(http.StatusOK, dto.ToDeclarationResponse(declaration))
}

// completeDeclaration godoc
// @Summary Complete a declaration
// @Description Closes out a CLEARANCE_ISSUED declaration
// @Tags declarations
// @Produce json
// @Param id path string true "Declaration ID"
// @Success 200 {object} dto.DeclarationResponse
// @Failure 400 {object} map[string]string "Wrong status"
// @Security BearerAuth
// @Router /declarations/{id}/complete [post]
func (h *declarationHandler) completeDeclaration(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	declaration, err := h.declarationService.CompleteDeclaration(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err, "Failed to complete declaration")
		return
	}
	c.JSON(http.StatusOK, dto.ToDeclarationResponse(declaration))
}

// declarationAuditHistory godoc
// @Summary Declaration audit trail
// @Tags declarations
// @Produce json
// @Param id path string true "Declaration ID"
// @Success 200 {array} domain.AuditLog
// @Security BearerAuth
// @Router /declarations/{id}/audit [get]
func (h *declarationHandler) declarationAuditHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	logs, err := h.auditService.History(c.Request.Context(), "declaration", c.Param("id"))
	if err != nil {
		logger.Error("Failed to load audit history", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit history"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// respondError maps domain errors onto HTTP status codes.
func (h *declarationHandler) respondError(c *gin.Context, err error, fallback string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Declaration not found"})
	case errors.Is(err, apperrors.ErrDocumentLocked):
		c.JSON(http.StatusLocked, gin.H{"error": apperrors.ErrDocumentLocked.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": apperrors.ErrForbidden.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
