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

// archiveHandler exposes the append-only message archive.
type archiveHandler struct {
	archiveService portssvc.ArchiveSvcFacade
}

func newArchiveHandler(as portssvc.ArchiveSvcFacade) *archiveHandler {
	return &archiveHandler{archiveService: as}
}

// registerArchiveRoutes registers routes related to the message archive.
func registerArchiveRoutes(rg *gin.RouterGroup, as portssvc.ArchiveSvcFacade) {
	h := newArchiveHandler(as)

	archive := rg.Group("/archive")
	{
		archive.GET("", h.queryEntries)
		archive.GET("/:id", h.getEntry)
		archive.GET("/:id/export", h.exportEntry)
		archive.POST("/:id/verify", h.verifyEntry)
		archive.POST("/purge", h.purgeEntries)
	}
}

// queryEntries godoc
// @Summary Search the archive
// @Description Lists archive entries filtered by message, document, direction and date range
// @Tags archive
// @Produce json
// @Param messageID query string false "Exact message ID"
// @Param documentNumber query string false "Document number substring"
// @Param documentType query string false "PEB or PIB"
// @Param direction query string false "OUTGOING or INCOMING"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param limit query int false "Page size (default 50, max 500)"
// @Success 200 {object} dto.ListArchiveEntriesResponse
// @Failure 400 {object} map[string]string "Invalid filters"
// @Security BearerAuth
// @Router /archive [get]
func (h *archiveHandler) queryEntries(c *gin.Context) {
	var req dto.ArchiveQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	query, err := req.ToQuery()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date filter: " + err.Error()})
		return
	}

	entries, err := h.archiveService.QueryEntries(c.Request.Context(), query)
	if err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Failed to query archive", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query archive"})
		return
	}

	out := make([]dto.ArchiveEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, dto.ToArchiveEntryResponse(&entries[i]))
	}
	c.JSON(http.StatusOK, dto.ListArchiveEntriesResponse{Entries: out})
}

// getEntry godoc
// @Summary Get an archive entry
// @Tags archive
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} dto.ArchiveEntryResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /archive/{id} [get]
func (h *archiveHandler) getEntry(c *gin.Context) {
	entry, err := h.archiveService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Archive entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get archive entry"})
		return
	}
	c.JSON(http.StatusOK, dto.ToArchiveEntryResponse(entry))
}

// exportEntry godoc
// @Summary Download an archived message
// @Description Streams the archived XML as a file attachment
// @Tags archive
// @Produce xml
// @Param id path string true "Entry ID"
// @Success 200 {string} string "XML content"
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /archive/{id}/export [get]
func (h *archiveHandler) exportEntry(c *gin.Context) {
	entry, err := h.archiveService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Archive entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export archive entry"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+entry.ExportFilename()+`"`)
	c.Data(http.StatusOK, "application/xml", []byte(entry.XMLContent))
}

// verifyEntry godoc
// @Summary Verify an archive entry
// @Description Recomputes the content hash and compares it with the stored one
// @Tags archive
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} domain.VerificationResult
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /archive/{id}/verify [post]
func (h *archiveHandler) verifyEntry(c *gin.Context) {
	result, err := h.archiveService.VerifyEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Archive entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify archive entry"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// purgeEntries godoc
// @Summary Purge old archive entries
// @Description Deletes entries older than the given number of days; the only deletion path
// @Tags archive
// @Accept json
// @Produce json
// @Param request body dto.PurgeArchiveRequest true "Retention cutoff"
// @Success 200 {object} dto.PurgeArchiveResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /archive/purge [post]
func (h *archiveHandler) purgeEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PurgeArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	purged, err := h.archiveService.Purge(c.Request.Context(), req.OlderThanDays)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to purge archive", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purge archive"})
		return
	}

	logger.Info("Archive purged", slog.Int("olderThanDays", req.OlderThanDays), slog.Int64("purged", purged))
	c.JSON(http.StatusOK, dto.PurgeArchiveResponse{Purged: purged})
}
