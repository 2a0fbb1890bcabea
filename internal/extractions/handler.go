package extractions

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealdocs-backend/internal/shared/server/respond"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/extractions", h.listByDocument)
	rg.GET("/documents/:id/extractions/latest", h.latest)
	rg.POST("/documents/:id/extractions", h.create)
	rg.GET("/extractions/:id", h.get)
	rg.PATCH("/extractions/:id", h.update)
	rg.DELETE("/extractions/:id", h.remove)
	rg.GET("/projects/:id/extractions", h.listByProject)
	rg.GET("/projects/:id/extractions/export.xlsx", h.exportProject)
}

func (h *Handler) listByDocument(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	list, err := h.Svc.ListByDocument(c.Request.Context(), documentID)
	if err != nil {
		writeError(c, err, "failed to list extractions")
		return
	}
	respond.OK(c, gin.H{"extractions": toResponses(list)})
}

func (h *Handler) latest(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	ext, err := h.Svc.GetLatestByDocument(c.Request.Context(), documentID)
	if err != nil {
		writeError(c, err, "failed to fetch latest extraction")
		return
	}
	if ext == nil {
		respond.OK(c, gin.H{"extraction": nil})
		return
	}
	c.Set("extractionId", ext.ID)
	c.Set("extractionVersion", ext.Version)
	respond.OK(c, gin.H{"extraction": toResponse(*ext)})
}

func (h *Handler) create(c *gin.Context) {
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	var req createExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set("projectId", req.ProjectID)

	ext, err := h.Svc.Create(c.Request.Context(), CreateInput{
		DocumentID:     documentID,
		ProjectID:      req.ProjectID,
		ExtractedData:  req.ExtractedData,
		SourceFileName: req.SourceFileName,
	})
	if err != nil {
		writeError(c, err, "failed to create extraction")
		return
	}
	c.Set("extractionId", ext.ID)
	c.Set("extractionVersion", ext.Version)
	respond.JSON(c, http.StatusCreated, toResponse(ext))
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("extractionId", id)

	ext, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch extraction")
		return
	}
	c.Set("documentId", ext.DocumentID)
	c.Set("extractionVersion", ext.Version)
	respond.OK(c, toResponse(ext))
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	c.Set("extractionId", id)

	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ext, err := h.Svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, err, "failed to update extraction")
		return
	}
	c.Set("documentId", ext.DocumentID)
	c.Set("extractionVersion", ext.Version)
	respond.OK(c, toResponse(ext))
}

func (h *Handler) remove(c *gin.Context) {
	id := c.Param("id")
	c.Set("extractionId", id)

	if err := h.Svc.Remove(c.Request.Context(), id); err != nil {
		writeError(c, err, "failed to remove extraction")
		return
	}
	respond.NoContent(c)
}

func (h *Handler) listByProject(c *gin.Context) {
	projectID := c.Param("id")
	c.Set("projectId", projectID)

	list, err := h.Svc.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err, "failed to list project extractions")
		return
	}
	respond.OK(c, gin.H{"extractions": toResponses(list)})
}

func (h *Handler) exportProject(c *gin.Context) {
	projectID := c.Param("id")
	c.Set("projectId", projectID)

	data, err := h.Svc.ExportProjectXLSX(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err, "failed to export project extractions")
		return
	}
	respond.Binary(c, xlsxContentType, "extractions-"+projectID+".xlsx", data)
}

func writeError(c *gin.Context, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "extraction not found", nil)
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", verr.Error(), gin.H{"field": verr.Field})
	case errors.Is(err, ErrTransient):
		respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", "extraction store is busy, try again", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
