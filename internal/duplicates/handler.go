package duplicates

import (
	"github.com/gin-gonic/gin"

	"dealdocs-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type checkRequest struct {
	FileName  string `json:"fileName"`
	ClientID  string `json:"clientId"`
	ProjectID string `json:"projectId"`
}

// RegisterRoutes attaches duplicate-check routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/duplicate-checks", h.check)
}

// check always answers 200; an unreadable body is treated as missing input.
func (h *Handler) check(c *gin.Context) {
	var req checkRequest
	_ = c.ShouldBindJSON(&req)
	c.Set("clientId", req.ClientID)
	c.Set("projectId", req.ProjectID)

	respond.OK(c, h.Svc.Check(c.Request.Context(), req.FileName, req.ClientID, req.ProjectID))
}
