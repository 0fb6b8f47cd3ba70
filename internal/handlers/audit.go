package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thetombrider/objectdms/internal/services"
	"github.com/thetombrider/objectdms/pkg/response"
)

// AuditHandler exposes audit log queries to administrators.
type AuditHandler struct {
	svc *services.AuditService
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(svc *services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	page, perPage := paginationParams(c)

	filters := services.AuditFilters{
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
		Result:   c.Query("result"),
		Resource: c.Query("resource"),
	}
	if since := c.Query("since"); since != "" {
		if parsed, err := time.Parse(time.RFC3339, since); err == nil {
			filters.Since = &parsed
		}
	}
	if until := c.Query("until"); until != "" {
		if parsed, err := time.Parse(time.RFC3339, until); err == nil {
			filters.Until = &parsed
		}
	}

	logs, total, err := h.svc.List(requestContext(c), services.AuditListOptions{
		Page:     page,
		PageSize: perPage,
		Filters:  filters,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, paginationMeta(page, perPage, total))
}
