package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thetombrider/objectdms/internal/services"
	"github.com/thetombrider/objectdms/pkg/response"
)

// UserHandler exposes superuser-only account administration endpoints.
type UserHandler struct {
	svc *services.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc *services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
