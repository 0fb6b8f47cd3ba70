package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thetombrider/objectdms/internal/middleware"
	"github.com/thetombrider/objectdms/internal/models"
	"github.com/thetombrider/objectdms/internal/services"
	"github.com/thetombrider/objectdms/pkg/errors"
	"github.com/thetombrider/objectdms/pkg/response"
)

// RoleHandler exposes role administration endpoints.
type RoleHandler struct {
	svc *services.RoleService
}

// NewRoleHandler constructs a RoleHandler.
func NewRoleHandler(svc *services.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

type roleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type grantRequest struct {
	Resource   string `json:"resource" binding:"required"`
	Action     string `json:"action" binding:"required"`
	Conditions struct {
		Owner  bool `json:"owner"`
		Shared bool `json:"shared"`
	} `json:"conditions"`
}

// GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.svc.ListRoles(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// GET /api/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.svc.GetRole(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

// POST /api/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var body roleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}

	role, err := h.svc.CreateRole(requestContext(c), services.CreateRoleInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, role)
}

// PATCH /api/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}

	role, err := h.svc.UpdateRole(requestContext(c), c.Param("id"), services.UpdateRoleInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

// DELETE /api/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteRole(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// PUT /api/roles/:id/permissions
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	var body struct {
		Grants []grantRequest `json:"grants" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}

	grants := make([]services.PermissionGrant, 0, len(body.Grants))
	for _, g := range body.Grants {
		grants = append(grants, services.PermissionGrant{
			Resource: g.Resource,
			Action:   g.Action,
			Conditions: models.ConditionSet{
				Owner:  g.Conditions.Owner,
				Shared: g.Conditions.Shared,
			},
		})
	}

	if err := h.svc.SetRolePermissions(requestContext(c), c.Param("id"), grants); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": true})
}

// POST /api/users/:id/roles/:roleID
func (h *RoleHandler) Assign(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.svc.AssignRole(requestContext(c), c.Param("id"), c.Param("roleID"), actor.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assigned": true})
}

// DELETE /api/users/:id/roles/:roleID
func (h *RoleHandler) Revoke(c *gin.Context) {
	if err := h.svc.RevokeRole(requestContext(c), c.Param("id"), c.Param("roleID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/users/:id/roles
func (h *RoleHandler) RolesForUser(c *gin.Context) {
	roles, err := h.svc.RolesForUser(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}
