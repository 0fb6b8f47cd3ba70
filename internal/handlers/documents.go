package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thetombrider/objectdms/internal/middleware"
	"github.com/thetombrider/objectdms/internal/models"
	"github.com/thetombrider/objectdms/internal/services"
	"github.com/thetombrider/objectdms/pkg/errors"
	"github.com/thetombrider/objectdms/pkg/response"
)

// DocumentHandler exposes document CRUD and sharing endpoints.
type DocumentHandler struct {
	docs   *services.DocumentService
	shares *services.DocumentShareService
}

// NewDocumentHandler constructs a DocumentHandler.
func NewDocumentHandler(docs *services.DocumentService, shares *services.DocumentShareService) *DocumentHandler {
	return &DocumentHandler{docs: docs, shares: shares}
}

type createDocumentRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	FileName    string         `json:"file_name" binding:"required"`
	FilePath    string         `json:"file_path"`
	FileSize    int64          `json:"file_size" binding:"gte=0"`
	MimeType    string         `json:"mime_type"`
	Metadata    map[string]any `json:"metadata"`
	Tags        []string       `json:"tags"`
}

type sharePermissionsRequest struct {
	CanRead   *bool `json:"can_read"`
	CanWrite  bool  `json:"can_write"`
	CanShare  bool  `json:"can_share"`
	CanDelete bool  `json:"can_delete"`
}

// POST /api/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body createDocumentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}

	doc, err := h.docs.Create(requestContext(c), user, services.CreateDocumentInput{
		Title:       body.Title,
		Description: body.Description,
		FileName:    body.FileName,
		FilePath:    body.FilePath,
		FileSize:    body.FileSize,
		MimeType:    body.MimeType,
		Metadata:    body.Metadata,
		Tags:        body.Tags,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, doc)
}

// GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	page, perPage := paginationParams(c)
	docs, total, err := h.docs.List(requestContext(c), user, services.ListDocumentsOptions{
		Page:     page,
		PageSize: perPage,
		Tag:      c.Query("tag"),
		MimeType: c.Query("mime_type"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, docs, paginationMeta(page, perPage, total))
}

// GET /api/documents/shared-with-me
func (h *DocumentHandler) SharedWithMe(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	page, perPage := paginationParams(c)
	docs, total, err := h.docs.SharedWithMe(requestContext(c), user, page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, docs, paginationMeta(page, perPage, total))
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	doc, err := h.docs.Get(requestContext(c), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, doc)
}

// PATCH /api/documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}

	doc, err := h.docs.Update(requestContext(c), user, c.Param("id"), services.UpdateDocumentInput{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, doc)
}

// PUT /api/documents/:id/tags
func (h *DocumentHandler) SetTags(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body struct {
		Tags []string `json:"tags" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, errors.ErrBadRequest)
		return
	}

	doc, err := h.docs.SetTags(requestContext(c), user, c.Param("id"), body.Tags)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, doc)
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.docs.SoftDelete(requestContext(c), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/documents/:id/restore
func (h *DocumentHandler) Restore(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.docs.Restore(requestContext(c), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"restored": true})
}

// POST /api/documents/:id/share/:userID
func (h *DocumentHandler) Share(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	// An empty body grants the default read-only permission set.
	var body sharePermissionsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, errors.ErrBadRequest)
			return
		}
	}

	perms := models.SharePermissions{
		CanRead:   true,
		CanWrite:  body.CanWrite,
		CanShare:  body.CanShare,
		CanDelete: body.CanDelete,
	}
	if body.CanRead != nil {
		perms.CanRead = *body.CanRead
	}

	share, err := h.shares.Share(requestContext(c), user, c.Param("id"), c.Param("userID"), &perms)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, share)
}

// DELETE /api/documents/:id/share/:userID
func (h *DocumentHandler) Unshare(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.shares.Unshare(requestContext(c), user, c.Param("id"), c.Param("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// GET /api/documents/:id/shares
func (h *DocumentHandler) ListShares(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	shares, err := h.shares.ListShares(requestContext(c), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, shares)
}

// GET /api/documents/:id/permissions
func (h *DocumentHandler) MyPermissions(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	perms, err := h.shares.EffectivePermissions(requestContext(c), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if perms == nil {
		response.Success(c, http.StatusOK, gin.H{"access": false})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"access": true, "permissions": perms})
}

func paginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func paginationMeta(page, perPage int, total int64) *response.Meta {
	return &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}
}
