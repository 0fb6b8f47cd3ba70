package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/thetombrider/objectdms/internal/access"
	"github.com/thetombrider/objectdms/internal/models"
	apperrors "github.com/thetombrider/objectdms/pkg/errors"
)

// DocumentService manages document metadata records and their lifecycle.
// Every operation is gated through the access engine; listing is scoped by
// the accessible-resource filter instead of per-row checks.
type DocumentService struct {
	db           *gorm.DB
	engine       AccessController
	auditService *AuditService
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(db *gorm.DB, engine AccessController, audit *AuditService) (*DocumentService, error) {
	if db == nil {
		return nil, errors.New("document service: db is required")
	}
	if engine == nil {
		return nil, errors.New("document service: access engine is required")
	}
	return &DocumentService{db: db, engine: engine, auditService: audit}, nil
}

// CreateDocumentInput describes the payload accepted by Create.
type CreateDocumentInput struct {
	Title       string
	Description string
	FileName    string
	FilePath    string
	FileSize    int64
	MimeType    string
	Metadata    map[string]any
	Tags        []string
}

// UpdateDocumentInput describes mutable document fields. Empty strings leave
// the current value untouched.
type UpdateDocumentInput struct {
	Title       string
	Description string
}

// ListDocumentsOptions controls pagination and filtering for document listings.
type ListDocumentsOptions struct {
	Page     int
	PageSize int
	Tag      string
	MimeType string
}

// Create registers a document metadata record owned by the caller.
func (s *DocumentService) Create(ctx context.Context, owner *models.User, input CreateDocumentInput) (*models.Document, error) {
	ctx = ensureContext(ctx)

	if owner == nil {
		return nil, errors.New("document service: owner is required")
	}
	if err := s.engine.Ensure(ctx, owner, access.ResourceDocument, access.ActionCreate, nil); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("document title is required")
	}
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, apperrors.NewBadRequest("document file name is required")
	}

	var metadata datatypes.JSON
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, apperrors.NewBadRequest("metadata must be JSON serialisable")
		}
		metadata = datatypes.JSON(raw)
	}

	doc := &models.Document{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		FileName:    fileName,
		FilePath:    strings.TrimSpace(input.FilePath),
		FileSize:    input.FileSize,
		MimeType:    strings.TrimSpace(input.MimeType),
		OwnerID:     owner.ID,
		Metadata:    metadata,
		Version:     1,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("document service: create document: %w", err)
		}
		return replaceTags(tx, doc, input.Tags)
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &owner.ID,
		Action:   "document.create",
		Resource: doc.ID,
		Result:   "success",
		Metadata: map[string]any{"title": doc.Title},
	})

	return doc, nil
}

// Get loads a document and verifies the caller may read it.
func (s *DocumentService) Get(ctx context.Context, user *models.User, documentID string) (*models.Document, error) {
	ctx = ensureContext(ctx)

	doc, err := s.loadDocument(ctx, documentID, false)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Ensure(ctx, user, access.ResourceDocument, access.ActionRead, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// List returns documents the user may read, scoped by the resolver filter.
func (s *DocumentService) List(ctx context.Context, user *models.User, opts ListDocumentsOptions) ([]models.Document, int64, error) {
	ctx = ensureContext(ctx)

	filter, err := s.engine.AccessibleResources(ctx, user, access.ResourceDocument, access.ActionRead)
	if err != nil {
		return nil, 0, err
	}

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("is_deleted = ?", false)
	query = filter.Scope(query)

	if mime := strings.TrimSpace(opts.MimeType); mime != "" {
		query = query.Where("mime_type = ?", mime)
	}
	if tag := strings.ToLower(strings.TrimSpace(opts.Tag)); tag != "" {
		query = query.
			Joins("JOIN document_tags ON document_tags.document_id = documents.id").
			Joins("JOIN tags ON tags.id = document_tags.tag_id").
			Where("tags.name = ?", tag)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("document service: count documents: %w", err)
	}

	var docs []models.Document
	if err := query.
		Preload("Tags").
		Preload("SharedWith").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("document service: list documents: %w", err)
	}

	return docs, total, nil
}

// SharedWithMe lists live documents that carry a share for the user.
func (s *DocumentService) SharedWithMe(ctx context.Context, user *models.User, page, perPage int) ([]models.Document, int64, error) {
	ctx = ensureContext(ctx)

	if user == nil {
		return nil, 0, errors.New("document service: user is required")
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Joins("JOIN document_shares ON document_shares.document_id = documents.id").
		Where("document_shares.user_id = ? AND documents.is_deleted = ?", user.ID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("document service: count shared documents: %w", err)
	}

	var docs []models.Document
	if err := query.
		Preload("SharedWith").
		Order("documents.created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("document service: list shared documents: %w", err)
	}

	return docs, total, nil
}

// Update modifies document metadata and bumps the version counter.
func (s *DocumentService) Update(ctx context.Context, user *models.User, documentID string, input UpdateDocumentInput) (*models.Document, error) {
	ctx = ensureContext(ctx)

	doc, err := s.loadDocument(ctx, documentID, false)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Ensure(ctx, user, access.ResourceDocument, access.ActionWrite, doc); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if title := strings.TrimSpace(input.Title); title != "" && title != doc.Title {
		updates["title"] = title
	}
	if desc := strings.TrimSpace(input.Description); desc != "" && desc != doc.Description {
		updates["description"] = desc
	}

	if len(updates) == 0 {
		return doc, nil
	}
	updates["version"] = doc.Version + 1

	if err := s.db.WithContext(ctx).Model(doc).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("document service: update document: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Action:   "document.update",
		Resource: doc.ID,
		Result:   "success",
	})

	return s.loadDocument(ctx, documentID, false)
}

// SetTags replaces the document's tag set, creating missing tags on the fly.
func (s *DocumentService) SetTags(ctx context.Context, user *models.User, documentID string, tags []string) (*models.Document, error) {
	ctx = ensureContext(ctx)

	doc, err := s.loadDocument(ctx, documentID, false)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Ensure(ctx, user, access.ResourceDocument, access.ActionWrite, doc); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceTags(tx, doc, tags)
	})
	if err != nil {
		return nil, err
	}

	return s.loadDocument(ctx, documentID, false)
}

// SoftDelete marks a document as deleted without removing it.
func (s *DocumentService) SoftDelete(ctx context.Context, user *models.User, documentID string) error {
	ctx = ensureContext(ctx)

	doc, err := s.loadDocument(ctx, documentID, false)
	if err != nil {
		return err
	}

	if err := s.engine.Ensure(ctx, user, access.ResourceDocument, access.ActionDelete, doc); err != nil {
		return err
	}

	now := time.Now().UTC()
	updates := map[string]any{"is_deleted": true, "deleted_at": now}
	if err := s.db.WithContext(ctx).Model(doc).Updates(updates).Error; err != nil {
		return fmt.Errorf("document service: soft delete document: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Action:   "document.delete",
		Resource: doc.ID,
		Result:   "success",
	})

	return nil
}

// Restore clears the deletion mark of a soft-deleted document.
func (s *DocumentService) Restore(ctx context.Context, user *models.User, documentID string) error {
	ctx = ensureContext(ctx)

	doc, err := s.loadDocument(ctx, documentID, true)
	if err != nil {
		return err
	}
	if !doc.IsDeleted {
		return nil
	}

	if err := s.engine.Ensure(ctx, user, access.ResourceDocument, access.ActionDelete, doc); err != nil {
		return err
	}

	updates := map[string]any{"is_deleted": false, "deleted_at": nil}
	if err := s.db.WithContext(ctx).Model(doc).Updates(updates).Error; err != nil {
		return fmt.Errorf("document service: restore document: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Action:   "document.restore",
		Resource: doc.ID,
		Result:   "success",
	})

	return nil
}

// loadDocument fetches a document with shares and tags. The share list is
// loaded eagerly because conditional grants evaluate against it.
func (s *DocumentService) loadDocument(ctx context.Context, documentID string, includeDeleted bool) (*models.Document, error) {
	return loadDocument(ctx, s.db, documentID, includeDeleted)
}

func loadDocument(ctx context.Context, db *gorm.DB, documentID string, includeDeleted bool) (*models.Document, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, apperrors.NewBadRequest("document id is required")
	}

	query := db.WithContext(ctx).
		Preload("SharedWith").
		Preload("Tags")
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}

	var doc models.Document
	if err := query.First(&doc, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("document service: load document: %w", err)
	}
	return &doc, nil
}

func replaceTags(tx *gorm.DB, doc *models.Document, tags []string) error {
	// A nil slice means the caller did not touch tags. An explicit empty
	// set clears them.
	if tags == nil {
		return nil
	}

	names := normaliseTags(tags)
	if len(names) == 0 {
		if err := tx.Model(doc).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("document service: clear tags: %w", err)
		}
		return nil
	}

	resolved := make([]models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return fmt.Errorf("document service: resolve tag %q: %w", name, err)
		}
		resolved = append(resolved, tag)
	}

	if err := tx.Model(doc).Association("Tags").Replace(resolved); err != nil {
		return fmt.Errorf("document service: replace tags: %w", err)
	}
	return nil
}
