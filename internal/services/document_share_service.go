package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/thetombrider/objectdms/internal/access"
	"github.com/thetombrider/objectdms/internal/models"
	apperrors "github.com/thetombrider/objectdms/pkg/errors"
	"github.com/thetombrider/objectdms/pkg/metrics"
)

// DocumentShareService maintains a document's share list. Each mutation is a
// single transaction on that document so the replace-for-one-user semantics
// never clobber a concurrent share for another user.
type DocumentShareService struct {
	db           *gorm.DB
	engine       AccessController
	auditService *AuditService
}

// NewDocumentShareService constructs a DocumentShareService.
func NewDocumentShareService(db *gorm.DB, engine AccessController, audit *AuditService) (*DocumentShareService, error) {
	if db == nil {
		return nil, errors.New("document share service: db is required")
	}
	if engine == nil {
		return nil, errors.New("document share service: access engine is required")
	}
	return &DocumentShareService{db: db, engine: engine, auditService: audit}, nil
}

// Share grants the target user access to the document, replacing any prior
// grant for that user. Nil permissions default to read-only. Repeated calls
// converge to a single entry, refreshing shared_at each time.
func (s *DocumentShareService) Share(ctx context.Context, actor *models.User, documentID, targetUserID string, perms *models.SharePermissions) (*models.DocumentShare, error) {
	ctx = ensureContext(ctx)

	doc, err := loadDocument(ctx, s.db, documentID, false)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Ensure(ctx, actor, access.ResourceDocument, access.ActionShare, doc); err != nil {
		return nil, err
	}

	targetUserID = strings.TrimSpace(targetUserID)
	var target models.User
	if err := s.db.WithContext(ctx).Select("id").First(&target, "id = ?", targetUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("document share service: load target user: %w", err)
	}

	if target.ID == doc.OwnerID {
		return nil, apperrors.NewBadRequest("document owners already hold full permissions")
	}

	bits := models.DefaultSharePermissions()
	if perms != nil {
		bits = *perms
	}

	share := models.DocumentShare{
		DocumentID:  doc.ID,
		UserID:      target.ID,
		Permissions: bits,
		SharedByID:  actor.ID,
		SharedAt:    time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("document_id = ? AND user_id = ?", doc.ID, target.ID).
			Delete(&models.DocumentShare{}).Error; err != nil {
			return fmt.Errorf("document share service: remove previous share: %w", err)
		}
		if err := tx.Create(&share).Error; err != nil {
			return fmt.Errorf("document share service: create share: %w", err)
		}
		if err := tx.Model(&models.Document{}).
			Where("id = ?", doc.ID).
			Update("updated_at", time.Now().UTC()).Error; err != nil {
			return fmt.Errorf("document share service: touch document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.DocumentShares.WithLabelValues("share").Inc()
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actor.ID,
		Action:   "document.share",
		Resource: doc.ID,
		Result:   "success",
		Metadata: map[string]any{"target_user_id": target.ID},
	})

	return &share, nil
}

// Unshare removes the target user's grant. Removing an absent grant is a
// no-op, not an error.
func (s *DocumentShareService) Unshare(ctx context.Context, actor *models.User, documentID, targetUserID string) error {
	ctx = ensureContext(ctx)

	doc, err := loadDocument(ctx, s.db, documentID, false)
	if err != nil {
		return err
	}

	if err := s.engine.Ensure(ctx, actor, access.ResourceDocument, access.ActionShare, doc); err != nil {
		return err
	}

	var removed int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("document_id = ? AND user_id = ?", doc.ID, strings.TrimSpace(targetUserID)).
			Delete(&models.DocumentShare{})
		if result.Error != nil {
			return fmt.Errorf("document share service: remove share: %w", result.Error)
		}
		removed = result.RowsAffected
		if removed == 0 {
			return nil
		}
		if err := tx.Model(&models.Document{}).
			Where("id = ?", doc.ID).
			Update("updated_at", time.Now().UTC()).Error; err != nil {
			return fmt.Errorf("document share service: touch document: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		metrics.DocumentShares.WithLabelValues("unshare").Inc()
		recordAudit(s.auditService, ctx, AuditEntry{
			UserID:   &actor.ID,
			Action:   "document.unshare",
			Resource: doc.ID,
			Result:   "success",
			Metadata: map[string]any{"target_user_id": targetUserID},
		})
	}

	return nil
}

// ListShares returns the document's share entries with user details.
func (s *DocumentShareService) ListShares(ctx context.Context, actor *models.User, documentID string) ([]models.DocumentShare, error) {
	ctx = ensureContext(ctx)

	doc, err := loadDocument(ctx, s.db, documentID, false)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Ensure(ctx, actor, access.ResourceDocument, access.ActionRead, doc); err != nil {
		return nil, err
	}

	var shares []models.DocumentShare
	if err := s.db.WithContext(ctx).
		Preload("User").
		Preload("SharedBy").
		Where("document_id = ?", doc.ID).
		Order("shared_at ASC").
		Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("document share service: list shares: %w", err)
	}

	return shares, nil
}

// EffectivePermissions resolves the user's share bits on the document: the
// full set for the owner, the share entry's bits when present, nil otherwise.
func (s *DocumentShareService) EffectivePermissions(ctx context.Context, user *models.User, documentID string) (*models.SharePermissions, error) {
	ctx = ensureContext(ctx)

	if user == nil {
		return nil, errors.New("document share service: user is required")
	}

	doc, err := loadDocument(ctx, s.db, documentID, false)
	if err != nil {
		return nil, err
	}

	return doc.UserPermissions(user.ID), nil
}
