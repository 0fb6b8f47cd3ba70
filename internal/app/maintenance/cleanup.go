package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thetombrider/objectdms/internal/services"
	"github.com/thetombrider/objectdms/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultAuditSpec          = "@daily"
	defaultAssignmentSpec     = "@daily"
)

// Cleaner coordinates background maintenance tasks such as pruning stale
// audit logs and removing orphaned role assignments and shares.
type Cleaner struct {
	db        *gorm.DB
	audit     *services.AuditService
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	enabled   bool
	retention int

	auditSchedule      string
	assignmentSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for scheduling and cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithAssignmentSchedule overrides the cron specification for orphaned assignment pruning.
func WithAssignmentSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.assignmentSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding cleanup job being skipped.
func NewCleaner(db *gorm.DB, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:                 db,
		audit:              audit,
		now:                time.Now,
		retention:          defaultAuditRetentionDays,
		auditSchedule:      defaultAuditSpec,
		assignmentSchedule: defaultAssignmentSpec,
		log:                logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.audit != nil || cleaner.db != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			ctx := context.Background()
			if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.db != nil {
		if _, err := c.cron.AddFunc(c.assignmentSchedule, func() {
			ctx := context.Background()
			if _, err := CleanupAssignments(ctx, c.db); err != nil {
				c.log.Warn("assignment cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily
// used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.db != nil {
		if _, err := CleanupAssignments(ctx, c.db); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// AssignmentCleanupStats captures the number of records removed per table.
type AssignmentCleanupStats struct {
	UserRoles      int64
	DocumentShares int64
}

// CleanupAssignments removes user_roles rows whose user or role no longer
// exists, and document_shares rows whose document or grantee is gone. Such
// rows can appear after raw deletes outside the service layer.
func CleanupAssignments(ctx context.Context, db *gorm.DB) (AssignmentCleanupStats, error) {
	if db == nil {
		return AssignmentCleanupStats{}, errors.New("cleanup assignments: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := AssignmentCleanupStats{}

	result := db.WithContext(ctx).
		Exec(`DELETE FROM user_roles WHERE user_id NOT IN (SELECT id FROM users) OR role_id NOT IN (SELECT id FROM roles)`)
	if result.Error != nil {
		return stats, result.Error
	}
	stats.UserRoles = result.RowsAffected

	result = db.WithContext(ctx).
		Exec(`DELETE FROM document_shares WHERE document_id NOT IN (SELECT id FROM documents) OR user_id NOT IN (SELECT id FROM users)`)
	if result.Error != nil {
		return stats, result.Error
	}
	stats.DocumentShares = result.RowsAffected

	return stats, nil
}
