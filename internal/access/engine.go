package access

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/thetombrider/objectdms/internal/models"
	apperrors "github.com/thetombrider/objectdms/pkg/errors"
	"github.com/thetombrider/objectdms/pkg/logger"
	"github.com/thetombrider/objectdms/pkg/metrics"
)

// Resource and action tags understood by the default role seed.
const (
	ResourceDocument = "document"

	ActionCreate = "create"
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
	ActionShare  = "share"
)

// OwnedResource is implemented by protected resources with an exclusive owner.
type OwnedResource interface {
	OwnerUserID() string
}

// SharedResource is implemented by protected resources that carry a share list.
type SharedResource interface {
	SharedUserIDs() []string
}

// RoleSource resolves the roles assigned to a user, permissions included.
// Orphaned assignments (role deleted after assignment) must not be returned.
type RoleSource interface {
	RolesForUser(ctx context.Context, userID string) ([]models.Role, error)
}

// ResourceIndex answers the two membership queries the resolver needs,
// each backed by an indexed lookup rather than a table scan.
type ResourceIndex interface {
	OwnedIDs(ctx context.Context, userID string) ([]string, error)
	SharedIDs(ctx context.Context, userID string) ([]string, error)
}

// AuditSink receives denial records fire-and-forget. Implementations must
// never fail the caller; an unavailable sink does not affect decisions.
type AuditSink interface {
	RecordDenial(ctx context.Context, userID, resource, action string)
}

// Engine decides whether a user may perform an action on a resource by
// combining the superuser bypass, role grants, and condition evaluation
// against the target instance. It holds no state beyond its wiring and no
// locks across store calls.
type Engine struct {
	roles   RoleSource
	indexes map[string]ResourceIndex
	audit   AuditSink
	log     *zap.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithAuditSink wires the sink that receives denial records.
func WithAuditSink(sink AuditSink) Option {
	return func(e *Engine) {
		e.audit = sink
	}
}

// WithResourceIndex registers the resolver index for a resource type.
func WithResourceIndex(resource string, index ResourceIndex) Option {
	return func(e *Engine) {
		if resource != "" && index != nil {
			e.indexes[strings.ToLower(resource)] = index
		}
	}
}

// WithLogger overrides the engine's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine constructs an access engine wired to the given role source.
func NewEngine(roles RoleSource, opts ...Option) (*Engine, error) {
	if roles == nil {
		return nil, errors.New("access engine: role source is required")
	}

	engine := &Engine{
		roles:   roles,
		indexes: make(map[string]ResourceIndex),
		log:     logger.WithModule("access"),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Check reports whether the user may perform action on resource. When target
// is non-nil, conditional grants are evaluated against it through the
// capability interfaces. Store failures are returned as *StoreError and are
// never collapsed into a deny.
func (e *Engine) Check(ctx context.Context, user *models.User, resource, action string, target any) (bool, error) {
	if user == nil {
		return false, errors.New("access engine: user is required")
	}
	resource = strings.ToLower(strings.TrimSpace(resource))
	if resource == "" {
		return false, errors.New("access engine: resource is required")
	}
	action = strings.ToLower(strings.TrimSpace(action))
	if action == "" {
		return false, errors.New("access engine: action is required")
	}

	if user.IsSuperuser {
		metrics.AccessChecks.WithLabelValues(resource, action, "allowed").Inc()
		return true, nil
	}

	roles, err := e.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		metrics.AccessChecks.WithLabelValues(resource, action, "error").Inc()
		return false, storeError("load roles", err)
	}

	for i := range roles {
		for j := range roles[i].Permissions {
			perm := &roles[i].Permissions[j]
			if !perm.Matches(resource, action) {
				continue
			}

			if perm.Conditions.IsZero() {
				metrics.AccessChecks.WithLabelValues(resource, action, "allowed").Inc()
				return true, nil
			}

			if target != nil && conditionsSatisfied(user.ID, perm.Conditions, target) {
				metrics.AccessChecks.WithLabelValues(resource, action, "allowed").Inc()
				return true, nil
			}
		}
	}

	metrics.AccessChecks.WithLabelValues(resource, action, "denied").Inc()
	return false, nil
}

// Ensure runs Check and converts a deny into ErrForbidden, recording the
// denial at warning level and in the audit sink. Store errors pass through
// untouched so callers can surface them as 5xx instead of 403.
func (e *Engine) Ensure(ctx context.Context, user *models.User, resource, action string, target any) error {
	allowed, err := e.Check(ctx, user, resource, action, target)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}

	e.log.Warn("access denied",
		zap.String("user_id", user.ID),
		zap.String("resource", resource),
		zap.String("action", action),
	)
	if e.audit != nil {
		e.audit.RecordDenial(ctx, user.ID, resource, action)
	}

	return apperrors.ErrForbidden
}

// AccessibleResources translates the user's grants for (resource, action)
// into a listing filter: unrestricted when any unconditional grant (or the
// superuser flag) applies, otherwise the union of the per-condition indexed
// id queries. No matching grant at all yields an empty id set, not
// unrestricted.
func (e *Engine) AccessibleResources(ctx context.Context, user *models.User, resource, action string) (Filter, error) {
	if user == nil {
		return Filter{}, errors.New("access engine: user is required")
	}
	resource = strings.ToLower(strings.TrimSpace(resource))
	action = strings.ToLower(strings.TrimSpace(action))
	if resource == "" || action == "" {
		return Filter{}, errors.New("access engine: resource and action are required")
	}

	if user.IsSuperuser {
		return UnrestrictedFilter(), nil
	}

	roles, err := e.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		return Filter{}, storeError("load roles", err)
	}

	var needOwned, needShared bool
	for i := range roles {
		for j := range roles[i].Permissions {
			perm := &roles[i].Permissions[j]
			if !perm.Matches(resource, action) {
				continue
			}
			if perm.Conditions.IsZero() {
				return UnrestrictedFilter(), nil
			}
			needOwned = needOwned || perm.Conditions.Owner
			needShared = needShared || perm.Conditions.Shared
		}
	}

	if !needOwned && !needShared {
		return IDSetFilter(nil), nil
	}

	index, ok := e.indexes[resource]
	if !ok {
		return Filter{}, errors.New("access engine: no resource index registered for " + resource)
	}

	var ids []string
	if needOwned {
		owned, err := index.OwnedIDs(ctx, user.ID)
		if err != nil {
			return Filter{}, storeError("query owned ids", err)
		}
		ids = append(ids, owned...)
	}
	if needShared {
		shared, err := index.SharedIDs(ctx, user.ID)
		if err != nil {
			return Filter{}, storeError("query shared ids", err)
		}
		ids = append(ids, shared...)
	}

	return IDSetFilter(ids), nil
}

// conditionsSatisfied evaluates the closed condition set against the target.
// Each set condition is independently sufficient.
func conditionsSatisfied(userID string, conditions models.ConditionSet, target any) bool {
	if conditions.Owner {
		if owned, ok := target.(OwnedResource); ok && owned.OwnerUserID() == userID {
			return true
		}
	}

	if conditions.Shared {
		if shared, ok := target.(SharedResource); ok {
			for _, id := range shared.SharedUserIDs() {
				if id == userID {
					return true
				}
			}
		}
	}

	return false
}
