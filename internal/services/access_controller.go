package services

import (
	"context"

	"github.com/thetombrider/objectdms/internal/access"
	"github.com/thetombrider/objectdms/internal/models"
)

// AccessController is the slice of the access engine the services depend on.
// *access.Engine satisfies it.
type AccessController interface {
	Check(ctx context.Context, user *models.User, resource, action string, target any) (bool, error)
	Ensure(ctx context.Context, user *models.User, resource, action string, target any) error
	AccessibleResources(ctx context.Context, user *models.User, resource, action string) (access.Filter, error)
}
