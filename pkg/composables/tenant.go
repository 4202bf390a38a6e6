package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/buildgrid-io/buildgrid/pkg/constants"
)

var (
	ErrNoTenant = errors.New("no tenant found in context")
	ErrNoUser   = errors.New("no user found in context")
)

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoTenant
	}
	return id, nil
}

// WithUserID attaches the operator identity; executor writes are tagged
// with it.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.UserIDKey, userID)
}

func UseUserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(constants.UserIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoUser
	}
	return id, nil
}
