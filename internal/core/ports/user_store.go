package ports

import (
	"context"
	"time"

	"github.com/99minutos/user-directory/internal/core/domain"
)

// UserFilter selects a single user. Exactly one field is expected to be set;
// when several are set they are combined with AND.
type UserFilter struct {
	ID       string
	Username string
	Email    string
}

// UserPatch lists the fields to overwrite on a user. Nil fields are left untouched.
type UserPatch struct {
	FullName *string
	Username *string
	Email    *string
	Password *string
	Role     *string
	Image    *string
	Updated  *time.Time
}

// UserStore is the record store adapter. Every call is a single round trip
// with no transactional grouping across calls.
//
// Errors:
//   - domain.ErrUserNotFound when nothing matched.
//   - domain.ErrInvalidID when an id cannot be parsed.
//   - *domain.ConflictError when a write violates a unique index.
//   - an error wrapping domain.ErrStoreUnavailable when the store cannot be reached.
type UserStore interface {
	FindOne(ctx context.Context, filter UserFilter) (*domain.User, error)
	// InsertOne stores u and returns the identifier assigned by the store.
	InsertOne(ctx context.Context, u *domain.User) (string, error)
	UpdateOne(ctx context.Context, filter UserFilter, patch UserPatch) error
	DeleteOne(ctx context.Context, filter UserFilter) error
	FindAll(ctx context.Context) ([]*domain.User, error)
}
