package ports

import (
	"context"

	"github.com/99minutos/user-directory/internal/core/domain"
)

// RegisterInput carries the fields of a new user.
type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
	Role     string
	Image    string
}

// UpdateInput carries a profile update for an existing user.
type UpdateInput struct {
	ID       string
	FullName string
	Email    string
	Role     string
	Image    string
}

// Confirmation is the payload of a successful mutation.
type Confirmation struct {
	UserID  string
	Message string
}

// DirectoryService defines the user-directory use cases.
//
// A nil error means success. A *domain.RuleViolation is a soft failure; any
// other error is a hard failure.
type DirectoryService interface {
	Register(ctx context.Context, in RegisterInput) (*Confirmation, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Profile, error)
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	ListAll(ctx context.Context) ([]domain.Profile, error)
	Update(ctx context.Context, in UpdateInput) (*Confirmation, error)
	ChangePassword(ctx context.Context, id, password string) (*Confirmation, error)
	ChangeUsername(ctx context.Context, id, username string) (*Confirmation, error)
	Delete(ctx context.Context, id string) (*Confirmation, error)
}
