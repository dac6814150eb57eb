package repository

import (
	"context"

	"github.com/farhan/auth-service/internal/model"
)

// UserRepository is the persistence contract for user accounts.
//
// Implementations must enforce email uniqueness at the storage level:
// Create returns an error wrapping apperror.ErrConflict when the email is
// already taken, even under concurrent identical registrations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}
