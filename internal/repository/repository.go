package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkazants/accounts-service/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	FullName       string
	HashedPassword string
}

type UpdateProfileParams struct {
	// Empty string means "leave unchanged"
	FullName string
	Email    string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If username or email is taken already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id, or by username or email (login is matched against both)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByLogin(ctx context.Context, login string) (models.User, error)

	// Profile updates
	UpdateProfile(ctx context.Context, userID uuid.UUID, arg UpdateProfileParams) (models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
	SetAvatarURL(ctx context.Context, userID uuid.UUID, url string) (models.User, error)
	SetCoverURL(ctx context.Context, userID uuid.UUID, url string) (models.User, error)

	// Session slot: the single refresh token stored per user.
	//
	// SetRefreshToken overwrites the slot unconditionally (login or
	// registration invalidates any previous session).
	//
	// SwapRefreshToken replaces old with new in one atomic conditional
	// write. If the stored value is not equal to old anymore it must
	// return apperrors.ErrRefreshRotationConflict and change nothing.
	//
	// ClearRefreshToken empties the slot (logout).
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error
	SwapRefreshToken(ctx context.Context, userID uuid.UUID, old string, next string) error
	ClearRefreshToken(ctx context.Context, userID uuid.UUID) error
}
