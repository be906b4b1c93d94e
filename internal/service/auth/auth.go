package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkazants/accounts-service/internal/apperrors"
	"github.com/nkazants/accounts-service/internal/models"
	"github.com/nkazants/accounts-service/internal/repository"
	"github.com/nkazants/accounts-service/internal/service/auth/tokencodec"
)

type Config struct {
	// Hasher to use during registration or login
	// Default bcrypt hasher is used if not set
	Hasher PasswordHasher
}

type RegisterParams struct {
	Username string
	Email    string
	FullName string
	Password string
}

// AuthService owns the credential and session token lifecycle: it issues
// token pairs, rotates refresh tokens and resolves access tokens to users
type AuthService struct {
	codec    *tokencodec.Codec
	hasher   PasswordHasher
	userRepo repository.UserRepo
}

func NewService(cfg Config, codec *tokencodec.Codec, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if codec == nil || userRepo == nil {
		return nil, errors.New("codec and user repo must not be nil")
	}

	return &AuthService{
		codec:    codec,
		hasher:   hasher,
		userRepo: userRepo,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, arg RegisterParams) (models.User, models.TokenPair, error) {
	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Username:       arg.Username,
		Email:          arg.Email,
		FullName:       arg.FullName,
		HashedPassword: hash,
	})
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// Login verifies credentials and issues a fresh token pair
// The login value is matched against username and email
func (s *AuthService) Login(ctx context.Context, login string, password string) (models.User, models.TokenPair, error) {
	user, err := s.userRepo.GetUserByLogin(ctx, login)

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Equalize work between unknown user and wrong password
		_, _ = s.hasher.Hash(password)
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	default:
		return models.User{}, models.TokenPair{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// RefreshPair exchanges a valid refresh token for a new pair and
// invalidates the presented one.
//
// A token that verifies but does not equal the stored slot value was
// rotated away already: that is a reuse signal, not a plain failure.
// The swap itself is conditional, so of two concurrent presentations of
// the same token exactly one wins.
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	if refresh == "" {
		return models.TokenPair{}, apperrors.ErrCredentialMissing
	}

	userID, err := s.codec.Verify(refresh, tokencodec.KindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refresh)) != 1 {
		return models.TokenPair{}, fmt.Errorf("%w: presented token is not the active one", apperrors.ErrRefreshTokenReused)
	}

	pair, err := s.codec.IssuePair(user.ID)
	if err != nil {
		return models.TokenPair{}, err
	}

	err = s.userRepo.SwapRefreshToken(ctx, user.ID, refresh, pair.Refresh.Value)
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Logout clears the stored refresh token, so every previously issued
// refresh token for the user becomes permanently invalid
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.userRepo.ClearRefreshToken(ctx, userID)
}

// VerifyAccess resolves an access token to the user it was issued for
func (s *AuthService) VerifyAccess(ctx context.Context, access string) (models.User, error) {
	if access == "" {
		return models.User{}, apperrors.ErrCredentialMissing
	}

	userID, err := s.codec.Verify(access, tokencodec.KindAccess)
	if err != nil {
		return models.User{}, err
	}

	return s.userRepo.GetUserByID(ctx, userID)
}

// issuePair generates both tokens and persists the refresh token into the
// user's session slot. If the store update fails no tokens are returned.
func (s *AuthService) issuePair(ctx context.Context, userID uuid.UUID) (models.TokenPair, error) {
	pair, err := s.codec.IssuePair(userID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.userRepo.SetRefreshToken(ctx, userID, pair.Refresh.Value); err != nil {
		return models.TokenPair{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return pair, nil
}
