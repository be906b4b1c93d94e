package user

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/nkazants/accounts-service/internal/apperrors"
	"github.com/nkazants/accounts-service/internal/models"
	"github.com/nkazants/accounts-service/internal/repository"
	"github.com/nkazants/accounts-service/internal/service/auth"
)

// FileStorage stores uploaded media and returns a public URL
type FileStorage interface {
	Upload(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}

type UpdateProfileParams struct {
	FullName string
	Email    string
}

// UserService owns profile operations: details, password, media
type UserService struct {
	hasher   auth.PasswordHasher
	userRepo repository.UserRepo
	files    FileStorage
}

func NewService(hasher auth.PasswordHasher, userRepo repository.UserRepo, files FileStorage) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:   hasher,
		userRepo: userRepo,
		files:    files,
	}
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, arg UpdateProfileParams) (models.User, error) {
	return s.userRepo.UpdateProfile(ctx, userID, repository.UpdateProfileParams{
		FullName: arg.FullName,
		Email:    arg.Email,
	})
}

// ChangePassword replaces the password after verifying the old one
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password. Err: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

func (s *UserService) SetAvatar(ctx context.Context, userID uuid.UUID, contentType string, body io.Reader) (models.User, error) {
	url, err := s.upload(ctx, userID, "avatars", contentType, body)
	if err != nil {
		return models.User{}, err
	}

	return s.userRepo.SetAvatarURL(ctx, userID, url)
}

func (s *UserService) SetCover(ctx context.Context, userID uuid.UUID, contentType string, body io.Reader) (models.User, error) {
	url, err := s.upload(ctx, userID, "covers", contentType, body)
	if err != nil {
		return models.User{}, err
	}

	return s.userRepo.SetCoverURL(ctx, userID, url)
}

func (s *UserService) upload(ctx context.Context, userID uuid.UUID, prefix string, contentType string, body io.Reader) (string, error) {
	if s.files == nil {
		return "", errors.New("file storage is not configured")
	}

	// Fresh key per upload, old objects are not deleted
	key := fmt.Sprintf("%s/%s/%s", prefix, userID, uuid.New())

	url, err := s.files.Upload(ctx, key, contentType, body)
	if err != nil {
		return "", fmt.Errorf("error while uploading media. Err: %w", err)
	}

	return url, nil
}
