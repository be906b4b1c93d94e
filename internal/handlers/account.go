package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkazants/accounts-service/internal/apperrors"
	"github.com/nkazants/accounts-service/internal/handlers/render"
	"github.com/nkazants/accounts-service/internal/handlers/userctx"
	"github.com/nkazants/accounts-service/internal/logger"
	"github.com/nkazants/accounts-service/internal/models"
	"github.com/nkazants/accounts-service/internal/service/user"
)

// Upload size cap for avatar and cover images
const maxUploadBytes = 10 << 20

type userService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, arg user.UpdateProfileParams) (models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error
	SetAvatar(ctx context.Context, userID uuid.UUID, contentType string, body io.Reader) (models.User, error)
	SetCover(ctx context.Context, userID uuid.UUID, contentType string, body io.Reader) (models.User, error)
}

type AccountHandler struct {
	userService userService
	logger      logger.Logger
}

func NewAccount(us userService, log logger.Logger) *AccountHandler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &AccountHandler{userService: us, logger: log}
}

// userResponse is the only shape an account ever leaves the service in:
// no password hash, no refresh token
type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CoverURL  string    `json:"cover_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CoverURL:  u.CoverURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *AccountHandler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := userctx.FromContext(r.Context())
	render.JSON(w, newUserResponse(u))
}

func (h *AccountHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	type updateRequest struct {
		FullName string `json:"full_name" validate:"omitempty,max=100"`
		Email    string `json:"email" validate:"omitempty,email"`
	}

	data, err := render.BindAndValidate[updateRequest](w, r)
	if err != nil {
		return
	}

	if data.FullName == "" && data.Email == "" {
		render.ServiceError(w, "Nothing to update", http.StatusBadRequest)
		return
	}

	u, _ := userctx.FromContext(r.Context())

	updated, err := h.userService.UpdateProfile(r.Context(), u.ID, user.UpdateProfileParams{
		FullName: data.FullName,
		Email:    data.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "Email already in use", http.StatusConflict)
		default:
			h.logger.Error("profile update failed", "error", err.Error())
			render.ServiceError(w, "Temporary failure, please retry", http.StatusServiceUnavailable)
		}
		return
	}

	render.JSON(w, newUserResponse(updated))
}

func (h *AccountHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	type passwordRequest struct {
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}
	type passwordSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[passwordRequest](w, r)
	if err != nil {
		return
	}

	u, _ := userctx.FromContext(r.Context())

	err = h.userService.ChangePassword(r.Context(), u.ID, data.OldPassword, data.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid old password", http.StatusBadRequest)
		default:
			h.logger.Error("password change failed", "error", err.Error())
			render.ServiceError(w, "Temporary failure, please retry", http.StatusServiceUnavailable)
		}
		return
	}

	render.JSON(w, passwordSuccessResponse{Message: "Password changed successfully"})
}

func (h *AccountHandler) setAvatar(w http.ResponseWriter, r *http.Request) {
	h.setImage(w, r, "avatar", h.userService.SetAvatar)
}

func (h *AccountHandler) setCover(w http.ResponseWriter, r *http.Request) {
	h.setImage(w, r, "cover", h.userService.SetCover)
}

type setImageFunc func(ctx context.Context, userID uuid.UUID, contentType string, body io.Reader) (models.User, error)

func (h *AccountHandler) setImage(w http.ResponseWriter, r *http.Request, field string, set setImageFunc) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile(field)
	if err != nil {
		render.ServiceError(w, "File field '"+field+"' is required", http.StatusBadRequest)
		return
	}
	defer file.Close() // nolint:errcheck

	u, _ := userctx.FromContext(r.Context())

	updated, err := set(r.Context(), u.ID, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("image upload failed", "field", field, "error", err.Error())
		render.ServiceError(w, "Temporary failure, please retry", http.StatusServiceUnavailable)
		return
	}

	render.JSON(w, newUserResponse(updated))
}
