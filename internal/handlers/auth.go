package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkazants/accounts-service/internal/apperrors"
	"github.com/nkazants/accounts-service/internal/handlers/render"
	"github.com/nkazants/accounts-service/internal/handlers/userctx"
	"github.com/nkazants/accounts-service/internal/logger"
	"github.com/nkazants/accounts-service/internal/models"
	"github.com/nkazants/accounts-service/internal/service/auth"
)

type authService interface {
	// Register user, has to return apperrors.ErrUserAlreadyExists if the
	// username or email is taken
	Register(ctx context.Context, arg auth.RegisterParams) (models.User, models.TokenPair, error)

	// Login with username or email
	// Has to return apperrors.ErrInvalidCredentials if they don't match
	Login(ctx context.Context, login string, password string) (models.User, models.TokenPair, error)

	// Rotate the refresh token
	// Returns errors of the apperrors credential family on any rejection
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Clear the stored refresh token
	Logout(ctx context.Context, userID uuid.UUID) error

	// Transport helpers
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	ClearTokensFromResponse(w http.ResponseWriter)
	GetRefreshString(r *http.Request) (string, error)
}

type AuthHandler struct {
	authService authService
	logger      logger.Logger
}

func NewAuth(as authService, log logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &AuthHandler{authService: as, logger: log}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type registerRequest struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Email    string `json:"email" validate:"required,email"`
		FullName string `json:"full_name" validate:"max=100"`
		Password string `json:"password" validate:"required,min=8"`
	}

	data, err := render.BindAndValidate[registerRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.authService.Register(r.Context(), auth.RegisterParams{
		Username: data.Username,
		Email:    data.Email,
		FullName: data.FullName,
		Password: data.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			h.logger.Error("register failed", "error", err.Error())
			render.ServiceError(w, "Temporary failure, please retry", http.StatusServiceUnavailable)
		}
		return
	}

	h.authService.SetTokenPairToResponse(w, pair)
	render.JSONWithStatus(w, newUserResponse(user), http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[loginRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.authService.Login(r.Context(), data.Login, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid login or password", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.ServiceError(w, "Temporary failure, please retry", http.StatusServiceUnavailable)
		}
		return
	}

	h.authService.SetTokenPairToResponse(w, pair)
	render.JSON(w, newUserResponse(user))
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type refreshSuccessResponse struct {
		Message string `json:"message"`
	}

	refresh, err := h.authService.GetRefreshString(r)
	if err != nil {
		refresh = refreshStringFromBody(r)
	}

	pair, err := h.authService.RefreshPair(r.Context(), refresh)
	if err != nil {
		switch {
		case apperrors.IsAuthError(err):
			// The reason (expired, reused, lost race) stays in logs only
			h.logger.Warn("refresh rejected", "error", err.Error())
			render.ServiceError(w, "Please re-authenticate", http.StatusUnauthorized)
		default:
			h.logger.Error("refresh failed", "error", err.Error())
			render.ServiceError(w, "Temporary failure, please retry", http.StatusServiceUnavailable)
		}
		return
	}

	h.authService.SetTokenPairToResponse(w, pair)
	render.JSON(w, refreshSuccessResponse{Message: "Tokens refreshed successfully"})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type logoutSuccessResponse struct {
		Message string `json:"message"`
	}

	user, _ := userctx.FromContext(r.Context())

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		h.logger.Error("logout failed", "error", err.Error())
		render.ServiceError(w, "Temporary failure, please retry", http.StatusServiceUnavailable)
		return
	}

	h.authService.ClearTokensFromResponse(w)
	render.JSON(w, logoutSuccessResponse{Message: "User logged out"})
}

// refreshStringFromBody reads the refresh token from the request body, the
// fallback for clients that don't use the cookie
func refreshStringFromBody(r *http.Request) string {
	type refreshRequest struct {
		RefreshToken string `json:"refresh_token"`
	}

	data, err := render.BindTolerant[refreshRequest](r)
	if err != nil {
		return ""
	}

	return data.RefreshToken
}
