package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/nkazants/accounts-service/internal/apperrors"
	"github.com/nkazants/accounts-service/internal/models"
)

const (
	AccessCookieName  = "accesstoken"
	RefreshCookieName = "refreshtoken"
)

// SetTokenPairToResponse delivers both tokens to the client: httpOnly
// secure cookies plus the access token echoed as Authorization header
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	setTokenCookie(w, AccessCookieName, pair.Access)
	setTokenCookie(w, RefreshCookieName, pair.Refresh)
	w.Header().Set("Authorization", "Bearer "+pair.Access.Value)
}

// ClearTokensFromResponse instructs the client to discard both tokens
func (s *AuthService) ClearTokensFromResponse(w http.ResponseWriter) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// GetRefreshString extracts the refresh token from the request cookie
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return "", apperrors.ErrCredentialMissing
	}

	return cookie.Value, nil
}

// Auth authenticates the request: access token from the cookie or the
// Authorization Bearer header, resolved to a user
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	return s.VerifyAccess(ctx, accessStringFromRequest(r))
}

func accessStringFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return token
	}

	return ""
}

func setTokenCookie(w http.ResponseWriter, name string, token models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
