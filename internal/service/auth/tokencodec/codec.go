package tokencodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkazants/accounts-service/internal/apperrors"
	"github.com/nkazants/accounts-service/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultSigningMethod   = "HS256"
)

// Kind of the token: access or refresh
// The kind is bound into the signed claims and each kind is signed with its
// own secret, so an access token can never be presented as a refresh token
// even if the payload is attacker controlled.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Kind   Kind      `json:"kind"`
}

// Codec config with sensible defaults
type Config struct {
	// Secrets to sign access and refresh tokens
	// Both required and must not be equal
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec signs and verifies compact tamper-evident tokens.
// Stateless: it never touches storage, tokens are opaque strings to
// every other component.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	alg           jwt.SigningMethod
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func New(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		alg:           jwt.GetSigningMethod(cfg.Alg),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

func (c *Codec) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

func (c *Codec) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return c.refreshSecret
	}
	return c.accessSecret
}

// Issue a signed token for the user with expiry = now + TTL(kind)
func (c *Codec) Issue(userID uuid.UUID, kind Kind) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(c.TTL(kind))

	token := jwt.NewWithClaims(
		c.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: userID,
			Kind:   kind,
		},
	)

	signed, err := token.SignedString(c.secret(kind))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", kind, err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// IssuePair issues a fresh access and refresh token pair for the user
func (c *Codec) IssuePair(userID uuid.UUID) (models.TokenPair, error) {
	access, err := c.Issue(userID, KindAccess)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := c.Issue(userID, KindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify parses the token, checks the signature with the kind specific
// secret, expiry and the kind claim. Returns the subject user id.
func (c *Codec) Verify(tokenString string, kind Kind) (uuid.UUID, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return c.secret(kind), nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrTokenSignatureInvalid, err)
	default:
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	}

	if claims.Kind != kind {
		return uuid.Nil, fmt.Errorf("%w: got %q want %q", apperrors.ErrTokenKindMismatch, claims.Kind, kind)
	}

	return claims.UserID, nil
}
