package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
)

const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultLeeway     = 30 * time.Second
)

// CredentialStore is the read-only user lookup used during refresh.
// A missing user is reported with an error wrapping repo.ErrNotFound.
type CredentialStore interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Revoker marks refresh tokens as spent. Revoke reports false when the
// token was already revoked, so only one of several concurrent callers wins.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) (bool, error)
}

type Service struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Leeway is tolerated clock skew on exp. iat is never checked.
	Leeway time.Duration
	Store  CredentialStore
	// Revoker is optional. Without it a refresh token stays usable until
	// it expires on its own.
	Revoker Revoker
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) sign(user *models.User, kind Kind, issuedAt, expiresAt time.Time) (string, time.Time, error) {
	exp := jwt.NewNumericDate(expiresAt)
	claims := Claims{
		Role: user.Role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: exp,
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return token, exp.Time, nil
}

// Issue mints a fresh access/refresh pair bound to the user's id and
// current role. It has no side effects.
func (s *Service) Issue(user *models.User) (*Pair, error) {
	if user == nil || user.ID == uuid.Nil {
		return nil, errors.New("issue tokens: user without id")
	}
	if !user.Role.Valid() {
		return nil, fmt.Errorf("issue tokens: unknown role %q", user.Role)
	}

	now := s.now()

	access, accessExp, err := s.sign(user, KindAccess, now, now.Add(s.AccessTTL))
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := s.sign(user, KindRefresh, now, now.Add(s.RefreshTTL))
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Role:         user.Role,
	}, nil
}

// Verify checks signature, kind and expiry of raw.
func (s *Service) Verify(raw string, expected Kind) (*Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.Leeway),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	if claims.Kind != expected {
		return nil, fmt.Errorf("%w: want %s token, got %q", ErrInvalidToken, expected, claims.Kind)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return &Identity{
		UserID:    userID,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticate verifies the access token carried in an Authorization
// header value.
func (s *Service) Authenticate(header string) (*Identity, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return s.Verify(raw, KindAccess)
}

// Refresh exchanges a valid refresh token for a new pair. The role comes
// from the store as it is now, not from the presented token.
func (s *Service) Refresh(ctx context.Context, raw string) (*Pair, error) {
	id, err := s.Verify(raw, KindRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.Store.FindUserByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("lookup subject: %w", err)
	}

	if s.Revoker != nil {
		live, err := s.Revoker.Revoke(ctx, id.TokenID, s.spentUntil(id))
		if err != nil {
			return nil, fmt.Errorf("revoke refresh token: %w", err)
		}
		if !live {
			return nil, ErrRevokedToken
		}
	}

	return s.Issue(user)
}

// Revoke spends a refresh token ahead of its expiry. It is a no-op when
// no Revoker is configured.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	id, err := s.Verify(raw, KindRefresh)
	if err != nil {
		return err
	}
	if s.Revoker == nil {
		return nil
	}
	if _, err := s.Revoker.Revoke(ctx, id.TokenID, s.spentUntil(id)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// spentUntil is how long a revocation must outlive the token: Verify keeps
// accepting it for Leeway past exp.
func (s *Service) spentUntil(id *Identity) time.Time {
	return id.ExpiresAt.Add(s.Leeway)
}

// BearerToken extracts the credential from an "Authorization: Bearer" value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: authorization scheme must be Bearer", ErrInvalidToken)
	}
	// "Bearer" with nothing after it
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
