package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/models"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the signed payload of both token kinds. The registered claims
// carry sub, iat, exp and jti.
type Claims struct {
	Role models.Role `json:"role"`
	Kind Kind        `json:"kind"`
	jwt.RegisteredClaims
}

// Identity is what a verified token proves about its bearer.
type Identity struct {
	UserID    uuid.UUID
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Role         models.Role
}
