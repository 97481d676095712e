package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/internal/store"
)

// TokenTTL is how long issued tokens stay valid.
const TokenTTL = time.Hour

// Claims is the token payload. UserID mirrors the registered subject; the
// nickname rides along so clients can show it without a round trip.
type Claims struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname,omitempty"`
	jwt.RegisteredClaims
}

// Verifier performs the one-shot connection-time credential check: parse and
// validate the bearer token, then resolve its subject against the store.
type Verifier struct {
	secret []byte
	store  store.Store
}

func NewVerifier(secret string, st store.Store) *Verifier {
	return &Verifier{secret: []byte(secret), store: st}
}

// Verify resolves a bearer token to a Principal. Every failure mode
// (missing, malformed, expired, unknown subject) collapses to
// domain.ErrUnauthenticated; the caller must refuse the connection before
// any room command is processed.
func (v *Verifier) Verify(ctx context.Context, token string) (domain.Principal, error) {
	if token == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	user, err := v.store.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, domain.ErrUnauthenticated
		}
		return domain.Principal{}, fmt.Errorf("failed to resolve token subject: %w", err)
	}

	return domain.Principal{
		ID:       user.ID,
		Nickname: user.Nickname,
		Role:     domain.Role(user.Role),
	}, nil
}

// Issue signs a token for the given user, valid for TokenTTL.
func (v *Verifier) Issue(userID, nickname string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
