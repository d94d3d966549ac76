// Package auth turns bearer tokens into the domain.Actor the core works with.
// Tokens are minted by the identity service; this package only verifies them
// and, for tooling and tests, issues compatible ones.
package auth

import (
	"fmt"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload. ProfileID is optional; without it the
// caller's profile is looked up by user id.
type Claims struct {
	UserID    string `json:"user_id"`
	ProfileID string `json:"profile_id,omitempty"`
	Verified  bool   `json:"verified,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// Issue signs an HS256 token for actor valid for ttl.
func (s *TokenService) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   actor.UserID.String(),
		Verified: actor.Verified,
		Role:     string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if actor.ProfileID != uuid.Nil {
		claims.ProfileID = actor.ProfileID.String()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature and expiry and returns the actor the token names.
func (s *TokenService) Verify(tokenString string) (domain.Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return domain.Actor{}, domain.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return domain.Actor{}, domain.ErrInvalidToken
	}
	actor := domain.Actor{
		UserID:   userID,
		Verified: claims.Verified,
		Role:     domain.RoleUser,
	}
	if claims.ProfileID != "" {
		if actor.ProfileID, err = uuid.Parse(claims.ProfileID); err != nil {
			return domain.Actor{}, domain.ErrInvalidToken
		}
	}
	if domain.Role(claims.Role) == domain.RoleAdmin {
		actor.Role = domain.RoleAdmin
	}
	return actor, nil
}
