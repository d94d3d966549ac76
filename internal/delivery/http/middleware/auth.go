package middleware

import (
	"net/http"
	"strings"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// TokenVerifier is satisfied by auth.TokenService.
type TokenVerifier interface {
	Verify(token string) (domain.Actor, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller for handlers.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization token",
				"code":  domain.KindUnauthorized,
			})
			return
		}
		actor, err := m.tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token",
				"code":  domain.KindUnauthorized,
			})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// Actor returns the caller stored by RequireAuth.
func Actor(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

func bearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}
