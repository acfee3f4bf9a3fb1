package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sitepunch.app/sitepunch/security"
	"sitepunch.app/sitepunch/web/common"
)

const (
	identityKey = "identity"
	TokenCookie = "sitepunch.token"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		cookie, err := c.Cookie(TokenCookie)
		if err != nil {
			return ""
		}
		return cookie
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("Unauthorized"))
}

// Authentication verifies the bearer token, from the Authorization header
// or the session cookie, and stores the identity on the context.
func Authentication(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			unauthorized(c)
			return
		}

		identity, err := security.VerifyIdentityToken(tokenStr, secret)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole lets through identities holding one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			unauthorized(c)
			return
		}
		for _, r := range roles {
			if identity.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, common.NewErrorResponse("Forbidden"))
	}
}

func CurrentIdentity(c *gin.Context) (*security.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*security.Identity)
	return identity, ok && identity != nil
}
