package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"atm-fleet-backend/internal/model"
)

const identityKey = "auth.identity"

// Identity is the per-request auth context supplied by the token issuer.
type Identity struct {
	UserID string
	Email  string
	Role   model.UserRole
}

// Auth validates the bearer token and stores the caller's identity on the
// request context. Token issuance happens elsewhere; this only consumes.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   true,
				"message": "Missing bearer token",
			})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   true,
				"message": "Invalid token",
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   true,
				"message": "Invalid token claims",
			})
			return
		}

		id := Identity{}
		if sub, err := claims.GetSubject(); err == nil {
			id.UserID = sub
		}
		if email, ok := claims["email"].(string); ok {
			id.Email = email
		}
		if role, ok := claims["role"].(string); ok {
			id.Role = model.UserRole(role)
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the authenticated caller, when any.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// RequireRoles rejects callers whose role is not in the given set.
func RequireRoles(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   true,
				"message": "Authentication required",
			})
			return
		}
		for _, role := range roles {
			if id.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   true,
			"message": "Insufficient role",
		})
	}
}
