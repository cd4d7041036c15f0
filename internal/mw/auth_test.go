package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atm-fleet-backend/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) {
		id, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "role": string(id.Role)})
	})
	r.GET("/protected", chain...)
	return r
}

func TestAuthAcceptsValidToken(t *testing.T) {
	r := authTestRouter(Auth(testSecret))

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"role":  "ENGINEER",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
	assert.Contains(t, w.Body.String(), "ENGINEER")
}

func TestAuthRejectsBadTokens(t *testing.T) {
	r := authTestRouter(Auth(testSecret))

	testCases := []struct {
		name   string
		header string
	}{
		{name: "Missing header", header: ""},
		{name: "Not a bearer token", header: "Basic abc"},
		{name: "Garbage token", header: "Bearer not.a.jwt"},
		{name: "Wrong secret", header: "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"sub": "user-1"})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	r := authTestRouter(Auth(testSecret), RequireRoles(model.RoleAdmin))

	engineer := signToken(t, testSecret, jwt.MapClaims{"sub": "u1", "role": "ENGINEER"})
	admin := signToken(t, testSecret, jwt.MapClaims{"sub": "u2", "role": "ADMIN"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+engineer)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
