package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrwa/rwa-ledger/internal/api/middleware"
)

// generateKeyPair returns an RSA signing key and its PEM-encoded public key
func generateKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	key, publicPEM := generateKeyPair(t)
	cfg := middleware.AuthConfig{
		JWTPublicKey: publicPEM,
		APIKeys:      []string{"key-one", "key-two"},
	}

	t.Run("valid JWT carries the subject", func(t *testing.T) {
		token := signToken(t, key, jwt.RegisteredClaims{
			Subject:   "0x4444444444444444444444444444444444444444",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		result := middleware.Authenticate("Bearer "+token, cfg)
		require.True(t, result.Success)
		assert.Equal(t, "jwt", result.AuthType)
		assert.Equal(t, "0x4444444444444444444444444444444444444444", result.AuthSubject)
	})

	t.Run("expired JWT is rejected", func(t *testing.T) {
		token := signToken(t, key, jwt.RegisteredClaims{
			Subject:   "0x4444444444444444444444444444444444444444",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})

		result := middleware.Authenticate("Bearer "+token, cfg)
		assert.False(t, result.Success)
	})

	t.Run("valid API key carries no subject", func(t *testing.T) {
		result := middleware.Authenticate("APIKey key-two", cfg)
		require.True(t, result.Success)
		assert.Equal(t, "apikey", result.AuthType)
		assert.Empty(t, result.AuthSubject)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name   string
			header string
			cfg    middleware.AuthConfig
		}{
			{"missing header", "", cfg},
			{"malformed header", "Bearer", cfg},
			{"unsupported scheme", "Basic dXNlcjpwYXNz", cfg},
			{"unknown API key", "APIKey nope", cfg},
			{"no API keys configured", "APIKey key-one", middleware.AuthConfig{JWTPublicKey: publicPEM}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result := middleware.Authenticate(tt.header, tt.cfg)
				assert.False(t, result.Success)
				assert.Error(t, result.Error)
			})
		}
	})
}

func TestAuthSubject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	key, publicPEM := generateKeyPair(t)
	cfg := middleware.AuthConfig{JWTPublicKey: publicPEM, APIKeys: []string{"key-one"}}

	var gotSubject string
	var gotBound bool
	router := gin.New()
	router.GET("/whoami", middleware.Auth(cfg), func(c *gin.Context) {
		gotSubject, gotBound = middleware.AuthSubject(c)
		c.Status(http.StatusOK)
	})

	t.Run("JWT binds the subject", func(t *testing.T) {
		token := signToken(t, key, jwt.RegisteredClaims{
			Subject:   "0x4444444444444444444444444444444444444444",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, gotBound)
		assert.Equal(t, "0x4444444444444444444444444444444444444444", gotSubject)
	})

	t.Run("API key leaves the subject unbound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "APIKey key-one")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, gotBound)
		assert.Empty(t, gotSubject)
	})
}
