package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dmoraru/personas/internal/pkg/jwt"
)

func TestJWTAuth_AcceptsValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("test-secret")
	token, err := jwt.GenerateToken("admin", secret, time.Hour)
	require.NoError(t, err)

	mw := JWTAuth(secret)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/personas", nil)
	c.Request.Header.Set("Authorization", "Bearer "+token)
	mw(c)
	require.False(t, c.IsAborted())
	require.Equal(t, "admin", c.GetString(ContextSubjectKey))
}

func TestJWTAuth_RejectsMissingOrMalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := JWTAuth([]byte("test-secret"))

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/personas", nil)
	mw(c)
	require.True(t, c.IsAborted())

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("POST", "/api/v1/personas", nil)
	c2.Request.Header.Set("Authorization", "Token abc")
	mw(c2)
	require.True(t, c2.IsAborted())
}

func TestJWTAuth_RejectsWrongSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	token, err := jwt.GenerateToken("admin", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	mw := JWTAuth([]byte("test-secret"))
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/personas", nil)
	c.Request.Header.Set("Authorization", "Bearer "+token)
	mw(c)
	require.True(t, c.IsAborted())
}
