package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func useTestJWTConfig(t *testing.T) {
	t.Helper()
	prev := jwtConfig
	SetJWTConfig(&JWTConfig{
		SecretKey:      "test-secret-0123456789",
		AccessTokenTTL: time.Hour,
		Issuer:         "catalog-studio-test",
	})
	t.Cleanup(func() { SetJWTConfig(prev) })
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	api := r.Group("/api", JWTAuth())
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  GetUserID(c),
			"username": GetUsername(c),
			"role":     GetUserRole(c),
		})
	})
	api.POST("/admin", RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func authRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_ValidToken(t *testing.T) {
	useTestJWTConfig(t)
	r := setupAuthRouter()

	token, err := GenerateAccessToken(42, "alice", RoleOperator)
	require.NoError(t, err)

	w := authRequest(r, http.MethodGet, "/api/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"username":"alice","role":"operator"}`, w.Body.String())
}

func TestJWTAuth_Rejections(t *testing.T) {
	useTestJWTConfig(t)
	r := setupAuthRouter()

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &OperatorClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "catalog-studio-test",
			Subject:   "access",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, _ := expired.SignedString([]byte("test-secret-0123456789"))

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, &OperatorClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "access",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongIssuerToken, _ := wrongIssuer.SignedString([]byte("test-secret-0123456789"))

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &OperatorClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "catalog-studio-test",
			Subject:   "refresh",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	refreshToken, _ := refresh.SignedString([]byte("test-secret-0123456789"))

	tests := []struct {
		name   string
		header string
	}{
		{"缺少 Authorization", ""},
		{"格式错误", "Token abc"},
		{"签名错误", "Bearer not.a.token"},
		{"已过期", "Bearer " + expiredToken},
		{"签发者不符", "Bearer " + wrongIssuerToken},
		{"类型错误", "Bearer " + refreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestJWTAuth_QueryTokenOnlyForGet(t *testing.T) {
	useTestJWTConfig(t)
	r := setupAuthRouter()
	token, _ := GenerateAccessToken(3, "carol", RoleAdmin)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me?access_token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin?access_token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	useTestJWTConfig(t)
	r := setupAuthRouter()

	operator, _ := GenerateAccessToken(1, "op", RoleOperator)
	admin, _ := GenerateAccessToken(2, "root", RoleAdmin)

	assert.Equal(t, http.StatusForbidden, authRequest(r, http.MethodPost, "/api/admin", operator).Code)
	assert.Equal(t, http.StatusNoContent, authRequest(r, http.MethodPost, "/api/admin", admin).Code)
}
