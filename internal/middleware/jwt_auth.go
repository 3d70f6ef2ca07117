package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== JWT 配置 ====================

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey      string        // 签名密钥
	AccessTokenTTL time.Duration // 操作员 Token 有效期
	Issuer         string        // 签发者
}

var jwtConfig = &JWTConfig{
	SecretKey:      "catalog-studio-secret-change-in-production",
	AccessTokenTTL: 8 * time.Hour,
	Issuer:         "catalog-studio",
}

// SetJWTConfig 启动时由配置覆盖
func SetJWTConfig(cfg *JWTConfig) {
	jwtConfig = cfg
}

// ==================== Claims ====================

const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

const accessSubject = "access"

// OperatorClaims 操作员声明
type OperatorClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAccessToken 签发操作员 Token（CLI token 子命令使用）
func GenerateAccessToken(userID int64, username, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &OperatorClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtConfig.Issuer,
			Subject:   accessSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtConfig.AccessTokenTTL)),
		},
	})
	return token.SignedString([]byte(jwtConfig.SecretKey))
}

var errWrongSubject = errors.New("token is not an access token")

// ParseToken 只接受 HS256、本服务签发、带过期时间的 access token
func ParseToken(tokenString string) (*OperatorClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtConfig.Issuer),
		jwt.WithExpirationRequired(),
	)

	claims := &OperatorClaims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(jwtConfig.SecretKey), nil
	}); err != nil {
		return nil, err
	}
	if claims.Subject != accessSubject {
		return nil, errWrongSubject
	}
	return claims, nil
}

// ==================== Gin 中间件 ====================

const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyRole     = "role"
)

// previewTokenParam <img> 标签无法带 Authorization 头，预览 GET 允许走 query
const previewTokenParam = "access_token"

// JWTAuth 校验操作员 Token 并写入 gin.Context
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "未提供认证信息，应为 Authorization: Bearer {token}")
			return
		}

		claims, err := ParseToken(raw)
		if err != nil {
			abortUnauthorized(c, "Token 无效或已过期")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || scheme != "Bearer" || token == "" {
			return "", false
		}
		return token, true
	}
	if c.Request.Method == http.MethodGet {
		if token := c.Query(previewTokenParam); token != "" {
			return token, true
		}
	}
	return "", false
}

// RequireRole 只放行指定角色
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetUserRole(c)
		if role == "" {
			abortUnauthorized(c, "未获取到用户角色")
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "无权限访问",
		})
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    401,
		"message": message,
	})
}

// ==================== 辅助函数 ====================

// GetUserID 未登录返回 0
func GetUserID(c *gin.Context) int64 { return c.GetInt64(ContextKeyUserID) }

func GetUsername(c *gin.Context) string { return c.GetString(ContextKeyUsername) }

func GetUserRole(c *gin.Context) string { return c.GetString(ContextKeyRole) }
