package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-assist/internal/service/catalog"
)

const identityKey = "identity"

// TokenParser 令牌解析
type TokenParser interface {
	Parse(token string) (catalog.Identity, error)
}

// RequireAuth 要求有效认证的中间件
// 必须提供有效的 Bearer token，否则返回 401
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(401, gin.H{
				"code": 401,
				"msg":  "Missing Authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(401, gin.H{
				"code": 401,
				"msg":  "Invalid Authorization header format",
			})
			return
		}

		id, err := parser.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{
				"code": 401,
				"msg":  "Invalid or expired token",
			})
			return
		}

		c.Set(identityKey, id)
		c.Set("tenant_id", id.TenantID)
		c.Next()
	}
}

// GetIdentity 从上下文获取调用方身份
func GetIdentity(c *gin.Context) (catalog.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return catalog.Identity{}, false
	}
	id, ok := v.(catalog.Identity)
	return id, ok
}

// GetTenantID 从上下文获取当前租户ID
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get("tenant_id"); exists {
		if id, ok := tenantID.(string); ok {
			return id
		}
	}
	return ""
}
