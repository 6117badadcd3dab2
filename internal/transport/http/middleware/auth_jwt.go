package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bizmatch/internal/core/auth"
	resp "bizmatch/internal/transport/http/response"
)

// AuthJWT 解析 Bearer token，把身份写入 context（userId/role/profileCompleted/isVerified）
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil || claims.TokenType != "" {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set("userId", claims.UID)
		c.Set("role", claims.Role)
		c.Set("profileCompleted", claims.ProfileCompleted)
		c.Set("isVerified", claims.IsVerified)
		c.Next()
	}
}

// RequireCompletedProfile 建议接口要求资料完整
func RequireCompletedProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("profileCompleted") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "profile completion required"))
			return
		}
		c.Next()
	}
}
