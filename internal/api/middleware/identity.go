package middleware

import (
	"strings"

	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// 使用者身分由上游閘道寫入此標頭
const (
	UserIDHeader = "X-User-ID"
	UserIDKey    = "user_id"
)

// RequireUser 讀取使用者身分，缺少時回傳 401
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(common.ErrUnauthorized.Status, common.ErrUnauthorized.Response(false))
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}
