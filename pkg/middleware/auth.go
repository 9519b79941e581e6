package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/loanloey/pkg/response"
)

// SessionKey gin context key for the authenticated session
const SessionKey = "session"

// Session 已认证调用者的身份信息
type Session struct {
	UserID uint64
	Role   string
}

// SessionResolver 将 Authorization 头中的不透明令牌解析为有效会话
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}

// RequireRole 会话认证中间件：校验令牌并要求给定角色
func RequireRole(resolver SessionResolver, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "missing Authorization header")
			c.Abort()
			return
		}

		sess, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "invalid or expired session")
			c.Abort()
			return
		}
		if sess.Role != role {
			response.ErrorWithStatus(c, http.StatusForbidden, "insufficient role")
			c.Abort()
			return
		}

		c.Set(SessionKey, sess)
		c.Next()
	}
}

// SessionFromContext 读取认证中间件注入的会话
func SessionFromContext(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	return sess, ok
}
