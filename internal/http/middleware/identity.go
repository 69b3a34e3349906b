package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pcmm-backend/internal/platform/ctxutil"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

const (
	HeaderUser = "X-PCMM-User"
	HeaderRole = "X-PCMM-Role"
)

type IdentityMiddleware struct {
	log         *logger.Logger
	defaultUser string
	defaultRole string
}

// NewIdentityMiddleware resolves the caller from X-PCMM-User / X-PCMM-Role,
// falling back to the configured defaults for single-user installs.
func NewIdentityMiddleware(log *logger.Logger, defaultUser, defaultRole string) *IdentityMiddleware {
	return &IdentityMiddleware{
		log:         log.With("middleware", "IdentityMiddleware"),
		defaultUser: strings.TrimSpace(defaultUser),
		defaultRole: strings.TrimSpace(defaultRole),
	}
}

func (im *IdentityMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := &ctxutil.Identity{
			User: strings.TrimSpace(c.GetHeader(HeaderUser)),
			Role: strings.TrimSpace(c.GetHeader(HeaderRole)),
		}
		if id.User == "" {
			id.User = im.defaultUser
		}
		if id.Role == "" {
			id.Role = im.defaultRole
		}
		c.Request = c.Request.WithContext(ctxutil.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireUser rejects requests that resolved no user at all.
func (im *IdentityMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ctxutil.GetIdentity(c.Request.Context())
		if id == nil || id.User == "" {
			im.log.Debug("request without user", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing " + HeaderUser + " header", "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}
