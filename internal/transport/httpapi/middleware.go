package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const callerIDKey = "caller_id"

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if id, ok := c.Get(callerIDKey); ok {
			fields = append(fields, zap.Stringer("caller_id", id.(uuid.UUID)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// authRequired проверяет Bearer-токен и кладёт id вызывающего в контекст gin.
func authRequired(identity Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			abortWithError(c, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}

		callerID, err := identity.Authenticate(c.Request.Context(), strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(callerIDKey, callerID)
		c.Next()
	}
}

func callerID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(callerIDKey)
	id, _ := v.(uuid.UUID)
	return id
}
