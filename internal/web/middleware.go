package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tabCookie = "dreamsite_tab"
	tabHeader = "X-Dreamsite-Tab"
	tabKey    = "tab"
)

// tabMiddleware resolves the tab id from the X-Dreamsite-Tab header or the
// tab cookie, issuing a new id when neither holds a valid one.
func tabMiddleware(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(tabHeader)
		if _, err := uuid.Parse(id); err != nil {
			id, _ = c.Cookie(tabCookie)
		}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(tabCookie, id, 0, "/", "", secure, true)
		}
		c.Header(tabHeader, id)
		c.Set(tabKey, id)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
