package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// getTicker answers with the current snapshot and its display fields, or 204
// while no snapshot exists.
func (s *Server) getTicker(c *gin.Context) {
	snap, ok := s.ticker.Snapshot()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, snap.View())
}

// getHistory lists recorded quotes newest first. ?limit= defaults to 50.
func (s *Server) getHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"err": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	points, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Warn("failed to read quote history", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"err": "quote history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": points})
}
