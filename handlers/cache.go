package handlers

import (
	"net/http"
	"sort"
	"time"

	"starter-server/logger"
	"starter-server/middleware"
	"starter-server/services"

	"github.com/gin-gonic/gin"
)

// UsageBufferHandler exposes the in-memory usage buffer to admins.
type UsageBufferHandler struct {
	processor *services.UsageProcessor
	log       logger.Logger
}

func NewUsageBufferHandler(processor *services.UsageProcessor, log logger.Logger) *UsageBufferHandler {
	return &UsageBufferHandler{processor: processor, log: log}
}

// Flush POST /api/v1/admin/usage/flush
func (h *UsageBufferHandler) Flush(c *gin.Context) {
	n, err := h.processor.Flush(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "flushed", "records": n}})
}

// GetBuffer GET /api/v1/admin/usage/buffer
func (h *UsageBufferHandler) GetBuffer(c *gin.Context) {
	points := h.processor.Buffered()
	sort.Slice(points, func(i, j int) bool {
		if points[i].Key.UserID != points[j].Key.UserID {
			return points[i].Key.UserID < points[j].Key.UserID
		}
		return points[i].Key.Metric < points[j].Key.Metric
	})

	// Transform to a more JSON-friendly format
	counters := make([]gin.H, 0, len(points))
	for _, p := range points {
		counters = append(counters, gin.H{
			"user_id":    p.Key.UserID,
			"metric":     p.Key.Metric,
			"quantity":   p.Quantity,
			"first_seen": p.FirstSeen.UTC().Format(time.RFC3339),
			"last_seen":  p.LastSeen.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"counters": counters,
		"stats":    h.processor.Stats(),
	}})
}
