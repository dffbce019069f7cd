package httpHandler

import (
	"net/http"

	"starter-server/logger"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

type UsageHandler struct {
	base
	useCase *usecases.UsageUseCase
	stats   *usecases.StatsUseCase
}

func NewUsageHandler(useCase *usecases.UsageUseCase, stats *usecases.StatsUseCase, log logger.Logger) *UsageHandler {
	return &UsageHandler{base: base{log: log}, useCase: useCase, stats: stats}
}

// Summary handles GET /api/v1/usage/summary
func (h *UsageHandler) Summary(c *gin.Context) {
	days, err := intQuery(c, "days", usecases.DefaultUsageDays)
	if err != nil {
		h.fail(c, err)
		return
	}
	summary, err := h.useCase.Summary(c.Request.Context(), principal(c).UserID, days)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

// Daily handles GET /api/v1/usage/daily
func (h *UsageHandler) Daily(c *gin.Context) {
	days, err := intQuery(c, "days", usecases.DefaultUsageDays)
	if err != nil {
		h.fail(c, err)
		return
	}
	points, err := h.useCase.Daily(c.Request.Context(), principal(c).UserID, c.Query("metric"), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, points, int64(len(points)))
}

// Dashboard handles GET /api/v1/stats/dashboard
func (h *UsageHandler) Dashboard(c *gin.Context) {
	stats, err := h.stats.Dashboard(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}
