package httpHandler

import (
	"fmt"
	"net/http"
	"strconv"

	"starter-server/logger"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	base
	useCase *usecases.ReportUseCase
}

func NewReportHandler(useCase *usecases.ReportUseCase, log logger.Logger) *ReportHandler {
	return &ReportHandler{base: base{log: log}, useCase: useCase}
}

// Export handles GET /api/v1/reports/:kind?format=csv|json
func (h *ReportHandler) Export(c *gin.Context) {
	report, err := h.useCase.Generate(c.Request.Context(), principal(c), c.Param("kind"), c.Query("format"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Name))
	c.Header("X-Report-Rows", strconv.Itoa(report.Rows))
	c.Header("X-Report-Truncated", strconv.FormatBool(report.Truncated))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}
