package httpHandler

import (
	"net/http"

	"starter-server/logger"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	base
	useCase *usecases.SettingsUseCase
}

func NewSettingsHandler(useCase *usecases.SettingsUseCase, log logger.Logger) *SettingsHandler {
	return &SettingsHandler{base: base{log: log}, useCase: useCase}
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.useCase.Get(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var patch usecases.SettingsPatch
	if err := bindJSON(c, &patch); err != nil {
		h.fail(c, err)
		return
	}
	settings, err := h.useCase.Update(c.Request.Context(), principal(c).UserID, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, settings)
}
