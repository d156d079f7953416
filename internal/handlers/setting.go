package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopscript/apiserver/internal/services"
	"github.com/shopscript/apiserver/types"
)

// SettingHandler exposes site-wide settings.
type SettingHandler struct {
	settingService *services.SettingService
}

func NewSettingHandler(settingService *services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// SettingRouter registers settings routes on the given router.
func SettingRouter(r chi.Router, settingService *services.SettingService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewSettingHandler(settingService)

	r.Get("/", handler.GetSettings)
	r.With(authMiddleware, RequireRole(types.RoleAdmin)).Post("/", handler.UpdateSettings)
}

func (h *SettingHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingService.All(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var settings map[string]string
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidRequest.Error())
		return
	}

	if err := h.settingService.Update(r.Context(), principal, settings); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "settings updated"})
}
