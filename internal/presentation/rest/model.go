package rest

import (
	"net/http"

	"github.com/strokeguard/strokeguard/internal/application/usecase"
)

// ModelHandler exposes the serving model's provenance. It carries no patient data.
type ModelHandler struct {
	getModelInfo *usecase.GetModelInfo
}

func NewModelHandler(getModelInfo *usecase.GetModelInfo) *ModelHandler {
	return &ModelHandler{getModelInfo: getModelInfo}
}

func (h *ModelHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/model", h.GetModel)
}

// GetModel handles GET /v1/model.
func (h *ModelHandler) GetModel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.getModelInfo.Execute())
}
