package checklist

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"workshop/internal/api"
	"workshop/pkg/logger"
)

type Handlers struct {
	Checklists *Repository
	Log        logger.Logger
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Checklists.List(r.Context(), ListFilter{
		VehicleModel: r.URL.Query().Get("vehicleModel"),
		ServiceType:  r.URL.Query().Get("serviceType"),
		ActiveOnly:   r.URL.Query().Get("includeInactive") != "true",
	})
	if err != nil {
		h.Log.Error("checklist list failed", "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}
	api.WriteData(w, http.StatusOK, "", map[string]any{"checklists": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Checklists.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "checklist not found")
		return
	}
	api.WriteData(w, http.StatusOK, "", map[string]any{"checklist": c})
}
