package servicerecord

import (
	"net/http"

	"workshop/internal/api"
	"workshop/pkg/logger"
)

type Handlers struct {
	Records *Repository
	Log     logger.Logger
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}

	f := Filter{
		BookingID: r.URL.Query().Get("bookingId"),
		VehicleID: r.URL.Query().Get("vehicleId"),
	}
	// Customers see records for their own bookings only.
	if p.Role == api.RoleCustomer {
		f.CustomerID = p.UserID
	}

	items, err := h.Records.List(r.Context(), f)
	if err != nil {
		h.Log.Error("service record list failed", "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusOK, "", map[string]any{"serviceRecords": items})
}
