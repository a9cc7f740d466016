package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workshop/internal/api"
	"workshop/internal/audit"
	"workshop/internal/estimate"
	"workshop/internal/events"
	"workshop/internal/job"
	"workshop/internal/notify"
	"workshop/internal/servicerecord"
	"workshop/pkg/db"
	"workshop/pkg/logger"
	"workshop/pkg/metrics"
)

type Handlers struct {
	DB        *pgxpool.Pool
	Bookings  *Repository
	Jobs      *job.Repository
	Estimates *estimate.Repository
	Records   *servicerecord.Repository
	Notifier  *notify.Dispatcher
	Log       logger.Logger
	Metrics   *metrics.Metrics
}

type CreateRequest struct {
	CustomerID        string   `json:"customerId"`
	VehicleID         string   `json:"vehicleId"`
	ServiceAdvisorID  string   `json:"serviceAdvisorId"`
	ScheduledDate     string   `json:"scheduledDate"`
	ScheduledTime     string   `json:"scheduledTime"`
	EstimatedDuration int      `json:"estimatedDuration"`
	Priority          string   `json:"priority"`
	ServiceType       []string `json:"serviceType"`
	CustomerNotes     string   `json:"customerNotes"`
	EstimatedCost     *int64   `json:"estimatedCost"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	// Customers book through the advisor-facing flow; they never create
	// bookings directly.
	if !p.IsStaff() {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "only advisors may create bookings")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	if req.CustomerID == "" || req.VehicleID == "" || req.ServiceAdvisorID == "" ||
		req.ScheduledDate == "" || req.ScheduledTime == "" || len(req.ServiceType) == 0 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "missing required fields")
		return
	}
	if req.EstimatedDuration <= 0 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "estimatedDuration must be > 0")
		return
	}

	if _, err := time.Parse("2006-01-02", req.ScheduledDate); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "scheduledDate must be YYYY-MM-DD")
		return
	}
	if _, err := time.Parse("15:04", req.ScheduledTime); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "scheduledTime must be HH:MM")
		return
	}
	// Calendar-date comparison in the server's local zone; truncating
	// to UTC midnight would reject or accept the wrong day for a
	// workshop east or west of UTC.
	if req.ScheduledDate < time.Now().Format("2006-01-02") {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "scheduledDate must not be in the past")
		return
	}

	prio := Priority(req.Priority)
	if req.Priority == "" {
		prio = PriorityNormal
	} else if _, err := ParsePriority(req.Priority); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid priority")
		return
	}

	var created *Booking
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := Create(r.Context(), tx, CreateParams{
			CustomerID:        req.CustomerID,
			VehicleID:         req.VehicleID,
			ServiceAdvisorID:  req.ServiceAdvisorID,
			ScheduledDate:     req.ScheduledDate,
			ScheduledTime:     req.ScheduledTime,
			EstimatedDuration: req.EstimatedDuration,
			Priority:          prio,
			ServiceType:       req.ServiceType,
			CustomerNotes:     req.CustomerNotes,
			EstimatedCost:     req.EstimatedCost,
		})
		if err != nil {
			return err
		}
		created = b

		_ = events.Insert(r.Context(), tx, b.ID, "BOOKING_CREATED", "Booking created", p.UserID, string(p.Role), time.Now(), map[string]any{"bookingNumber": b.BookingNumber})
		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &b.ID, "BOOKING_CREATED", map[string]any{"customerId": b.CustomerID, "vehicleId": b.VehicleID})
		return nil
	})
	if err != nil {
		h.Log.Error("booking create failed", "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusCreated, "Booking created successfully.", map[string]any{"booking": created})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}

	f := ListFilter{
		CustomerID: r.URL.Query().Get("customerId"),
		Status:     r.URL.Query().Get("status"),
		Limit:      queryInt(r, "limit", 20, 100),
		Offset:     queryInt(r, "offset", 0, 1<<30),
	}
	if f.Status != "" {
		if _, err := ParseStatus(f.Status); err != nil {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid status filter")
			return
		}
	}

	// Customers only ever see their own bookings.
	if p.Role == api.RoleCustomer {
		if f.CustomerID != "" && f.CustomerID != p.UserID {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "cannot query another customer's bookings")
			return
		}
		f.CustomerID = p.UserID
	}

	items, total, err := h.Bookings.List(r.Context(), f)
	if err != nil {
		h.Log.Error("booking list failed", "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}
	if items == nil {
		items = []Booking{}
	}

	api.WriteData(w, http.StatusOK, "", map[string]any{
		"bookings": items,
		"total":    total,
		"hasMore":  f.Offset+len(items) < total,
	})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	id := chi.URLParam(r, "id")

	b, err := h.Bookings.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "booking not found")
		return
	}
	if p.Role == api.RoleCustomer && b.CustomerID != p.UserID {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not your booking")
		return
	}

	jobs, err := h.Jobs.ListByBooking(r.Context(), b.ID)
	if err != nil {
		h.Log.Error("booking detail: load jobs failed", "booking", b.ID, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}
	ests, err := h.Estimates.ListByBooking(r.Context(), b.ID)
	if err != nil {
		h.Log.Error("booking detail: load estimates failed", "booking", b.ID, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}
	recs, err := h.Records.ListByBooking(r.Context(), b.ID)
	if err != nil {
		h.Log.Error("booking detail: load records failed", "booking", b.ID, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusOK, "", map[string]any{
		"booking":        b,
		"jobs":           jobs,
		"estimates":      ests,
		"serviceRecords": recs,
	})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	id := chi.URLParam(r, "id")

	b, err := h.Bookings.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "booking not found")
		return
	}
	if p.Role == api.RoleCustomer && b.CustomerID != p.UserID {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not your booking")
		return
	}

	evs, err := events.ListByBooking(r.Context(), h.DB, b.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}
	api.WriteData(w, http.StatusOK, "", map[string]any{"events": evs})
}

type UpdateRequest struct {
	// Present-but-immutable fields are detected so the caller gets a
	// clear validation error instead of a silent no-op.
	CustomerID *string `json:"customerId"`
	VehicleID  *string `json:"vehicleId"`

	ServiceAdvisorID  *string  `json:"serviceAdvisorId"`
	ScheduledDate     *string  `json:"scheduledDate"`
	ScheduledTime     *string  `json:"scheduledTime"`
	EstimatedDuration *int     `json:"estimatedDuration"`
	Priority          *string  `json:"priority"`
	ServiceType       []string `json:"serviceType"`
	CustomerNotes     *string  `json:"customerNotes"`
	InternalNotes     *string  `json:"internalNotes"`
	EstimatedCost     *int64   `json:"estimatedCost"`
	ActualCost        *int64   `json:"actualCost"`
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	if !p.IsStaff() {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "only advisors may update bookings")
		return
	}
	id := chi.URLParam(r, "id")

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	if req.CustomerID != nil || req.VehicleID != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "customerId and vehicleId are immutable")
		return
	}
	if req.ScheduledDate != nil {
		if _, err := time.Parse("2006-01-02", *req.ScheduledDate); err != nil {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "scheduledDate must be YYYY-MM-DD")
			return
		}
	}
	if req.ScheduledTime != nil {
		if _, err := time.Parse("15:04", *req.ScheduledTime); err != nil {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "scheduledTime must be HH:MM")
			return
		}
	}
	var prio *Priority
	if req.Priority != nil {
		pr, err := ParsePriority(*req.Priority)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid priority")
			return
		}
		prio = &pr
	}

	var updated *Booking
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		if _, err := GetForUpdate(r.Context(), tx, id); err != nil {
			return err
		}
		b, err := UpdateFields(r.Context(), tx, id, UpdateParams{
			ServiceAdvisorID:  req.ServiceAdvisorID,
			ScheduledDate:     req.ScheduledDate,
			ScheduledTime:     req.ScheduledTime,
			EstimatedDuration: req.EstimatedDuration,
			Priority:          prio,
			ServiceType:       req.ServiceType,
			CustomerNotes:     req.CustomerNotes,
			InternalNotes:     req.InternalNotes,
			EstimatedCost:     req.EstimatedCost,
			ActualCost:        req.ActualCost,
		})
		if err != nil {
			return err
		}
		updated = b

		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &b.ID, "BOOKING_UPDATED", nil)
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "booking not found")
			return
		}
		h.Log.Error("booking update failed", "booking", id, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusOK, "Booking updated successfully.", map[string]any{"booking": updated})
}

type StatusRequest struct {
	Status         string `json:"status"`
	Reason         string `json:"reason"`
	NotifyCustomer bool   `json:"notifyCustomer"`
}

func (h Handlers) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	// Booking transitions are advisor/admin territory. Technicians work
	// through jobs; customers never transition.
	if !p.IsStaff() {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "only advisors may change booking status")
		return
	}
	id := chi.URLParam(r, "id")

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	next, err := ParseStatus(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid status")
		return
	}
	if next == StatusCancelled && req.Reason == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "cancellation requires a reason")
		return
	}

	start := time.Now()
	var updated *Booking
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !CanTransition(b.Status, next) {
			api.WriteError(w, http.StatusBadRequest, api.CodeInvalidTransition, "invalid status transition")
			return pgx.ErrTxCommitRollback
		}

		nb, err := UpdateStatus(r.Context(), tx, b.ID, next, req.Reason)
		if err != nil {
			return err
		}
		updated = nb

		_ = events.Insert(r.Context(), tx, b.ID, "STATUS_CHANGED", "Booking status changed", p.UserID, string(p.Role), time.Now(), map[string]any{"from": b.Status, "to": next, "reason": req.Reason})
		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &b.ID, "STATUS_CHANGED", map[string]any{"from": b.Status, "to": next, "reason": req.Reason})
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "booking not found")
			return
		}
		h.Log.Error("booking status change failed", "booking", id, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	if h.Metrics != nil {
		h.Metrics.BookingTransitions.WithLabelValues(string(next)).Inc()
		h.Metrics.TransitionDuration.Observe(time.Since(start).Seconds())
	}

	notificationSent := false
	if req.NotifyCustomer {
		notificationSent = h.Notifier.DispatchAsync(notify.Notification{
			RecipientID: updated.CustomerID,
			Template:    "booking_status_changed",
			Payload: map[string]any{
				"bookingNumber": updated.BookingNumber,
				"status":        updated.Status,
			},
		})
	}

	api.WriteDataMeta(w, http.StatusOK, "Status updated successfully.",
		map[string]any{"booking": updated, "notificationSent": notificationSent},
		map[string]any{"notificationSent": notificationSent},
	)
}

func queryInt(r *http.Request, key string, fallback, max int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
