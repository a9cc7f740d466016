package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workshop/internal/api"
	"workshop/internal/audit"
	"workshop/internal/events"
	"workshop/internal/notify"
	"workshop/pkg/db"
	"workshop/pkg/logger"
	"workshop/pkg/metrics"
)

const (
	defaultTaxRateBps = 1900 // 19% VAT
	defaultValidDays  = 7
)

type Handlers struct {
	DB        *pgxpool.Pool
	Estimates *Repository
	Notifier  *notify.Dispatcher
	Log       logger.Logger
	Metrics   *metrics.Metrics
}

type bookingRef struct {
	ID               string
	BookingNumber    string
	CustomerID       string
	ServiceAdvisorID string
}

func bookingRefTx(ctx context.Context, tx pgx.Tx, id string) (*bookingRef, error) {
	const q = `SELECT id, booking_number, customer_id, service_advisor_id FROM bookings WHERE id = $1`
	b := &bookingRef{}
	if err := tx.QueryRow(ctx, q, id).Scan(&b.ID, &b.BookingNumber, &b.CustomerID, &b.ServiceAdvisorID); err != nil {
		return nil, err
	}
	return b, nil
}

func (h Handlers) bookingRef(ctx context.Context, id string) (*bookingRef, error) {
	const q = `SELECT id, booking_number, customer_id, service_advisor_id FROM bookings WHERE id = $1`
	b := &bookingRef{}
	if err := h.DB.QueryRow(ctx, q, id).Scan(&b.ID, &b.BookingNumber, &b.CustomerID, &b.ServiceAdvisorID); err != nil {
		return nil, err
	}
	return b, nil
}

type CreateRequest struct {
	BookingID  string     `json:"bookingId"`
	LineItems  []LineItem `json:"lineItems"`
	TaxRateBps *int64     `json:"taxRateBps"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	if !p.IsStaff() {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "only advisors may create estimates")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	if req.BookingID == "" || len(req.LineItems) == 0 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "bookingId and at least one line item are required")
		return
	}
	for _, li := range req.LineItems {
		if li.Description == "" || li.Quantity <= 0 || li.UnitCost < 0 {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "line items need a description, quantity > 0 and unitCost >= 0")
			return
		}
	}
	taxRate := int64(defaultTaxRateBps)
	if req.TaxRateBps != nil {
		if *req.TaxRateBps < 0 || *req.TaxRateBps > 10000 {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "taxRateBps must be between 0 and 10000")
			return
		}
		taxRate = *req.TaxRateBps
	}

	subtotal, tax, total := Totals(req.LineItems, taxRate)

	var created *Estimate
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := bookingRefTx(r.Context(), tx, req.BookingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "booking not found")
				return pgx.ErrTxCommitRollback
			}
			return err
		}

		e, err := Create(r.Context(), tx, CreateParams{
			BookingID:  b.ID,
			CreatedBy:  p.UserID,
			LineItems:  req.LineItems,
			Subtotal:   subtotal,
			TaxRateBps: taxRate,
			TaxAmount:  tax,
			Total:      total,
		})
		if err != nil {
			return err
		}
		created = e

		_ = events.Insert(r.Context(), tx, b.ID, "ESTIMATE_CREATED", "Estimate created", p.UserID, string(p.Role), time.Now(), map[string]any{"estimateNumber": e.EstimateNumber, "total": e.Total})
		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &b.ID, "ESTIMATE_CREATED", map[string]any{"estimateId": e.ID})
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		h.Log.Error("estimate create failed", "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusCreated, "Estimate created successfully.", map[string]any{"estimate": created})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}

	f := ListFilter{
		BookingID: r.URL.Query().Get("bookingId"),
		Status:    r.URL.Query().Get("status"),
	}
	if f.Status != "" {
		if _, err := ParseStatus(f.Status); err != nil {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid status filter")
			return
		}
	}
	if p.Role == api.RoleCustomer {
		f.CustomerID = p.UserID
	}

	items, err := h.Estimates.List(r.Context(), f)
	if err != nil {
		h.Log.Error("estimate list failed", "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusOK, "", map[string]any{"estimates": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	id := chi.URLParam(r, "id")

	e, err := h.Estimates.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "estimate not found")
		return
	}
	if p.Role == api.RoleCustomer {
		b, err := h.bookingRef(r.Context(), e.BookingID)
		if err != nil || b.CustomerID != p.UserID {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not your estimate")
			return
		}
	}

	api.WriteData(w, http.StatusOK, "", map[string]any{"estimate": e})
}

type SendRequest struct {
	ValidDays int `json:"validDays"`
}

func (h Handlers) Send(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	if !p.IsStaff() {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "only advisors may send estimates")
		return
	}
	id := chi.URLParam(r, "id")

	var req SendRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	days := req.ValidDays
	if days <= 0 {
		days = defaultValidDays
	}

	var (
		updated *Estimate
		bkRef   *bookingRef
	)
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		e, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !CanTransition(e.Status, StatusPending) {
			api.WriteError(w, http.StatusBadRequest, api.CodeInvalidTransition, "only draft estimates can be sent")
			return pgx.ErrTxCommitRollback
		}
		b, err := bookingRefTx(r.Context(), tx, e.BookingID)
		if err != nil {
			return err
		}
		bkRef = b

		ne, err := Send(r.Context(), tx, e.ID, time.Now().AddDate(0, 0, days))
		if err != nil {
			return err
		}
		updated = ne

		_ = events.Insert(r.Context(), tx, b.ID, "ESTIMATE_SENT", "Estimate sent to customer", p.UserID, string(p.Role), time.Now(), map[string]any{"estimateNumber": e.EstimateNumber, "validUntil": ne.ValidUntil})
		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &b.ID, "ESTIMATE_SENT", map[string]any{"estimateId": e.ID})
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "estimate not found")
			return
		}
		h.Log.Error("estimate send failed", "estimate", id, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	notificationSent := h.Notifier.DispatchAsync(notify.Notification{
		RecipientID: bkRef.CustomerID,
		Template:    "estimate_sent",
		Payload: map[string]any{
			"estimateNumber": updated.EstimateNumber,
			"bookingNumber":  bkRef.BookingNumber,
			"total":          updated.Total,
			"validUntil":     updated.ValidUntil,
		},
	})

	api.WriteDataMeta(w, http.StatusOK, "Estimate sent successfully.",
		map[string]any{"estimate": updated, "notificationSent": notificationSent},
		map[string]any{"notificationSent": notificationSent},
	)
}

type DecisionRequest struct {
	CustomerConsent bool   `json:"customerConsent"`
	RejectionReason string `json:"rejectionReason"`
}

func (h Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, StatusApproved)
}

func (h Handlers) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, StatusRejected)
}

func (h Handlers) decide(w http.ResponseWriter, r *http.Request, next Status) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	if p.Role == api.RoleTechnician {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "technicians cannot decide estimates")
		return
	}
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if next == StatusRejected && req.RejectionReason == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "rejection requires a rejectionReason")
		return
	}
	// An advisor deciding on the customer's behalf must attest to the
	// customer's verbal consent; it goes in the audit trail.
	if p.IsStaff() && !req.CustomerConsent {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "advisor decisions require customerConsent")
		return
	}

	now := time.Now()
	var (
		updated *Estimate
		bkRef   *bookingRef
		expired *ExpiredRef
	)
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		e, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		b, err := bookingRefTx(r.Context(), tx, e.BookingID)
		if err != nil {
			return err
		}
		bkRef = b

		if p.Role == api.RoleCustomer && b.CustomerID != p.UserID {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not your estimate")
			return pgx.ErrTxCommitRollback
		}

		// Lazy expiry: a pending estimate past its deadline expires here,
		// under the row lock, before the decision is considered. Expire
		// claims the escalation along with the status change, so the
		// advisor notification below fires exactly once per estimate no
		// matter whether this path or the sweep gets there first.
		if e.Status == StatusPending && e.ValidUntil != nil && e.ValidUntil.Before(now) {
			if _, err := Expire(r.Context(), tx, e.ID); err != nil {
				return err
			}
			expired = &ExpiredRef{ID: e.ID, EstimateNumber: e.EstimateNumber, BookingID: b.ID, AdvisorID: b.ServiceAdvisorID}
			_ = events.Insert(r.Context(), tx, b.ID, "ESTIMATE_EXPIRED", "Estimate expired", p.UserID, string(p.Role), now, map[string]any{"estimateNumber": e.EstimateNumber})
			api.WriteError(w, http.StatusBadRequest, api.CodeExpired, "estimate has expired")
			return nil // commit the expiry, response already written
		}
		if e.Status == StatusExpired {
			api.WriteError(w, http.StatusBadRequest, api.CodeExpired, "estimate has expired")
			return pgx.ErrTxCommitRollback
		}
		if !CanTransition(e.Status, next) {
			api.WriteError(w, http.StatusBadRequest, api.CodeInvalidTransition, "estimate cannot be decided in its current status")
			return pgx.ErrTxCommitRollback
		}

		var ne *Estimate
		if next == StatusApproved {
			ne, err = Approve(r.Context(), tx, e.ID, p.UserID, req.CustomerConsent || p.Role == api.RoleCustomer)
		} else {
			ne, err = Reject(r.Context(), tx, e.ID, p.UserID, req.RejectionReason)
		}
		if err != nil {
			return err
		}
		updated = ne

		action := "ESTIMATE_APPROVED"
		msg := "Estimate approved"
		if next == StatusRejected {
			action, msg = "ESTIMATE_REJECTED", "Estimate rejected"
		}
		_ = events.Insert(r.Context(), tx, b.ID, action, msg, p.UserID, string(p.Role), now, map[string]any{"estimateNumber": e.EstimateNumber, "reason": req.RejectionReason})
		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &b.ID, action, map[string]any{"estimateId": e.ID, "customerConsent": req.CustomerConsent, "reason": req.RejectionReason})
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "estimate not found")
			return
		}
		h.Log.Error("estimate decision failed", "estimate", id, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}
	if updated == nil {
		// Lazy expiry path: the EXPIRED error response went out inside the
		// transaction and the expiry itself committed, so escalate to the
		// advisor now that the claim is durable.
		if expired != nil {
			escalateExpiry(h.Notifier, h.Metrics, h.Log, *expired)
		}
		return
	}

	notificationSent := h.Notifier.DispatchAsync(notify.Notification{
		RecipientID: bkRef.ServiceAdvisorID,
		Template:    "estimate_decided",
		Payload: map[string]any{
			"estimateNumber": updated.EstimateNumber,
			"bookingNumber":  bkRef.BookingNumber,
			"status":         updated.Status,
		},
	})

	msg := "Estimate approved successfully."
	if next == StatusRejected {
		msg = "Estimate rejected successfully."
	}
	api.WriteDataMeta(w, http.StatusOK, msg,
		map[string]any{"estimate": updated, "notificationSent": notificationSent},
		map[string]any{"notificationSent": notificationSent},
	)
}
