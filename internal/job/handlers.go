package job

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
	"workshop/internal/checklist"
	"workshop/internal/events"
	"workshop/internal/notify"
	"workshop/internal/servicerecord"
	"workshop/pkg/db"
	"workshop/pkg/logger"
	"workshop/pkg/metrics"
)

type Handlers struct {
	DB         *pgxpool.Pool
	Jobs       *Repository
	Checklists *checklist.Repository
	Notifier   *notify.Dispatcher
	Log        logger.Logger
	Metrics    *metrics.Metrics
}

// bookingRef is the slice of the booking a job operation needs; jobs
// query it directly instead of depending on the booking package.
type bookingRef struct {
	ID            string
	BookingNumber string
	CustomerID    string
	VehicleID     string
	ServiceType   []string
	Status        string
}

func bookingRefTx(ctx context.Context, tx pgx.Tx, id string) (*bookingRef, error) {
	const q = `
SELECT id, booking_number, customer_id, vehicle_id, service_type, status
FROM bookings WHERE id = $1
`
	b := &bookingRef{}
	if err := tx.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.BookingNumber, &b.CustomerID, &b.VehicleID, &b.ServiceType, &b.Status,
	); err != nil {
		return nil, err
	}
	return b, nil
}

type CreateRequest struct {
	BookingID            string  `json:"bookingId"`
	AssignedTechnicianID string  `json:"assignedTechnicianId"`
	ChecklistID          string  `json:"checklistId"`
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	Priority             string  `json:"priority"`
	EstimatedHours       float64 `json:"estimatedHours"`
	LaborRate            int64   `json:"laborRate"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	if !p.IsStaff() {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "only advisors may create jobs")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	if req.BookingID == "" || req.AssignedTechnicianID == "" || req.ChecklistID == "" || req.Title == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "missing required fields")
		return
	}
	if req.EstimatedHours <= 0 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "estimatedHours must be > 0")
		return
	}
	if req.LaborRate < 0 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "laborRate must be >= 0")
		return
	}
	prio := Priority(req.Priority)
	if req.Priority == "" {
		prio = PriorityNormal
	} else if _, err := ParsePriority(req.Priority); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid priority")
		return
	}

	var created *Job
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := bookingRefTx(r.Context(), tx, req.BookingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "booking not found")
				return pgx.ErrTxCommitRollback
			}
			return err
		}

		cl, err := checklist.GetByIDTx(r.Context(), tx, req.ChecklistID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "unknown checklist")
				return pgx.ErrTxCommitRollback
			}
			return err
		}

		j, err := Create(r.Context(), tx, CreateParams{
			BookingID:            b.ID,
			AssignedTechnicianID: req.AssignedTechnicianID,
			ChecklistID:          cl.ID,
			Title:                req.Title,
			Description:          req.Description,
			Priority:             prio,
			EstimatedHours:       req.EstimatedHours,
			LaborRate:            req.LaborRate,
		})
		if err != nil {
			return err
		}
		created = j

		if err := checklist.InstantiateForJob(r.Context(), tx, j.ID, cl); err != nil {
			return err
		}

		_ = events.Insert(r.Context(), tx, b.ID, "JOB_CREATED", "Job created", p.UserID, string(p.Role), time.Now(), map[string]any{"jobNumber": j.JobNumber, "title": j.Title})
		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &b.ID, "JOB_CREATED", map[string]any{"jobId": j.ID, "technicianId": j.AssignedTechnicianID})
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		h.Log.Error("job create failed", "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusCreated, "Job created successfully.", map[string]any{"job": created})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}

	f := ListFilter{
		BookingID:    r.URL.Query().Get("bookingId"),
		TechnicianID: r.URL.Query().Get("technicianId"),
		Status:       r.URL.Query().Get("status"),
	}
	if f.Status != "" {
		if _, err := ParseStatus(f.Status); err != nil {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid status filter")
			return
		}
	}

	// Technicians only ever see their own assignments.
	if p.Role == api.RoleTechnician {
		if f.TechnicianID != "" && f.TechnicianID != p.UserID {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "cannot query another technician's jobs")
			return
		}
		f.TechnicianID = p.UserID
	}

	items, err := h.Jobs.List(r.Context(), f)
	if err != nil {
		h.Log.Error("job list failed", "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusOK, "", map[string]any{"jobs": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	id := chi.URLParam(r, "id")

	j, err := h.Jobs.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "job not found")
		return
	}
	if p.Role == api.RoleTechnician && j.AssignedTechnicianID != p.UserID {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not your job")
		return
	}

	entries, err := h.Jobs.TimeEntries(r.Context(), j.ID)
	if err != nil {
		h.Log.Error("job detail: load time entries failed", "job", j.ID, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusOK, "", map[string]any{"job": j, "timeEntries": entries})
}

// canOperate reports whether the principal may act on the job: the
// assigned technician, or any advisor/admin.
func canOperate(p *api.Principal, j *Job) bool {
	if p.IsStaff() {
		return true
	}
	return p.Role == api.RoleTechnician && j.AssignedTechnicianID == p.UserID
}

func (h Handlers) Start(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	id := chi.URLParam(r, "id")

	start := time.Now()
	var (
		updated *Job
		entry   *TimeEntry
	)
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		j, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !canOperate(p, j) {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "job is assigned to another technician")
			return pgx.ErrTxCommitRollback
		}
		// A held job comes back through resume, not start.
		if j.Status != StatusPending {
			api.WriteError(w, http.StatusBadRequest, api.CodeInvalidTransition, "job cannot be started from its current status")
			return pgx.ErrTxCommitRollback
		}

		nj, te, err := Start(r.Context(), tx, j.ID, j.AssignedTechnicianID, start)
		if err != nil {
			return err
		}
		updated, entry = nj, te

		_ = events.Insert(r.Context(), tx, j.BookingID, "JOB_STARTED", "Job started", p.UserID, string(p.Role), start, map[string]any{"jobNumber": j.JobNumber})
		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &j.BookingID, "JOB_STARTED", map[string]any{"jobId": j.ID})
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "job not found")
			return
		}
		h.Log.Error("job start failed", "job", id, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	if h.Metrics != nil {
		h.Metrics.JobTransitions.WithLabelValues(string(StatusInProgress)).Inc()
		h.Metrics.TransitionDuration.Observe(time.Since(start).Seconds())
	}

	api.WriteData(w, http.StatusOK, "Job started successfully.", map[string]any{"job": updated, "timeEntry": entry})
}

type CompleteRequest struct {
	TechnicianNotes    string `json:"technicianNotes"`
	WorkPerformed      string `json:"workPerformed"`
	Parts              []Part `json:"parts"`
	MileageAtService   int    `json:"mileageAtService"`
	QualityCheckPassed *bool  `json:"qualityCheckPassed"`
	QualityCheckNotes  string `json:"qualityCheckNotes"`
	NotifyCustomer     bool   `json:"notifyCustomer"`

	NextService *servicerecord.NextService `json:"nextServiceRecommendation"`
}

func (h Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	id := chi.URLParam(r, "id")

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	if req.QualityCheckPassed == nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "qualityCheckPassed is required")
		return
	}

	now := time.Now()
	var (
		updated *Job
		record  *servicerecord.Record
		bkRef   *bookingRef
	)
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		j, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !canOperate(p, j) {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "job is assigned to another technician")
			return pgx.ErrTxCommitRollback
		}
		// Status is checked before the checklist so a caller on the wrong
		// state sees INVALID_TRANSITION, never CHECKLIST_INCOMPLETE.
		if !CanTransition(j.Status, StatusCompleted) {
			api.WriteError(w, http.StatusBadRequest, api.CodeInvalidTransition, "job cannot be completed from its current status")
			return pgx.ErrTxCommitRollback
		}

		cl, err := checklist.GetByIDTx(r.Context(), tx, j.ChecklistID)
		if err != nil {
			return err
		}
		done, err := checklist.CompletionsForJobTx(r.Context(), tx, j.ID)
		if err != nil {
			return err
		}
		report := checklist.Progress(cl.Items, done)
		if !report.Complete() {
			api.WriteError(w, http.StatusUnprocessableEntity, api.CodeChecklistIncomplete, "required checklist items are not complete")
			return pgx.ErrTxCommitRollback
		}

		b, err := bookingRefTx(r.Context(), tx, j.BookingID)
		if err != nil {
			return err
		}
		bkRef = b

		startTime := now
		if j.StartTime != nil {
			startTime = *j.StartTime
		}
		hours := ActualHours(startTime, now)
		cost := LaborCost(hours, j.LaborRate)

		nj, err := Complete(r.Context(), tx, j.ID, CompleteParams{
			EndTime:         now,
			ActualHours:     hours,
			LaborCost:       cost,
			TechnicianNotes: req.TechnicianNotes,
			Parts:           req.Parts,
		})
		if err != nil {
			return err
		}
		updated = nj

		work := req.WorkPerformed
		if work == "" {
			work = j.Title
		}
		serviceType := ""
		if len(b.ServiceType) > 0 {
			serviceType = b.ServiceType[0]
		}
		recParts := make([]servicerecord.Part, 0, len(req.Parts))
		for _, part := range req.Parts {
			recParts = append(recParts, servicerecord.Part{
				PartNumber: part.PartNumber,
				PartName:   part.Description,
				Quantity:   part.Quantity,
				UnitCost:   part.UnitCost,
			})
		}
		rec, err := servicerecord.Insert(r.Context(), tx, servicerecord.InsertParams{
			VehicleID:           b.VehicleID,
			BookingID:           b.ID,
			JobID:               j.ID,
			ServiceDate:         now,
			MileageAtService:    req.MileageAtService,
			ServiceType:         serviceType,
			WorkPerformed:       work,
			PartsUsed:           recParts,
			TechnicianSignature: p.Name,
			QualityControl: servicerecord.QualityControl{
				PerformedBy: p.UserID,
				CheckDate:   now,
				Passed:      *req.QualityCheckPassed,
				Notes:       req.QualityCheckNotes,
			},
			CustomerNotified: req.NotifyCustomer,
			NextService:      req.NextService,
		})
		if err != nil {
			return err
		}
		record = rec

		_ = events.Insert(r.Context(), tx, j.BookingID, "JOB_COMPLETED", "Job completed", p.UserID, string(p.Role), now, map[string]any{"jobNumber": j.JobNumber, "recordNumber": rec.RecordNumber})
		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &j.BookingID, "JOB_COMPLETED", map[string]any{"jobId": j.ID, "laborCost": cost})
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "job not found")
			return
		}
		h.Log.Error("job complete failed", "job", id, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	if h.Metrics != nil {
		h.Metrics.JobTransitions.WithLabelValues(string(StatusCompleted)).Inc()
		h.Metrics.TransitionDuration.Observe(time.Since(now).Seconds())
	}

	notificationSent := false
	if req.NotifyCustomer {
		notificationSent = h.Notifier.DispatchAsync(notify.Notification{
			RecipientID: bkRef.CustomerID,
			Template:    "job_completed",
			Payload: map[string]any{
				"jobNumber":     updated.JobNumber,
				"bookingNumber": bkRef.BookingNumber,
				"recordNumber":  record.RecordNumber,
			},
		})
	}

	api.WriteDataMeta(w, http.StatusOK, "Job completed successfully.",
		map[string]any{"job": updated, "serviceRecord": record, "notificationSent": notificationSent},
		map[string]any{"notificationSent": notificationSent},
	)
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

func (h Handlers) Hold(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	if req.Reason == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "hold requires a reason")
		return
	}
	h.transition(w, r, StatusOnHold, req.Reason, "JOB_HELD", "Job placed on hold.")
}

func (h Handlers) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusInProgress, "", "JOB_RESUMED", "Job resumed.")
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	if !p.IsStaff() {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "only advisors may cancel jobs")
		return
	}
	var req ReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	if req.Reason == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "cancellation requires a reason")
		return
	}
	h.transition(w, r, StatusCancelled, req.Reason, "JOB_CANCELLED", "Job cancelled.")
}

func (h Handlers) transition(w http.ResponseWriter, r *http.Request, next Status, reason, action, message string) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	id := chi.URLParam(r, "id")

	start := time.Now()
	var updated *Job
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		j, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !canOperate(p, j) {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "job is assigned to another technician")
			return pgx.ErrTxCommitRollback
		}
		if !CanTransition(j.Status, next) {
			api.WriteError(w, http.StatusBadRequest, api.CodeInvalidTransition, "invalid status transition")
			return pgx.ErrTxCommitRollback
		}

		nj, err := SetStatus(r.Context(), tx, j.ID, next, reason)
		if err != nil {
			return err
		}
		updated = nj

		switch next {
		case StatusOnHold, StatusCancelled:
			if err := CloseOpenTimeEntries(r.Context(), tx, j.ID, start); err != nil {
				return err
			}
		case StatusInProgress:
			if _, err := OpenTimeEntry(r.Context(), tx, j.ID, j.AssignedTechnicianID, start); err != nil {
				return err
			}
		}

		_ = events.Insert(r.Context(), tx, j.BookingID, action, message, p.UserID, string(p.Role), start, map[string]any{"jobNumber": j.JobNumber, "from": j.Status, "to": next, "reason": reason})
		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &j.BookingID, action, map[string]any{"jobId": j.ID, "reason": reason})
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "job not found")
			return
		}
		h.Log.Error("job transition failed", "job", id, "to", next, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	if h.Metrics != nil {
		h.Metrics.JobTransitions.WithLabelValues(string(next)).Inc()
		h.Metrics.TransitionDuration.Observe(time.Since(start).Seconds())
	}

	api.WriteData(w, http.StatusOK, message, map[string]any{"job": updated})
}

func (h Handlers) Checklist(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	id := chi.URLParam(r, "id")

	j, err := h.Jobs.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "job not found")
		return
	}
	if p.Role == api.RoleTechnician && j.AssignedTechnicianID != p.UserID {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not your job")
		return
	}

	cl, err := h.Checklists.GetByID(r.Context(), j.ChecklistID)
	if err != nil {
		h.Log.Error("checklist load failed", "job", j.ID, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}
	done, err := h.Checklists.CompletionsForJob(r.Context(), j.ID)
	if err != nil {
		h.Log.Error("checklist completions load failed", "job", j.ID, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	report := checklist.Progress(cl.Items, done)
	api.WriteData(w, http.StatusOK, "", map[string]any{
		"checklist": cl,
		"progress":  report,
	})
}

type ChecklistItemRequest struct {
	Completed *bool  `json:"completed"`
	Notes     string `json:"notes"`
}

func (h Handlers) SetChecklistItem(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")

	var req ChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	if req.Completed == nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "completed is required")
		return
	}

	var report checklist.Report
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		j, err := GetForUpdate(r.Context(), tx, id)
		if err != nil {
			return err
		}
		if !canOperate(p, j) {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not your job")
			return pgx.ErrTxCommitRollback
		}
		// Checklist items are only mutable while work is underway.
		if j.Status != StatusInProgress && j.Status != StatusOnHold {
			api.WriteError(w, http.StatusBadRequest, api.CodeInvalidTransition, "checklist is not editable in the job's current status")
			return pgx.ErrTxCommitRollback
		}

		ok, err := checklist.SetItemCompletion(r.Context(), tx, j.ID, itemID, *req.Completed, p.UserID, req.Notes)
		if err != nil {
			return err
		}
		if !ok {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "checklist item not found")
			return pgx.ErrTxCommitRollback
		}

		cl, err := checklist.GetByIDTx(r.Context(), tx, j.ChecklistID)
		if err != nil {
			return err
		}
		done, err := checklist.CompletionsForJobTx(r.Context(), tx, j.ID)
		if err != nil {
			return err
		}
		report = checklist.Progress(cl.Items, done)

		_ = audit.Insert(r.Context(), tx, p.UserID, string(p.Role), &j.BookingID, "CHECKLIST_ITEM_UPDATED", map[string]any{"jobId": j.ID, "itemId": itemID, "completed": *req.Completed})
		return nil
	})
	if err == pgx.ErrTxCommitRollback {
		return
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "job not found")
			return
		}
		h.Log.Error("checklist item update failed", "job", id, "item", itemID, "err", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	api.WriteData(w, http.StatusOK, "Checklist item updated.", map[string]any{"progress": report})
}
