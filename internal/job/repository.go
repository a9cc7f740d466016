package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Job struct {
	ID                   string     `json:"id"`
	JobNumber            string     `json:"jobNumber"`
	BookingID            string     `json:"bookingId"`
	AssignedTechnicianID string     `json:"assignedTechnicianId"`
	ChecklistID          string     `json:"checklistId"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	Status               Status     `json:"status"`
	Priority             Priority   `json:"priority"`
	EstimatedHours       float64    `json:"estimatedHours"`
	ActualHours          *float64   `json:"actualHours,omitempty"`
	LaborRate            int64      `json:"laborRate"` // minor units per hour
	LaborCost            *int64     `json:"laborCost,omitempty"`
	Parts                []Part     `json:"parts"`
	StartTime            *time.Time `json:"startTime,omitempty"`
	EndTime              *time.Time `json:"endTime,omitempty"`
	TechnicianNotes      string     `json:"technicianNotes,omitempty"`
	HoldReason           string     `json:"holdReason,omitempty"`
	CancelReason         string     `json:"cancelReason,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

type Part struct {
	PartNumber  string `json:"partNumber"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitCost    int64  `json:"unitCost"` // minor units
}

// TimeEntry pairs a job start with its eventual end. An open entry has
// EndTime == nil.
type TimeEntry struct {
	ID           string     `json:"id"`
	JobID        string     `json:"jobId"`
	TechnicianID string     `json:"technicianId"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
}

const jobColumns = `
id, job_number, booking_id, assigned_technician_id, checklist_id, title,
COALESCE(description,''), status, priority, estimated_hours, actual_hours,
labor_rate, labor_cost, parts, start_time, end_time,
COALESCE(technician_notes,''), COALESCE(hold_reason,''), COALESCE(cancel_reason,''),
created_at, updated_at
`

func scanJob(row pgx.Row) (*Job, error) {
	j := &Job{}
	var parts json.RawMessage
	if err := row.Scan(
		&j.ID, &j.JobNumber, &j.BookingID, &j.AssignedTechnicianID, &j.ChecklistID, &j.Title,
		&j.Description, &j.Status, &j.Priority, &j.EstimatedHours, &j.ActualHours,
		&j.LaborRate, &j.LaborCost, &parts, &j.StartTime, &j.EndTime,
		&j.TechnicianNotes, &j.HoldReason, &j.CancelReason,
		&j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(parts) > 0 {
		_ = json.Unmarshal(parts, &j.Parts)
	}
	if j.Parts == nil {
		j.Parts = []Part{}
	}
	return j, nil
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type CreateParams struct {
	BookingID            string
	AssignedTechnicianID string
	ChecklistID          string
	Title                string
	Description          string
	Priority             Priority
	EstimatedHours       float64
	LaborRate            int64
}

func Create(ctx context.Context, tx pgx.Tx, p CreateParams) (*Job, error) {
	const q = `
INSERT INTO jobs (
  job_number, booking_id, assigned_technician_id, checklist_id, title,
  description, status, priority, estimated_hours, labor_rate, parts
)
VALUES (
  'JOB-' || to_char(NOW(), 'YYYY') || '-' || lpad(nextval('job_number_seq')::text, 6, '0'),
  $1, $2, $3, $4, NULLIF($5, ''), 'pending', $6, $7, $8, '[]'::jsonb
)
RETURNING ` + jobColumns
	return scanJob(tx.QueryRow(ctx, q,
		p.BookingID, p.AssignedTechnicianID, p.ChecklistID, p.Title,
		p.Description, string(p.Priority), p.EstimatedHours, p.LaborRate,
	))
}

type ListFilter struct {
	BookingID    string
	TechnicianID string
	Status       string
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Job, error) {
	const q = `
SELECT ` + jobColumns + `
FROM jobs
WHERE ($1 = '' OR booking_id = $1)
  AND ($2 = '' OR assigned_technician_id = $2)
  AND ($3 = '' OR status = $3)
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, f.BookingID, f.TechnicianID, f.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Job, error) {
	return r.List(ctx, ListFilter{BookingID: bookingID})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return scanJob(r.db.QueryRow(ctx, q, id))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`
	return scanJob(tx.QueryRow(ctx, q, id))
}

// Start flips the job into progress and opens a paired time entry.
func Start(ctx context.Context, tx pgx.Tx, id, technicianID string, now time.Time) (*Job, *TimeEntry, error) {
	const q = `
UPDATE jobs
SET status = 'in-progress', start_time = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + jobColumns
	j, err := scanJob(tx.QueryRow(ctx, q, id, now))
	if err != nil {
		return nil, nil, err
	}

	const qEntry = `
INSERT INTO job_time_entries (job_id, technician_id, start_time)
VALUES ($1, $2, $3)
RETURNING id, job_id, technician_id, start_time, end_time
`
	te := &TimeEntry{}
	if err := tx.QueryRow(ctx, qEntry, id, technicianID, now).Scan(
		&te.ID, &te.JobID, &te.TechnicianID, &te.StartTime, &te.EndTime,
	); err != nil {
		return nil, nil, err
	}
	return j, te, nil
}

type CompleteParams struct {
	EndTime         time.Time
	ActualHours     decimal.Decimal
	LaborCost       int64
	TechnicianNotes string
	Parts           []Part
}

// Complete finalizes the job and closes any open time entry.
func Complete(ctx context.Context, tx pgx.Tx, id string, p CompleteParams) (*Job, error) {
	parts, _ := json.Marshal(p.Parts)
	hours, _ := p.ActualHours.Float64()

	const q = `
UPDATE jobs
SET status = 'completed',
    end_time = $2,
    actual_hours = $3,
    labor_cost = $4,
    technician_notes = NULLIF($5, ''),
    parts = CAST($6 AS jsonb),
    updated_at = NOW()
WHERE id = $1
RETURNING ` + jobColumns
	j, err := scanJob(tx.QueryRow(ctx, q, id, p.EndTime, hours, p.LaborCost, p.TechnicianNotes, parts))
	if err != nil {
		return nil, err
	}

	const qClose = `
UPDATE job_time_entries
SET end_time = $2
WHERE job_id = $1 AND end_time IS NULL
`
	if _, err := tx.Exec(ctx, qClose, id, p.EndTime); err != nil {
		return nil, err
	}
	return j, nil
}

func SetStatus(ctx context.Context, tx pgx.Tx, id string, next Status, reason string) (*Job, error) {
	const q = `
UPDATE jobs
SET status = $2,
    hold_reason = CASE WHEN $2 = 'on-hold' THEN $3 ELSE hold_reason END,
    cancel_reason = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancel_reason END,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + jobColumns
	return scanJob(tx.QueryRow(ctx, q, id, string(next), reason))
}

// CloseOpenTimeEntries ends any dangling entries; used when a running
// job is put on hold or cancelled.
func CloseOpenTimeEntries(ctx context.Context, tx pgx.Tx, jobID string, at time.Time) error {
	const q = `
UPDATE job_time_entries
SET end_time = $2
WHERE job_id = $1 AND end_time IS NULL
`
	_, err := tx.Exec(ctx, q, jobID, at)
	return err
}

// OpenTimeEntry starts a fresh entry; used when a held job resumes.
func OpenTimeEntry(ctx context.Context, tx pgx.Tx, jobID, technicianID string, at time.Time) (*TimeEntry, error) {
	const q = `
INSERT INTO job_time_entries (job_id, technician_id, start_time)
VALUES ($1, $2, $3)
RETURNING id, job_id, technician_id, start_time, end_time
`
	te := &TimeEntry{}
	if err := tx.QueryRow(ctx, q, jobID, technicianID, at).Scan(
		&te.ID, &te.JobID, &te.TechnicianID, &te.StartTime, &te.EndTime,
	); err != nil {
		return nil, err
	}
	return te, nil
}

func (r *Repository) TimeEntries(ctx context.Context, jobID string) ([]TimeEntry, error) {
	const q = `
SELECT id, job_id, technician_id, start_time, end_time
FROM job_time_entries
WHERE job_id = $1
ORDER BY start_time ASC
`
	rows, err := r.db.Query(ctx, q, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TimeEntry{}
	for rows.Next() {
		var te TimeEntry
		if err := rows.Scan(&te.ID, &te.JobID, &te.TechnicianID, &te.StartTime, &te.EndTime); err != nil {
			return nil, err
		}
		out = append(out, te)
	}
	return out, rows.Err()
}
