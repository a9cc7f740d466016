package booking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Booking struct {
	ID                string    `json:"id"`
	BookingNumber     string    `json:"bookingNumber"`
	CustomerID        string    `json:"customerId"`
	VehicleID         string    `json:"vehicleId"`
	ServiceAdvisorID  string    `json:"serviceAdvisorId"`
	ScheduledDate     string    `json:"scheduledDate"`     // YYYY-MM-DD
	ScheduledTime     string    `json:"scheduledTime"`     // HH:MM
	EstimatedDuration int       `json:"estimatedDuration"` // minutes
	Status            Status    `json:"status"`
	Priority          Priority  `json:"priority"`
	ServiceType       []string  `json:"serviceType"`
	CustomerNotes     string    `json:"customerNotes,omitempty"`
	InternalNotes     string    `json:"internalNotes,omitempty"`
	EstimatedCost     *int64    `json:"estimatedCost,omitempty"` // minor units
	ActualCost        *int64    `json:"actualCost,omitempty"`    // minor units
	CancelReason      string    `json:"cancelReason,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

const bookingColumns = `
id, booking_number, customer_id, vehicle_id, service_advisor_id,
scheduled_date::text, scheduled_time, estimated_duration, status, priority,
service_type, COALESCE(customer_notes,''), COALESCE(internal_notes,''),
estimated_cost, actual_cost, COALESCE(cancel_reason,''), created_at, updated_at
`

func scanBooking(row pgx.Row) (*Booking, error) {
	b := &Booking{}
	if err := row.Scan(
		&b.ID, &b.BookingNumber, &b.CustomerID, &b.VehicleID, &b.ServiceAdvisorID,
		&b.ScheduledDate, &b.ScheduledTime, &b.EstimatedDuration, &b.Status, &b.Priority,
		&b.ServiceType, &b.CustomerNotes, &b.InternalNotes,
		&b.EstimatedCost, &b.ActualCost, &b.CancelReason, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return b, nil
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type CreateParams struct {
	CustomerID        string
	VehicleID         string
	ServiceAdvisorID  string
	ScheduledDate     string
	ScheduledTime     string
	EstimatedDuration int
	Priority          Priority
	ServiceType       []string
	CustomerNotes     string
	EstimatedCost     *int64
}

func Create(ctx context.Context, tx pgx.Tx, p CreateParams) (*Booking, error) {
	const q = `
INSERT INTO bookings (
  booking_number, customer_id, vehicle_id, service_advisor_id,
  scheduled_date, scheduled_time, estimated_duration, status, priority,
  service_type, customer_notes, estimated_cost
)
VALUES (
  'MB-' || to_char(NOW(), 'YYYY') || '-' || lpad(nextval('booking_number_seq')::text, 6, '0'),
  $1, $2, $3, $4::date, $5, $6, 'scheduled', $7, $8, NULLIF($9, ''), $10
)
RETURNING ` + bookingColumns
	return scanBooking(tx.QueryRow(ctx, q,
		p.CustomerID, p.VehicleID, p.ServiceAdvisorID,
		p.ScheduledDate, p.ScheduledTime, p.EstimatedDuration,
		string(p.Priority), p.ServiceType, p.CustomerNotes, p.EstimatedCost,
	))
}

type ListFilter struct {
	CustomerID string
	Status     string
	Limit      int
	Offset     int
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Booking, int, error) {
	const q = `
SELECT ` + bookingColumns + `, COUNT(*) OVER() AS total
FROM bookings
WHERE ($1 = '' OR customer_id = $1)
  AND ($2 = '' OR status = $2)
ORDER BY scheduled_date DESC, created_at DESC
LIMIT $3 OFFSET $4
`
	rows, err := r.db.Query(ctx, q, f.CustomerID, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Booking
	total := 0
	for rows.Next() {
		b := Booking{}
		if err := rows.Scan(
			&b.ID, &b.BookingNumber, &b.CustomerID, &b.VehicleID, &b.ServiceAdvisorID,
			&b.ScheduledDate, &b.ScheduledTime, &b.EstimatedDuration, &b.Status, &b.Priority,
			&b.ServiceType, &b.CustomerNotes, &b.InternalNotes,
			&b.EstimatedCost, &b.ActualCost, &b.CancelReason, &b.CreatedAt, &b.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, q, id))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return scanBooking(tx.QueryRow(ctx, q, id))
}

// UpdateParams carries the mutable booking fields. customer_id and
// vehicle_id are immutable post-creation and have no place here.
type UpdateParams struct {
	ServiceAdvisorID  *string
	ScheduledDate     *string
	ScheduledTime     *string
	EstimatedDuration *int
	Priority          *Priority
	ServiceType       []string
	CustomerNotes     *string
	InternalNotes     *string
	EstimatedCost     *int64
	ActualCost        *int64
}

func UpdateFields(ctx context.Context, tx pgx.Tx, id string, p UpdateParams) (*Booking, error) {
	const q = `
UPDATE bookings
SET service_advisor_id = COALESCE($2, service_advisor_id),
    scheduled_date     = COALESCE($3::date, scheduled_date),
    scheduled_time     = COALESCE($4, scheduled_time),
    estimated_duration = COALESCE($5, estimated_duration),
    priority           = COALESCE($6, priority),
    service_type       = COALESCE($7, service_type),
    customer_notes     = COALESCE($8, customer_notes),
    internal_notes     = COALESCE($9, internal_notes),
    estimated_cost     = COALESCE($10, estimated_cost),
    actual_cost        = COALESCE($11, actual_cost),
    updated_at         = NOW()
WHERE id = $1
RETURNING ` + bookingColumns
	var prio *string
	if p.Priority != nil {
		s := string(*p.Priority)
		prio = &s
	}
	return scanBooking(tx.QueryRow(ctx, q, id,
		p.ServiceAdvisorID, p.ScheduledDate, p.ScheduledTime, p.EstimatedDuration,
		prio, p.ServiceType, p.CustomerNotes, p.InternalNotes,
		p.EstimatedCost, p.ActualCost,
	))
}

func UpdateStatus(ctx context.Context, tx pgx.Tx, id string, next Status, cancelReason string) (*Booking, error) {
	const q = `
UPDATE bookings
SET status = $2,
    cancel_reason = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancel_reason END,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + bookingColumns
	return scanBooking(tx.QueryRow(ctx, q, id, string(next), cancelReason))
}
