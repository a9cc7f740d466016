package estimate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Estimate struct {
	ID              string     `json:"id"`
	EstimateNumber  string     `json:"estimateNumber"`
	BookingID       string     `json:"bookingId"`
	CreatedBy       string     `json:"createdBy"`
	Status          Status     `json:"status"`
	LineItems       []LineItem `json:"lineItems"`
	Subtotal        int64      `json:"subtotal"`
	TaxRateBps      int64      `json:"taxRateBps"`
	TaxAmount       int64      `json:"taxAmount"`
	Total           int64      `json:"total"`
	ValidUntil      *time.Time `json:"validUntil,omitempty"`
	SentAt          *time.Time `json:"sentAt,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	DecidedBy       string     `json:"decidedBy,omitempty"`
	CustomerConsent bool       `json:"customerConsent"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	EscalatedAt     *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

const estimateColumns = `
id, estimate_number, booking_id, created_by, status, line_items,
subtotal, tax_rate_bps, tax_amount, total, valid_until, sent_at,
decided_at, COALESCE(decided_by::text,''), customer_consent,
COALESCE(rejection_reason,''), escalated_at, created_at, updated_at
`

func scanEstimate(row pgx.Row) (*Estimate, error) {
	e := &Estimate{}
	var items json.RawMessage
	if err := row.Scan(
		&e.ID, &e.EstimateNumber, &e.BookingID, &e.CreatedBy, &e.Status, &items,
		&e.Subtotal, &e.TaxRateBps, &e.TaxAmount, &e.Total, &e.ValidUntil, &e.SentAt,
		&e.DecidedAt, &e.DecidedBy, &e.CustomerConsent,
		&e.RejectionReason, &e.EscalatedAt, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &e.LineItems); err != nil {
		return nil, err
	}
	if e.LineItems == nil {
		e.LineItems = []LineItem{}
	}
	return e, nil
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type CreateParams struct {
	BookingID  string
	CreatedBy  string
	LineItems  []LineItem
	Subtotal   int64
	TaxRateBps int64
	TaxAmount  int64
	Total      int64
}

func Create(ctx context.Context, tx pgx.Tx, p CreateParams) (*Estimate, error) {
	items, _ := json.Marshal(p.LineItems)
	const q = `
INSERT INTO estimates (
  estimate_number, booking_id, created_by, status, line_items,
  subtotal, tax_rate_bps, tax_amount, total
)
VALUES (
  'EST-' || to_char(NOW(), 'YYYY') || '-' || lpad(nextval('estimate_number_seq')::text, 6, '0'),
  $1, $2, 'draft', CAST($3 AS jsonb), $4, $5, $6, $7
)
RETURNING ` + estimateColumns
	return scanEstimate(tx.QueryRow(ctx, q,
		p.BookingID, p.CreatedBy, items, p.Subtotal, p.TaxRateBps, p.TaxAmount, p.Total,
	))
}

type ListFilter struct {
	BookingID  string
	Status     string
	CustomerID string
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Estimate, error) {
	const q = `
SELECT e.id, e.estimate_number, e.booking_id, e.created_by, e.status, e.line_items,
       e.subtotal, e.tax_rate_bps, e.tax_amount, e.total, e.valid_until, e.sent_at,
       e.decided_at, COALESCE(e.decided_by::text,''), e.customer_consent,
       COALESCE(e.rejection_reason,''), e.escalated_at, e.created_at, e.updated_at
FROM estimates e
JOIN bookings b ON b.id = e.booking_id
WHERE ($1 = '' OR e.booking_id = $1)
  AND ($2 = '' OR e.status = $2)
  AND ($3 = '' OR b.customer_id = $3)
ORDER BY e.created_at DESC
`
	rows, err := r.db.Query(ctx, q, f.BookingID, f.Status, f.CustomerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Estimate{}
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Estimate, error) {
	return r.List(ctx, ListFilter{BookingID: bookingID})
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Estimate, error) {
	const q = `SELECT ` + estimateColumns + ` FROM estimates WHERE id = $1`
	return scanEstimate(r.db.QueryRow(ctx, q, id))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Estimate, error) {
	const q = `SELECT ` + estimateColumns + ` FROM estimates WHERE id = $1 FOR UPDATE`
	return scanEstimate(tx.QueryRow(ctx, q, id))
}

// Send moves a draft into pending and stamps the approval deadline.
func Send(ctx context.Context, tx pgx.Tx, id string, validUntil time.Time) (*Estimate, error) {
	const q = `
UPDATE estimates
SET status = 'pending', sent_at = NOW(), valid_until = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + estimateColumns
	return scanEstimate(tx.QueryRow(ctx, q, id, validUntil))
}

func Approve(ctx context.Context, tx pgx.Tx, id, decidedBy string, customerConsent bool) (*Estimate, error) {
	const q = `
UPDATE estimates
SET status = 'approved', decided_at = NOW(), decided_by = $2,
    customer_consent = $3, updated_at = NOW()
WHERE id = $1
RETURNING ` + estimateColumns
	return scanEstimate(tx.QueryRow(ctx, q, id, decidedBy, customerConsent))
}

func Reject(ctx context.Context, tx pgx.Tx, id, decidedBy, reason string) (*Estimate, error) {
	const q = `
UPDATE estimates
SET status = 'rejected', decided_at = NOW(), decided_by = $2,
    rejection_reason = $3, updated_at = NOW()
WHERE id = $1
RETURNING ` + estimateColumns
	return scanEstimate(tx.QueryRow(ctx, q, id, decidedBy, reason))
}

// Expire marks a pending estimate whose deadline already passed; used
// for lazy expiry under the row lock. It stamps escalated_at in the
// same UPDATE, claiming the advisor escalation so the background sweep
// can never produce a second one; the caller dispatches the
// notification after commit.
func Expire(ctx context.Context, tx pgx.Tx, id string) (*Estimate, error) {
	const q = `
UPDATE estimates
SET status = 'expired', escalated_at = NOW(), updated_at = NOW()
WHERE id = $1
RETURNING ` + estimateColumns
	return scanEstimate(tx.QueryRow(ctx, q, id))
}

// ExpiredRef identifies one freshly expired estimate and the advisor
// its escalation goes to.
type ExpiredRef struct {
	ID             string
	EstimateNumber string
	BookingID      string
	AdvisorID      string
}

// SweepExpired expires every overdue pending estimate and claims it for
// escalation. The escalated_at guard makes each estimate escalate at
// most once, even with lazy expiry racing the sweep.
func (r *Repository) SweepExpired(ctx context.Context, now time.Time) ([]ExpiredRef, error) {
	const q = `
UPDATE estimates e
SET status = 'expired', escalated_at = $1, updated_at = NOW()
FROM bookings b
WHERE b.id = e.booking_id
  AND e.status = 'pending'
  AND e.valid_until < $1
  AND e.escalated_at IS NULL
RETURNING e.id, e.estimate_number, e.booking_id, b.service_advisor_id
`
	rows, err := r.db.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ExpiredRef{}
	for rows.Next() {
		var ref ExpiredRef
		if err := rows.Scan(&ref.ID, &ref.EstimateNumber, &ref.BookingID, &ref.AdvisorID); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}
