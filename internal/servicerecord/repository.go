package servicerecord

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is the immutable completion artifact of a finished job. It is
// written exactly once, inside the job-completion transaction, and the
// repository deliberately exposes no update or delete.
type Record struct {
	ID                  string         `json:"id"`
	RecordNumber        string         `json:"recordNumber"`
	VehicleID           string         `json:"vehicleId"`
	BookingID           string         `json:"bookingId"`
	JobID               string         `json:"jobId"`
	ServiceDate         time.Time      `json:"serviceDate"`
	MileageAtService    int            `json:"mileageAtService"`
	ServiceType         string         `json:"serviceType"`
	WorkPerformed       string         `json:"workPerformed"`
	PartsUsed           []Part         `json:"partsUsed"`
	TechnicianSignature string         `json:"technicianSignature"`
	QualityControl      QualityControl `json:"qualityControlCheck"`
	CustomerNotified    bool           `json:"customerNotified"`
	NextService         *NextService   `json:"nextServiceRecommendation,omitempty"`
	Compliance          *Certification `json:"complianceCertification,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
}

type Part struct {
	PartNumber     string `json:"partNumber"`
	PartName       string `json:"partName"`
	Manufacturer   string `json:"manufacturer,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitCost       int64  `json:"unitCost"` // minor units
	WarrantyPeriod string `json:"warrantyPeriod,omitempty"`
}

type QualityControl struct {
	PerformedBy string    `json:"performedBy"`
	CheckDate   time.Time `json:"checkDate"`
	Passed      bool      `json:"passed"`
	Notes       string    `json:"notes,omitempty"`
}

type NextService struct {
	Type            string `json:"type"`
	RecommendedDate string `json:"recommendedDate,omitempty"`
	MileageInterval int    `json:"mileageInterval,omitempty"`
}

type Certification struct {
	OEMCompliant     bool   `json:"oemCompliant"`
	StandardsVersion string `json:"standardsVersion,omitempty"`
	CertifiedBy      string `json:"certifiedBy,omitempty"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type InsertParams struct {
	VehicleID           string
	BookingID           string
	JobID               string
	ServiceDate         time.Time
	MileageAtService    int
	ServiceType         string
	WorkPerformed       string
	PartsUsed           []Part
	TechnicianSignature string
	QualityControl      QualityControl
	CustomerNotified    bool
	NextService         *NextService
	Compliance          *Certification
}

// Insert writes the record. A unique index on job_id makes the
// exactly-once guarantee structural, not just behavioral.
func Insert(ctx context.Context, tx pgx.Tx, p InsertParams) (*Record, error) {
	parts, _ := json.Marshal(p.PartsUsed)
	qc, _ := json.Marshal(p.QualityControl)
	var next, cert []byte
	if p.NextService != nil {
		next, _ = json.Marshal(p.NextService)
	}
	if p.Compliance != nil {
		cert, _ = json.Marshal(p.Compliance)
	}

	const q = `
INSERT INTO service_records (
  record_number, vehicle_id, booking_id, job_id, service_date,
  mileage_at_service, service_type, work_performed, parts_used,
  technician_signature, quality_control, customer_notified,
  next_service, compliance
)
VALUES (
  'SR-' || to_char(NOW(), 'YYYY') || '-' || lpad(nextval('record_number_seq')::text, 6, '0'),
  $1, $2, $3, $4, $5, $6, $7, CAST($8 AS jsonb), $9, CAST($10 AS jsonb), $11,
  CAST($12 AS jsonb), CAST($13 AS jsonb)
)
RETURNING ` + recordColumns
	return scanRecord(tx.QueryRow(ctx, q,
		p.VehicleID, p.BookingID, p.JobID, p.ServiceDate,
		p.MileageAtService, p.ServiceType, p.WorkPerformed, parts,
		p.TechnicianSignature, qc, p.CustomerNotified, nullable(next), nullable(cert),
	))
}

const recordColumns = `
id, record_number, vehicle_id, booking_id, job_id, service_date,
mileage_at_service, service_type, work_performed, parts_used,
technician_signature, quality_control, customer_notified,
next_service, compliance, created_at
`

func scanRecord(row pgx.Row) (*Record, error) {
	rec := &Record{}
	var parts, qc json.RawMessage
	var next, cert *json.RawMessage
	if err := row.Scan(
		&rec.ID, &rec.RecordNumber, &rec.VehicleID, &rec.BookingID, &rec.JobID, &rec.ServiceDate,
		&rec.MileageAtService, &rec.ServiceType, &rec.WorkPerformed, &parts,
		&rec.TechnicianSignature, &qc, &rec.CustomerNotified,
		&next, &cert, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	_ = json.Unmarshal(parts, &rec.PartsUsed)
	_ = json.Unmarshal(qc, &rec.QualityControl)
	if next != nil {
		_ = json.Unmarshal(*next, &rec.NextService)
	}
	if cert != nil {
		_ = json.Unmarshal(*cert, &rec.Compliance)
	}
	return rec, nil
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string) ([]Record, error) {
	const q = `SELECT ` + recordColumns + ` FROM service_records WHERE booking_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, q, bookingID)
}

type Filter struct {
	BookingID  string
	VehicleID  string
	CustomerID string
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Record, error) {
	const q = `
SELECT r.id, r.record_number, r.vehicle_id, r.booking_id, r.job_id, r.service_date,
       r.mileage_at_service, r.service_type, r.work_performed, r.parts_used,
       r.technician_signature, r.quality_control, r.customer_notified,
       r.next_service, r.compliance, r.created_at
FROM service_records r
JOIN bookings b ON b.id = r.booking_id
WHERE ($1 = '' OR r.booking_id = $1)
  AND ($2 = '' OR r.vehicle_id = $2)
  AND ($3 = '' OR b.customer_id = $3)
ORDER BY r.service_date DESC, r.created_at DESC
`
	rows, err := r.db.Query(ctx, q, f.BookingID, f.VehicleID, f.CustomerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *Repository) GetByJob(ctx context.Context, jobID string) (*Record, error) {
	const q = `SELECT ` + recordColumns + ` FROM service_records WHERE job_id = $1`
	return scanRecord(r.db.QueryRow(ctx, q, jobID))
}

func (r *Repository) list(ctx context.Context, q string, arg any) ([]Record, error) {
	rows, err := r.db.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
