package checklist

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const checklistColumns = `
id, name, vehicle_model, service_type, version, is_active, items, created_at, updated_at
`

func scanChecklist(row pgx.Row) (*Checklist, error) {
	c := &Checklist{}
	var items json.RawMessage
	if err := row.Scan(
		&c.ID, &c.Name, &c.VehicleModel, &c.ServiceType, &c.Version, &c.Active,
		&items, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Checklist, error) {
	const q = `SELECT ` + checklistColumns + ` FROM checklists WHERE id = $1`
	return scanChecklist(r.db.QueryRow(ctx, q, id))
}

func GetByIDTx(ctx context.Context, tx pgx.Tx, id string) (*Checklist, error) {
	const q = `SELECT ` + checklistColumns + ` FROM checklists WHERE id = $1`
	return scanChecklist(tx.QueryRow(ctx, q, id))
}

// FindActive resolves the active template version for a vehicle model
// and service type.
func (r *Repository) FindActive(ctx context.Context, vehicleModel, serviceType string) (*Checklist, error) {
	const q = `
SELECT ` + checklistColumns + `
FROM checklists
WHERE vehicle_model = $1 AND service_type = $2 AND is_active
ORDER BY version DESC
LIMIT 1
`
	return scanChecklist(r.db.QueryRow(ctx, q, vehicleModel, serviceType))
}

type ListFilter struct {
	VehicleModel string
	ServiceType  string
	ActiveOnly   bool
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Checklist, error) {
	const q = `
SELECT ` + checklistColumns + `
FROM checklists
WHERE ($1 = '' OR vehicle_model = $1)
  AND ($2 = '' OR service_type = $2)
  AND (NOT $3 OR is_active)
ORDER BY vehicle_model, service_type, version DESC
`
	rows, err := r.db.Query(ctx, q, f.VehicleModel, f.ServiceType, f.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Checklist{}
	for rows.Next() {
		c, err := scanChecklist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// InstantiateForJob copies the template's item skeleton into per-job
// completion rows. The job pins the checklist id, so later template
// versions never change an in-flight job.
func InstantiateForJob(ctx context.Context, tx pgx.Tx, jobID string, c *Checklist) error {
	const q = `
INSERT INTO job_checklist_items (job_id, item_id, required)
VALUES ($1, $2, $3)
`
	for _, it := range c.Items {
		if _, err := tx.Exec(ctx, q, jobID, it.ID, it.Required); err != nil {
			return err
		}
	}
	return nil
}

const completionQuery = `
SELECT item_id, completed, COALESCE(completed_by,''), completed_at, COALESCE(notes,'')
FROM job_checklist_items
WHERE job_id = $1
`

func (r *Repository) CompletionsForJob(ctx context.Context, jobID string) (map[string]Completion, error) {
	rows, err := r.db.Query(ctx, completionQuery, jobID)
	if err != nil {
		return nil, err
	}
	return scanCompletions(rows)
}

func CompletionsForJobTx(ctx context.Context, tx pgx.Tx, jobID string) (map[string]Completion, error) {
	rows, err := tx.Query(ctx, completionQuery, jobID)
	if err != nil {
		return nil, err
	}
	return scanCompletions(rows)
}

func scanCompletions(rows pgx.Rows) (map[string]Completion, error) {
	defer rows.Close()

	out := make(map[string]Completion)
	for rows.Next() {
		var id string
		var c Completion
		if err := rows.Scan(&id, &c.Completed, &c.CompletedBy, &c.CompletedAt, &c.Notes); err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, rows.Err()
}

// SetItemCompletion flips one per-job item. Returns false when the item
// does not belong to the job's checklist.
func SetItemCompletion(ctx context.Context, tx pgx.Tx, jobID, itemID string, completed bool, by, notes string) (bool, error) {
	const q = `
UPDATE job_checklist_items
SET completed = $3,
    completed_by = CASE WHEN $3 THEN $4 ELSE NULL END,
    completed_at = CASE WHEN $3 THEN NOW() ELSE NULL END,
    notes = NULLIF($5, '')
WHERE job_id = $1 AND item_id = $2
`
	tag, err := tx.Exec(ctx, q, jobID, itemID, completed, by, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
