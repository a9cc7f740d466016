package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"workshop/pkg/config"
	"workshop/pkg/db"
)

// Seeds a minimal local dataset: one user per role, an active checklist
// template and a confirmed booking, so the whole flow can be exercised
// from login to job completion without any manual SQL.
func main() {
	var (
		password = flag.String("password", "workshop-dev", "password set for every seeded user")
	)
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	users := []struct {
		Email string
		Name  string
		Role  string
	}{
		{"admin@workshop.local", "Astrid Admin", "admin"},
		{"advisor@workshop.local", "Sven Advisor", "service_advisor"},
		{"tech@workshop.local", "Theo Technician", "technician"},
		{"customer@workshop.local", "Clara Customer", "customer"},
	}

	ids := map[string]string{}
	for _, u := range users {
		var id string
		err := pool.QueryRow(ctx, `
INSERT INTO users (email, name, role, password_hash, active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
RETURNING id
`, u.Email, u.Name, u.Role, string(hash)).Scan(&id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed user %s: %v\n", u.Email, err)
			os.Exit(1)
		}
		ids[u.Role] = id
	}

	var checklistID string
	err = pool.QueryRow(ctx, `
INSERT INTO checklists (name, vehicle_model, service_type, version, is_active, items)
VALUES ('C-Class Service B', 'C-Class', 'service-b', 1, TRUE, $1)
ON CONFLICT (vehicle_model, service_type, version) DO UPDATE SET items = EXCLUDED.items
RETURNING id
`, `[
  {"id":"oil-change","title":"Engine oil and filter change","required":true},
  {"id":"brake-inspection","title":"Brake pad and disc inspection","required":true},
  {"id":"tyre-rotation","title":"Tyre rotation and pressure check","required":true},
  {"id":"cabin-filter","title":"Cabin air filter replacement","required":false}
]`).Scan(&checklistID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed checklist: %v\n", err)
		os.Exit(1)
	}

	var bookingID, bookingNumber string
	err = pool.QueryRow(ctx, `
INSERT INTO bookings (
  booking_number, customer_id, vehicle_id, service_advisor_id,
  scheduled_date, scheduled_time, estimated_duration, status, priority,
  service_type
)
VALUES (
  'MB-' || to_char(NOW(), 'YYYY') || '-' || lpad(nextval('booking_number_seq')::text, 6, '0'),
  $1, 'WDD2050011F000001', $2,
  (NOW() + interval '1 day')::date, '09:00', 120, 'confirmed', 'normal',
  ARRAY['service-b']
)
RETURNING id, booking_number
`, ids["customer"], ids["service_advisor"]).Scan(&bookingID, &bookingNumber)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed booking: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Seed complete.")
	for _, u := range users {
		fmt.Printf("  %-16s %s (password: %s)\n", u.Role, u.Email, *password)
	}
	fmt.Printf("checklist_id=%s\n", checklistID)
	fmt.Printf("booking_id=%s (%s)\n", bookingID, bookingNumber)

	fmt.Printf("\nNext steps:\n")
	fmt.Printf("- Login: POST /api/auth/login with advisor credentials.\n")
	fmt.Printf("- Create a job: POST /api/jobs with bookingId, checklistId and the technician's id.\n")
	fmt.Printf("- Start, tick the checklist, then complete it as the technician.\n")
}
