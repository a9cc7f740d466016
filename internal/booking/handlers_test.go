package booking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workshop/internal/api"
)

// The request-shape checks in Create, Update and ChangeStatus all fire
// before any database work, so a zero-value Handlers is enough here.

func advisorRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	ctx := api.WithPrincipal(req.Context(), &api.Principal{UserID: "adv-1", Role: api.RoleServiceAdvisor})
	return req.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) api.Envelope {
	t.Helper()
	var env api.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func validCreateRequest() CreateRequest {
	return CreateRequest{
		CustomerID:        "cust-1",
		VehicleID:         "veh-1",
		ServiceAdvisorID:  "adv-1",
		ScheduledDate:     time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		ScheduledTime:     "09:00",
		EstimatedDuration: 60,
		ServiceType:       []string{"maintenance"},
	}
}

func TestCreate_RejectsPastScheduledDate(t *testing.T) {
	body := validCreateRequest()
	body.ScheduledDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	rec := httptest.NewRecorder()
	Handlers{}.Create(rec, advisorRequest(t, http.MethodPost, "/api/bookings", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != api.CodeValidationFailed {
		t.Fatalf("error = %+v, want %s", env.Error, api.CodeValidationFailed)
	}
}

func TestCreate_AcceptsToday(t *testing.T) {
	// Today's local date is the boundary; it must pass validation and
	// reach the database layer, which a zero-value Handlers signals by
	// panicking on the nil pool.
	body := validCreateRequest()
	body.ScheduledDate = time.Now().Format("2006-01-02")

	defer func() {
		if recover() == nil {
			t.Fatal("today's date never reached the storage layer")
		}
	}()
	rec := httptest.NewRecorder()
	Handlers{}.Create(rec, advisorRequest(t, http.MethodPost, "/api/bookings", body))

	if rec.Code == http.StatusBadRequest {
		t.Fatalf("today's date rejected: %s", rec.Body.String())
	}
}

func TestCreate_CustomerForbidden(t *testing.T) {
	buf, _ := json.Marshal(validCreateRequest())
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(buf))
	req = req.WithContext(api.WithPrincipal(req.Context(), &api.Principal{UserID: "cust-1", Role: api.RoleCustomer}))

	rec := httptest.NewRecorder()
	Handlers{}.Create(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != api.CodeForbidden {
		t.Fatalf("error = %+v, want %s", env.Error, api.CodeForbidden)
	}
}

func TestUpdate_RejectsImmutableFields(t *testing.T) {
	cases := map[string]UpdateRequest{
		"customerId": {CustomerID: strPtr("cust-2")},
		"vehicleId":  {VehicleID: strPtr("veh-2")},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Handlers{}.Update(rec, advisorRequest(t, http.MethodPut, "/api/bookings/bk-1", body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Error == nil || env.Error.Code != api.CodeValidationFailed {
				t.Fatalf("error = %+v, want %s", env.Error, api.CodeValidationFailed)
			}
		})
	}
}

func TestChangeStatus_CancelRequiresReason(t *testing.T) {
	body := StatusRequest{Status: string(StatusCancelled)}

	rec := httptest.NewRecorder()
	Handlers{}.ChangeStatus(rec, advisorRequest(t, http.MethodPut, "/api/bookings/bk-1/status", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != api.CodeValidationFailed {
		t.Fatalf("error = %+v, want %s", env.Error, api.CodeValidationFailed)
	}
}

func TestChangeStatus_TechnicianForbidden(t *testing.T) {
	buf, _ := json.Marshal(StatusRequest{Status: string(StatusInProgress)})
	req := httptest.NewRequest(http.MethodPut, "/api/bookings/bk-1/status", bytes.NewReader(buf))
	req = req.WithContext(api.WithPrincipal(req.Context(), &api.Principal{UserID: "tech-1", Role: api.RoleTechnician}))

	rec := httptest.NewRecorder()
	Handlers{}.ChangeStatus(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func strPtr(s string) *string { return &s }
