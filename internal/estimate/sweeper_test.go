package estimate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workshop/internal/notify"
)

// Lazy expiry and the sweep both escalate through escalateExpiry after
// claiming the estimate, so a single claim must produce exactly one
// advisor notification.
func TestEscalateExpiry_NotifiesAdvisorOnce(t *testing.T) {
	hits := make(chan notify.Notification, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n notify.Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			t.Errorf("decode notification: %v", err)
		}
		hits <- n
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := &notify.Dispatcher{BaseURL: srv.URL, Timeout: 2 * time.Second}
	ref := ExpiredRef{
		ID:             "est-1",
		EstimateNumber: "EST-2026-000042",
		BookingID:      "bk-1",
		AdvisorID:      "adv-1",
	}
	if !escalateExpiry(d, nil, nil, ref) {
		t.Fatal("escalation was not accepted for dispatch")
	}

	select {
	case n := <-hits:
		if n.RecipientID != "adv-1" {
			t.Fatalf("recipient = %q, want the service advisor", n.RecipientID)
		}
		if n.Template != "estimate_expired" {
			t.Fatalf("template = %q, want estimate_expired", n.Template)
		}
		if n.Payload["estimateNumber"] != "EST-2026-000042" {
			t.Fatalf("payload estimateNumber = %v", n.Payload["estimateNumber"])
		}
	case <-time.After(3 * time.Second):
		t.Fatal("advisor was never notified")
	}

	select {
	case n := <-hits:
		t.Fatalf("advisor notified twice, second template %q", n.Template)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestEscalateExpiry_DisabledDispatcher(t *testing.T) {
	d := &notify.Dispatcher{}
	if escalateExpiry(d, nil, nil, ExpiredRef{ID: "est-1", AdvisorID: "adv-1"}) {
		t.Fatal("disabled dispatcher must not report the notification as sent")
	}
}
