package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSend_PostsNotification(t *testing.T) {
	var got Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/notifications", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := &Dispatcher{BaseURL: srv.URL, Timeout: 2 * time.Second}
	err := d.Send(context.Background(), Notification{
		ID:          "n-1",
		RecipientID: "cust-1",
		Template:    "booking_status_changed",
		Payload:     map[string]any{"status": "confirmed"},
	})
	require.NoError(t, err)
	require.Equal(t, "n-1", got.ID)
	require.Equal(t, "cust-1", got.RecipientID)
	require.Equal(t, "booking_status_changed", got.Template)
}

func TestSend_SurfacesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown template"}`))
	}))
	defer srv.Close()

	d := &Dispatcher{BaseURL: srv.URL, Timeout: 2 * time.Second}
	err := d.Send(context.Background(), Notification{ID: "n-2", RecipientID: "cust-1", Template: "nope"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown template")
}

func TestDispatchAsync_DisabledWithoutBaseURL(t *testing.T) {
	d := &Dispatcher{}
	require.False(t, d.DispatchAsync(Notification{RecipientID: "cust-1", Template: "x"}))
}

func TestDispatchAsync_ReportsAccepted(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		close(done)
	}))
	defer srv.Close()

	d := &Dispatcher{BaseURL: srv.URL, Timeout: 2 * time.Second}
	require.True(t, d.DispatchAsync(Notification{RecipientID: "cust-1", Template: "x"}))

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("dispatch never reached the server")
	}
}
