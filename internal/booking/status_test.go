package booking

import "testing"

func TestCanTransition_LegalEdges(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusScheduled, StatusConfirmed},
		{StatusConfirmed, StatusInProgress},
		{StatusInProgress, StatusCompleted},
		{StatusScheduled, StatusCancelled},
		{StatusConfirmed, StatusCancelled},
		{StatusInProgress, StatusCancelled},
	}
	for _, e := range legal {
		if !CanTransition(e.from, e.to) {
			t.Fatalf("expected %s -> %s to be legal", e.from, e.to)
		}
	}
}

func TestCanTransition_IllegalEdges(t *testing.T) {
	illegal := []struct{ from, to Status }{
		{StatusCompleted, StatusScheduled},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusScheduled},
		{StatusScheduled, StatusInProgress},
		{StatusScheduled, StatusCompleted},
		{StatusConfirmed, StatusCompleted},
		{StatusInProgress, StatusScheduled},
	}
	for _, e := range illegal {
		if CanTransition(e.from, e.to) {
			t.Fatalf("expected %s -> %s to be rejected", e.from, e.to)
		}
	}
}

func TestParseStatus_RejectsUnknown(t *testing.T) {
	if _, err := ParseStatus("paused"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if s, err := ParseStatus("in-progress"); err != nil || s != StatusInProgress {
		t.Fatalf("expected in-progress to parse, got %v %v", s, err)
	}
}
