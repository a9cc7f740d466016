package job

import "testing"

func TestCanTransition_StartCompleteFlow(t *testing.T) {
	if !CanTransition(StatusPending, StatusInProgress) {
		t.Fatalf("expected pending -> in-progress to be legal")
	}
	if !CanTransition(StatusInProgress, StatusCompleted) {
		t.Fatalf("expected in-progress -> completed to be legal")
	}
	if CanTransition(StatusPending, StatusCompleted) {
		t.Fatalf("pending -> completed must go through in-progress")
	}
	if CanTransition(StatusInProgress, StatusInProgress) {
		t.Fatalf("starting an already started job must be rejected")
	}
}

func TestCanTransition_HoldEdges(t *testing.T) {
	if !CanTransition(StatusInProgress, StatusOnHold) {
		t.Fatalf("expected in-progress -> on-hold to be legal")
	}
	if !CanTransition(StatusOnHold, StatusInProgress) {
		t.Fatalf("expected on-hold -> in-progress to be legal")
	}
	if CanTransition(StatusOnHold, StatusCompleted) {
		t.Fatalf("on-hold jobs must resume before completing")
	}
	if CanTransition(StatusPending, StatusOnHold) {
		t.Fatalf("only started jobs can go on hold")
	}
}

func TestCanTransition_TerminalStates(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		for _, to := range []Status{StatusPending, StatusInProgress, StatusCompleted, StatusOnHold, StatusCancelled} {
			if CanTransition(from, to) {
				t.Fatalf("expected terminal %s -> %s to be rejected", from, to)
			}
		}
	}
}
