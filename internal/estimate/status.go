package estimate

import "fmt"

type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown estimate status %q", s)
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusDraft:    {StatusPending: true},
	StatusPending:  {StatusApproved: true, StatusRejected: true, StatusExpired: true},
	StatusApproved: {}, // terminal
	StatusRejected: {}, // terminal
	StatusExpired:  {}, // terminal
}

func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}
