package core

import "fmt"

// Status is the review state of an assessment.
//
//	pending --approve--> approved
//	pending --reject---> rejected
//
// approved and rejected are terminal.
type Status string

const (
	Pending  Status = "pending"
	Approved Status = "approved"
	Rejected Status = "rejected"
)

var AllStatuses = []Status{Pending, Approved, Rejected}

func ParseStatus(s string) (Status, error) {
	var status = Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, s)
	}
	return status, nil
}

func (s Status) Valid() bool {
	switch s {
	case Pending, Approved, Rejected:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s == Approved || s == Rejected
}

// CanTransition returns whether the state machine has an edge from s to next.
func (s Status) CanTransition(next Status) bool {
	return s == Pending && next.Terminal()
}

// Label returns the name which is displayed to users.
func (s Status) Label() string {
	switch s {
	case Pending:
		return "Pendente"
	case Approved:
		return "Aprovada"
	case Rejected:
		return "Rejeitada"
	}
	return string(s)
}

// Style returns the Bootstrap color of the status badge.
func (s Status) Style() string {
	switch s {
	case Pending:
		return "warning"
	case Approved:
		return "success"
	case Rejected:
		return "danger"
	}
	return "secondary"
}
