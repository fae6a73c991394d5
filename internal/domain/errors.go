package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAgentNotFound = errors.New("agent not found")
	// ErrAgentInactive matches ErrAgentNotFound under errors.Is.
	ErrAgentInactive       = fmt.Errorf("%w: agent is not active", ErrAgentNotFound)
	ErrInteractionNotFound = errors.New("interaction not found")
	ErrAlreadyTerminal     = errors.New("interaction already in terminal state")
)

// Rejection codes returned to callers alongside a RejectionError.
const (
	RejectionAgentNotFound = "agent_not_found"
	RejectionAgentInactive = "agent_inactive"
	RejectionPolicyBlocked = "policy_blocked"
)

// RejectionError is a validation outcome that stops a query before an
// interaction is created. Message is safe to show to the caller.
type RejectionError struct {
	Code    string
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}
