package domain

import (
	"errors"
	"fmt"
)

// Rejection is a user-facing refusal of an action: invalid input, duplicate
// join, suspended player, wrong actor. It is resolved at the handler and
// never changes state.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func Reject(format string, args ...any) *Rejection {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

// AsRejection reports whether err is a Rejection and returns it.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

var (
	ErrGroupNotFound    = errors.New("match group not found")
	ErrNoMediators      = errors.New("no mediator available")
	ErrTerminalState    = errors.New("group is in a terminal state")
	ErrDuplicateTrigger = errors.New("duplicate trigger dropped")
)
