package booking

import (
	"fmt"

	"cleandigo/internal/pkg/apperr"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusAssigned   Status = "assigned"
	StatusEnRoute    Status = "en_route"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusAssigned,
	StatusEnRoute,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// transitions maps a status to the statuses it may move to. Each forward
// step is the immediate successor; cancellation is open to every non-terminal
// status. Terminal statuses have no entry.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusEnRoute, StatusCancelled},
	StatusEnRoute:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown booking status %q", apperr.ErrValidation, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Next returns the statuses reachable from s.
func (s Status) Next() []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

func CanTransition(from, to Status) bool {
	for _, st := range transitions[from] {
		if st == to {
			return true
		}
	}
	return false
}
