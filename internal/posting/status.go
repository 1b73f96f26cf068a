package posting

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStatus is returned for any value outside the status vocabulary.
var ErrInvalidStatus = errors.New("invalid posting status")

// Status tracks where the candidate is with a posting.
type Status string

const (
	StatusNew          Status = "new"
	StatusSeen         Status = "seen"
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusRejected     Status = "rejected"
)

// Statuses lists the closed status vocabulary in workflow order.
var Statuses = []Status{StatusNew, StatusSeen, StatusApplied, StatusInterviewing, StatusRejected}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q (expected one of %s)", ErrInvalidStatus, s, strings.Join(StatusNames(), ", "))
	}
	return status, nil
}

// Valid reports whether s belongs to the status vocabulary.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// StatusNames returns the vocabulary as plain strings.
func StatusNames() []string {
	names := make([]string, 0, len(Statuses))
	for _, s := range Statuses {
		names = append(names, string(s))
	}
	return names
}
