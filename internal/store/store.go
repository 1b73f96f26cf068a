// Package store persists postings keyed by their provider ID.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/job-matcher/internal/posting"
)

var (
	ErrNotFound = errors.New("posting not found")
	ErrEmptyID  = errors.New("posting id is required")
)

// Store is the posting repository. Implementations are safe for concurrent use.
type Store interface {
	// Upsert inserts p when its ID is unknown and reports whether a row was created.
	// An existing row, including its status, is left untouched.
	Upsert(ctx context.Context, p *posting.Posting) (bool, error)
	// ListAll returns every posting in no particular order.
	ListAll(ctx context.Context) ([]*posting.Posting, error)
	// SetStatus changes the status of a posting and reports whether it exists.
	SetStatus(ctx context.Context, id string, status posting.Status) (bool, error)
	// GetByID returns ErrNotFound for unknown IDs.
	GetByID(ctx context.Context, id string) (*posting.Posting, error)
	Close() error
}

// ValidateNew checks a posting before insertion.
func ValidateNew(p *posting.Posting) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", posting.ErrInvalidStatus, p.Status)
	}
	return nil
}

// ValidateStatus checks a status before an update.
func ValidateStatus(status posting.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", posting.ErrInvalidStatus, status)
	}
	return nil
}
