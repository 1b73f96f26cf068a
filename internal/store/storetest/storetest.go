// Package storetest holds the behaviour every store.Store implementation must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spigell/job-matcher/internal/posting"
	"github.com/spigell/job-matcher/internal/store"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run exercises s against the repository contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("upsert inserts once and keeps status", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		created, err := s.Upsert(ctx, &posting.Posting{ID: "j-1", Title: "ML Engineer"})
		if err != nil || !created {
			t.Fatalf("first upsert = %v, %v; want true, nil", created, err)
		}

		if ok, err := s.SetStatus(ctx, "j-1", posting.StatusApplied); err != nil || !ok {
			t.Fatalf("SetStatus = %v, %v; want true, nil", ok, err)
		}

		created, err = s.Upsert(ctx, &posting.Posting{ID: "j-1", Title: "Renamed"})
		if err != nil || created {
			t.Fatalf("second upsert = %v, %v; want false, nil", created, err)
		}

		got, err := s.GetByID(ctx, "j-1")
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Status != posting.StatusApplied {
			t.Fatalf("status = %q, want %q", got.Status, posting.StatusApplied)
		}
		if got.Title != "ML Engineer" {
			t.Fatalf("title = %q, want original", got.Title)
		}
		if got.RetrievedAt.IsZero() {
			t.Fatal("expected retrieved_at to be set")
		}
	})

	t.Run("new postings default to new", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		if _, err := s.Upsert(ctx, &posting.Posting{ID: "j-2"}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		got, err := s.GetByID(ctx, "j-2")
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Status != posting.StatusNew {
			t.Fatalf("status = %q, want new", got.Status)
		}
	})

	t.Run("rejects empty id", func(t *testing.T) {
		s := open(t, newStore)
		if _, err := s.Upsert(context.Background(), &posting.Posting{ID: "  "}); !errors.Is(err, store.ErrEmptyID) {
			t.Fatalf("err = %v, want ErrEmptyID", err)
		}
	})

	t.Run("set status", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		if ok, err := s.SetStatus(ctx, "missing", posting.StatusSeen); err != nil || ok {
			t.Fatalf("unknown id = %v, %v; want false, nil", ok, err)
		}

		if _, err := s.Upsert(ctx, &posting.Posting{ID: "j-3"}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if _, err := s.SetStatus(ctx, "j-3", posting.Status("archived")); !errors.Is(err, posting.ErrInvalidStatus) {
			t.Fatalf("err = %v, want ErrInvalidStatus", err)
		}
		got, _ := s.GetByID(ctx, "j-3")
		if got.Status != posting.StatusNew {
			t.Fatalf("invalid update changed status to %q", got.Status)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		s := open(t, newStore)
		if _, err := s.GetByID(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("list all returns copies", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		for _, id := range []string{"b", "a", "c"} {
			if _, err := s.Upsert(ctx, &posting.Posting{ID: id, Company: "Acme"}); err != nil {
				t.Fatalf("Upsert: %v", err)
			}
		}

		all, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("len = %d, want 3", len(all))
		}

		all[0].Company = "mutated"
		again, _ := s.GetByID(ctx, all[0].ID)
		if again.Company != "Acme" {
			t.Fatal("ListAll leaked internal state")
		}
	})

	t.Run("concurrent upserts create exactly one row", func(t *testing.T) {
		s := open(t, newStore)
		ctx := context.Background()

		var created atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := s.Upsert(ctx, &posting.Posting{ID: "race"})
				if err != nil {
					t.Errorf("Upsert: %v", err)
					return
				}
				if ok {
					created.Add(1)
				}
			}()
		}
		wg.Wait()

		if got := created.Load(); got != 1 {
			t.Fatalf("created %d rows, want 1", got)
		}
	})
}

func open(t *testing.T, newStore Factory) store.Store {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
