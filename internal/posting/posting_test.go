package posting

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		expect  Status
		wantErr bool
	}{
		{input: "new", expect: StatusNew},
		{input: " Applied ", expect: StatusApplied},
		{input: "INTERVIEWING", expect: StatusInterviewing},
		{input: "rejected", expect: StatusRejected},
		{input: "seen", expect: StatusSeen},
		{input: "hired", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Fatalf("expected ErrInvalidStatus, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))
	p := &Posting{ID: "a"}
	p.Normalize(now)

	if p.Status != StatusNew {
		t.Fatalf("expected default status new, got %q", p.Status)
	}
	if !p.RetrievedAt.Equal(now) || p.RetrievedAt.Location() != time.UTC {
		t.Fatalf("expected retrieved at %s in UTC, got %s", now, p.RetrievedAt)
	}

	applied := &Posting{ID: "b", Status: StatusApplied}
	applied.Normalize(now)
	if applied.Status != StatusApplied {
		t.Fatalf("normalize must keep an explicit status, got %q", applied.Status)
	}
}

func TestExcludedFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")

	empty, err := LoadExcluded(path)
	if err != nil {
		t.Fatalf("missing file should load as empty: %v", err)
	}
	if len(empty.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(empty.Items))
	}

	now := time.Now()
	empty.Append(ToExcluded(Postings{{ID: "1", Company: "Acme"}, {ID: "2"}}, now))
	empty.Append(ToExcluded(Postings{{ID: "2"}, {ID: "3"}}, now))

	if err := empty.ToFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := LoadExcluded(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ids := loaded.IDs()
	if len(ids) != 3 || ids[0] != "1" || ids[1] != "2" || ids[2] != "3" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if loaded.Items[0].Company != "Acme" {
		t.Fatalf("expected company to survive, got %q", loaded.Items[0].Company)
	}
}
