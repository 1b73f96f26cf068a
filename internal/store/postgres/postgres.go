// Package postgres stores postings in a PostgreSQL table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/job-matcher/internal/posting"
	"github.com/spigell/job-matcher/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS postings (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	company          TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	apply_url        TEXT NOT NULL DEFAULT '',
	employer_website TEXT NOT NULL DEFAULT '',
	employment_type  TEXT NOT NULL DEFAULT '',
	posted_at_utc    TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'new',
	retrieved_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const columns = `id, title, company, location, description, apply_url, employer_website,
	employment_type, posted_at_utc, status, retrieved_at`

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// New connects to dsn and creates the postings table when missing.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating postings table: %w", err)
	}

	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) Upsert(ctx context.Context, p *posting.Posting) (bool, error) {
	if err := store.ValidateNew(p); err != nil {
		return false, err
	}

	row := p.Clone()
	row.Normalize(s.now())

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO postings (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		row.ID, row.Title, row.Company, row.Location, row.Description, row.ApplyURL,
		row.EmployerWebsite, row.EmploymentType, row.PostedAtUTC, string(row.Status), row.RetrievedAt,
	)
	if err != nil {
		return false, fmt.Errorf("inserting posting %s: %w", row.ID, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListAll(ctx context.Context) ([]*posting.Posting, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+columns+` FROM postings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	defer rows.Close()

	var out []*posting.Posting
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	return out, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status posting.Status) (bool, error) {
	if err := store.ValidateStatus(status); err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx, `UPDATE postings SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return false, fmt.Errorf("updating posting %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*posting.Posting, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM postings WHERE id = $1`, id)
	p, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return p, err
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Truncate removes every posting. Used by tests against a shared database.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE postings`)
	return err
}

func scan(row pgx.Row) (*posting.Posting, error) {
	var (
		p      posting.Posting
		status string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.Description, &p.ApplyURL,
		&p.EmployerWebsite, &p.EmploymentType, &p.PostedAtUTC, &status, &p.RetrievedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning posting: %w", err)
	}
	p.Status = posting.Status(strings.TrimSpace(status))
	p.RetrievedAt = p.RetrievedAt.UTC()
	return &p, nil
}
