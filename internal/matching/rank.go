package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/embedding"
	"github.com/spigell/job-matcher/internal/posting"
	"github.com/spigell/job-matcher/internal/resume"
)

// Rank scores every posting against the résumé and orders the rows by final score,
// highest first, ties broken by ID. Descriptions are embedded in batches and pairs
// are scored on a bounded worker pool.
func (m *Matcher) Rank(ctx context.Context, r *resume.Parsed, postings []*posting.Posting) (Rows, error) {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	rows := make(Rows, len(postings))

	if r.IsEmpty() {
		for i, p := range postings {
			rows[i] = NewRow(p, zeroResult())
		}
		sortRows(rows)
		return rows, nil
	}

	resumeVec, resumeErr := embedding.Embed(ctx, m.embedder, r.Text)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if resumeErr != nil {
		m.logger.Warn("resume embedding failed, semantic scores are zeroed", zap.Error(resumeErr))
	}

	postingVecs, postingErrs, err := m.embedPostings(ctx, postings, resumeErr)
	if err != nil {
		return nil, err
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := min(m.cfg.Workers, max(len(postings), 1))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rows[i] = m.evaluate(r, postings[i], resumeVec, postingVecs[i], postingErrs[i])
			}
		}()
	}

feed:
	for i := range postings {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sortRows(rows)

	m.logger.Info("ranked postings",
		zap.Int("count", len(rows)),
		zap.Int("workers", workers),
		zap.Duration("took", time.Since(started)),
	)

	return rows, nil
}

// embedPostings returns one vector and one error slot per posting. A failed batch
// only degrades its own postings; a cancelled context aborts the pass.
func (m *Matcher) embedPostings(ctx context.Context, postings []*posting.Posting, resumeErr error) ([]embedding.Vector, []error, error) {
	vectors := make([]embedding.Vector, len(postings))
	errs := make([]error, len(postings))

	if resumeErr != nil {
		for i := range errs {
			errs[i] = resumeErr
		}
		return vectors, errs, nil
	}

	size := m.cfg.BatchSize
	for start := 0; start < len(postings); start += size {
		end := min(start+size, len(postings))

		texts := make([]string, 0, end-start)
		for _, p := range postings[start:end] {
			texts = append(texts, p.Description)
		}

		batch, err := m.embedder.EmbedBatch(ctx, texts)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		if err == nil && len(batch) != len(texts) {
			err = embedding.ErrCountMismatch
		}
		if err != nil {
			m.logger.Warn("embedding batch failed",
				zap.Error(err),
				zap.Int("from", start),
				zap.Int("to", end),
			)
			for i := start; i < end; i++ {
				errs[i] = err
			}
			continue
		}

		copy(vectors[start:end], batch)
		m.logger.Debug("embedded batch", zap.Int("from", start), zap.Int("to", end))
	}

	return vectors, errs, nil
}

func sortRows(rows Rows) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].FinalScore != rows[j].FinalScore {
			return rows[i].FinalScore > rows[j].FinalScore
		}
		return rows[i].ID < rows[j].ID
	})
}
