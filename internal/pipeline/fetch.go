// Package pipeline drives the two passes of the tool: fetching postings into the store
// and ranking stored postings against a résumé.
package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-matcher/internal/jsearch"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/store"
)

const upsertWorkers = 8

// Source yields postings for a search.
type Source interface {
	Search(ctx context.Context, params *jsearch.SearchParams) (*jsearch.Results, error)
}

// FetchReport summarises a fetch pass.
type FetchReport struct {
	Fetched     int
	Created     int
	Existing    int
	Failed      int
	FailedPages []int
	CreatedIDs  []string
}

// Fetch searches src and inserts every returned posting into st. Postings collected
// before a source error are still stored; the error is returned with the report.
func Fetch(ctx context.Context, log *zap.Logger, src Source, st store.Store, params *jsearch.SearchParams) (*FetchReport, error) {
	log = logger.WithFields(log)
	report := &FetchReport{}

	results, searchErr := src.Search(ctx, params)
	if results == nil {
		return report, searchErr
	}
	report.Fetched = results.Postings.Len()
	report.FailedPages = append(report.FailedPages, results.FailedPages...)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(upsertWorkers)

	for _, p := range results.Postings {
		g.Go(func() error {
			created, err := st.Upsert(gctx, p)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				report.Failed++
				log.Warn("storing posting failed", zap.String(logger.FieldPostingID, p.ID), zap.Error(err))
			case created:
				report.Created++
				report.CreatedIDs = append(report.CreatedIDs, p.ID)
			default:
				report.Existing++
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("fetch finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("created", report.Created),
		zap.Int("existing", report.Existing),
		zap.Int("failed", report.Failed),
		zap.Ints("failed_pages", report.FailedPages),
	)

	if searchErr != nil {
		return report, searchErr
	}
	return report, ctx.Err()
}
