package jsearch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/posting"
)

const (
	SearchPath  = "/search"
	DetailsPath = "/job-details"
)

var ErrEmptyQuery = errors.New("search query is required")

type SearchParams struct {
	// jsparam is the query parameter name. "-" fields are handled by Search itself.
	Query           string   `jsparam:"-" mapstructure:"query"`
	Location        string   `jsparam:"-" mapstructure:"location"`
	Page            int      `jsparam:"-" mapstructure:"page"`
	NumPages        int      `jsparam:"-" mapstructure:"num-pages"`
	DatePosted      string   `jsparam:"date_posted" mapstructure:"date-posted"`
	RemoteJobsOnly  bool     `jsparam:"remote_jobs_only" mapstructure:"remote-jobs-only"`
	EmploymentTypes []string `jsparam:"employment_types" mapstructure:"employment-types"`
	JobRequirements []string `jsparam:"job_requirements" mapstructure:"job-requirements"`
	Country         string   `jsparam:"country" mapstructure:"country"`
}

// FullQuery folds the location into the query text the way JSearch expects it.
func (p *SearchParams) FullQuery() string {
	q := strings.TrimSpace(p.Query)
	if loc := strings.TrimSpace(p.Location); loc != "" {
		q += " in " + loc
	}
	return q
}

// Results holds everything a search pass collected. Pages that kept failing after
// retries are listed in FailedPages.
type Results struct {
	Postings    posting.Postings
	FailedPages []int
}

// Search requests pages [Page, Page+NumPages) and stops early at the first empty page.
// A PermanentError aborts the pass; the postings collected so far are still returned.
func (c *Client) Search(ctx context.Context, params *SearchParams) (*Results, error) {
	results := &Results{}

	if params == nil || strings.TrimSpace(params.Query) == "" {
		return results, ErrEmptyQuery
	}

	first := max(params.Page, 1)
	pages := max(params.NumPages, 1)

	q := buildParams(params)
	q.Set("query", params.FullQuery())

	for page := first; page < first+pages; page++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return results, err
		}

		q.Set("page", strconv.Itoa(page))
		resp, err := c.get(ctx, SearchPath, q)
		if err != nil {
			var permanent *PermanentError
			if errors.As(err, &permanent) || ctx.Err() != nil {
				return results, err
			}

			c.logger.Warn("page failed", zap.Int("page", page), zap.Error(err))
			results.FailedPages = append(results.FailedPages, page)
			continue
		}

		if len(resp.Data) == 0 {
			c.logger.Debug("empty page, stopping", zap.Int("page", page))
			break
		}

		postings, err := c.decodeJobs(resp.Data)
		if err != nil {
			c.logger.Warn("page could not be decoded", zap.Int("page", page), zap.Error(err))
			results.FailedPages = append(results.FailedPages, page)
			continue
		}

		c.logger.Debug("got page", zap.Int("page", page), zap.Int("postings", len(postings)))
		results.Postings = append(results.Postings, postings...)
	}

	return results, nil
}

// JobDetails fetches a single posting by its provider ID.
func (c *Client) JobDetails(ctx context.Context, id string) (*posting.Posting, error) {
	q := url.Values{}
	q.Set("job_id", id)

	resp, err := c.get(ctx, DetailsPath, q)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	postings, err := c.decodeJobs(resp.Data[:1])
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	return postings[0], nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()

	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("jsparam")
		if key == "" || key == "-" {
			continue
		}

		v := value.FieldByIndex(field.Index)
		switch v.Kind() {
		case reflect.Slice:
			if items, ok := v.Interface().([]string); ok && len(items) > 0 {
				q.Set(key, strings.Join(items, ","))
			}
		case reflect.Bool:
			if v.Bool() {
				q.Set(key, "true")
			}
		default:
			s := fmt.Sprintf("%v", v.Interface())
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}
