package jsearch

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/htmltext"
	"github.com/spigell/job-matcher/internal/posting"
)

// job mirrors the fields we read from a JSearch "data" item.
type job struct {
	ID              string `json:"job_id"`
	Title           string `json:"job_title"`
	EmployerName    string `json:"employer_name"`
	EmployerWebsite string `json:"employer_website"`
	City            string `json:"job_city"`
	State           string `json:"job_state"`
	Country         string `json:"job_country"`
	Location        string `json:"job_location"`
	Description     string `json:"job_description"`
	ApplyLink       string `json:"job_apply_link"`
	EmploymentType  string `json:"job_employment_type"`
	PostedAtUTC     string `json:"job_posted_at_datetime_utc"`
}

func (c *Client) decodeJobs(items []map[string]any) (posting.Postings, error) {
	var jobs []*job

	cfg := &mapstructure.DecoderConfig{
		Result:           &jobs,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	postings := make(posting.Postings, 0, len(jobs))
	for _, j := range jobs {
		if j == nil || strings.TrimSpace(j.ID) == "" {
			continue
		}
		postings = append(postings, j.toPosting(now))
	}

	if skipped := len(jobs) - len(postings); skipped > 0 {
		c.logger.Warn("items without id skipped", zap.Int("count", skipped))
	}

	return postings, nil
}

func (j *job) toPosting(now time.Time) *posting.Posting {
	return &posting.Posting{
		ID:              strings.TrimSpace(j.ID),
		Title:           strings.TrimSpace(j.Title),
		Company:         strings.TrimSpace(j.EmployerName),
		Location:        j.location(),
		Description:     htmltext.ToText(j.Description),
		ApplyURL:        j.ApplyLink,
		EmployerWebsite: j.EmployerWebsite,
		EmploymentType:  j.EmploymentType,
		PostedAtUTC:     j.PostedAtUTC,
		Status:          posting.StatusNew,
		RetrievedAt:     now,
	}
}

func (j *job) location() string {
	if loc := strings.TrimSpace(j.Location); loc != "" {
		return loc
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{j.City, j.State, j.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
