package posting

import (
	"encoding/json"
	"os"
	"time"
)

// Posting is a single job listing keyed by the provider-assigned ID.
type Posting struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	ApplyURL        string    `json:"apply_url"`
	EmployerWebsite string    `json:"employer_website"`
	EmploymentType  string    `json:"employment_type"`
	PostedAtUTC     string    `json:"posted_at_utc"`
	Status          Status    `json:"status"`
	RetrievedAt     time.Time `json:"retrieved_at"`
}

// Clone returns a copy safe to hand out across goroutines.
func (p *Posting) Clone() *Posting {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Normalize fills the defaults applied on first insert.
func (p *Posting) Normalize(now time.Time) {
	if p.Status == "" {
		p.Status = StatusNew
	}
	if p.RetrievedAt.IsZero() {
		p.RetrievedAt = now.UTC()
	}
}

// Postings is an ordered batch of postings.
type Postings []*Posting

func (ps Postings) Len() int { return len(ps) }

// IDs returns the identifiers in order.
func (ps Postings) IDs() []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

// FindByID returns the posting with the given ID or nil.
func (ps Postings) FindByID(id string) *Posting {
	for _, p := range ps {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ReportByCompany groups posting titles by company.
func (ps Postings) ReportByCompany() map[string][]string {
	report := make(map[string][]string)
	for _, p := range ps {
		report[p.Company] = append(report[p.Company], p.Title)
	}
	return report
}

// DumpToTmpFile writes v as indented JSON into a new temporary file and returns its name.
func DumpToTmpFile(pattern string, v any) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}
