package matching

import (
	"time"

	"github.com/spigell/job-matcher/internal/posting"
)

// Result is the score of one résumé against one posting. Scores are percentages
// rounded to two decimals.
type Result struct {
	FinalScore      float64  `json:"final_score"`
	KeywordScore    float64  `json:"keyword_score"`
	SemanticScore   float64  `json:"semantic_score"`
	MatchedKeywords []string `json:"matched_keywords"`
}

func zeroResult() Result {
	return Result{MatchedKeywords: []string{}}
}

// Row joins a posting with its score for display.
type Row struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Company         string         `json:"company"`
	Location        string         `json:"location"`
	Description     string         `json:"description"`
	ApplyURL        string         `json:"apply_url"`
	EmployerWebsite string         `json:"employer_website"`
	EmploymentType  string         `json:"employment_type"`
	PostedAtUTC     string         `json:"posted_at_utc"`
	Status          posting.Status `json:"status"`
	RetrievedAt     time.Time      `json:"retrieved_at"`

	FinalScore      float64  `json:"final_score"`
	KeywordScore    float64  `json:"keyword_score"`
	SemanticScore   float64  `json:"semantic_score"`
	MatchedKeywords []string `json:"matched_keywords"`

	// PostingSkills are the lexicon skills named by the posting.
	PostingSkills []string `json:"posting_skills"`
	// MissingKeywords are posting keywords absent from the résumé.
	MissingKeywords []string `json:"missing_keywords"`
	// Error explains a degraded score.
	Error string `json:"error,omitempty"`
}

// NewRow copies the posting and result fields into a Row.
func NewRow(p *posting.Posting, r Result) Row {
	return Row{
		ID:              p.ID,
		Title:           p.Title,
		Company:         p.Company,
		Location:        p.Location,
		Description:     p.Description,
		ApplyURL:        p.ApplyURL,
		EmployerWebsite: p.EmployerWebsite,
		EmploymentType:  p.EmploymentType,
		PostedAtUTC:     p.PostedAtUTC,
		Status:          p.Status,
		RetrievedAt:     p.RetrievedAt,
		FinalScore:      r.FinalScore,
		KeywordScore:    r.KeywordScore,
		SemanticScore:   r.SemanticScore,
		MatchedKeywords: r.MatchedKeywords,
		PostingSkills:   []string{},
		MissingKeywords: []string{},
	}
}

// Result returns the score part of the row.
func (r Row) Result() Result {
	return Result{
		FinalScore:      r.FinalScore,
		KeywordScore:    r.KeywordScore,
		SemanticScore:   r.SemanticScore,
		MatchedKeywords: r.MatchedKeywords,
	}
}

// Posting returns the posting part of the row.
func (r Row) Posting() *posting.Posting {
	return &posting.Posting{
		ID:              r.ID,
		Title:           r.Title,
		Company:         r.Company,
		Location:        r.Location,
		Description:     r.Description,
		ApplyURL:        r.ApplyURL,
		EmployerWebsite: r.EmployerWebsite,
		EmploymentType:  r.EmploymentType,
		PostedAtUTC:     r.PostedAtUTC,
		Status:          r.Status,
		RetrievedAt:     r.RetrievedAt,
	}
}

// Rows is a ranked list.
type Rows []Row

func (rs Rows) Len() int { return len(rs) }

func (rs Rows) Postings() posting.Postings {
	out := make(posting.Postings, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Posting())
	}
	return out
}

// FindByID returns a pointer into rs or nil.
func (rs Rows) FindByID(id string) *Row {
	for i := range rs {
		if rs[i].ID == id {
			return &rs[i]
		}
	}
	return nil
}

// Exclude drops rows whose field value is in values and returns the dropped IDs.
func (rs *Rows) Exclude(field func(Row) string, values []string) []string {
	drop := toSet(values)
	kept := (*rs)[:0]
	var dropped []string
	for _, r := range *rs {
		if drop[field(r)] {
			dropped = append(dropped, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	*rs = kept
	return dropped
}
