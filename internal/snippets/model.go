package snippets

import "time"

type Snippet struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language"`
	// Tags is the stored comma-separated tag text, canonicalised on write.
	Tags     string `json:"tags"`
	AuthorID string `json:"author_id"`

	// WeightedScore is computed by the ratings store on every read; never written.
	WeightedScore float64 `json:"weighted_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Snippet) NormalizedTags() TagSet {
	if s == nil {
		return TagSet{}
	}
	return ParseTags(s.Tags)
}

type CreateSnippetRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Tags        string `json:"tags"`
}

type SnippetFilter struct {
	Query    string // substring of the title
	Author   string
	Language string
	Tag      string
	Limit    int
	Offset   int
}

// CandidateFilter selects recommendation candidates. A snippet matches when
// its language equals Language OR its tag text contains any of AnyTags
// (case-sensitive substring). The Exclude* fields are applied on top.
// With neither Language nor AnyTags set nothing matches.
// Limit <= 0 returns every match; a positive Limit keeps the matches with the
// largest exact tag overlap.
type CandidateFilter struct {
	ExcludeID      string
	ExcludeAuthor  string
	ExcludeRatedBy string
	Language       string
	AnyTags        []string
	Limit          int
}

func (f CandidateFilter) Matchable() bool {
	if f.Language != "" {
		return true
	}
	for _, t := range f.AnyTags {
		if t != "" {
			return true
		}
	}
	return false
}

// PopularFilter drives the fallback listing for users with no likes.
type PopularFilter struct {
	ExcludeAuthor  string
	ExcludeRatedBy string
	Limit          int
}
