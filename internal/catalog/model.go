package catalog

import "github.com/PabloPavan/sniply/internal/snippets"

type AuthorStat struct {
	AuthorID string `json:"author_id"`
	Username string `json:"username"`
	Snippets int    `json:"snippets"`
	Likes    int    `json:"likes"` // likes received across all of the author's snippets
}

type LanguageStat struct {
	Name     string `json:"name"`
	Snippets int    `json:"snippets"`
}

// LanguageDetail is one page of a language's snippets, newest first.
type LanguageDetail struct {
	LanguageStat
	Items []*snippets.Snippet `json:"items"`
}
