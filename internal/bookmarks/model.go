package bookmarks

import "time"

// Entry is one snippet in a user's bookmark list.
type Entry struct {
	SnippetID    string    `json:"snippet_id"`
	Title        string    `json:"title"`
	Language     string    `json:"language"`
	Tags         string    `json:"tags"`
	AuthorID     string    `json:"author_id"`
	BookmarkedAt time.Time `json:"bookmarked_at"`
}

type TopEntry struct {
	SnippetID string `json:"snippet_id"`
	Title     string `json:"title"`
	Language  string `json:"language"`
	AuthorID  string `json:"author_id"`
	Count     int    `json:"bookmarks"`
}
