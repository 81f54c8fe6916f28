package bookmarks

import (
	"github.com/PabloPavan/sniply/internal"
	"github.com/PabloPavan/sniply/internal/db"
)

var ErrNotFound = internal.ErrNotFound

func IsNotFound(err error) bool { return db.IsNotFound(err) }

func IsUnknownSnippet(err error) bool {
	return db.ForeignKeyViolation(err, "bookmarks_snippet_id_fkey")
}
