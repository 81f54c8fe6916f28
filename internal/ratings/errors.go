package ratings

import (
	"github.com/PabloPavan/sniply/internal"
	"github.com/PabloPavan/sniply/internal/db"
)

var ErrNotFound = internal.ErrNotFound

func IsNotFound(err error) bool { return db.IsNotFound(err) }

// IsUnknownSnippet reports a rating written after its snippet was deleted.
func IsUnknownSnippet(err error) bool {
	return db.ForeignKeyViolation(err, "ratings_snippet_id_fkey")
}
