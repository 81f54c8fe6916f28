package snippets

import (
	"github.com/PabloPavan/sniply/internal"
	"github.com/PabloPavan/sniply/internal/db"
)

var ErrNotFound = internal.ErrNotFound

func IsNotFound(err error) bool { return db.IsNotFound(err) }

// IsUniqueViolationID reports a generated id that collided with an existing snippet.
func IsUniqueViolationID(err error) bool {
	return db.UniqueViolation(err, "snippets_pkey", "id")
}

func IsUnknownAuthor(err error) bool {
	return db.ForeignKeyViolation(err, "snippets_author_id_fkey")
}
