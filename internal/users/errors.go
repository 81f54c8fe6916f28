package users

import (
	"github.com/PabloPavan/sniply/internal"
	"github.com/PabloPavan/sniply/internal/db"
)

var ErrNotFound = internal.ErrNotFound

func IsNotFound(err error) bool { return db.IsNotFound(err) }

// IsUniqueViolation reports a duplicate value in column (email or username).
func IsUniqueViolation(err error, column string) bool {
	return db.UniqueViolation(err, "users_"+column+"_key", column)
}
