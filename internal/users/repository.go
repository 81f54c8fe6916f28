package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloPavan/sniply/internal/db"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	base *db.Base
}

func NewRepository(base *db.Base) *Repository {
	return &Repository{base: base}
}

// userColumns follows the field order of User for RowToStructByPos.
const userColumns = `id, email, username, password_hash, role, created_at`

var (
	sqlUserInsert = `INSERT INTO users (id, email, username, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, role`

	sqlUserList = `SELECT ` + userColumns + `
		FROM users
		WHERE email ILIKE $1 OR username ILIKE $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	sqlUserGetByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	sqlUserGetByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	sqlUserDelete = `DELETE FROM users WHERE id = $1`
)

func (r *Repository) Create(ctx context.Context, u *User) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	ctx = db.WithQueryName(ctx, "users.create")
	return r.base.Q().QueryRow(ctx, sqlUserInsert, u.ID, u.Email, u.Username, u.PasswordHash).
		Scan(&u.CreatedAt, &u.Role)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := r.one(db.WithQueryName(ctx, "users.get_by_email"), sqlUserGetByEmail, email)
	if err != nil {
		return User{}, err
	}
	return *u, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.one(db.WithQueryName(ctx, "users.get_by_id"), sqlUserGetByID, id)
}

func (r *Repository) one(ctx context.Context, sql string, args ...any) (*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	rows, err := r.base.Q().Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByPos[User])
	if IsNotFound(err) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *Repository) List(ctx context.Context, f UserFilter) ([]*User, error) {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	f = f.normalized()
	rows, err := r.base.Q().Query(db.WithQueryName(ctx, "users.list"), sqlUserList, likePattern(f.Query), f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[User])
}

// Update writes only the non-zero fields of u.
func (r *Repository) Update(ctx context.Context, u *UpdateUserRequest) error {
	var a assignments
	if u.Email != "" {
		a.set("email", u.Email)
	}
	if u.Username != "" {
		a.set("username", u.Username)
	}
	if u.PasswordHash != "" {
		a.set("password_hash", u.PasswordHash)
	}
	if u.Role.Valid() {
		a.set("role", string(u.Role))
	}
	if len(a.cols) == 0 {
		return nil
	}
	a.args = append(a.args, u.ID)
	sql := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(a.cols, ", "), len(a.args))

	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(db.WithQueryName(ctx, "users.update"), sql, a.args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.base.WithTimeout(ctx)
	defer cancel()

	tag, err := r.base.Q().Exec(db.WithQueryName(ctx, "users.delete"), sqlUserDelete, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type assignments struct {
	cols []string
	args []any
}

func (a *assignments) set(col string, v any) {
	a.args = append(a.args, v)
	a.cols = append(a.cols, fmt.Sprintf("%s = $%d", col, len(a.args)))
}

// likePattern matches q anywhere, with LIKE wildcards in q taken literally.
func likePattern(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return "%"
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
