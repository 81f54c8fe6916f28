package users

import (
	"context"
	"strings"

	"github.com/PabloPavan/sniply/internal"
	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/identity"
	"github.com/PabloPavan/sniply/internal/telemetry"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, f UserFilter) ([]*User, error)
	Update(ctx context.Context, u *UpdateUserRequest) error
	Delete(ctx context.Context, id string) error
}

// SessionRevoker ends every live session of a user.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID string) (int, error)
}

type Service struct {
	Store Store
	// Sessions, when set, revokes the sessions of users whose role changes
	// or who are deleted.
	Sessions       SessionRevoker
	PasswordHasher func(plain string) (string, error)
	IDGenerator    func() string
}

type UpdateUserInput struct {
	Email    *string
	Username *string
	Password *string
	Role     *string
}

// requester identifies the caller and whether it may administer users.
type requester struct {
	id    string
	admin bool
}

func (s *Service) requester(ctx context.Context) (requester, error) {
	if s.Store == nil {
		return requester{}, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	id, ok := identity.Authenticated(ctx)
	if !ok {
		return requester{}, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	role, _ := identity.Role(ctx)
	return requester{id: id, admin: UserRole(role).CanAdminister()}, nil
}

func (r requester) mayManage(targetID string) bool {
	return r.admin || r.id == targetID
}

func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}

	email := normalizeEmail(req.Email)
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "email and password are required")
	}
	username := normalizeUsername(req.Username)
	if username == "" {
		username = normalizeUsername(strings.SplitN(email, "@", 2)[0])
	}
	if username == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "username is required")
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	idGen := s.IDGenerator
	if idGen == nil {
		idGen = func() string { return "usr_" + internal.RandomHex(12) }
	}
	u := &User{
		ID:           idGen(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         RoleUser,
	}

	if err := s.Store.Create(ctx, u); err != nil {
		return nil, writeError(err, "failed to create user")
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	if s.Store == nil {
		return nil, apperrors.New(apperrors.KindInternal, "users store not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "user id is required")
	}
	return s.load(ctx, userID)
}

func (s *Service) Me(ctx context.Context) (*User, error) {
	req, err := s.requester(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, req.id)
}

func (s *Service) List(ctx context.Context, f UserFilter) ([]*User, error) {
	req, err := s.requester(ctx)
	if err != nil {
		return nil, err
	}
	if !req.admin {
		return nil, apperrors.New(apperrors.KindForbidden, "forbidden")
	}

	list, err := s.Store.List(ctx, f.normalized())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to list users", err)
	}
	return list, nil
}

func (s *Service) UpdateSelf(ctx context.Context, input UpdateUserInput) error {
	req, err := s.requester(ctx)
	if err != nil {
		return err
	}
	return s.update(ctx, req, req.id, input)
}

func (s *Service) UpdateByID(ctx context.Context, targetID string, input UpdateUserInput) error {
	req, err := s.requester(ctx)
	if err != nil {
		return err
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return apperrors.New(apperrors.KindInvalidInput, "id is required")
	}
	return s.update(ctx, req, targetID, input)
}

func (s *Service) update(ctx context.Context, req requester, targetID string, input UpdateUserInput) error {
	if !req.mayManage(targetID) || (input.Role != nil && !req.admin) {
		return apperrors.New(apperrors.KindForbidden, "forbidden")
	}

	change := UpdateUserRequest{ID: targetID}
	if input.Email != nil {
		change.Email = normalizeEmail(*input.Email)
	}
	if input.Username != nil {
		change.Username = normalizeUsername(*input.Username)
	}
	if input.Password != nil {
		hash, err := s.hash(strings.TrimSpace(*input.Password))
		if err != nil {
			return err
		}
		change.PasswordHash = hash
	}
	if input.Role != nil {
		role, err := ParseUserRole(*input.Role)
		if err != nil {
			return apperrors.New(apperrors.KindInvalidInput, "invalid role")
		}
		if targetID == req.id && !role.CanAdminister() {
			return apperrors.New(apperrors.KindInvalidInput, "admins cannot drop their own admin role")
		}
		change.Role = role
	}
	if change.empty() {
		return nil
	}

	if err := s.Store.Update(ctx, &change); err != nil {
		return writeError(err, "failed to update user")
	}
	if change.Role.Valid() {
		s.revoke(ctx, targetID, "role_changed")
	}
	return nil
}

func (s *Service) DeleteSelf(ctx context.Context) error {
	req, err := s.requester(ctx)
	if err != nil {
		return err
	}
	return s.delete(ctx, req, req.id)
}

func (s *Service) DeleteByID(ctx context.Context, targetID string) error {
	req, err := s.requester(ctx)
	if err != nil {
		return err
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return apperrors.New(apperrors.KindInvalidInput, "id is required")
	}
	return s.delete(ctx, req, targetID)
}

// delete removes the account. The schema cascades to its snippets, ratings
// and bookmarks.
func (s *Service) delete(ctx context.Context, req requester, targetID string) error {
	if !req.mayManage(targetID) {
		return apperrors.New(apperrors.KindForbidden, "forbidden")
	}
	if err := s.Store.Delete(ctx, targetID); err != nil {
		if IsNotFound(err) {
			return apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return apperrors.Wrap(apperrors.KindInternal, "failed to delete user", err)
	}
	s.revoke(ctx, targetID, "user_deleted")
	return nil
}

func (s *Service) load(ctx context.Context, userID string) (*User, error) {
	u, err := s.Store.GetByID(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to load user", err)
	}
	return u, nil
}

func (s *Service) hash(password string) (string, error) {
	hasher := s.PasswordHasher
	if hasher == nil {
		hasher = internal.DefaultPasswordHasher
	}
	hash, err := hasher(password)
	if err != nil {
		return "", apperrors.New(apperrors.KindInternal, "failed to process password")
	}
	return hash, nil
}

// revoke failures are logged only; the account change already happened.
func (s *Service) revoke(ctx context.Context, userID, reason string) {
	if s.Sessions == nil {
		return
	}
	n, err := s.Sessions.RevokeUser(ctx, userID)
	if err != nil {
		telemetry.LogWarn(ctx, "session revocation failed",
			telemetry.LogString("user.id", userID),
			telemetry.LogString("reason", reason),
			telemetry.LogErr(err),
		)
		return
	}
	telemetry.LogInfo(ctx, "sessions revoked",
		telemetry.LogString("event", "session.revoked"),
		telemetry.LogString("user.id", userID),
		telemetry.LogString("reason", reason),
		telemetry.LogInt("session.count", n),
	)
}

func writeError(err error, msg string) error {
	if IsNotFound(err) {
		return apperrors.New(apperrors.KindNotFound, "user not found")
	}
	if IsUniqueViolation(err, "email") {
		return apperrors.New(apperrors.KindConflict, "email already exists")
	}
	if IsUniqueViolation(err, "username") {
		return apperrors.New(apperrors.KindConflict, "username already exists")
	}
	return apperrors.Wrap(apperrors.KindInternal, msg, err)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
