package users

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateUserRequest carries only the columns to change; zero fields are kept.
type UpdateUserRequest struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         UserRole
}

func (r *UpdateUserRequest) empty() bool {
	return r.Email == "" && r.Username == "" && r.PasswordHash == "" && !r.Role.Valid()
}

// UserResponse is the account view returned to its owner and to admins.
// Usernames are what snippets, ratings and the author rankings expose to
// everyone else.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Role        UserRole  `json:"role,omitempty"`
	CanModerate bool      `json:"can_moderate"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

func (u *User) Response() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Role:        u.Role,
		CanModerate: u.Role.CanModerate(),
		CreatedAt:   u.CreatedAt,
	}
}

type UserFilter struct {
	Query  string
	Limit  int
	Offset int
}

func (f UserFilter) normalized() UserFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	f.Limit = min(f.Limit, maxListLimit)
	f.Offset = max(f.Offset, 0)
	return f
}
