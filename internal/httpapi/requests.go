package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/PabloPavan/sniply/internal/snippets"
	"github.com/PabloPavan/sniply/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	maxTags      = 20
	maxTagLength = 32
	maxBodyBytes = 1 << 20
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	rules := map[string]func(value, param string) bool{
		"notblank": func(value, _ string) bool {
			return strings.TrimSpace(value) != ""
		},
		"trimmedemail": func(value, _ string) bool {
			email := strings.TrimSpace(value)
			return email != "" && len(email) <= 254 && v.Var(email, "email") == nil
		},
		"maxlines": func(value, param string) bool {
			limit, err := strconv.Atoi(param)
			return err == nil && strings.Count(value, "\n") < limit
		},
		// comma separated, at most maxTags distinct tags of at most maxTagLength runes
		"tagtext": func(value, _ string) bool {
			tags := snippets.ParseTags(value)
			if tags.Len() > maxTags {
				return false
			}
			for _, t := range tags.Slice() {
				if len([]rune(t)) > maxTagLength {
					return false
				}
			}
			return true
		},
	}
	for tag, rule := range rules {
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			f := fl.Field()
			return f.Kind() == reflect.String && rule(f.String(), fl.Param())
		})
	}
	return v
}

// messages maps "Field.tag" or a bare "Field" to the text returned to clients.
type messages map[string]string

func (m messages) check(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if msg, ok := m[fe.Field()+"."+fe.Tag()]; ok {
				return errors.New(msg)
			}
			if msg, ok := m[fe.Field()]; ok {
				return errors.New(msg)
			}
		}
	}
	return errors.New("invalid request")
}

const (
	credentialsRequired = "email and password are required"
	snippetRequired     = "title and content are required"
)

type UserCreateDTO struct {
	Email    string `json:"email" validate:"required,notblank,trimmedemail"`
	Username string `json:"username" validate:"omitempty,max=64"`
	Password string `json:"password" validate:"required,notblank,max=72"`
}

var userCreateMessages = messages{
	"Email.trimmedemail": "invalid email",
	"Email":              credentialsRequired,
	"Username.max":       "username is too long",
	"Password.max":       "password is too long",
	"Password":           credentialsRequired,
}

func (r *UserCreateDTO) Validate() error { return userCreateMessages.check(r) }

type UserUpdateDTO struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,trimmedemail"`
	Username *string `json:"username,omitempty" validate:"omitempty,notblank,max=64"`
	Password *string `json:"password,omitempty" validate:"omitempty,notblank,max=72"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=user moderator admin"`
}

var userUpdateMessages = messages{
	"Email":        "invalid email",
	"Username.max": "username is too long",
	"Username":     "invalid username",
	"Password.max": "password is too long",
	"Password":     "invalid password",
	"Role":         "invalid role",
}

func (r *UserUpdateDTO) Validate() error { return userUpdateMessages.check(r) }

func (r *UserUpdateDTO) input() users.UpdateUserInput {
	return users.UpdateUserInput{
		Email:    r.Email,
		Username: r.Username,
		Password: r.Password,
		Role:     r.Role,
	}
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,notblank,trimmedemail"`
	Password string `json:"password" validate:"required,notblank"`
}

var loginMessages = messages{
	"Email.trimmedemail": "invalid email",
	"Email":              credentialsRequired,
	"Password":           credentialsRequired,
}

func (r *LoginDTO) Validate() error { return loginMessages.check(r) }

type SnippetCreateDTO struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Content     string `json:"content" validate:"required,notblank,max=250000,maxlines=5000"`
	Description string `json:"description" validate:"max=2000"`
	Language    string `json:"language" validate:"omitempty,notblank,max=32"`
	Tags        string `json:"tags" validate:"max=700,tagtext" example:"go,concurrency"`
}

var snippetMessages = messages{
	"Title.max":        "title is too long",
	"Title":            snippetRequired,
	"Content.max":      "content is too long",
	"Content.maxlines": "content has too many lines",
	"Content":          snippetRequired,
	"Description":      "description is too long",
	"Language":         "invalid language",
	"Tags":             "too many tags or tag too long",
}

func (r *SnippetCreateDTO) Validate() error { return snippetMessages.check(r) }

func (r *SnippetCreateDTO) request() snippets.CreateSnippetRequest {
	return snippets.CreateSnippetRequest{
		Title:       r.Title,
		Content:     r.Content,
		Description: r.Description,
		Language:    r.Language,
		Tags:        r.Tags,
	}
}

type RatingDTO struct {
	Value string `json:"value" validate:"required,oneof=like dislike" example:"like"`
}

var ratingMessages = messages{"Value": "rating must be like or dislike"}

func (r *RatingDTO) Validate() error {
	r.Value = strings.ToLower(strings.TrimSpace(r.Value))
	return ratingMessages.check(r)
}

type validatable interface {
	Validate() error
}

// decodeBody reads a JSON body into dst and validates it. On failure the 400
// response has already been written.
func decodeBody(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	if err := dst.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

// queryInt reads a non-negative integer query parameter. Missing or malformed
// values yield def.
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeNoContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
