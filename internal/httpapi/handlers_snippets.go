package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/PabloPavan/sniply/internal/snippets"
)

type SnippetsService interface {
	Create(ctx context.Context, req snippets.CreateSnippetRequest) (*snippets.Snippet, error)
	GetByID(ctx context.Context, id string) (*snippets.Snippet, error)
	List(ctx context.Context, input snippets.ListInput) ([]*snippets.Snippet, error)
	Update(ctx context.Context, id string, req snippets.CreateSnippetRequest) (*snippets.Snippet, error)
	Delete(ctx context.Context, id string) error
}

type SnippetsHandler struct {
	Service SnippetsService
}

// Create Snippet
// @Summary Create snippet
// @Tags snippets
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param body body SnippetCreateDTO true "snippet"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 201 {object} snippets.Snippet
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 409 {string} string
// @Failure 500 {string} string
// @Router /snippets [post]
func (h *SnippetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto SnippetCreateDTO
	if !decodeBody(w, r, &dto) {
		return
	}
	created, err := h.Service.Create(r.Context(), dto.request())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetByID Snippet
// @Summary Get snippet by id
// @Tags snippets
// @Produce json
// @Param id path string true "snippet id"
// @Success 200 {object} snippets.Snippet
// @Failure 400 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id} [get]
func (h *SnippetsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	found, err := h.Service.GetByID(r.Context(), pathID(r))
	writeResult(w, r, found, err)
}

// List Snippets
// @Summary List snippets
// @Tags snippets
// @Produce json
// @Param q query string false "title search"
// @Param author query string false "author id"
// @Param language query string false "language"
// @Param tag query string false "tag"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {array} snippets.Snippet
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /snippets [get]
func (h *SnippetsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context(), listInput(r))
	writeResult(w, r, list, err)
}

func listInput(r *http.Request) snippets.ListInput {
	q := r.URL.Query()
	param := func(key string) string { return strings.TrimSpace(q.Get(key)) }
	return snippets.ListInput{
		Query:    param("q"),
		Author:   param("author"),
		Language: param("language"),
		Tag:      param("tag"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	}
}

// Update Snippet
// @Summary Update snippet (author or moderator)
// @Tags snippets
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path string true "snippet id"
// @Param body body SnippetCreateDTO true "snippet"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} snippets.Snippet
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id} [put]
func (h *SnippetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var dto SnippetCreateDTO
	if !decodeBody(w, r, &dto) {
		return
	}
	updated, err := h.Service.Update(r.Context(), pathID(r), dto.request())
	writeResult(w, r, updated, err)
}

// Delete Snippet
// @Summary Delete snippet (author or moderator)
// @Tags snippets
// @Security SessionAuth
// @Param id path string true "snippet id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id} [delete]
func (h *SnippetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	writeNoContent(w, r, h.Service.Delete(r.Context(), pathID(r)))
}
