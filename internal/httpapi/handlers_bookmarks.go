package httpapi

import (
	"context"
	"net/http"

	"github.com/PabloPavan/sniply/internal/bookmarks"
)

type BookmarksService interface {
	Add(ctx context.Context, snippetID string) (bool, error)
	Remove(ctx context.Context, snippetID string) error
	ListMine(ctx context.Context, limit, offset int) ([]*bookmarks.Entry, error)
	MostBookmarked(ctx context.Context, limit int) ([]*bookmarks.TopEntry, error)
}

type BookmarksHandler struct {
	Service BookmarksService
}

type BookmarkResponse struct {
	SnippetID string `json:"snippet_id"`
	Created   bool   `json:"created"`
}

// Add Bookmarks
// @Summary Bookmark a snippet
// @Tags bookmarks
// @Produce json
// @Security SessionAuth
// @Param id path string true "snippet id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 201 {object} BookmarkResponse
// @Success 200 {object} BookmarkResponse "already bookmarked"
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id}/bookmark [post]
func (h *BookmarksHandler) Add(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	created, err := h.Service.Add(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, BookmarkResponse{SnippetID: id, Created: created})
}

// Remove Bookmarks
// @Summary Remove a bookmark
// @Tags bookmarks
// @Security SessionAuth
// @Param id path string true "snippet id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id}/bookmark [delete]
func (h *BookmarksHandler) Remove(w http.ResponseWriter, r *http.Request) {
	writeNoContent(w, r, h.Service.Remove(r.Context(), pathID(r)))
}

// ListMine Bookmarks
// @Summary Current user's bookmarks
// @Tags bookmarks
// @Produce json
// @Security SessionAuth
// @Param limit query int false "page size (default 10)"
// @Param offset query int false "offset"
// @Success 200 {array} bookmarks.Entry
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /bookmarks [get]
func (h *BookmarksHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListMine(r.Context(), queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	writeResult(w, r, page, err)
}

// Top Bookmarks
// @Summary Most bookmarked snippets
// @Tags bookmarks
// @Produce json
// @Param limit query int false "max results (default 3)"
// @Success 200 {array} bookmarks.TopEntry
// @Failure 500 {string} string
// @Router /bookmarks/top [get]
func (h *BookmarksHandler) Top(w http.ResponseWriter, r *http.Request) {
	top, err := h.Service.MostBookmarked(r.Context(), queryInt(r, "limit", 0))
	writeResult(w, r, top, err)
}
