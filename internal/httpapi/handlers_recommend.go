package httpapi

import (
	"context"
	"net/http"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/identity"
	"github.com/PabloPavan/sniply/internal/recommend"
	"github.com/PabloPavan/sniply/internal/snippets"
)

type Recommender interface {
	SimilarSnippets(ctx context.Context, ref *snippets.Snippet, requesterID string, limit int) ([]recommend.Scored, error)
	UserRecommendations(ctx context.Context, userID string, limit int) ([]recommend.Scored, error)
}

type SnippetGetter interface {
	GetByID(ctx context.Context, id string) (*snippets.Snippet, error)
}

type RecommendationsHandler struct {
	Recommender  Recommender
	Snippets     SnippetGetter
	DefaultLimit int
}

// Similar Recommendations
// @Summary Snippets similar to a snippet
// @Description Ranked by shared tags, language and rating score. Signed in callers never see their own snippets and get a bonus for authors they liked.
// @Tags recommendations
// @Produce json
// @Param id path string true "snippet id"
// @Param limit query int false "max results (default 5)"
// @Success 200 {array} recommend.Scored
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id}/similar [get]
func (h *RecommendationsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	ref, err := h.Snippets.GetByID(r.Context(), pathID(r))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	requesterID, _ := identity.Authenticated(r.Context())
	similar, err := h.Recommender.SimilarSnippets(r.Context(), ref, requesterID, queryInt(r, "limit", h.limit()))
	writeResult(w, r, similar, err)
}

// ForUser Recommendations
// @Summary Recommendations for the current user
// @Description Ranked by tags shared with snippets the user liked. Users with no likes get the most liked snippets they have not rated.
// @Tags recommendations
// @Produce json
// @Security SessionAuth
// @Param limit query int false "max results (default 5)"
// @Success 200 {array} recommend.Scored
// @Failure 401 {string} string
// @Failure 500 {string} string
// @Router /recommendations [get]
func (h *RecommendationsHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.Authenticated(r.Context())
	if !ok {
		writeAppError(w, r, apperrors.New(apperrors.KindUnauthorized, "unauthorized"))
		return
	}
	recs, err := h.Recommender.UserRecommendations(r.Context(), userID, queryInt(r, "limit", h.limit()))
	writeResult(w, r, recs, err)
}

func (h *RecommendationsHandler) limit() int {
	if h.DefaultLimit > 0 {
		return h.DefaultLimit
	}
	return recommend.DefaultLimit
}
