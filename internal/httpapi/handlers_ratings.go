package httpapi

import (
	"context"
	"net/http"

	"github.com/PabloPavan/sniply/internal/ratings"
)

type RatingsService interface {
	Rate(ctx context.Context, snippetID string, value string) (*ratings.Rating, error)
	Unrate(ctx context.Context, snippetID string) error
	Mine(ctx context.Context, snippetID string) (*ratings.Rating, error)
	Stats(ctx context.Context, snippetID string) (ratings.Stats, error)
}

type RatingsHandler struct {
	Service RatingsService
}

// Rate Ratings
// @Summary Like or dislike a snippet
// @Tags ratings
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path string true "snippet id"
// @Param body body RatingDTO true "rating"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} ratings.Rating
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id}/rating [put]
func (h *RatingsHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var dto RatingDTO
	if !decodeBody(w, r, &dto) {
		return
	}
	rating, err := h.Service.Rate(r.Context(), pathID(r), dto.Value)
	writeResult(w, r, rating, err)
}

// Mine Ratings
// @Summary Current user's rating of a snippet
// @Tags ratings
// @Produce json
// @Security SessionAuth
// @Param id path string true "snippet id"
// @Success 200 {object} ratings.Rating
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id}/rating [get]
func (h *RatingsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	rating, err := h.Service.Mine(r.Context(), pathID(r))
	writeResult(w, r, rating, err)
}

// Unrate Ratings
// @Summary Remove the current user's rating
// @Tags ratings
// @Security SessionAuth
// @Param id path string true "snippet id"
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 204
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id}/rating [delete]
func (h *RatingsHandler) Unrate(w http.ResponseWriter, r *http.Request) {
	writeNoContent(w, r, h.Service.Unrate(r.Context(), pathID(r)))
}

// Stats Ratings
// @Summary Like and dislike counts of a snippet
// @Tags ratings
// @Produce json
// @Param id path string true "snippet id"
// @Success 200 {object} ratings.Stats
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /snippets/{id}/ratings [get]
func (h *RatingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context(), pathID(r))
	writeResult(w, r, stats, err)
}
