package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PabloPavan/sniply/internal/catalog"
)

type CatalogService interface {
	TopAuthors(ctx context.Context, limit int) ([]*catalog.AuthorStat, error)
	Languages(ctx context.Context) ([]*catalog.LanguageStat, error)
	TopLanguages(ctx context.Context, limit int) ([]*catalog.LanguageStat, error)
	Language(ctx context.Context, name string, limit, offset int) (*catalog.LanguageDetail, error)
}

type CatalogHandler struct {
	Service CatalogService
}

// TopAuthors Catalog
// @Summary Authors with the most snippets
// @Tags catalog
// @Produce json
// @Param limit query int false "max results (default 3)"
// @Success 200 {array} catalog.AuthorStat
// @Failure 500 {string} string
// @Router /authors/top [get]
func (h *CatalogHandler) TopAuthors(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.TopAuthors(r.Context(), queryInt(r, "limit", 0))
	writeResult(w, r, list, err)
}

// Languages Catalog
// @Summary Languages in use with their snippet counts
// @Tags catalog
// @Produce json
// @Success 200 {array} catalog.LanguageStat
// @Failure 500 {string} string
// @Router /languages [get]
func (h *CatalogHandler) Languages(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Languages(r.Context())
	writeResult(w, r, list, err)
}

// TopLanguages Catalog
// @Summary Most used languages
// @Tags catalog
// @Produce json
// @Param limit query int false "max results (default 3)"
// @Success 200 {array} catalog.LanguageStat
// @Failure 500 {string} string
// @Router /languages/top [get]
func (h *CatalogHandler) TopLanguages(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.TopLanguages(r.Context(), queryInt(r, "limit", 0))
	writeResult(w, r, list, err)
}

// Language Catalog
// @Summary Snippets written in a language
// @Tags catalog
// @Produce json
// @Param name path string true "language"
// @Param limit query int false "page size (default 20)"
// @Param offset query int false "offset"
// @Success 200 {object} catalog.LanguageDetail
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /languages/{name} [get]
func (h *CatalogHandler) Language(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.Language(r.Context(), chi.URLParam(r, "name"),
		queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	writeResult(w, r, detail, err)
}
