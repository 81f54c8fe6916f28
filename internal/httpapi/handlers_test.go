package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PabloPavan/sniply/internal/apperrors"
	"github.com/PabloPavan/sniply/internal/auth"
	"github.com/PabloPavan/sniply/internal/bookmarks"
	"github.com/PabloPavan/sniply/internal/catalog"
	"github.com/PabloPavan/sniply/internal/identity"
	"github.com/PabloPavan/sniply/internal/recommend"
	"github.com/PabloPavan/sniply/internal/session"
	"github.com/PabloPavan/sniply/internal/snippets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authStub struct {
	sessions map[string]auth.SessionInfo
	revoked  []string
}

func (a *authStub) AuthenticateSession(ctx context.Context, sessionID, csrfToken, method string) (auth.SessionInfo, bool, error) {
	info, ok := a.sessions[sessionID]
	if !ok {
		return auth.SessionInfo{}, false, apperrors.New(apperrors.KindUnauthorized, "unauthorized")
	}
	if method != http.MethodGet && csrfToken != info.CSRFToken {
		return auth.SessionInfo{}, false, apperrors.New(apperrors.KindForbidden, "forbidden")
	}
	return info, false, nil
}

func (a *authStub) Login(ctx context.Context, input auth.LoginInput) (auth.LoginResult, error) {
	return auth.LoginResult{}, apperrors.New(apperrors.KindUnauthorized, "invalid credentials")
}

func (a *authStub) Logout(ctx context.Context, sessionID string) error { return nil }

func (a *authStub) LogoutEverywhere(ctx context.Context) (int, error) {
	userID, _ := identity.Authenticated(ctx)
	a.revoked = append(a.revoked, userID)
	return 2, nil
}

type recommenderStub struct {
	gotRequester string
	gotUser      string
	gotLimit     int
	result       []recommend.Scored
}

func (r *recommenderStub) SimilarSnippets(ctx context.Context, ref *snippets.Snippet, requesterID string, limit int) ([]recommend.Scored, error) {
	r.gotRequester, r.gotLimit = requesterID, limit
	return r.result, nil
}

func (r *recommenderStub) UserRecommendations(ctx context.Context, userID string, limit int) ([]recommend.Scored, error) {
	r.gotUser, r.gotLimit = userID, limit
	return r.result, nil
}

type snippetGetterStub map[string]*snippets.Snippet

func (s snippetGetterStub) GetByID(ctx context.Context, id string) (*snippets.Snippet, error) {
	if sn, ok := s[id]; ok {
		return sn, nil
	}
	return nil, apperrors.New(apperrors.KindNotFound, "snippet not found")
}

type bookmarksStub struct {
	created bool
}

func (b *bookmarksStub) Add(ctx context.Context, snippetID string) (bool, error) {
	return b.created, nil
}

func (b *bookmarksStub) Remove(ctx context.Context, snippetID string) error { return nil }

func (b *bookmarksStub) ListMine(ctx context.Context, limit, offset int) ([]*bookmarks.Entry, error) {
	return []*bookmarks.Entry{}, nil
}

func (b *bookmarksStub) MostBookmarked(ctx context.Context, limit int) ([]*bookmarks.TopEntry, error) {
	return []*bookmarks.TopEntry{{SnippetID: "snp_1", Count: 4}}, nil
}

type catalogStub struct {
	topLimit int
}

func (c *catalogStub) TopAuthors(ctx context.Context, limit int) ([]*catalog.AuthorStat, error) {
	c.topLimit = limit
	return []*catalog.AuthorStat{{AuthorID: "usr_1", Username: "ana", Snippets: 3, Likes: 2}}, nil
}

func (c *catalogStub) Languages(ctx context.Context) ([]*catalog.LanguageStat, error) {
	return []*catalog.LanguageStat{{Name: "go", Snippets: 3}}, nil
}

func (c *catalogStub) TopLanguages(ctx context.Context, limit int) ([]*catalog.LanguageStat, error) {
	c.topLimit = limit
	return []*catalog.LanguageStat{{Name: "go", Snippets: 3}}, nil
}

func (c *catalogStub) Language(ctx context.Context, name string, limit, offset int) (*catalog.LanguageDetail, error) {
	if name != "go" {
		return nil, apperrors.New(apperrors.KindNotFound, "language not found")
	}
	return &catalog.LanguageDetail{LanguageStat: catalog.LanguageStat{Name: name, Snippets: 3}}, nil
}

func newTestRouter(rec *recommenderStub, bm *bookmarksStub) http.Handler {
	return newRouterWithAuth(rec, bm, &authStub{sessions: map[string]auth.SessionInfo{
		"ses_ok": {ID: "ses_ok", UserID: "usr_1", Role: "user", CSRFToken: "csrf", ExpiresAt: time.Now().Add(time.Hour)},
	}})
}

func newRouterWithAuth(rec *recommenderStub, bm *bookmarksStub, authn *authStub) http.Handler {
	return NewRouter(&App{
		ServiceName:   "test",
		Health:        &HealthHandler{},
		Snippets:      &SnippetsHandler{},
		Ratings:       &RatingsHandler{},
		Users:         &UsersHandler{},
		Auth:          &AuthHandler{Service: authn},
		Bookmarks:     &BookmarksHandler{Service: bm},
		Catalog:       &CatalogHandler{Service: &catalogStub{}},
		Authenticator: authn,
		Cookie:        session.CookieConfig{Name: "sniply_session"},
		Recommendations: &RecommendationsHandler{
			Recommender: rec,
			Snippets:    snippetGetterStub{"snp_ref": {ID: "snp_ref", Tags: "go"}},
		},
	})
}

func withSession(req *http.Request, id string) *http.Request {
	req.AddCookie(&http.Cookie{Name: "sniply_session", Value: id})
	return req
}

func TestSimilarAnonymousUsesDefaultLimit(t *testing.T) {
	rec := &recommenderStub{result: []recommend.Scored{{Snippet: &snippets.Snippet{ID: "snp_2"}, Score: 4.5}}}
	router := newTestRouter(rec, &bookmarksStub{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/snippets/snp_ref/similar", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", rec.gotRequester)
	assert.Equal(t, recommend.DefaultLimit, rec.gotLimit)

	var body []recommend.Scored
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "snp_2", body[0].Snippet.ID)
	assert.InDelta(t, 4.5, body[0].Score, 1e-9)
}

func TestSimilarWithSessionAndLimit(t *testing.T) {
	rec := &recommenderStub{}
	router := newTestRouter(rec, &bookmarksStub{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/v1/snippets/snp_ref/similar?limit=2", nil), "ses_ok"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "usr_1", rec.gotRequester)
	assert.Equal(t, 2, rec.gotLimit)
}

func TestSimilarInvalidSessionFallsBackToAnonymous(t *testing.T) {
	rec := &recommenderStub{}
	router := newTestRouter(rec, &bookmarksStub{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/v1/snippets/snp_ref/similar", nil), "ses_stale"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", rec.gotRequester)
}

func TestSimilarUnknownSnippet(t *testing.T) {
	router := newTestRouter(&recommenderStub{}, &bookmarksStub{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/snippets/snp_missing/similar", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecommendationsRequireSession(t *testing.T) {
	rec := &recommenderStub{}
	router := newTestRouter(rec, &bookmarksStub{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/v1/recommendations?limit=abc", nil), "ses_ok"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "usr_1", rec.gotUser)
	assert.Equal(t, recommend.DefaultLimit, rec.gotLimit)
}

func TestBookmarkAddStatusAndCSRF(t *testing.T) {
	bm := &bookmarksStub{created: true}
	router := newTestRouter(&recommenderStub{}, bm)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodPost, "/v1/snippets/snp_ref/bookmark", nil), "ses_ok"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := withSession(httptest.NewRequest(http.MethodPost, "/v1/snippets/snp_ref/bookmark", nil), "ses_ok")
	req.Header.Set("X-CSRF-Token", "csrf")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	bm.created = false
	req = withSession(httptest.NewRequest(http.MethodPost, "/v1/snippets/snp_ref/bookmark", nil), "ses_ok")
	req.Header.Set("X-CSRF-Token", "csrf")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"created":false`)
}

func TestBookmarksTopIsPublic(t *testing.T) {
	router := newTestRouter(&recommenderStub{}, &bookmarksStub{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/bookmarks/top", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bookmarks":4`)
}

func TestSnippetDTOValidation(t *testing.T) {
	ok := SnippetCreateDTO{Title: "t", Content: "c", Tags: "go, http"}
	require.NoError(t, ok.Validate())

	parts := make([]string, 0, maxTags+1)
	for i := range maxTags + 1 {
		parts = append(parts, fmt.Sprintf("tag%d", i))
	}
	tooMany := SnippetCreateDTO{Title: "t", Content: "c", Tags: strings.Join(parts, ",")}
	assert.EqualError(t, tooMany.Validate(), "too many tags or tag too long")

	long := SnippetCreateDTO{Title: "t", Content: "c", Tags: strings.Repeat("a", maxTagLength+1)}
	assert.Error(t, long.Validate())

	missing := SnippetCreateDTO{Content: "c"}
	assert.EqualError(t, missing.Validate(), "title and content are required")
}

func TestRatingDTONormalizes(t *testing.T) {
	dto := RatingDTO{Value: " LIKE "}
	require.NoError(t, dto.Validate())
	assert.Equal(t, "like", dto.Value)

	bad := RatingDTO{Value: "meh"}
	assert.EqualError(t, bad.Validate(), "rating must be like or dislike")
}

func TestWriteAppErrorRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	writeAppError(w, r, apperrors.RateLimit("too many requests", 1500*time.Millisecond))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", w.Header().Get("X-Error-Kind"))
}

func TestWriteAppErrorHidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	writeAppError(w, r, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error\n", w.Body.String())
	assert.Equal(t, "internal", w.Header().Get("X-Error-Kind"))

	w = httptest.NewRecorder()
	writeAppError(w, r, apperrors.New(apperrors.KindNotFound, ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found\n", w.Body.String())
}

func TestCatalogRoutes(t *testing.T) {
	router := newTestRouter(&recommenderStub{}, &bookmarksStub{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/authors/top", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"author_id":"usr_1","username":"ana","snippets":3,"likes":2}]`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/languages/top?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"go","snippets":3}]`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/languages/go", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"go","snippets":3,"items":null}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/languages/cobol", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogoutEverywhereClearsCookie(t *testing.T) {
	authn := &authStub{sessions: map[string]auth.SessionInfo{
		"ses_ok": {ID: "ses_ok", UserID: "usr_1", Role: "user", CSRFToken: "csrf"},
	}}
	router := newRouterWithAuth(&recommenderStub{}, &bookmarksStub{}, authn)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/logout-all", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := withSession(httptest.NewRequest(http.MethodPost, "/v1/auth/logout-all", nil), "ses_ok")
	req.Header.Set("X-CSRF-Token", "csrf")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"usr_1"}, authn.revoked)
	assert.JSONEq(t, `{"revoked":2}`, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "sniply_session", cookies[len(cookies)-1].Name)
	assert.Empty(t, cookies[len(cookies)-1].Value)
}

func TestDecodeBodyRejectsOversizedAndInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"title":`, "invalid json"},
		{"oversized", `{"title":"t","content":"` + strings.Repeat("x", maxBodyBytes) + `"}`, "invalid json"},
		{"missing title", `{"content":"c"}`, "title and content are required"},
		{"too many lines", `{"title":"t","content":"` + strings.Repeat(`a\n`, 5000) + `"}`, "content has too many lines"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			var dto SnippetCreateDTO
			ok := decodeBody(w, httptest.NewRequest(http.MethodPost, "/v1/snippets", strings.NewReader(tc.body)), &dto)
			require.False(t, ok)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestUserUpdateDTOMessages(t *testing.T) {
	blank, long, role := " ", strings.Repeat("a", 73), "root"
	assert.EqualError(t, (&UserUpdateDTO{Username: &blank}).Validate(), "invalid username")
	assert.EqualError(t, (&UserUpdateDTO{Password: &long}).Validate(), "password is too long")
	assert.EqualError(t, (&UserUpdateDTO{Role: &role}).Validate(), "invalid role")
	require.NoError(t, (&UserUpdateDTO{}).Validate())
}
