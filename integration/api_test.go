package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloPavan/sniply/internal"
	"github.com/PabloPavan/sniply/internal/auth"
	"github.com/PabloPavan/sniply/internal/bookmarks"
	"github.com/PabloPavan/sniply/internal/catalog"
	"github.com/PabloPavan/sniply/internal/db"
	"github.com/PabloPavan/sniply/internal/httpapi"
	"github.com/PabloPavan/sniply/internal/ratings"
	"github.com/PabloPavan/sniply/internal/recommend"
	"github.com/PabloPavan/sniply/internal/session"
	"github.com/PabloPavan/sniply/internal/snippets"
	"github.com/PabloPavan/sniply/internal/users"
	"github.com/PabloPavan/sniply/migrations"
)

type testEnv struct {
	baseURL string
	users   *users.Repository
}

// client carries the session cookie and the csrf token handed out at login.
type client struct {
	http *http.Client
	csrf string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	d, err := db.New(ctx, databaseURL, db.Options{})
	require.NoError(t, err, "db connect")
	t.Cleanup(d.Close)
	_, err = db.Migrate(ctx, d.Pool, migrations.FS)
	require.NoError(t, err, "db migrate")

	base := db.NewBase(d.Pool, 3*time.Second)
	snRepo := snippets.NewRepository(base)
	usrRepo := users.NewRepository(base)
	ratingRepo := ratings.NewRepository(base)
	bookmarkRepo := bookmarks.NewRepository(base)

	sessionManager := &session.Manager{
		Store:   session.NewMemoryStore(),
		TTL:     5 * time.Minute,
		IDBytes: 16,
	}
	cookie := session.CookieConfig{Name: "sniply_session", Path: "/"}

	snippetsService := &snippets.Service{Store: snRepo, Users: usrRepo}
	authService := &auth.Service{Users: usrRepo, Sessions: sessionManager}

	app := &httpapi.App{
		Health:   &httpapi.HealthHandler{DB: d.Pool},
		Snippets: &httpapi.SnippetsHandler{Service: snippetsService},
		Recommendations: &httpapi.RecommendationsHandler{
			Recommender: &recommend.Service{Snippets: snRepo, Ratings: ratingRepo},
			Snippets:    snippetsService,
		},
		Ratings:   &httpapi.RatingsHandler{Service: &ratings.Service{Store: ratingRepo, Snippets: snRepo}},
		Bookmarks: &httpapi.BookmarksHandler{Service: &bookmarks.Service{Store: bookmarkRepo, Snippets: snRepo}},
		Catalog: &httpapi.CatalogHandler{Service: &catalog.Service{
			Store:    catalog.NewRepository(base),
			Snippets: snippetsService,
		}},
		Users:         &httpapi.UsersHandler{Service: &users.Service{Store: usrRepo, Sessions: sessionManager}},
		Auth:          &httpapi.AuthHandler{Service: authService, Cookie: cookie},
		Authenticator: authService,
		Cookie:        cookie,
	}

	srv := httptest.NewServer(httpapi.NewRouter(app))
	t.Cleanup(srv.Close)

	return &testEnv{baseURL: srv.URL, users: usrRepo}
}

func newClient(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{http: &http.Client{Jar: jar}}
}

func (c *client) do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}

	res, err := c.http.Do(req)
	require.NoError(t, err)
	return res
}

// call performs the request, checks the status and decodes the body into out when non-nil.
func (c *client) call(t *testing.T, method, url string, body any, wantStatus int, out any) {
	t.Helper()
	res := c.do(t, method, url, body)
	defer res.Body.Close()
	require.Equal(t, wantStatus, res.StatusCode, "%s %s", method, url)
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
}

func signUp(t *testing.T, env *testEnv, c *client, prefix string) users.UserResponse {
	t.Helper()

	email := fmt.Sprintf("%s_%s@local", prefix, internal.RandomHex(6))
	password := "secret123"

	var created users.UserResponse
	c.call(t, http.MethodPost, env.baseURL+"/v1/users", map[string]string{
		"email":    email,
		"username": prefix + "_" + internal.RandomHex(4),
		"password": password,
	}, http.StatusCreated, &created)
	require.NotEmpty(t, created.ID)
	t.Cleanup(func() { _ = env.users.Delete(context.Background(), created.ID) })

	var login httpapi.LoginResponse
	c.call(t, http.MethodPost, env.baseURL+"/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK, &login)
	require.Equal(t, created.ID, login.UserID)
	require.NotEmpty(t, login.CSRFToken)
	c.csrf = login.CSRFToken

	return created
}

func createSnippet(t *testing.T, env *testEnv, c *client, title, language, tags string) snippets.Snippet {
	t.Helper()
	var out snippets.Snippet
	c.call(t, http.MethodPost, env.baseURL+"/v1/snippets", snippets.CreateSnippetRequest{
		Title:    title,
		Content:  "body of " + title,
		Language: language,
		Tags:     tags,
	}, http.StatusCreated, &out)
	require.NotEmpty(t, out.ID)
	return out
}

func ids(list []recommend.Scored) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.Snippet.ID)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	res, err := http.Get(env.baseURL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAuthLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t)
	signUp(t, env, c, "auth")

	c.call(t, http.MethodGet, env.baseURL+"/v1/users/me", nil, http.StatusOK, nil)
	c.call(t, http.MethodPost, env.baseURL+"/v1/auth/logout", nil, http.StatusNoContent, nil)
	c.call(t, http.MethodGet, env.baseURL+"/v1/users/me", nil, http.StatusUnauthorized, nil)
}

func TestUnsafeRequestNeedsCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t)
	signUp(t, env, c, "csrf")

	token := c.csrf
	c.csrf = ""
	res := c.do(t, http.MethodPost, env.baseURL+"/v1/snippets", snippets.CreateSnippetRequest{Title: "x", Content: "y"})
	_ = res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	c.csrf = token
	createSnippet(t, env, c, "with token", "go", "a")
}

func TestSnippetsCRUD(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t)
	me := signUp(t, env, c, "crud")

	created := createSnippet(t, env, c, "Example", "Python", "Dev, API, dev")
	assert.Equal(t, "python", created.Language)
	assert.Equal(t, "dev,api", created.Tags)
	assert.Equal(t, me.ID, created.AuthorID)

	anon := newClient(t)
	var got snippets.Snippet
	anon.call(t, http.MethodGet, env.baseURL+"/v1/snippets/"+created.ID, nil, http.StatusOK, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Zero(t, got.WeightedScore)

	var list []snippets.Snippet
	anon.call(t, http.MethodGet, env.baseURL+"/v1/snippets?tag=api&author="+me.ID, nil, http.StatusOK, &list)
	require.Len(t, list, 1)

	var updated snippets.Snippet
	c.call(t, http.MethodPut, env.baseURL+"/v1/snippets/"+created.ID, snippets.CreateSnippetRequest{
		Title:    "Updated",
		Content:  "print('updated')",
		Language: "python",
		Tags:     "dev",
	}, http.StatusOK, &updated)
	assert.Equal(t, "Updated", updated.Title)

	other := newClient(t)
	signUp(t, env, other, "other")
	other.call(t, http.MethodDelete, env.baseURL+"/v1/snippets/"+created.ID, nil, http.StatusNotFound, nil)

	c.call(t, http.MethodDelete, env.baseURL+"/v1/snippets/"+created.ID, nil, http.StatusNoContent, nil)
	anon.call(t, http.MethodGet, env.baseURL+"/v1/snippets/"+created.ID, nil, http.StatusNotFound, nil)
}

func TestSimilarAndUserRecommendations(t *testing.T) {
	env := newTestEnv(t)

	author := newClient(t)
	signUp(t, env, author, "author")
	reader := newClient(t)
	signUp(t, env, reader, "reader")

	// Tags are unique to this run so other rows in the database never match.
	run := internal.RandomHex(4)
	tagA, tagB, tagC := "ta"+run, "tb"+run, "tc"+run
	lang := "lang" + run

	ref := createSnippet(t, env, author, "ref", lang, tagA+","+tagB)
	both := createSnippet(t, env, author, "both", "other"+run, tagA+","+tagB)
	sameLang := createSnippet(t, env, author, "same language", lang, tagC)
	oneTag := createSnippet(t, env, author, "one tag", "other"+run, tagA)

	reader.call(t, http.MethodPut, env.baseURL+"/v1/snippets/"+both.ID+"/rating",
		map[string]string{"value": "like"}, http.StatusOK, nil)

	var similar []recommend.Scored
	newClient(t).call(t, http.MethodGet, env.baseURL+"/v1/snippets/"+ref.ID+"/similar?limit=10", nil, http.StatusOK, &similar)
	// both: 2 shared tags * 1.5 + weighted score 1.0 * 2 = 5.0
	// sameLang: same language 3.0
	// oneTag: 1 shared tag 1.5
	assert.Equal(t, []string{both.ID, sameLang.ID, oneTag.ID}, ids(similar))
	require.Len(t, similar, 3)
	assert.InDelta(t, 5.0, similar[0].Score, 1e-9)
	assert.InDelta(t, 3.0, similar[1].Score, 1e-9)
	assert.InDelta(t, 1.5, similar[2].Score, 1e-9)

	// The author's own snippets never come back to them.
	var own []recommend.Scored
	author.call(t, http.MethodGet, env.baseURL+"/v1/snippets/"+ref.ID+"/similar", nil, http.StatusOK, &own)
	assert.Empty(t, own)

	var recs []recommend.Scored
	reader.call(t, http.MethodGet, env.baseURL+"/v1/recommendations?limit=10", nil, http.StatusOK, &recs)
	got := ids(recs)
	assert.NotContains(t, got, both.ID, "rated snippets are not recommended")
	assert.Contains(t, got, ref.ID)
	assert.Contains(t, got, oneTag.ID)
	assert.NotContains(t, got, sameLang.ID)

	newClient(t).call(t, http.MethodGet, env.baseURL+"/v1/recommendations", nil, http.StatusUnauthorized, nil)
}

func TestRatingsAndBookmarks(t *testing.T) {
	env := newTestEnv(t)

	author := newClient(t)
	signUp(t, env, author, "author")
	reader := newClient(t)
	signUp(t, env, reader, "reader")

	sn := createSnippet(t, env, author, "bookmarked", "go", "x")

	var rating ratings.Rating
	reader.call(t, http.MethodPut, env.baseURL+"/v1/snippets/"+sn.ID+"/rating",
		map[string]string{"value": "Dislike"}, http.StatusOK, &rating)
	assert.Equal(t, ratings.Dislike, rating.Value)

	reader.call(t, http.MethodPut, env.baseURL+"/v1/snippets/"+sn.ID+"/rating",
		map[string]string{"value": "like"}, http.StatusOK, &rating)
	assert.Equal(t, ratings.Like, rating.Value)

	var stats ratings.Stats
	reader.call(t, http.MethodGet, env.baseURL+"/v1/snippets/"+sn.ID+"/ratings", nil, http.StatusOK, &stats)
	assert.Equal(t, 1, stats.Likes)
	assert.Equal(t, 0, stats.Dislikes)

	author.call(t, http.MethodPut, env.baseURL+"/v1/snippets/"+sn.ID+"/rating",
		map[string]string{"value": "dislike"}, http.StatusOK, nil)
	reader.call(t, http.MethodGet, env.baseURL+"/v1/snippets/"+sn.ID+"/ratings", nil, http.StatusOK, &stats)
	var rated snippets.Snippet
	reader.call(t, http.MethodGet, env.baseURL+"/v1/snippets/"+sn.ID, nil, http.StatusOK, &rated)
	assert.InDelta(t, 0.5, stats.WeightedScore, 1e-9)
	assert.InDelta(t, stats.WeightedScore, rated.WeightedScore, 1e-9)

	reader.call(t, http.MethodPut, env.baseURL+"/v1/snippets/"+sn.ID+"/rating",
		map[string]string{"value": "meh"}, http.StatusBadRequest, nil)

	reader.call(t, http.MethodPost, env.baseURL+"/v1/snippets/"+sn.ID+"/bookmark", nil, http.StatusCreated, nil)
	reader.call(t, http.MethodPost, env.baseURL+"/v1/snippets/"+sn.ID+"/bookmark", nil, http.StatusOK, nil)

	var mine []bookmarks.Entry
	reader.call(t, http.MethodGet, env.baseURL+"/v1/bookmarks", nil, http.StatusOK, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, sn.ID, mine[0].SnippetID)

	reader.call(t, http.MethodDelete, env.baseURL+"/v1/snippets/"+sn.ID+"/bookmark", nil, http.StatusNoContent, nil)
	reader.call(t, http.MethodDelete, env.baseURL+"/v1/snippets/"+sn.ID+"/bookmark", nil, http.StatusNotFound, nil)
	reader.call(t, http.MethodPost, env.baseURL+"/v1/snippets/snp_missing/bookmark", nil, http.StatusNotFound, nil)
}

func TestLanguagesAndAuthors(t *testing.T) {
	env := newTestEnv(t)
	c := newClient(t)
	me := signUp(t, env, c, "catalog")

	lang := "lang" + internal.RandomHex(4)
	first := createSnippet(t, env, c, "first", lang, "a")
	second := createSnippet(t, env, c, "second", lang, "b")

	var detail catalog.LanguageDetail
	c.call(t, http.MethodGet, env.baseURL+"/v1/languages/"+lang, nil, http.StatusOK, &detail)
	assert.Equal(t, lang, detail.Name)
	assert.Equal(t, 2, detail.Snippets)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, second.ID, detail.Items[0].ID)
	assert.Equal(t, first.ID, detail.Items[1].ID)

	var langs []catalog.LanguageStat
	c.call(t, http.MethodGet, env.baseURL+"/v1/languages", nil, http.StatusOK, &langs)
	assert.Contains(t, langs, catalog.LanguageStat{Name: lang, Snippets: 2})

	c.call(t, http.MethodGet, env.baseURL+"/v1/languages/top?limit=50", nil, http.StatusOK, &langs)
	assert.LessOrEqual(t, len(langs), 50)
	c.call(t, http.MethodGet, env.baseURL+"/v1/languages/missing"+internal.RandomHex(4), nil, http.StatusNotFound, nil)

	var authors []catalog.AuthorStat
	c.call(t, http.MethodGet, env.baseURL+"/v1/authors/top?limit=50", nil, http.StatusOK, &authors)
	for _, a := range authors {
		if a.AuthorID == me.ID {
			assert.Equal(t, 2, a.Snippets)
		}
	}
}
