package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/PabloPavan/sniply/docs"
	"github.com/PabloPavan/sniply/internal"
	"github.com/PabloPavan/sniply/internal/auth"
	"github.com/PabloPavan/sniply/internal/bookmarks"
	"github.com/PabloPavan/sniply/internal/catalog"
	"github.com/PabloPavan/sniply/internal/db"
	"github.com/PabloPavan/sniply/internal/httpapi"
	"github.com/PabloPavan/sniply/internal/ratelimit"
	"github.com/PabloPavan/sniply/internal/ratings"
	"github.com/PabloPavan/sniply/internal/recommend"
	"github.com/PabloPavan/sniply/internal/session"
	"github.com/PabloPavan/sniply/internal/snippets"
	"github.com/PabloPavan/sniply/internal/telemetry"
	"github.com/PabloPavan/sniply/internal/users"
	"github.com/PabloPavan/sniply/migrations"
	"github.com/redis/go-redis/v9"
)

const serviceName = "sniply"

func main() {
	port := internal.Env("APP_PORT", "8080")
	databaseURL := internal.MustEnv("DATABASE_URL")
	redisURL := internal.MustEnv("REDIS_URL")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.ConfigFromEnv(serviceName))
	if err != nil {
		log.Fatalf("telemetry setup error: %v", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Printf("telemetry shutdown error: %v", err)
		}
	}()
	db.InitTelemetry(serviceName)
	recommend.InitTelemetry(serviceName)

	d, err := db.New(ctx, databaseURL, db.Options{
		MaxConns:        int32(internal.EnvInt("DB_MAX_CONNS", 10)),
		MinConns:        int32(internal.EnvInt("DB_MIN_CONNS", 1)),
		MaxConnLifetime: internal.EnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
		ApplicationName: serviceName,
		ConnectAttempts: internal.EnvInt("DB_CONNECT_ATTEMPTS", 5),
		ConnectBackoff:  internal.EnvDuration("DB_CONNECT_BACKOFF", 2*time.Second),
	})
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer d.Close()

	if internal.EnvBool("DB_MIGRATE", true) {
		applied, err := db.Migrate(ctx, d.Pool, migrations.FS)
		if err != nil {
			log.Fatalf("db migrate error: %v", err)
		}
		for _, v := range applied {
			telemetry.LogInfo(ctx, "migration applied", telemetry.LogString("db.migration", v))
		}
	}

	redisOpt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	redisClient := redis.NewClient(redisOpt)
	defer redisClient.Close()

	dbBase := db.NewBase(d.Pool, internal.EnvDuration("DB_QUERY_TIMEOUT", db.DefaultQueryTimeout))
	snRepo := snippets.NewRepository(dbBase)
	usrRepo := users.NewRepository(dbBase)
	ratingRepo := ratings.NewRepository(dbBase)
	bookmarkRepo := bookmarks.NewRepository(dbBase)
	catalogRepo := catalog.NewRepository(dbBase)

	sessionPrefix := internal.Env("SESSION_REDIS_PREFIX", "sniply:session:")
	sessionManager := &session.Manager{
		Store:         session.NewRedisStore(redisClient, sessionPrefix),
		TTL:           internal.EnvDuration("SESSION_TTL", 7*24*time.Hour),
		MaxAge:        internal.EnvDuration("SESSION_MAX_AGE", 30*24*time.Hour),
		RefreshBefore: internal.EnvDuration("SESSION_REFRESH_BEFORE", 24*time.Hour),
		IDBytes:       32,
	}

	cookie := session.CookieConfig{
		Name:     internal.Env("SESSION_COOKIE_NAME", session.DefaultCookieName),
		Path:     internal.Env("SESSION_COOKIE_PATH", "/"),
		Domain:   internal.Env("SESSION_COOKIE_DOMAIN", ""),
		Secure:   internal.EnvBool("SESSION_COOKIE_SECURE", true),
		SameSite: internal.EnvAs("SESSION_COOKIE_SAMESITE", http.SameSiteLaxMode, parseSameSite),
	}

	loginLimiter := &ratelimit.Limiter{
		Client: redisClient,
		Prefix: ratelimit.DefaultPrefix,
		Limit:  internal.EnvInt("LOGIN_RATE_LIMIT", ratelimit.DefaultLimit),
		Window: internal.EnvDuration("LOGIN_RATE_WINDOW", ratelimit.DefaultWindow),
	}

	snippetsCache := snippets.NewRedisCache(redisClient, "sniply:cache:")
	telemetry.InitAppMetrics(serviceName, d.Pool, redisClient, sessionPrefix)

	usersService := &users.Service{Store: usrRepo, Sessions: sessionManager}
	snippetsService := &snippets.Service{
		Store:        snRepo,
		Users:        usrRepo,
		Cache:        snippetsCache,
		CacheTTL:     internal.EnvDuration("SNIPPETS_CACHE_TTL", 2*time.Minute),
		ListCacheTTL: internal.EnvDuration("SNIPPETS_LIST_CACHE_TTL", 30*time.Second),
	}
	ratingsService := &ratings.Service{
		Store:       ratingRepo,
		Snippets:    snRepo,
		Invalidator: snippetsCache,
	}
	bookmarksService := &bookmarks.Service{
		Store:    bookmarkRepo,
		Snippets: snRepo,
	}
	recommender := &recommend.Service{
		Snippets:       snRepo,
		Ratings:        ratingRepo,
		MaxLimit:       internal.EnvInt("RECOMMEND_MAX_LIMIT", recommend.DefaultMaxLimit),
		CandidateLimit: internal.EnvInt("RECOMMEND_CANDIDATE_LIMIT", 0),
	}
	authService := &auth.Service{
		Users:        usrRepo,
		Sessions:     sessionManager,
		LoginLimiter: loginLimiter,
	}

	app := &httpapi.App{
		ServiceName: serviceName,
		Health: &httpapi.HealthHandler{
			DB: d.Pool,
			Redis: httpapi.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		},
		Snippets: &httpapi.SnippetsHandler{Service: snippetsService},
		Recommendations: &httpapi.RecommendationsHandler{
			Recommender:  recommender,
			Snippets:     snippetsService,
			DefaultLimit: internal.EnvInt("RECOMMEND_DEFAULT_LIMIT", recommend.DefaultLimit),
		},
		Ratings:   &httpapi.RatingsHandler{Service: ratingsService},
		Bookmarks: &httpapi.BookmarksHandler{Service: bookmarksService},
		Catalog: &httpapi.CatalogHandler{Service: &catalog.Service{
			Store:    catalogRepo,
			Snippets: snippetsService,
		}},
		Users:         &httpapi.UsersHandler{Service: usersService},
		Auth:          &httpapi.AuthHandler{Service: authService, Cookie: cookie},
		Authenticator: authService,
		Cookie:        cookie,
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	telemetry.LogInfo(ctx, "api listening", telemetry.LogString("port", port))
	log.Printf("api listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func parseSameSite(raw string) (http.SameSite, error) {
	switch strings.ToLower(raw) {
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	}
	return 0, fmt.Errorf("unknown SameSite mode %q", raw)
}
