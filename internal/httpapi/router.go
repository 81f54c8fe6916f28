package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/PabloPavan/sniply/internal/session"
	"github.com/PabloPavan/sniply/internal/telemetry"
)

type App struct {
	ServiceName string

	Health          *HealthHandler
	Snippets        *SnippetsHandler
	Recommendations *RecommendationsHandler
	Ratings         *RatingsHandler
	Bookmarks       *BookmarksHandler
	Catalog         *CatalogHandler
	Users           *UsersHandler
	Auth            *AuthHandler

	Authenticator Authenticator
	Cookie        session.CookieConfig
}

func NewRouter(app *App) http.Handler {
	serviceName := app.ServiceName
	if serviceName == "" {
		serviceName = "sniply"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.Middleware(serviceName))

	requireSession := AuthMiddleware(app.Authenticator, AuthOptions{Cookie: app.Cookie})
	optionalSession := AuthMiddleware(app.Authenticator, AuthOptions{Cookie: app.Cookie, Optional: true})

	r.Get("/health", app.Health.Get)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", app.Auth.Login)
			r.Post("/logout", app.Auth.Logout)
			r.With(requireSession).Post("/logout-all", app.Auth.LogoutEverywhere)
		})

		r.Route("/snippets", func(r chi.Router) {
			// Public, personalised when signed in
			r.Group(func(r chi.Router) {
				r.Use(optionalSession)
				r.Get("/", app.Snippets.List)
				r.Get("/{id}", app.Snippets.GetByID)
				r.Get("/{id}/similar", app.Recommendations.Similar)
				r.Get("/{id}/ratings", app.Ratings.Stats)
			})

			// Protected
			r.Group(func(r chi.Router) {
				r.Use(requireSession)
				r.Post("/", app.Snippets.Create)
				r.Put("/{id}", app.Snippets.Update)
				r.Delete("/{id}", app.Snippets.Delete)

				r.Get("/{id}/rating", app.Ratings.Mine)
				r.Put("/{id}/rating", app.Ratings.Rate)
				r.Delete("/{id}/rating", app.Ratings.Unrate)

				r.Post("/{id}/bookmark", app.Bookmarks.Add)
				r.Delete("/{id}/bookmark", app.Bookmarks.Remove)
			})
		})

		r.With(requireSession).Get("/recommendations", app.Recommendations.ForUser)

		r.Route("/bookmarks", func(r chi.Router) {
			r.Get("/top", app.Bookmarks.Top)
			r.With(requireSession).Get("/", app.Bookmarks.ListMine)
		})

		r.Get("/authors/top", app.Catalog.TopAuthors)
		r.Route("/languages", func(r chi.Router) {
			r.Get("/", app.Catalog.Languages)
			r.Get("/top", app.Catalog.TopLanguages)
			r.Get("/{name}", app.Catalog.Language)
		})

		r.Route("/users", func(r chi.Router) {
			// Public
			r.Post("/", app.Users.Create)

			// Protected
			r.Group(func(r chi.Router) {
				r.Use(requireSession)

				// Self endpoints
				r.Get("/me", app.Users.Me)
				r.Put("/me", app.Users.UpdateMe)
				r.Delete("/me", app.Users.DeleteMe)

				// Admin endpoints
				r.Get("/", app.Users.List)
				r.Put("/{id}", app.Users.Update)
				r.Delete("/{id}", app.Users.Delete)
			})
		})
	})
	return r
}
