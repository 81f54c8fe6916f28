//go:generate swag init -g docs.go -o ../../docs --parseDependency --parseInternal --dir .,../../internal/httpapi

package main

// @title sniply API
// @version 1.0
// @description Code snippet sharing with ratings, bookmarks and recommendations.
// @BasePath /v1
// @securityDefinitions.apikey SessionAuth
// @in cookie
// @name sniply_session
// @description HttpOnly session cookie. Unsafe methods also need the X-CSRF-Token header returned by /auth/login.
