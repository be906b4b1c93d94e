package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter wires handlers under /api/user. Session endpoints are public,
// everything else goes through the auth middleware.
func NewRouter(
	authHandler *AuthHandler,
	accountHandler *AccountHandler,
	authMiddleware func(http.Handler) http.Handler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	withAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	apiuser := http.NewServeMux()

	apiuser.HandleFunc("POST /register", authHandler.register)
	apiuser.HandleFunc("POST /login", authHandler.login)
	apiuser.HandleFunc("POST /refresh", authHandler.refresh)

	apiuser.Handle("POST /logout", withAuth(authHandler.logout))
	apiuser.Handle("GET /me", withAuth(accountHandler.me))
	apiuser.Handle("PATCH /me", withAuth(accountHandler.updateProfile))
	apiuser.Handle("POST /me/password", withAuth(accountHandler.changePassword))
	apiuser.Handle("PUT /me/avatar", withAuth(accountHandler.setAvatar))
	apiuser.Handle("PUT /me/cover", withAuth(accountHandler.setCover))

	root := http.NewServeMux()
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))

	return chain(root, middlewares...)
}
