package middleware

import (
	"net/http"
	"strings"
)

// CookieName is the session cookie set by the login handler.
const CookieName = "authenticated"

// AuthMiddleware requires the session cookie on every path except the login
// page and static assets. An empty password disables the check.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	if password == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" ||
			r.URL.Path == "/auth/login" ||
			strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value != "true" {
			// API and websocket clients get 401, browsers the login page
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
