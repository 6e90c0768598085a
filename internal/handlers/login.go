package handlers

import (
	"crypto/subtle"
	"net/http"

	"platereader/internal/config"
	"platereader/internal/logger"
	"platereader/internal/middleware"
)

// LoginHandler checks the submitted password and sets the session cookie.
func LoginHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		password := r.FormValue("password")
		if subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) != 1 {
			logger.Warning("Failed login attempt from %s", r.RemoteAddr)
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.CookieName,
			Value:    "true",
			Path:     "/",
			HttpOnly: true,
		})
		logger.Info("Login from %s", r.RemoteAddr)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
