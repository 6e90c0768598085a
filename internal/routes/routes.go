package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"platereader/internal/config"
	"platereader/internal/handlers"
	"platereader/internal/logger"
	"platereader/internal/middleware"
	"platereader/internal/repository"
	"platereader/internal/services"
)

// Dependencies groups what the handlers need.
type Dependencies struct {
	Config  *config.Config
	Logger  *logger.Logger
	Manager *services.Manager
	Plates  repository.PlateRepository
	Runs    repository.RunRepository
	Stages  []string
	// StaticDir holds the dashboard pages; defaults to "static".
	StaticDir string
}

// dynamicHTMLHandler serves /path as {dir}/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(dir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(deps Dependencies) http.Handler {
	mux := http.NewServeMux()
	cfg, logger := deps.Config, deps.Logger

	staticDir := deps.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	// API endpoints
	mux.HandleFunc("/api/runs", handlers.RunsHandler(deps.Manager, deps.Runs, deps.Stages, logger))
	mux.HandleFunc("/api/runs/view", handlers.GetRunHandler(deps.Runs, logger))
	mux.HandleFunc("/api/results", handlers.GetResultsHandler(deps.Plates, logger))
	mux.HandleFunc("/api/results/view", handlers.GetResultHandler(deps.Plates, logger))
	mux.HandleFunc("/api/results/stats", handlers.GetStatsHandler(deps.Plates, logger))
	mux.HandleFunc("/api/results/clear", handlers.ClearResultsHandler(deps.Plates, logger))
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(deps.Manager.GetWebsocketService(), logger))

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.HandleFunc("/logs/"+name, handlers.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handlers.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handlers.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handlers.LogoutHandler)

	// Automatic HTML handler mapping for example: /runs -> /static/runs.html
	mux.HandleFunc("/", dynamicHTMLHandler(staticDir))

	return middleware.AuthMiddleware(cfg.Password, mux)
}
