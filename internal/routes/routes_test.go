package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"platereader/internal/config"
	"platereader/internal/logger"
	"platereader/internal/repository/sqlite"
	"platereader/internal/services"
	"platereader/internal/services/pipeline"
	"platereader/internal/services/websocket"
)

func setupRouter(t *testing.T, password string) http.Handler {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.NewQuietLogger(t.TempDir())
	t.Cleanup(func() { log.Close() })

	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>plates</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Password: password, RunQueueSize: 1}
	hub := websocket.NewHubService(8, log)
	p := pipeline.New(pipeline.NewRunner(log))
	mng := services.NewManager(p, sqlite.NewRunRepository(db), hub, cfg, log)
	t.Cleanup(mng.Stop)

	return SetupRoutes(Dependencies{
		Config:    cfg,
		Logger:    log,
		Manager:   mng,
		Plates:    sqlite.NewPlateRepository(db),
		Runs:      sqlite.NewRunRepository(db),
		Stages:    p.Stages(),
		StaticDir: static,
	})
}

func TestSetupRoutes(t *testing.T) {
	router := setupRouter(t, "")

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodGet, "/api/results", http.StatusOK},
		{http.MethodGet, "/api/results/stats", http.StatusOK},
		{http.MethodGet, "/api/runs", http.StatusOK},
		{http.MethodPost, "/api/runs", http.StatusAccepted},
		{http.MethodPost, "/api/runs?stage=car", http.StatusBadRequest},
		{http.MethodGet, "/logs/info", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSetupRoutes_Protected(t *testing.T) {
	router := setupRouter(t, "secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/results", nil)
	req.AddCookie(&http.Cookie{Name: "authenticated", Value: "true"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with cookie: got %d, want 200", rec.Code)
	}
}
