package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"platereader/internal/config"
	"platereader/internal/dto"
	"platereader/internal/logger"
	"platereader/internal/models"
	"platereader/internal/repository/sqlite"
	"platereader/internal/services"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l := logger.NewQuietLogger(t.TempDir())
	t.Cleanup(func() { l.Close() })
	return l
}

type fakeSubmitter struct {
	err    error
	stages [][]string
}

func (f *fakeSubmitter) Submit(stages []string) (*models.Run, error) {
	f.stages = append(f.stages, stages)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Run{ID: 7, Stages: strings.Join(stages, ","), Status: models.RunQueued}, nil
}

func (f *fakeSubmitter) Current() *models.Run { return nil }

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"", 5, 5},
		{"abc", 10, 10},
		{"-1", 5, 5},
		{"0", 5, 5},
		{"12.5", 5, 5},
	}

	for _, tt := range tests {
		if got := atoiDefault(tt.input, tt.def); got != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, got, tt.expected)
		}
	}
}

func TestGetResultsHandler(t *testing.T) {
	plates := sqlite.NewPlateRepository(setupTestDB(t))
	for i, text := range []string{"ABC-1234", "", "XY-9999", "ABD-5678", "AB-1111"} {
		r := &models.PlateResult{Image: string(rune('a'+i)) + ".png", PlateText: text}
		if _, err := plates.Insert(r); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	h := GetResultsHandler(plates, testLogger(t))

	tests := []struct {
		name      string
		query     string
		wantLen   int
		wantTotal int
		wantPages int
	}{
		{"all", "", 5, 5, 1},
		{"paginated", "?limit=2&page=2", 2, 5, 3},
		{"last page", "?limit=2&page=3", 1, 5, 3},
		{"by text", "?text=AB", 3, 3, 1},
		{"by image", "?image=c.png", 1, 1, 1},
		{"bad page", "?page=abc&limit=-3", 5, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d", rec.Code)
			}
			var page dto.ResultsPage
			if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(page.Results) != tt.wantLen || page.Length != tt.wantTotal || page.TotalPages != tt.wantPages {
				t.Errorf("got %d results, total %d, pages %d", len(page.Results), page.Length, page.TotalPages)
			}
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/results", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status: got %d", rec.Code)
	}
}

func TestGetResultsHandler_EmptyIsArray(t *testing.T) {
	h := GetResultsHandler(sqlite.NewPlateRepository(setupTestDB(t)), testLogger(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestGetResultHandler(t *testing.T) {
	plates := sqlite.NewPlateRepository(setupTestDB(t))
	id, err := plates.Insert(&models.PlateResult{
		Image:      "001.png",
		PlateText:  "A-1",
		Characters: []models.Detection{{Label: "A"}, {Label: "-"}, {Label: "1"}},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	h := GetResultHandler(plates, testLogger(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/view?id=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var got models.PlateResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != id || len(got.Characters) != 3 {
		t.Errorf("unexpected result: %+v", got)
	}

	for query, want := range map[string]int{"": http.StatusBadRequest, "?id=x": http.StatusBadRequest, "?id=99": http.StatusNotFound} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/view"+query, nil))
		if rec.Code != want {
			t.Errorf("%q: got %d, want %d", query, rec.Code, want)
		}
	}
}

func TestStatsAndClearHandlers(t *testing.T) {
	plates := sqlite.NewPlateRepository(setupTestDB(t))
	for _, text := range []string{"AB-1234", ""} {
		if _, err := plates.Insert(&models.PlateResult{Image: "x.png", PlateText: text}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	log := testLogger(t)

	rec := httptest.NewRecorder()
	GetStatsHandler(plates, log).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/stats", nil))
	var stats models.PlateStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalResults != 2 || stats.Recognized != 1 || stats.Empty != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	clear := ClearResultsHandler(plates, log)
	rec = httptest.NewRecorder()
	clear.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/clear", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET clear: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	clear.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/results/clear", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("POST clear: got %d", rec.Code)
	}
	if n, _ := plates.GetTotalCount(nil); n != 0 {
		t.Errorf("expected no results after clear, got %d", n)
	}
}

func TestRunsHandler(t *testing.T) {
	db := setupTestDB(t)
	runs := sqlite.NewRunRepository(db)
	if _, err := runs.Insert(&models.Run{Stages: "car"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	sub := &fakeSubmitter{}
	h := RunsHandler(sub, runs, []string{"car", "plate", "characters"}, testLogger(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	var data dto.RunsData
	if err := json.NewDecoder(rec.Body).Decode(&data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Runs) != 1 || len(data.Stages) != 3 || data.Current != nil {
		t.Errorf("unexpected runs data: %+v", data)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs?stage=plate,characters", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST status: got %d", rec.Code)
	}
	if len(sub.stages) != 1 || len(sub.stages[0]) != 2 || sub.stages[0][0] != "plate" {
		t.Errorf("submitted stages: %v", sub.stages)
	}

	sub.err = services.ErrQueueFull
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("queue full status: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/runs", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status: got %d", rec.Code)
	}
}

func TestGetRunHandler(t *testing.T) {
	runs := sqlite.NewRunRepository(setupTestDB(t))
	run := &models.Run{Stages: "characters"}
	if _, err := runs.Insert(run); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	h := GetRunHandler(runs, testLogger(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/view?id=1", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"stages":"characters"`) {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/view?id=5", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing run: got %d", rec.Code)
	}
}

func TestLogsHandlers(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewQuietLogger(dir)
	defer log.Close()

	log.Warning("plate box too narrow")

	rec := httptest.NewRecorder()
	ShowLogsHandler(log, logger.WarningFile).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/warning", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "plate box too narrow") {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ClearLogsHandler(log, logger.WarningFile).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("clear status: got %d", rec.Code)
	}
	data, err := os.ReadFile(filepath.Join(dir, logger.WarningFile))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty warning log, got %q", data)
	}

	rec = httptest.NewRecorder()
	ShowLogsHandler(log, "missing.log").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing log: got %d", rec.Code)
	}
}

func TestLoginLogout(t *testing.T) {
	cfg := &config.Config{Password: "secret"}
	h := LoginHandler(cfg, testLogger(t))

	post := func(password string) *httptest.ResponseRecorder {
		form := url.Values{"password": {password}}
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := post("wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d", rec.Code)
	}

	rec := post("secret")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status: got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "true" {
		t.Errorf("unexpected cookies: %v", cookies)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET login: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	LogoutHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("logout: got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Errorf("expected expired cookie, got %v", c)
	}
}
