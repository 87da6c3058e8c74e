package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/api/routes"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/cache"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/completion"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/export"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/session"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/storage/registry"
)

// pngHeader — начало PNG-файла, достаточное для http.DetectContentType.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// testEnv — обработчик API с реальными сервисами в памяти.
type testEnv struct {
	router    http.Handler
	files     *registry.Registry
	artifacts *cache.ArtifactCache
}

type envOptions struct {
	autosaveOnBack bool
	maxImageSize   int64
	// logger по умолчанию пишет в stderr только ошибки
	logger *slog.Logger
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	logger := opts.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if opts.maxImageSize == 0 {
		opts.maxImageSize = 1 << 20
	}

	files := registry.New(logger)
	pipeline := export.NewPipeline(model.DefaultRows, model.DefaultCols, logger)
	artifacts := cache.NewArtifactCache(16, time.Minute)
	assistant := completion.NewService(nil, logger)
	sessions := session.NewManager(session.Config{
		Rows:           model.DefaultRows,
		Cols:           model.DefaultCols,
		AutosaveOnBack: opts.autosaveOnBack,
		MaxSessions:    16,
		IdleTTL:        time.Minute,
	}, files, pipeline, assistant, logger)

	health := NewHealthHandler(NewRegistryChecker(files), nil)
	h := NewAPIHandler(health, files, pipeline, artifacts, sessions, assistant,
		[]byte("openapi: 3.0.3\n"), opts.maxImageSize, logger)

	r := chi.NewRouter()
	routes.HandlerFromMux(h, r)

	return &testEnv{router: r, files: files, artifacts: artifacts}
}

// do выполняет запрос с JSON-телом (body == nil — без тела).
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("Ошибка декодирования ответа %q: %v", rec.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, ожидался %d (тело: %s)", rec.Code, status, rec.Body.String())
	}
	if got := decode[errorBody](t, rec).Error.Code; got != code {
		t.Errorf("code = %q, ожидался %q", got, code)
	}
}

// openSession создаёт сессию нового файла и возвращает её id.
func (e *testEnv) openSession(t *testing.T, kind string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"kind": kind})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /sessions = %d, ожидался 201 (тело: %s)", rec.Code, rec.Body.String())
	}
	return decode[session.View](t, rec).ID
}

// --- Health ---

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodGet, "/health/live", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200", rec.Code)
	}
	resp := decode[healthLiveResponse](t, rec)
	if resp.Status != "ok" || resp.Service != serviceName {
		t.Errorf("ответ = %+v", resp)
	}
}

func TestHealthReady(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodGet, "/health/ready", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200", rec.Code)
	}
	resp := decode[healthReadyResponse](t, rec)
	if resp.Checks.Registry.Status != statusOK {
		t.Errorf("registry = %q, ожидался ok", resp.Checks.Registry.Status)
	}
}

type stubChecker struct{ status string }

func (c stubChecker) CheckReady() (string, string) { return c.status, "" }

func TestHealthReady_Statuses(t *testing.T) {
	tests := []struct {
		name       string
		registry   ReadinessChecker
		completion ReadinessChecker
		wantCode   int
		wantStatus string
	}{
		{"всё ok", stubChecker{statusOK}, stubChecker{statusOK}, http.StatusOK, statusOK},
		{"генерация degraded", stubChecker{statusOK}, stubChecker{statusDegraded}, http.StatusOK, statusDegraded},
		{"реестр не инициализирован", nil, nil, http.StatusServiceUnavailable, statusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.registry, tt.completion)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, ожидался %d", rec.Code, tt.wantCode)
			}
			if got := decode[healthReadyResponse](t, rec).Status; got != tt.wantStatus {
				t.Errorf("Status = %q, ожидался %q", got, tt.wantStatus)
			}
		})
	}
}

func TestGetOpenAPISpec(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodGet, "/api/v1/openapi.yaml", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, ожидался 200", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "openapi:") {
		t.Errorf("тело = %q", rec.Body.String())
	}
}

// --- Files ---

func TestFiles_CRUD(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodPost, "/api/v1/files", map[string]string{
		"name": "Notes", "kind": "doc", "content": "<b>hi</b>",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /files = %d (тело: %s)", rec.Code, rec.Body.String())
	}
	created := decode[model.FileRecord](t, rec)
	if created.Kind != model.KindDocument || created.ColorTag != "bg-blue-500" {
		t.Errorf("запись = %+v", created)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/files/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /files/{id} = %d", rec.Code)
	}
	if got := decode[model.FileRecord](t, rec).Content; got != "<b>hi</b>" {
		t.Errorf("Content = %q", got)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/files", nil)
	list := decode[fileListResponse](t, rec)
	if list.Total != 1 || len(list.Items) != 1 {
		t.Errorf("список = %+v, ожидался один файл", list)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/files/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d, ожидался 204", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/api/v1/files/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("повторный DELETE = %d, ожидался 204", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/files/"+created.ID, nil)
	expectError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestSaveFile_Errors(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	doc, err := env.files.Upsert("", "Doc", model.KindDocument, "")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"папка", map[string]string{"kind": "folder", "content": ""}, http.StatusUnprocessableEntity, "UNSUPPORTED_KIND"},
		{"неизвестный тип", map[string]string{"kind": "video", "content": ""}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"смена типа", map[string]string{"id": doc.ID, "kind": "spreadsheet", "content": "[]"}, http.StatusConflict, "KIND_MISMATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodPost, "/api/v1/files", tt.body), tt.status, tt.code)
		})
	}
}

func TestSaveFile_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestListFiles_FilterAndPaging(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	for i := 0; i < 3; i++ {
		if _, err := env.files.Upsert("", "", model.KindDocument, ""); err != nil {
			t.Fatal(err)
		}
	}
	last, err := env.files.Upsert("", "Budget", model.KindSpreadsheet, "")
	if err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/files?limit=2", nil)
	list := decode[fileListResponse](t, rec)
	if list.Total != 4 || len(list.Items) != 2 || !list.HasMore {
		t.Errorf("страница = total %d, items %d, has_more %v", list.Total, len(list.Items), list.HasMore)
	}
	if list.Items[0].ID != last.ID {
		t.Errorf("первым = %s, ожидался последний сохранённый %s", list.Items[0].ID, last.ID)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/files?kind=sheet", nil)
	list = decode[fileListResponse](t, rec)
	if list.Total != 1 || list.Items[0].Kind != model.KindSpreadsheet {
		t.Errorf("фильтр по типу = %+v", list)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/files?limit=abc", nil)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestGetFile_InvalidID(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec := env.do(t, http.MethodGet, "/api/v1/files/not-a-uuid", nil)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

// --- Export ---

func TestExportFile_DefaultFormatAndCache(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	grid := model.NewGrid(model.DefaultRows, model.DefaultCols)
	grid[0][0].Value = "Revenue"
	content, err := grid.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	rec, err := env.files.Upsert("", "Budget", model.KindSpreadsheet, content)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		resp := env.do(t, http.MethodGet, "/api/v1/files/"+rec.ID+"/export", nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("export = %d (тело: %s)", resp.Code, resp.Body.String())
		}
		if ct := resp.Header().Get("Content-Type"); ct != export.ContentTypeCSV {
			t.Errorf("Content-Type = %q, ожидался %q", ct, export.ContentTypeCSV)
		}
		if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename=Budget.csv`) {
			t.Errorf("Content-Disposition = %q", cd)
		}
		if !strings.Contains(resp.Body.String(), `"Revenue"`) {
			t.Errorf("CSV без значения ячейки: %q", resp.Body.String())
		}
	}

	if env.artifacts.Len() != 1 {
		t.Errorf("кэш = %d записей, ожидалась 1", env.artifacts.Len())
	}
}

// brokenWriter — ResponseWriter, у которого обрывается соединение на записи тела.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (w brokenWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

// TestExportFile_WriteErrorLogged проверяет, что обрыв записи артефакта
// попадает в лог и для свежего, и для закэшированного артефакта.
func TestExportFile_WriteErrorLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	env := newTestEnv(t, envOptions{logger: logger})

	doc, err := env.files.Upsert("", "Doc", model.KindDocument, "text")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		logs.Reset()
		w := brokenWriter{httptest.NewRecorder()}
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+doc.ID+"/export", nil))

		if w.Code != http.StatusOK {
			t.Errorf("попытка %d: статус = %d, ожидался 200", i, w.Code)
		}
		if !strings.Contains(logs.String(), "Ошибка отправки артефакта") || !strings.Contains(logs.String(), doc.ID) {
			t.Errorf("попытка %d: ошибка записи не залогирована: %q", i, logs.String())
		}
	}

	if env.artifacts.Len() != 1 {
		t.Errorf("artifacts.Len() = %d, ожидался 1", env.artifacts.Len())
	}
}

func TestExportFile_Errors(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	doc, err := env.files.Upsert("", "Doc", model.KindDocument, "text")
	if err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/files/"+doc.ID+"/export?format=csv", nil)
	expectError(t, rec, http.StatusBadRequest, "UNSUPPORTED_FORMAT")

	rec = env.do(t, http.MethodGet, "/api/v1/files/"+doc.ID+"/export?format=pdf", nil)
	expectError(t, rec, http.StatusBadRequest, "UNSUPPORTED_FORMAT")

	rec = env.do(t, http.MethodGet, "/api/v1/files/00000000-0000-0000-0000-000000000000/export", nil)
	expectError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestExportContent(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodPost, "/api/v1/export", map[string]string{
		"name": "Deck", "kind": "slide_deck", "content": `["<h1>One</h1>","<h1>Two</h1>"]`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (тело: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentTypeHTML {
		t.Errorf("Content-Type = %q", ct)
	}
	if n := strings.Count(rec.Body.String(), "page-break-after"); n != 2 {
		t.Errorf("слайдов в HTML = %d, ожидалось 2", n)
	}
	if env.files.Count() != 0 {
		t.Error("экспорт без сохранения изменил реестр")
	}
}

// --- Sessions ---

func TestSession_PersistFlow(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	id := env.openSession(t, "document")
	base := "/api/v1/sessions/" + id

	if rec := env.do(t, http.MethodPut, base+"/content", map[string]string{"content": "Hello"}); rec.Code != http.StatusOK {
		t.Fatalf("content = %d (тело: %s)", rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, base+"/save-intent", map[string]string{"target": "persist"})
	view := decode[session.View](t, rec)
	if view.State != "name_prompt" || view.PendingName != "Untitled Document" {
		t.Errorf("после save-intent = %+v", view)
	}

	rec = env.do(t, http.MethodPost, base+"/confirm", map[string]string{"name": "Letter"})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm = %d (тело: %s)", rec.Code, rec.Body.String())
	}
	resp := decode[confirmResponse](t, rec)
	if resp.State != "persisted" || resp.File == nil || resp.File.Name != "Letter" {
		t.Errorf("confirm = %+v", resp)
	}

	stored, err := env.files.Get(resp.File.ID)
	if err != nil {
		t.Fatalf("файл не сохранён: %v", err)
	}
	if stored.Content != "Hello" {
		t.Errorf("Content = %q, ожидался %q", stored.Content, "Hello")
	}

	rec = env.do(t, http.MethodGet, base, nil)
	expectError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestSession_ExportFlow(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	id := env.openSession(t, "spreadsheet")
	base := "/api/v1/sessions/" + id

	steps := []struct {
		method, path string
		body         any
	}{
		{http.MethodPut, base + "/cells", map[string]any{"row": 0, "col": 0, "value": "Total"}},
		{http.MethodPost, base + "/select", map[string]int{"row": 0, "col": 0}},
		{http.MethodPost, base + "/format", map[string]string{"command": "bold"}},
		{http.MethodPost, base + "/save-intent", map[string]string{"target": "export"}},
	}
	for _, s := range steps {
		if rec := env.do(t, s.method, s.path, s.body); rec.Code != http.StatusOK {
			t.Fatalf("%s %s = %d (тело: %s)", s.method, s.path, rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodPost, base+"/confirm", map[string]string{"name": "Report", "format": "xlsx"})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm = %d (тело: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentTypeXLSX {
		t.Errorf("Content-Type = %q", ct)
	}
	if st := rec.Header().Get(HeaderSessionState); st != "editing" {
		t.Errorf("%s = %q, ожидался editing", HeaderSessionState, st)
	}

	rec = env.do(t, http.MethodGet, base, nil)
	view := decode[session.View](t, rec)
	if view.State != "editing" || view.Name != "Report" {
		t.Errorf("после экспорта = state %q, name %q", view.State, view.Name)
	}
	if !view.Grid[0][0].Style.Bold {
		t.Error("оформление ячейки потеряно")
	}
	if env.files.Count() != 0 {
		t.Error("экспорт сохранил файл в реестр")
	}
}

func TestSession_Transitions(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	id := env.openSession(t, "doc")
	base := "/api/v1/sessions/" + id

	rec := env.do(t, http.MethodPost, base+"/confirm", map[string]string{})
	expectError(t, rec, http.StatusConflict, "INVALID_TRANSITION")

	rec = env.do(t, http.MethodPost, base+"/cancel", nil)
	expectError(t, rec, http.StatusConflict, "INVALID_TRANSITION")

	env.do(t, http.MethodPost, base+"/save-intent", map[string]string{"target": "persist"})
	rec = env.do(t, http.MethodPut, base+"/content", map[string]string{"content": "x"})
	expectError(t, rec, http.StatusConflict, "NOT_EDITING")

	rec = env.do(t, http.MethodPost, base+"/cancel", nil)
	if got := decode[session.View](t, rec).State; got != "editing" {
		t.Errorf("после cancel = %q", got)
	}

	rec = env.do(t, http.MethodPost, base+"/save-intent", map[string]string{"target": "archive"})
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestSession_CreateErrors(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"папка", map[string]string{"kind": "folder"}, http.StatusUnprocessableEntity, "UNSUPPORTED_KIND"},
		{"пустой запрос", map[string]string{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"оба поля", map[string]string{"kind": "doc", "file_id": "x"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"нет файла", map[string]string{"file_id": "00000000-0000-0000-0000-000000000000"}, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodPost, "/api/v1/sessions", tt.body), tt.status, tt.code)
		})
	}
}

func TestSession_OpenStored(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rec, err := env.files.Upsert("", "Pitch", model.KindSlideDeck, `["<h1>A</h1>","<h1>B</h1>"]`)
	if err != nil {
		t.Fatal(err)
	}

	resp := env.do(t, http.MethodPost, "/api/v1/sessions", map[string]string{"file_id": rec.ID})
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d (тело: %s)", resp.Code, resp.Body.String())
	}
	view := decode[session.View](t, resp)
	if view.FileID != rec.ID || len(view.Slides) != 2 || view.Name != "Pitch" {
		t.Errorf("сессия = %+v", view)
	}
}

func TestSession_WrongKind(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	id := env.openSession(t, "spreadsheet")

	rec := env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/content", map[string]string{"content": "x"})
	expectError(t, rec, http.StatusConflict, "WRONG_KIND")

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/format", map[string]string{"command": "bold"})
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestSession_Slides(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	id := env.openSession(t, "slides")
	base := "/api/v1/sessions/" + id

	env.do(t, http.MethodPost, base+"/slides", nil)
	rec := env.do(t, http.MethodPost, base+"/slides", nil)
	view := decode[session.View](t, rec)
	if len(view.Slides) != 3 {
		t.Fatalf("слайдов = %d, ожидалось 3", len(view.Slides))
	}

	rec = env.do(t, http.MethodPost, base+"/slides/2/select", nil)
	if got := *decode[session.View](t, rec).CurrentSlide; got != 2 {
		t.Errorf("current = %d, ожидался 2", got)
	}

	rec = env.do(t, http.MethodDelete, base+"/slides/0", nil)
	view = decode[session.View](t, rec)
	if len(view.Slides) != 2 || *view.CurrentSlide != 1 {
		t.Errorf("после удаления = %d слайдов, current %d", len(view.Slides), *view.CurrentSlide)
	}

	rec = env.do(t, http.MethodDelete, base+"/slides/7", nil)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

	rec = env.do(t, http.MethodPost, base+"/slides/x/select", nil)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "pic.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestSession_InsertImage(t *testing.T) {
	env := newTestEnv(t, envOptions{maxImageSize: 64})
	id := env.openSession(t, "document")

	body, ct := multipartImage(t, pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/images", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (тело: %s)", rec.Code, rec.Body.String())
	}
	if content := decode[session.View](t, rec).Content; !strings.Contains(content, `<img src="data:image/png;base64,`) {
		t.Errorf("изображение не вставлено: %q", content)
	}

	big := append(append([]byte{}, pngHeader...), make([]byte, 128)...)
	body, ct = multipartImage(t, big)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/images", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	expectError(t, rec, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE")

	body, ct = multipartImage(t, []byte("plain text, not an image"))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/images", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestSession_SeedAndAssist(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	sheet := env.openSession(t, "spreadsheet")
	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+sheet+"/seed", map[string]string{"topic": "sales"})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed = %d (тело: %s)", rec.Code, rec.Body.String())
	}
	seeded := decode[seedResponse](t, rec)
	if seeded.RowsWritten != 4 || seeded.Session.Grid[0][0].Value != "Q1" || seeded.Session.Grid[0][1].Value != "4000" {
		t.Errorf("seed = rows %d, A1 %q, B1 %q", seeded.RowsWritten,
			seeded.Session.Grid[0][0].Value, seeded.Session.Grid[0][1].Value)
	}

	doc := env.openSession(t, "document")
	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+doc+"/assist", map[string]string{"instruction": "shorter"})
	if got := decode[textResponse](t, rec).Text; got != completion.SimulatedResponse {
		t.Errorf("assist = %q", got)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/sessions/"+doc+"/seed", map[string]string{"topic": "sales"})
	expectError(t, rec, http.StatusConflict, "WRONG_KIND")
}

func TestSession_Back(t *testing.T) {
	tests := []struct {
		name     string
		autosave bool
		content  string
		wantSave bool
	}{
		{"политика выключена", false, "draft", false},
		{"новый непустой документ", true, "draft", true},
		{"пустой документ", true, "<br>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, envOptions{autosaveOnBack: tt.autosave})
			id := env.openSession(t, "document")
			env.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/content", map[string]string{"content": tt.content})

			rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/back", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("back = %d (тело: %s)", rec.Code, rec.Body.String())
			}
			resp := decode[backResponse](t, rec)
			if (resp.Autosaved != nil) != tt.wantSave {
				t.Errorf("autosaved = %v, ожидалось %v", resp.Autosaved, tt.wantSave)
			}
			if got := env.files.Count() == 1; got != tt.wantSave {
				t.Errorf("в реестре %d файлов", env.files.Count())
			}

			rec = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
			expectError(t, rec, http.StatusNotFound, "NOT_FOUND")
		})
	}
}

func TestSession_Close(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	id := env.openSession(t, "document")

	if rec := env.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE = %d, ожидался 204", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
	expectError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

// --- Assist ---

func TestAssistEndpoints(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodPost, "/api/v1/assist/enhance", map[string]string{"text": "hi", "instruction": "expand"})
	if got := decode[textResponse](t, rec).Text; got != completion.SimulatedResponse {
		t.Errorf("enhance = %q", got)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/assist/data", map[string]string{"topic": "revenue"})
	if got := decode[dataResponse](t, rec).Data; len(got) != 4 || got[3].Value != 2780 {
		t.Errorf("data = %+v", got)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/assist/enhance", map[string]string{"text": "hi"})
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestPaginationDefaults(t *testing.T) {
	ptr := func(v int) *int { return &v }
	tests := []struct {
		name          string
		limit, offset *int
		wantL, wantO  int
	}{
		{"по умолчанию", nil, nil, 100, 0},
		{"ниже минимума", ptr(0), ptr(-5), 1, 0},
		{"выше максимума", ptr(5000), ptr(10), 1000, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, o := paginationDefaults(tt.limit, tt.offset)
			if l != tt.wantL || o != tt.wantO {
				t.Errorf("paginationDefaults = (%d, %d), ожидалось (%d, %d)", l, o, tt.wantL, tt.wantO)
			}
		})
	}
}
