package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-task-backend/internal/domain"
	"github.com/tbourn/go-task-backend/internal/http/middleware"
	"github.com/tbourn/go-task-backend/internal/repo"
	"github.com/tbourn/go-task-backend/internal/services"
)

// ---------- test DB + router ----------

func newTaskDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:task_handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newTaskRouter mounts the task routes twice, versioned and legacy, the way
// the application router does.
func newTaskRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTaskDB(t)
	svc := services.NewTaskService(db, repo.TaskStore{})
	h := New(svc)

	r := gin.New()
	r.Use(middleware.ErrorResponder(middleware.ErrorOptions{VersionPrefix: "/api/v1"}))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
		func(ctx context.Context, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, services.IdempotencyScope, key, now)
			return err == nil && rec != nil, nil
		}))

	h.Register(r.Group("/api/v1"))
	h.Register(r.Group("/", middleware.Deprecate(middleware.DeprecationOptions{})))

	r.NoRoute(middleware.Deprecate(middleware.DeprecationOptions{}), NotFound("/api/v1"))
	return r, db
}

func seedTask(t *testing.T, db *gorm.DB, title string) domain.Task {
	t.Helper()
	due := time.Now().Add(72 * time.Hour).UTC()
	task := domain.Task{Title: title, Due: &due}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	return task
}

func do(r http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type versionedErr struct {
	Error struct {
		Status  int    `json:"status"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type legacyErr struct {
	Error string `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func futureDue() string { return time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339) }

// ---------- list / get ----------

func TestListTasks_BothMounts(t *testing.T) {
	r, db := newTaskRouter(t)
	seedTask(t, db, "a")
	seedTask(t, db, "b")

	for _, path := range []string{"/api/v1/tasks", "/tasks"} {
		w := do(r, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status=%d body=%s", path, w.Code, w.Body.String())
		}
		got := decode[[]domain.Task](t, w)
		if len(got) != 2 || got[0].Title != "a" || got[1].Title != "b" {
			t.Fatalf("%s: unexpected list %+v", path, got)
		}
	}
}

func TestListTasks_EmptyIsArray(t *testing.T) {
	r, _ := newTaskRouter(t)
	w := do(r, http.MethodGet, "/api/v1/tasks", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestListTasks_ETag_NotModified(t *testing.T) {
	r, db := newTaskRouter(t)
	seedTask(t, db, "a")

	w1 := do(r, http.MethodGet, "/api/v1/tasks", nil)
	etag := w1.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"tasks:1:`) {
		t.Fatalf("etag=%q", etag)
	}

	w2 := do(r, http.MethodGet, "/api/v1/tasks", nil, "If-None-Match", etag)
	if w2.Code != http.StatusNotModified || w2.Body.Len() != 0 {
		t.Fatalf("status=%d body=%q", w2.Code, w2.Body.String())
	}

	seedTask(t, db, "b")
	w3 := do(r, http.MethodGet, "/api/v1/tasks", nil, "If-None-Match", etag)
	if w3.Code != http.StatusOK {
		t.Fatalf("stale etag should yield 200, got %d", w3.Code)
	}
}

func TestListTasks_ETag_ChangesAfterPatch(t *testing.T) {
	r, db := newTaskRouter(t)
	task := seedTask(t, db, "before")

	etag := do(r, http.MethodGet, "/api/v1/tasks", nil).Header().Get("ETag")

	w := do(r, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d", task.ID), map[string]any{"title": "after"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: status=%d body=%s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/v1/tasks", nil, "If-None-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("old etag after patch: status=%d, want 200", w.Code)
	}
	if w.Header().Get("ETag") == etag {
		t.Fatalf("etag unchanged after patch: %q", etag)
	}
	got := decode[[]domain.Task](t, w)
	if len(got) != 1 || got[0].Title != "after" {
		t.Fatalf("list after patch = %+v", got)
	}
}

func TestGetTask_FoundAndMissing(t *testing.T) {
	r, db := newTaskRouter(t)
	task := seedTask(t, db, "find me")

	w := do(r, http.MethodGet, fmt.Sprintf("/api/v1/tasks/%d", task.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := decode[domain.Task](t, w); got.ID != task.ID || got.Title != "find me" {
		t.Fatalf("got %+v", got)
	}

	w = do(r, http.MethodGet, "/api/v1/tasks/999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	e := decode[versionedErr](t, w)
	if e.Error.Status != 404 || e.Error.Code != "NOT_FOUND" || e.Error.Message != MsgTaskNotFound {
		t.Fatalf("body=%+v", e)
	}

	w = do(r, http.MethodGet, "/tasks/999", nil)
	if le := decode[legacyErr](t, w); w.Code != http.StatusNotFound || le.Error != MsgTaskNotFound {
		t.Fatalf("legacy status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGetTask_NonNumericID_NotFound(t *testing.T) {
	r, _ := newTaskRouter(t)
	for _, id := range []string{"abc", "-1", "0", "1.5"} {
		w := do(r, http.MethodGet, "/api/v1/tasks/"+id, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("id %q: status=%d", id, w.Code)
		}
	}
}

// ---------- create ----------

func TestCreateTask_Created(t *testing.T) {
	r, _ := newTaskRouter(t)
	w := do(r, http.MethodPost, "/api/v1/tasks", map[string]any{
		"title": "Valid Task",
		"due":   futureDue(),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := decode[domain.Task](t, w)
	if got.ID == 0 || got.Title != "Valid Task" || got.Complete || got.Created.IsZero() {
		t.Fatalf("got %+v", got)
	}
}

func TestCreateTask_EmptyBody_400(t *testing.T) {
	r, _ := newTaskRouter(t)
	for _, body := range []any{nil, "{}", "  "} {
		w := do(r, http.MethodPost, "/api/v1/tasks", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %v: status=%d", body, w.Code)
		}
		e := decode[versionedErr](t, w)
		if e.Error.Code != "BAD_REQUEST" || e.Error.Message != MsgTaskDataRequired {
			t.Fatalf("body=%+v", e)
		}
	}
}

func TestCreateTask_TitleLengthBoundary(t *testing.T) {
	r, _ := newTaskRouter(t)

	w := do(r, http.MethodPost, "/api/v1/tasks", map[string]any{"title": strings.Repeat("a", 100), "due": futureDue()})
	if w.Code != http.StatusCreated {
		t.Fatalf("100 chars: status=%d body=%s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/v1/tasks", map[string]any{"title": strings.Repeat("a", 101), "due": futureDue()})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("101 chars: status=%d", w.Code)
	}
	e := decode[versionedErr](t, w)
	if e.Error.Code != "UNPROCESSABLE_ENTITY" || !strings.Contains(e.Error.Message, "Title must be less than 100 characters") {
		t.Fatalf("body=%+v", e)
	}
}

func TestCreateTask_PastDue_Legacy422(t *testing.T) {
	r, _ := newTaskRouter(t)
	w := do(r, http.MethodPost, "/tasks", map[string]any{"title": "T", "due": "01/01/2020"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", w.Code)
	}
	le := decode[legacyErr](t, w)
	if !strings.Contains(le.Error, "Due date cannot be before") {
		t.Fatalf("body=%s", w.Body.String())
	}
	if w.Header().Get(middleware.HeaderDeprecated) != "true" {
		t.Fatalf("legacy error response should still be tagged deprecated")
	}
}

func TestCreateTask_IdempotentReplay(t *testing.T) {
	r, db := newTaskRouter(t)
	body := map[string]any{"title": "once", "due": futureDue()}

	w1 := do(r, http.MethodPost, "/api/v1/tasks", body, middleware.HeaderIdempotencyKey, "key-1")
	if w1.Code != http.StatusCreated || w1.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("first: status=%d hdr=%v", w1.Code, w1.Header())
	}
	first := decode[domain.Task](t, w1)

	w2 := do(r, http.MethodPost, "/api/v1/tasks", body, middleware.HeaderIdempotencyKey, "key-1")
	if w2.Code != http.StatusCreated || w2.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay: status=%d hdr=%v", w2.Code, w2.Header())
	}
	if second := decode[domain.Task](t, w2); second.ID != first.ID {
		t.Fatalf("replayed id %d != %d", second.ID, first.ID)
	}

	var n int64
	db.Model(&domain.Task{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected a single row, got %d", n)
	}
}

func TestCreateTask_ReplayIgnoresNowInvalidBody(t *testing.T) {
	r, _ := newTaskRouter(t)
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	w1 := do(r, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "once", "due": futureDue()},
		middleware.HeaderIdempotencyKey, "key-late")
	if w1.Code != http.StatusCreated {
		t.Fatalf("first: status=%d body=%s", w1.Code, w1.Body.String())
	}
	first := decode[domain.Task](t, w1)

	// the retry carries a due date that has since passed
	w2 := do(r, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "once", "due": past},
		middleware.HeaderIdempotencyKey, "key-late")
	if w2.Code != http.StatusCreated || w2.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("retry: status=%d body=%s", w2.Code, w2.Body.String())
	}
	if got := decode[domain.Task](t, w2); got.ID != first.ID {
		t.Fatalf("replayed id %d != %d", got.ID, first.ID)
	}

	// unknown key: the same body is rejected as usual
	w3 := do(r, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "once", "due": past},
		middleware.HeaderIdempotencyKey, "key-fresh")
	if w3.Code != http.StatusUnprocessableEntity {
		t.Fatalf("fresh key: status=%d body=%s", w3.Code, w3.Body.String())
	}
}

func TestCreateTask_ReplayOfDeletedTask_ValidatesBody(t *testing.T) {
	r, _ := newTaskRouter(t)

	w := do(r, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "gone", "due": futureDue()},
		middleware.HeaderIdempotencyKey, "key-gone")
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status=%d", w.Code)
	}
	created := decode[domain.Task](t, w)
	if w = do(r, http.MethodDelete, fmt.Sprintf("/api/v1/tasks/%d", created.ID), nil); w.Code != http.StatusOK {
		t.Fatalf("delete: status=%d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/v1/tasks", map[string]any{"title": ""},
		middleware.HeaderIdempotencyKey, "key-gone")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("deleted task must not be replayed")
	}
}

func TestCreateTask_InvalidIdempotencyKey(t *testing.T) {
	r, _ := newTaskRouter(t)
	w := do(r, http.MethodPost, "/api/v1/tasks", map[string]any{"title": "x", "due": futureDue()},
		middleware.HeaderIdempotencyKey, "bad key with spaces")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

// ---------- update ----------

func TestUpdateTask_PartialAndRefetched(t *testing.T) {
	r, db := newTaskRouter(t)
	task := seedTask(t, db, "before")

	w := do(r, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d", task.ID), map[string]any{"complete": true})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := decode[domain.Task](t, w)
	if !got.Complete || got.Title != "before" {
		t.Fatalf("got %+v", got)
	}
}

func TestUpdateTask_Errors(t *testing.T) {
	r, db := newTaskRouter(t)
	task := seedTask(t, db, "x")

	w := do(r, http.MethodPatch, "/api/v1/tasks/999", map[string]any{"title": "y"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing: status=%d", w.Code)
	}

	w = do(r, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d", task.ID), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty: status=%d", w.Code)
	}

	w = do(r, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d", task.ID), map[string]any{"title": ""})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid: status=%d", w.Code)
	}
}

// ---------- delete ----------

func TestDeleteTask(t *testing.T) {
	r, db := newTaskRouter(t)
	task := seedTask(t, db, "gone")

	w := do(r, http.MethodDelete, fmt.Sprintf("/api/v1/tasks/%d", task.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if m := decode[MessageResponse](t, w); m.Message != MsgTaskDeleted {
		t.Fatalf("message=%q", m.Message)
	}

	w = do(r, http.MethodDelete, fmt.Sprintf("/api/v1/tasks/%d", task.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", w.Code)
	}
	w = do(r, http.MethodDelete, "/tasks/99", nil)
	if le := decode[legacyErr](t, w); w.Code != http.StatusNotFound || le.Error != MsgTaskNotFound {
		t.Fatalf("legacy status=%d body=%s", w.Code, w.Body.String())
	}
}

// ---------- deprecation headers ----------

func TestDeprecationHeaders_LegacyOnly(t *testing.T) {
	r, _ := newTaskRouter(t)

	w := do(r, http.MethodGet, "/tasks", nil)
	h := w.Header()
	if h.Get(middleware.HeaderDeprecated) != "true" ||
		h.Get(middleware.HeaderSunsetDate) != middleware.DefaultSunsetDate ||
		h.Get(middleware.HeaderAlternativeEndpoint) != "/api/v1/tasks" ||
		!strings.HasPrefix(h.Get(middleware.HeaderWarning), "299 - ") {
		t.Fatalf("legacy headers missing: %v", h)
	}

	w = do(r, http.MethodGet, "/api/v1/tasks", nil)
	for _, k := range []string{middleware.HeaderWarning, middleware.HeaderDeprecated, middleware.HeaderSunsetDate, middleware.HeaderAlternativeEndpoint} {
		if w.Header().Get(k) != "" {
			t.Fatalf("versioned response carries %s", k)
		}
	}
}
