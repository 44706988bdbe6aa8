// Package services – TaskService
//
// This file implements the TaskService, which sits between the HTTP handlers
// and the repository. Payloads arrive already validated and normalized by the
// validation package; the service turns them into persistence calls, maps
// "no row" outcomes to ErrTaskNotFound, and owns the bookkeeping used by
// conditional list responses and idempotent creates.
//
// Persistence failures are returned unchanged so the HTTP layer can surface
// them as internal errors.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/go-task-backend/internal/domain"
	"github.com/tbourn/go-task-backend/internal/observability"
	"github.com/tbourn/go-task-backend/internal/validation"
)

// IdempotencyScope namespaces idempotency records written by task creation.
const IdempotencyScope = "tasks"

// TaskRepo defines the repository contract required by TaskService.
type TaskRepo interface {
	// ListTasks returns every task ordered by id.
	ListTasks(ctx context.Context, db *gorm.DB) ([]domain.Task, error)

	// GetTask fetches a task by id, or gorm.ErrRecordNotFound.
	GetTask(ctx context.Context, db *gorm.DB, id uint) (*domain.Task, error)

	// CreateTask inserts a task; the store assigns ID and Created.
	CreateTask(ctx context.Context, db *gorm.DB, t *domain.Task) error

	// UpdateTask applies column assignments and reports affected rows.
	UpdateTask(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) (int64, error)

	// DeleteTask removes a task and reports affected rows.
	DeleteTask(ctx context.Context, db *gorm.DB, id uint) (int64, error)

	// TasksDigest returns the row count and a fingerprint of all rows.
	TasksDigest(ctx context.Context, db *gorm.DB) (int64, uint64, error)

	// GetIdempotency returns a live idempotency record for (scope, key).
	GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error)

	// CreateIdempotency stores the outcome of a create under (scope, key).
	CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key string, taskID uint, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// TaskService provides the task operations exposed over HTTP.
type TaskService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the task repository used by this service.
	Repo TaskRepo

	// IdempotencyTTL bounds how long a create can be replayed.
	IdempotencyTTL time.Duration
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewTaskService constructs a TaskService with a 24h idempotency window.
func NewTaskService(db *gorm.DB, r TaskRepo) *TaskService {
	return &TaskService{
		DB:             db,
		Repo:           r,
		IdempotencyTTL: 24 * time.Hour,
		Now:            time.Now,
	}
}

func (s *TaskService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns all tasks.
func (s *TaskService) List(ctx context.Context) ([]domain.Task, error) {
	return s.Repo.ListTasks(ctx, s.DB)
}

// Get returns the task with the given id or ErrTaskNotFound.
func (s *TaskService) Get(ctx context.Context, id uint) (*domain.Task, error) {
	t, err := s.Repo.GetTask(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// Create inserts a task built from validated fields.
func (s *TaskService) Create(ctx context.Context, f validation.TaskFields) (_ *domain.Task, err error) {
	if f.Empty() || f.Title == nil {
		return nil, ErrEmptyTask
	}
	ctx, span := observability.StartSpan(ctx, "TaskService.Create")
	defer func() { observability.EndSpan(span, err) }()

	t := &domain.Task{
		Title:       *f.Title,
		Description: f.Description,
		Due:         f.Due,
	}
	if f.Complete != nil {
		t.Complete = *f.Complete
	}
	if err = s.Repo.CreateTask(ctx, s.DB, t); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("task.id", int64(t.ID)))
	return t, nil
}

// Update applies the supplied fields and returns the task as stored after
// the write. Zero affected rows is reported as ErrTaskNotFound.
func (s *TaskService) Update(ctx context.Context, id uint, f validation.TaskFields) (_ *domain.Task, err error) {
	cols := updateColumns(f)
	if len(cols) == 0 {
		return nil, ErrEmptyTask
	}
	ctx, span := observability.StartSpan(ctx, "TaskService.Update", attribute.Int64("task.id", int64(id)))
	defer func() { observability.EndSpan(span, err) }()

	n, err := s.Repo.UpdateTask(ctx, s.DB, id, cols)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrTaskNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes the task with the given id or returns ErrTaskNotFound.
func (s *TaskService) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "TaskService.Delete", attribute.Int64("task.id", int64(id)))
	defer func() { observability.EndSpan(span, err) }()

	n, err := s.Repo.DeleteTask(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ETag returns a weak validator for the current task collection:
// W/"tasks:<count>:<row digest, hex>". Any change to any task changes it.
func (s *TaskService) ETag(ctx context.Context) (string, error) {
	count, sum, err := s.Repo.TasksDigest(ctx, s.DB)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`W/"tasks:%d:%016x"`, count, sum), nil
}

// Replay returns the task recorded for an idempotency key, if the record is
// still live and the task still exists.
func (s *TaskService) Replay(ctx context.Context, key string) (*domain.Task, bool) {
	if strings.TrimSpace(key) == "" {
		return nil, false
	}
	rec, err := s.Repo.GetIdempotency(ctx, s.DB, IdempotencyScope, key, s.now().UTC())
	if err != nil || rec == nil {
		return nil, false
	}
	t, err := s.Repo.GetTask(ctx, s.DB, rec.TaskID)
	if err != nil {
		return nil, false
	}
	return t, true
}

// Remember records taskID as the outcome of the create identified by key.
func (s *TaskService) Remember(ctx context.Context, key string, taskID uint, status int) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	_, err := s.Repo.CreateIdempotency(ctx, s.DB, IdempotencyScope, key, taskID, status, ttl)
	return err
}

// updateColumns maps supplied fields to column assignments. A supplied
// description is written even when empty.
func updateColumns(f validation.TaskFields) map[string]any {
	cols := map[string]any{}
	if f.Title != nil {
		cols["title"] = *f.Title
	}
	if f.Description != nil {
		cols["description"] = *f.Description
	}
	if f.Complete != nil {
		cols["complete"] = *f.Complete
	}
	if f.Due != nil {
		cols["due"] = *f.Due
	}
	return cols
}
