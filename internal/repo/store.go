package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-task-backend/internal/domain"
)

// TaskStore adapts the repository free functions to the method set expected
// by services.TaskRepo. It carries no state; the *gorm.DB is passed per call.
type TaskStore struct{}

// ListTasks proxies ListTasks.
func (TaskStore) ListTasks(ctx context.Context, db *gorm.DB) ([]domain.Task, error) {
	return ListTasks(ctx, db)
}

// GetTask proxies GetTask.
func (TaskStore) GetTask(ctx context.Context, db *gorm.DB, id uint) (*domain.Task, error) {
	return GetTask(ctx, db, id)
}

// CreateTask proxies CreateTask.
func (TaskStore) CreateTask(ctx context.Context, db *gorm.DB, t *domain.Task) error {
	return CreateTask(ctx, db, t)
}

// UpdateTask proxies UpdateTask.
func (TaskStore) UpdateTask(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) (int64, error) {
	return UpdateTask(ctx, db, id, fields)
}

// DeleteTask proxies DeleteTask.
func (TaskStore) DeleteTask(ctx context.Context, db *gorm.DB, id uint) (int64, error) {
	return DeleteTask(ctx, db, id)
}

// TasksDigest proxies TasksDigest.
func (TaskStore) TasksDigest(ctx context.Context, db *gorm.DB) (int64, uint64, error) {
	return TasksDigest(ctx, db)
}

// GetIdempotency proxies GetIdempotency.
func (TaskStore) GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return GetIdempotency(ctx, db, scope, key, now)
}

// CreateIdempotency proxies CreateIdempotency.
func (TaskStore) CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key string, taskID uint, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return CreateIdempotency(ctx, db, scope, key, taskID, status, ttl)
}
