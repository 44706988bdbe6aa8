// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Task model.
//
// The functions mirror the persistence contract consumed by the service
// layer: find all, find by primary key, create, update (returning the number
// of affected rows), and destroy (returning the number of affected rows).
//
// Error semantics:
//   - GetTask returns ErrNotFound when no row matches.
//   - UpdateTask and DeleteTask never return ErrNotFound; callers inspect the
//     affected-row count instead.
//   - Any other database error is propagated unchanged.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-task-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListTasks returns every task ordered by id. It returns an empty slice when
// the table is empty.
func ListTasks(ctx context.Context, db *gorm.DB) ([]domain.Task, error) {
	out := []domain.Task{}
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// GetTask fetches a task by primary key, or ErrNotFound.
func GetTask(ctx context.Context, db *gorm.DB, id uint) (*domain.Task, error) {
	var t domain.Task
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts t; the store assigns ID and Created.
func CreateTask(ctx context.Context, db *gorm.DB, t *domain.Task) error {
	return db.WithContext(ctx).Create(t).Error
}

// UpdateTask applies the column → value assignments in fields to the task
// with the given id and returns the number of affected rows.
func UpdateTask(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// DeleteTask removes the task with the given id and returns the number of
// affected rows.
func DeleteTask(ctx context.Context, db *gorm.DB, id uint) (int64, error) {
	res := db.WithContext(ctx).Delete(&domain.Task{}, id)
	return res.RowsAffected, res.Error
}
