// Package domain defines the persistence models of the task tracker.
package domain

import "time"

// Idempotency records the task produced by a previously completed create
// request, keyed by (scope, key). Retried requests carrying the same
// Idempotency-Key are answered with the recorded task instead of inserting a
// duplicate.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Scope     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2"`
	TaskID    uint      `gorm:"type:INTEGER NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:TIMESTAMP NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:TIMESTAMP NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
