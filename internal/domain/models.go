// Package domain defines the persistence models of the task tracker. These
// types are mapped with GORM and shared by the repository, service, and HTTP
// layers.
package domain

import "time"

// Task is the sole tracked entity.
//
// Fields:
//   - ID: auto-increment primary key, assigned by the store and never changed.
//   - Created: creation timestamp, set once on insert.
//   - Title: required, 1–100 characters (enforced by the validation package).
//   - Description: optional free text, up to 2000 characters.
//   - Complete: completion flag, defaults to false.
//   - Due: deadline; strictly in the future when accepted by the API.
//   - UpdatedAt: bookkeeping for conditional list responses; not serialized.
type Task struct {
	ID          uint       `json:"id"          gorm:"primaryKey;autoIncrement"`
	Created     time.Time  `json:"created"     gorm:"not null;autoCreateTime"`
	Title       string     `json:"title"       gorm:"type:varchar(100);not null"`
	Description *string    `json:"description" gorm:"type:varchar(2000)"`
	Complete    bool       `json:"complete"    gorm:"not null;default:false"`
	Due         *time.Time `json:"due"         gorm:"not null"`
	UpdatedAt   time.Time  `json:"-"           gorm:"autoUpdateTime;index"`
}

// TableName returns the database table name for Task.
func (Task) TableName() string { return "tasks" }
