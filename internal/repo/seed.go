// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file loads legacy task fixtures into the store.
//
// The fixture format is the one exported by the legacy service:
//
//	{"tasks": [{"id": "1", "created": "12/03/2024", "title": "...",
//	            "description": "...", "complete": false, "due": "2024-04-01"}]}
//
// Ids may be JSON strings or numbers. Created dates use DD/MM/YYYY and are
// read as midnight UTC. Rows whose id already exists are left untouched.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-task-backend/internal/domain"
	"github.com/tbourn/go-task-backend/internal/validation"
)

type seedFile struct {
	Tasks []seedTask `json:"tasks"`
}

type seedTask struct {
	ID          json.Number `json:"id"`
	Created     string      `json:"created"`
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Complete    bool        `json:"complete"`
	Due         string      `json:"due"`
}

// SeedResult summarizes a SeedLegacy run.
type SeedResult struct {
	Read     int // rows found in the fixture
	Inserted int // rows written
	Skipped  int // rows rejected as malformed
}

// SeedLegacy decodes a legacy fixture from r and inserts its tasks,
// ignoring rows whose id already exists.
func SeedLegacy(ctx context.Context, db *gorm.DB, r io.Reader) (SeedResult, error) {
	var f seedFile
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil {
		return SeedResult{}, fmt.Errorf("decode seed file: %w", err)
	}

	res := SeedResult{Read: len(f.Tasks)}
	rows := make([]domain.Task, 0, len(f.Tasks))
	for i, st := range f.Tasks {
		t, err := st.toTask()
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("id", st.ID.String()).Msg("seed: skipping task")
			res.Skipped++
			continue
		}
		rows = append(rows, t)
	}
	if len(rows) == 0 {
		return res, nil
	}

	tx := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		CreateInBatches(&rows, 100)
	if tx.Error != nil {
		return res, fmt.Errorf("insert seed tasks: %w", tx.Error)
	}
	res.Inserted = int(tx.RowsAffected)

	// Explicit ids do not advance a PostgreSQL serial sequence.
	if db.Dialector.Name() == DriverPostgres {
		if err := db.WithContext(ctx).Exec(
			`SELECT setval(pg_get_serial_sequence('tasks', 'id'), COALESCE((SELECT MAX(id) FROM tasks), 1))`,
		).Error; err != nil {
			return res, fmt.Errorf("advance tasks sequence: %w", err)
		}
	}
	return res, nil
}

func (st seedTask) toTask() (domain.Task, error) {
	id, err := strconv.ParseUint(st.ID.String(), 10, 64)
	if err != nil || id == 0 {
		return domain.Task{}, fmt.Errorf("invalid id %q", st.ID.String())
	}
	created, ok := validation.CoerceDate(st.Created, nil)
	if !ok {
		return domain.Task{}, fmt.Errorf("invalid created date %q", st.Created)
	}
	due, ok := validation.CoerceDate(st.Due, nil)
	if !ok {
		return domain.Task{}, fmt.Errorf("invalid due date %q", st.Due)
	}
	if st.Title == "" {
		return domain.Task{}, fmt.Errorf("missing title")
	}
	return domain.Task{
		ID:          uint(id),
		Created:     created.UTC(),
		Title:       st.Title,
		Description: st.Description,
		Complete:    st.Complete,
		Due:         &due,
	}, nil
}
