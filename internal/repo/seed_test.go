package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-task-backend/internal/domain"
)

const legacyFixture = `{
  "tasks": [
    {"id": "1", "created": "12/03/2024", "title": "Buy milk", "description": "2 litres", "complete": false, "due": "2030-04-01"},
    {"id": 2, "created": "01/01/2024", "title": "Ship release", "complete": true, "due": "15/05/2030"},
    {"id": "x", "created": "01/01/2024", "title": "bad id", "due": "2030-01-01"},
    {"id": "4", "created": "32/01/2024", "title": "bad created", "due": "2030-01-01"}
  ]
}`

func TestSeedLegacy_InsertsValidRows_SkipsBad(t *testing.T) {
	db := newTestDB(t, &domain.Task{})
	ctx := context.Background()

	res, err := SeedLegacy(ctx, db, strings.NewReader(legacyFixture))
	if err != nil {
		t.Fatalf("SeedLegacy: %v", err)
	}
	if res.Read != 4 || res.Inserted != 2 || res.Skipped != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	t1, err := GetTask(ctx, db, 1)
	if err != nil {
		t.Fatalf("GetTask 1: %v", err)
	}
	wantCreated := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	if !t1.Created.Equal(wantCreated) || t1.Title != "Buy milk" || t1.Description == nil || *t1.Description != "2 litres" {
		t.Fatalf("task 1 = %+v", t1)
	}
	t2, err := GetTask(ctx, db, 2)
	if err != nil || !t2.Complete || t2.Description != nil {
		t.Fatalf("task 2 = %+v, %v", t2, err)
	}
	if want := time.Date(2030, 5, 15, 0, 0, 0, 0, time.UTC); t2.Due == nil || !t2.Due.Equal(want) {
		t.Fatalf("task 2 due = %v", t2.Due)
	}

	// next insert continues after the seeded ids
	due := time.Now().Add(time.Hour)
	next := &domain.Task{Title: "next", Due: &due}
	if err := CreateTask(ctx, db, next); err != nil || next.ID <= 2 {
		t.Fatalf("CreateTask after seed: id=%d err=%v", next.ID, err)
	}
}

func TestSeedLegacy_IsIdempotent(t *testing.T) {
	db := newTestDB(t, &domain.Task{})
	ctx := context.Background()

	if _, err := SeedLegacy(ctx, db, strings.NewReader(legacyFixture)); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if _, err := UpdateTask(ctx, db, 1, map[string]any{"title": "edited"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	res, err := SeedLegacy(ctx, db, strings.NewReader(legacyFixture))
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if res.Inserted != 0 {
		t.Fatalf("second seed should insert nothing, got %+v", res)
	}
	got, _ := GetTask(ctx, db, 1)
	if got.Title != "edited" {
		t.Fatalf("existing row overwritten: %+v", got)
	}
}

func TestSeedLegacy_BadJSON(t *testing.T) {
	db := newTestDB(t, &domain.Task{})
	if _, err := SeedLegacy(context.Background(), db, strings.NewReader("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}
