// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate used for conditional list
// responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"gorm.io/gorm"

	"github.com/tbourn/go-task-backend/internal/domain"
)

// TasksDigest returns the number of tasks and a 64-bit fingerprint of every
// row's serialized fields plus its UpdatedAt (nanoseconds), folded in id order.
// Any change to any task yields a different digest. An empty table yields
// (0, 0).
func TasksDigest(ctx context.Context, db *gorm.DB) (count int64, digest uint64, err error) {
	rows, err := db.WithContext(ctx).Model(&domain.Task{}).Order("id ASC").Rows()
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	h := xxhash.New()
	buf := make([]byte, 0, 256)
	for rows.Next() {
		var t domain.Task
		if err = db.ScanRows(rows, &t); err != nil {
			return 0, 0, err
		}
		buf = appendTask(buf[:0], &t)
		_, _ = h.Write(buf)
		count++
	}
	if err = rows.Err(); err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}
	return count, h.Sum64(), nil
}

// appendTask writes one length-delimited record per task so that adjacent
// fields cannot run into each other.
func appendTask(b []byte, t *domain.Task) []byte {
	b = strconv.AppendUint(b, uint64(t.ID), 10)
	b = append(b, 0)
	b = strconv.AppendInt(b, t.Created.UnixNano(), 10)
	b = append(b, 0)
	b = strconv.AppendInt(b, int64(len(t.Title)), 10)
	b = append(b, ':')
	b = append(b, t.Title...)
	if t.Description != nil {
		b = strconv.AppendInt(b, int64(len(*t.Description)), 10)
		b = append(b, ':')
		b = append(b, *t.Description...)
	} else {
		b = append(b, '-')
	}
	b = strconv.AppendBool(b, t.Complete)
	b = append(b, 0)
	if t.Due != nil {
		b = strconv.AppendInt(b, t.Due.UnixNano(), 10)
	}
	b = append(b, 0)
	b = strconv.AppendInt(b, t.UpdatedAt.UnixNano(), 10)
	return append(b, '\n')
}
