// Package storage persists the catalog of loaded specification files.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a catalog record does not exist.
var ErrNotFound = errors.New("spec not found")

// SpecRecord describes one loaded specification file.
type SpecRecord struct {
	SourceID    string    `json:"source"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Version     string    `json:"version"`
	SpecVersion string    `json:"specVersion"`
	Operations  int       `json:"operations"`
	ContentHash string    `json:"hash"`
	SizeBytes   int64     `json:"sizeBytes"`
	LoadOrder   int       `json:"loadOrder"`
	BuildID     string    `json:"buildId"`
	Warnings    []string  `json:"warnings,omitempty"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	ChangedAt   time.Time `json:"changedAt"`
	LoadedAt    time.Time `json:"loadedAt"`
}

// SyncStats counts what a Sync changed.
type SyncStats struct {
	Added     int `json:"added"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
}

// Catalog defines spec catalog persistence operations.
type Catalog interface {
	// Sync makes the catalog match records: new sources are added, sources
	// whose hash changed are updated and sources not in records are removed.
	Sync(ctx context.Context, records []*SpecRecord) (SyncStats, error)
	List(ctx context.Context) ([]*SpecRecord, error)
	Get(ctx context.Context, sourceID string) (*SpecRecord, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}
