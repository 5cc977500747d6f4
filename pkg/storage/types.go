package storage

import "time"

// Run is one recorded scan.
type Run struct {
	ID         int64
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time

	Catalogs  int
	ImageSets int
	Hashed    int
	Skipped   int
	Groups    int
}

// Change captures a duplicate group appearing or disappearing between two
// runs over the same root.
type Change struct {
	OccurredAt  time.Time
	Root        string
	RunID       int64
	Fingerprint string
	Name        string
	Containers  int
	ChangeType  string // added | removed
}

// SaveResult is the outcome of SaveRun.
type SaveResult struct {
	RunID int64
	// FirstRun is true when no earlier run exists for the root; no changes
	// are logged in that case.
	FirstRun bool
	Changes  []Change
}

// RootStats aggregates runs per scanned root.
type RootStats struct {
	Root       string
	RunCount   int
	LastRunAt  time.Time
	LastGroups int
}
