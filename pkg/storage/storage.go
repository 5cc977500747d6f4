// Package storage keeps a SQLite history of scans and the duplicate groups
// each one reported.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sw33tLie/xcdupes/pkg/dupes"
)

const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
)

// ErrInvalidRun is returned by SaveRun for runs without a root.
var ErrInvalidRun = errors.New("invalid run: empty root")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS scan_runs (
  id            INTEGER PRIMARY KEY,
  root          TEXT NOT NULL,
  started_at    DATETIME NOT NULL,
  finished_at   DATETIME NOT NULL,
  catalogs      INTEGER NOT NULL DEFAULT 0,
  imagesets     INTEGER NOT NULL DEFAULT 0,
  files_hashed  INTEGER NOT NULL DEFAULT 0,
  files_skipped INTEGER NOT NULL DEFAULT 0,
  group_count   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_root ON scan_runs(root, id);
CREATE TABLE IF NOT EXISTS report_groups (
  id          INTEGER PRIMARY KEY,
  run_id      INTEGER NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
  ordinal     INTEGER NOT NULL,
  fingerprint TEXT NOT NULL,
  name        TEXT NOT NULL,
  UNIQUE(run_id, ordinal)
);
CREATE INDEX IF NOT EXISTS idx_groups_run ON report_groups(run_id);
CREATE TABLE IF NOT EXISTS group_members (
  id          INTEGER PRIMARY KEY,
  group_id    INTEGER NOT NULL REFERENCES report_groups(id) ON DELETE CASCADE,
  position    INTEGER NOT NULL,
  container   TEXT NOT NULL,
  catalog     TEXT NOT NULL,
  path        TEXT NOT NULL,
  scale       TEXT NOT NULL,
  name        TEXT NOT NULL,
  width       INTEGER NOT NULL DEFAULT 0,
  height      INTEGER NOT NULL DEFAULT 0,
  referenced  INTEGER NOT NULL CHECK (referenced IN (0,1))
);
CREATE INDEX IF NOT EXISTS idx_members_group ON group_members(group_id, position);
CREATE TABLE IF NOT EXISTS scan_changes (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  root        TEXT NOT NULL,
  run_id      INTEGER NOT NULL,
  fingerprint TEXT NOT NULL,
  name        TEXT NOT NULL,
  containers  INTEGER NOT NULL DEFAULT 0,
  change_type TEXT NOT NULL CHECK (change_type IN ('added','removed'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON scan_changes(occurred_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveRun records run and its groups, and diffs the groups against the
// previous run over the same root. Groups are identified by fingerprint.
func (d *DB) SaveRun(ctx context.Context, run Run, groups []dupes.ReportGroup) (res SaveResult, err error) {
	if run.Root == "" {
		return res, ErrInvalidRun
	}
	now := time.Now().UTC()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	type previous struct {
		name       string
		containers int
	}
	var prevRunID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM scan_runs WHERE root = ? ORDER BY id DESC LIMIT 1", run.Root).Scan(&prevRunID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res.FirstRun = true
		err = nil
	case err != nil:
		return res, err
	}

	prev := make(map[string]previous)
	if !res.FirstRun {
		rows, qerr := tx.QueryContext(ctx, `
SELECT g.fingerprint, g.name, COUNT(DISTINCT m.container)
FROM report_groups g LEFT JOIN group_members m ON m.group_id = g.id
WHERE g.run_id = ?
GROUP BY g.id
ORDER BY g.ordinal`, prevRunID)
		if qerr != nil {
			return res, qerr
		}
		for rows.Next() {
			var fp string
			var p previous
			if err = rows.Scan(&fp, &p.name, &p.containers); err != nil {
				rows.Close()
				return res, err
			}
			prev[fp] = p
		}
		if err = rows.Close(); err != nil {
			return res, err
		}
	}

	startedAt, finishedAt := run.StartedAt, run.FinishedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	if finishedAt.IsZero() {
		finishedAt = now
	}
	r, err := tx.ExecContext(ctx, `INSERT INTO scan_runs(root, started_at, finished_at, catalogs, imagesets, files_hashed, files_skipped, group_count) VALUES(?,?,?,?,?,?,?,?)`,
		run.Root, startedAt.UTC(), finishedAt.UTC(), run.Catalogs, run.ImageSets, run.Hashed, run.Skipped, len(groups))
	if err != nil {
		return res, err
	}
	if res.RunID, err = r.LastInsertId(); err != nil {
		return res, err
	}

	current := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		current[g.Fingerprint] = struct{}{}

		gr, gerr := tx.ExecContext(ctx, `INSERT INTO report_groups(run_id, ordinal, fingerprint, name) VALUES(?,?,?,?)`, res.RunID, g.ID, g.Fingerprint, g.Name)
		if gerr != nil {
			return res, gerr
		}
		groupID, gerr := gr.LastInsertId()
		if gerr != nil {
			return res, gerr
		}
		for i, o := range g.Occurrences {
			_, err = tx.ExecContext(ctx, `INSERT INTO group_members(group_id, position, container, catalog, path, scale, name, width, height, referenced) VALUES(?,?,?,?,?,?,?,?,?,?)`,
				groupID, i, o.Container, o.Catalog, o.Path, o.Scale, o.Name, o.Width, o.Height, boolToInt(o.Referenced))
			if err != nil {
				return res, err
			}
		}

		if _, seen := prev[g.Fingerprint]; !res.FirstRun && !seen {
			res.Changes = append(res.Changes, Change{OccurredAt: now, Root: run.Root, RunID: res.RunID, Fingerprint: g.Fingerprint, Name: g.Name, Containers: len(g.Containers()), ChangeType: ChangeAdded})
		}
	}

	if !res.FirstRun {
		// Removed groups, in the previous run's order.
		rows, qerr := tx.QueryContext(ctx, "SELECT fingerprint FROM report_groups WHERE run_id = ? ORDER BY ordinal", prevRunID)
		if qerr != nil {
			return res, qerr
		}
		var removed []string
		for rows.Next() {
			var fp string
			if err = rows.Scan(&fp); err != nil {
				rows.Close()
				return res, err
			}
			if _, ok := current[fp]; !ok {
				removed = append(removed, fp)
			}
		}
		if err = rows.Close(); err != nil {
			return res, err
		}
		for _, fp := range removed {
			p := prev[fp]
			res.Changes = append(res.Changes, Change{OccurredAt: now, Root: run.Root, RunID: res.RunID, Fingerprint: fp, Name: p.name, Containers: p.containers, ChangeType: ChangeRemoved})
		}
	}

	for _, c := range res.Changes {
		_, err = tx.ExecContext(ctx, `INSERT INTO scan_changes(occurred_at, root, run_id, fingerprint, name, containers, change_type) VALUES(?,?,?,?,?,?,?)`,
			c.OccurredAt, c.Root, c.RunID, c.Fingerprint, c.Name, c.Containers, c.ChangeType)
		if err != nil {
			return res, err
		}
	}

	if err = tx.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT id, root, started_at, finished_at, catalogs, imagesets, files_hashed, files_skipped, group_count FROM scan_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Root, &started, &finished, &r.Catalogs, &r.ImageSets, &r.Hashed, &r.Skipped, &r.Groups); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListGroups returns the groups recorded for runID in report order.
func (d *DB) ListGroups(ctx context.Context, runID int64) ([]dupes.ReportGroup, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT g.id, g.ordinal, g.fingerprint, g.name, m.container, m.catalog, m.path, m.scale, m.name, m.width, m.height, m.referenced
FROM report_groups g JOIN group_members m ON m.group_id = g.id
WHERE g.run_id = ?
ORDER BY g.ordinal, m.position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []dupes.ReportGroup
	lastID := int64(-1)
	for rows.Next() {
		var (
			groupID    int64
			g          dupes.ReportGroup
			o          dupes.Occurrence
			referenced int
		)
		if err := rows.Scan(&groupID, &g.ID, &g.Fingerprint, &g.Name, &o.Container, &o.Catalog, &o.Path, &o.Scale, &o.Name, &o.Width, &o.Height, &referenced); err != nil {
			return nil, err
		}
		o.Fingerprint = g.Fingerprint
		o.Referenced = referenced == 1
		if groupID != lastID {
			groups = append(groups, g)
			lastID = groupID
		}
		last := &groups[len(groups)-1]
		last.Occurrences = append(last.Occurrences, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListRecentChanges returns the most recent N changes across all roots.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT occurred_at, root, run_id, fingerprint, name, containers, change_type FROM scan_changes ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAtStr string
		if err := rows.Scan(&occurredAtStr, &c.Root, &c.RunID, &c.Fingerprint, &c.Name, &c.Containers, &c.ChangeType); err != nil {
			return nil, err
		}
		c.OccurredAt = parseTime(occurredAtStr)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// GetStats returns per-root run counts and the size of each root's latest
// report.
func (d *DB) GetStats(ctx context.Context) ([]RootStats, error) {
	query := `
		SELECT
			r.root,
			COUNT(*),
			MAX(r.finished_at),
			(SELECT l.group_count FROM scan_runs l WHERE l.root = r.root ORDER BY l.id DESC LIMIT 1)
		FROM
			scan_runs r
		GROUP BY
			r.root
		ORDER BY
			r.root;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []RootStats
	for rows.Next() {
		var s RootStats
		var last string
		if err := rows.Scan(&s.Root, &s.RunCount, &last, &s.LastGroups); err != nil {
			return nil, err
		}
		s.LastRunAt = parseTime(last)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// parseTime accepts the layouts the sqlite driver hands back for DATETIME
// columns.
func parseTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
