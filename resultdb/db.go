// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resultdb stores analyzed batches in a SQL database.
//
// Each stored batch keeps its full JSON document together with one
// indexed row per job, so that the jobs referenced by any stored
// result can be listed without decoding documents.
package resultdb

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/peng-hpc/runanalysis/analyzer"
)

// ErrNotFound is returned for results that are not stored.
var ErrNotFound = errors.New("result not found")

// DB is a high-level interface to a result database. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection

	insertResult *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	d.insertResult, err = db.Prepare("INSERT INTO Results(Name, Created, Content) VALUES (?, ?, ?)")
	if err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is evaluated with . as a map containing one entry whose
// key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Results (
	ResultID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Name VARCHAR(255),
	Created VARCHAR(32),
	Content {{if .sqlite3}}BLOB{{else}}LONGBLOB{{end}}
);
CREATE TABLE IF NOT EXISTS ResultJobs (
	ResultID BIGINT UNSIGNED,
	JobID VARCHAR(64),
	Dir VARCHAR(4096),
	App VARCHAR(64),
	Resolution VARCHAR(16),
	Compiler VARCHAR(16),
	Ranks INT,
	ComputeSeconds DOUBLE,
	PRIMARY KEY (ResultID, JobID),
{{if not .sqlite3}}
	Index (JobID),
{{end}}
	FOREIGN KEY (ResultID) REFERENCES Results(ResultID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS ResultJobsJobID ON ResultJobs(JobID);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName selects the syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// now is overridden by tests.
var now = time.Now

// Insert stores doc under name and returns the id of the new result.
func (db *DB) Insert(ctx context.Context, name string, doc *analyzer.Document) (id int64, err error) {
	content, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	created := now().UTC().Format(time.RFC3339)
	res, err := tx.StmtContext(ctx, db.insertResult).ExecContext(ctx, name, created, content)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	var args []interface{}
	for _, jid := range doc.JobIDs() {
		j := doc.Jobs[jid]
		s := j.Settings
		var compute *float64
		if r := doc.Results.ByJob[jid]; r != nil && r.Timing != nil && r.Timing.Ran {
			compute = r.Timing.ComputeSeconds
		}
		args = append(args, id, jid, j.Dir, string(s.App), string(s.Resolution), string(s.Compiler), s.MPIRanks, compute)
	}
	if len(args) > 0 {
		const cols = 8
		query := "INSERT INTO ResultJobs VALUES " + strings.Repeat("(?, ?, ?, ?, ?, ?, ?, ?), ", len(args)/cols)
		query = strings.TrimSuffix(query, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// A Summary describes a stored result.
type Summary struct {
	ID      int64
	Name    string
	Created string // RFC 3339, UTC
	Jobs    int
}

// Results lists the stored results in insertion order.
func (db *DB) Results(ctx context.Context) ([]Summary, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT r.ResultID, r.Name, r.Created, COUNT(j.JobID)
FROM Results r LEFT JOIN ResultJobs j ON r.ResultID = j.ResultID
GROUP BY r.ResultID, r.Name, r.Created
ORDER BY r.ResultID`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Created, &s.Jobs); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Content returns the JSON document of result id.
func (db *DB) Content(ctx context.Context, id int64) ([]byte, error) {
	var content []byte
	err := db.sql.QueryRowContext(ctx, "SELECT Content FROM Results WHERE ResultID = ?", id).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return content, err
}

// A JobRow is the indexed part of one job of a stored result.
type JobRow struct {
	ResultID   int64
	JobID      string
	Dir        string
	App        string
	Resolution string
	Compiler   string
	Ranks      int
	// ComputeSeconds is nil if the job has no timing.
	ComputeSeconds *float64
}

// Jobs returns the jobs of result id ordered by job id.
func (db *DB) Jobs(ctx context.Context, id int64) ([]JobRow, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT ResultID, JobID, Dir, App, Resolution, Compiler, Ranks, ComputeSeconds
FROM ResultJobs WHERE ResultID = ? ORDER BY JobID`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JobRow
	for rows.Next() {
		var j JobRow
		var compute sql.NullFloat64
		if err := rows.Scan(&j.ResultID, &j.JobID, &j.Dir, &j.App, &j.Resolution, &j.Compiler, &j.Ranks, &compute); err != nil {
			return nil, err
		}
		if compute.Valid {
			v := compute.Float64
			j.ComputeSeconds = &v
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// JobIDs returns the distinct ids of all jobs referenced by any stored
// result, in sorted order.
func (db *DB) JobIDs(ctx context.Context) ([]string, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT DISTINCT JobID FROM ResultJobs ORDER BY JobID")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes result id and its jobs.
func (db *DB) Delete(ctx context.Context, id int64) (err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM ResultJobs WHERE ResultID = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM Results WHERE ResultID = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountResults returns the number of stored results.
func (db *DB) CountResults(ctx context.Context) (int, error) {
	var n int
	err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM Results").Scan(&n)
	return n, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertResult.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
