package db

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"shufflebench/internal/benchmark"
)

// valueColumns are the SQL column names of the numeric benchmark columns,
// in benchmark.Column order starting at ColTupleSize.
var valueColumns = func() []string {
	var cols []string
	for _, name := range benchmark.ColumnNames()[benchmark.ColTupleSize:] {
		cols = append(cols, strings.ToLower(name))
	}
	return cols
}()

// archive holds the SQL shared by all backends. Queries are written with ?
// placeholders and passed through bind.
type archive struct {
	db   *sql.DB
	bind func(string) string
}

func schema(serial, float string) []string {
	var cols strings.Builder
	for _, c := range valueColumns {
		fmt.Fprintf(&cols, ",\n\t\t\t%s %s", c, float)
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS runs (
			seq ` + serial + `,
			id TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			input TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			line INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			benchmark TEXT NOT NULL,
			tuple_size_field TEXT NOT NULL,
			partitions_field TEXT NOT NULL` + cols.String() + `
		)`,
		`CREATE TABLE IF NOT EXISTS issues (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			line INTEGER NOT NULL,
			col TEXT NOT NULL,
			raw TEXT NOT NULL,
			reason TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS writeouts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			synchronised BOOLEAN NOT NULL,
			partitions INTEGER NOT NULL,
			threads INTEGER NOT NULL,
			tuple_bytes INTEGER NOT NULL,
			written_tuples BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id, line)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id, line)`,
		`CREATE INDEX IF NOT EXISTS idx_writeouts_run ON writeouts(run_id)`,
	}
}

func (a *archive) migrate(stmts []string) error {
	for _, q := range stmts {
		if _, err := a.db.Exec(q); err != nil {
			return errors.Wrapf(err, "migration %q", firstLine(q))
		}
	}
	return nil
}

// Close closes the database connection
func (a *archive) Close() error {
	return a.db.Close()
}

// SaveRun stores the records and issues of table under a new run ID in one
// transaction.
func (a *archive) SaveRun(source, input string, table *benchmark.Table) (string, error) {
	id := uuid.NewString()
	tx, err := a.db.Begin()
	if err != nil {
		return "", errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(a.bind(`INSERT INTO runs (id, source, input, created_at) VALUES (?, ?, ?, ?)`),
		id, source, input, time.Now().UTC()); err != nil {
		return "", errors.Wrap(err, "inserting run")
	}

	cols := "run_id, line, schema_version, benchmark, tuple_size_field, partitions_field, " + strings.Join(valueColumns, ", ")
	insert, err := tx.Prepare(a.bind(`INSERT INTO records (` + cols + `) VALUES (` + placeholders(6+len(valueColumns)) + `)`))
	if err != nil {
		return "", errors.Wrap(err, "preparing record insert")
	}
	defer insert.Close()
	for _, r := range table.Records {
		args := []any{id, r.Line, int(r.Schema), r.Benchmark, r.TupleSizeField, r.PartitionsField}
		for c := benchmark.ColTupleSize; int(c) < benchmark.NumColumns; c++ {
			args = append(args, nullable(r.Value(c)))
		}
		if _, err := insert.Exec(args...); err != nil {
			return "", errors.Wrapf(err, "inserting record of line %d", r.Line)
		}
	}

	for _, is := range table.Issues {
		if _, err := tx.Exec(a.bind(`INSERT INTO issues (run_id, line, col, raw, reason) VALUES (?, ?, ?, ?, ?)`),
			id, is.Line, is.Column, is.Raw, is.Reason); err != nil {
			return "", errors.Wrapf(err, "inserting issue of line %d", is.Line)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "commit")
	}
	return id, nil
}

// SaveWriteOuts attaches write-out measurements to an existing run.
func (a *archive) SaveWriteOuts(runID string, rows []benchmark.WriteOut) error {
	if err := a.exists(runID); err != nil {
		return err
	}
	tx, err := a.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()
	for _, w := range rows {
		if _, err := tx.Exec(a.bind(`INSERT INTO writeouts (run_id, synchronised, partitions, threads, tuple_bytes, written_tuples) VALUES (?, ?, ?, ?, ?, ?)`),
			runID, w.Synchronised, w.Partitions, w.Threads, w.TupleBytes, w.WrittenTuples); err != nil {
			return errors.Wrap(err, "inserting write-out")
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// LoadRecords returns the records of a run in log order.
func (a *archive) LoadRecords(runID string) ([]benchmark.Record, error) {
	if err := a.exists(runID); err != nil {
		return nil, err
	}
	query := `SELECT line, schema_version, benchmark, tuple_size_field, partitions_field, ` +
		strings.Join(valueColumns, ", ") + ` FROM records WHERE run_id = ? ORDER BY line`
	rows, err := a.db.Query(a.bind(query), runID)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	defer rows.Close()

	var out []benchmark.Record
	for rows.Next() {
		var (
			line, version     int
			name, size, parts string
			values            = make([]sql.NullFloat64, len(valueColumns))
		)
		dest := []any{&line, &version, &name, &size, &parts}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "scanning record")
		}
		r := benchmark.NewRecord(line, name, size, parts)
		r.Schema = benchmark.SchemaVersion(version)
		for i, v := range values {
			if v.Valid {
				r.Set(benchmark.ColTupleSize+benchmark.Column(i), v.Float64)
			}
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "reading records")
}

// LoadIssues returns the parse issues of a run in log order.
func (a *archive) LoadIssues(runID string) ([]benchmark.Issue, error) {
	if err := a.exists(runID); err != nil {
		return nil, err
	}
	rows, err := a.db.Query(a.bind(`SELECT line, col, raw, reason FROM issues WHERE run_id = ? ORDER BY line`), runID)
	if err != nil {
		return nil, errors.Wrap(err, "querying issues")
	}
	defer rows.Close()

	var out []benchmark.Issue
	for rows.Next() {
		var is benchmark.Issue
		if err := rows.Scan(&is.Line, &is.Column, &is.Raw, &is.Reason); err != nil {
			return nil, errors.Wrap(err, "scanning issue")
		}
		out = append(out, is)
	}
	return out, errors.Wrap(rows.Err(), "reading issues")
}

// LoadWriteOuts returns the write-out rows of a run in lookup order.
func (a *archive) LoadWriteOuts(runID string) ([]benchmark.WriteOut, error) {
	if err := a.exists(runID); err != nil {
		return nil, err
	}
	rows, err := a.db.Query(a.bind(`SELECT synchronised, partitions, threads, tuple_bytes, written_tuples FROM writeouts WHERE run_id = ?`), runID)
	if err != nil {
		return nil, errors.Wrap(err, "querying write-outs")
	}
	defer rows.Close()

	var out []benchmark.WriteOut
	for rows.Next() {
		var w benchmark.WriteOut
		if err := rows.Scan(&w.Synchronised, &w.Partitions, &w.Threads, &w.TupleBytes, &w.WrittenTuples); err != nil {
			return nil, errors.Wrap(err, "scanning write-out")
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "reading write-outs")
	}
	benchmark.SortWriteOuts(out)
	return out, nil
}

// ListRuns returns the most recent runs with their row counts.
func (a *archive) ListRuns(limit int) ([]Run, error) {
	query := `SELECT id, source, input, created_at,
		(SELECT COUNT(*) FROM records WHERE records.run_id = runs.id),
		(SELECT COUNT(*) FROM issues WHERE issues.run_id = runs.id),
		(SELECT COUNT(*) FROM writeouts WHERE writeouts.run_id = runs.id)
		FROM runs ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := a.db.Query(a.bind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Input, &r.CreatedAt, &r.Records, &r.Issues, &r.WriteOuts); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "reading runs")
}

// DeleteRun removes a run and everything attached to it.
func (a *archive) DeleteRun(runID string) error {
	if err := a.exists(runID); err != nil {
		return err
	}
	tx, err := a.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()
	for _, table := range []string{"records", "issues", "writeouts", "runs"} {
		col := "run_id"
		if table == "runs" {
			col = "id"
		}
		if _, err := tx.Exec(a.bind(`DELETE FROM `+table+` WHERE `+col+` = ?`), runID); err != nil {
			return errors.Wrapf(err, "deleting from %s", table)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func (a *archive) exists(runID string) error {
	var n int
	if err := a.db.QueryRow(a.bind(`SELECT COUNT(*) FROM runs WHERE id = ?`), runID).Scan(&n); err != nil {
		return errors.Wrap(err, "looking up run")
	}
	if n == 0 {
		return errors.Wrapf(ErrRunNotFound, "%s", runID)
	}
	return nil
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// dollarBind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func dollarBind(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func identity(q string) string { return q }

func firstLine(q string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(q), "\n")
	return line
}
