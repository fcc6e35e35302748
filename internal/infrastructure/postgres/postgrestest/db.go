// Package postgrestest provides an in-process postgres.DB that serves canned
// rows, for testing repositories without a database.
package postgrestest

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Call records one statement sent to the DB
type Call struct {
	SQL  string
	Args []any
}

// DB answers each statement through the matching func. A nil func answers
// Exec with "0" rows affected, Query with no rows and QueryRow with
// pgx.ErrNoRows.
type DB struct {
	ExecFunc     func(sql string, args []any) (pgconn.CommandTag, error)
	QueryFunc    func(sql string, args []any) ([][]any, error)
	QueryRowFunc func(sql string, args []any) ([]any, error)

	mu    sync.Mutex
	calls []Call
}

func (db *DB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.record(sql, args)
	if db.ExecFunc == nil {
		return pgconn.NewCommandTag("DELETE 0"), nil
	}
	return db.ExecFunc(sql, args)
}

func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.record(sql, args)
	if db.QueryFunc == nil {
		return &Rows{}, nil
	}
	values, err := db.QueryFunc(sql, args)
	if err != nil {
		return nil, err
	}
	return &Rows{values: values}, nil
}

func (db *DB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db.record(sql, args)
	if db.QueryRowFunc == nil {
		return Row{err: pgx.ErrNoRows}
	}
	values, err := db.QueryRowFunc(sql, args)
	return Row{values: values, err: err}
}

// Calls returns the statements sent so far
func (db *DB) Calls() []Call {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]Call(nil), db.calls...)
}

func (db *DB) record(sql string, args []any) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls = append(db.calls, Call{SQL: sql, Args: args})
}

// Row is a single canned result row
type Row struct {
	values []any
	err    error
}

func (r Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

// Rows iterates canned result rows
type Rows struct {
	values [][]any
	cur    []any
}

func (r *Rows) Close() {}

func (r *Rows) Err() error { return nil }

func (r *Rows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.values)))
}

func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *Rows) Next() bool {
	if len(r.values) == 0 {
		r.cur = nil
		return false
	}
	r.cur, r.values = r.values[0], r.values[1:]
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.cur == nil {
		return fmt.Errorf("scan called without a current row")
	}
	return assign(r.cur, dest)
}

func (r *Rows) Values() ([]any, error) { return r.cur, nil }

func (r *Rows) RawValues() [][]byte { return nil }

func (r *Rows) Conn() *pgx.Conn { return nil }

// assign copies values into dest the way pgx scans into Go types: a nil value
// zeroes the target, and a value is wrapped when the target is a pointer.
func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("row has %d columns, scan wants %d", len(values), len(dest))
	}

	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("column %d: destination must be a non-nil pointer", i)
		}
		target = target.Elem()

		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}

		v := reflect.ValueOf(values[i])
		switch {
		case v.Type().AssignableTo(target.Type()):
			target.Set(v)
		case target.Kind() == reflect.Pointer && v.Type().AssignableTo(target.Type().Elem()):
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(v)
			target.Set(p)
		case v.Type().ConvertibleTo(target.Type()):
			target.Set(v.Convert(target.Type()))
		default:
			return fmt.Errorf("column %d: cannot scan %T into %s", i, values[i], target.Type())
		}
	}
	return nil
}
