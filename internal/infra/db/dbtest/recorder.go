// Package dbtest provides a database/sql driver that records statements and
// replays canned rows, for checking the SQL a repository sends to a server
// that is not available in unit tests.
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
)

// Call is one statement seen by the driver.
type Call struct {
	SQL  string
	Args []driver.Value
}

// Recorder captures every Exec and Query. Rows are returned, in order, by the
// next queries; a query with nothing queued returns no rows.
type Recorder struct {
	mu      sync.Mutex
	execs   []Call
	queries []Call
	results []Result
	execErr error
}

// Result is one canned query answer.
type Result struct {
	Columns []string
	Rows    [][]driver.Value
}

// Open returns a *sql.DB backed by r and closes it when the test ends.
func Open(t testing.TB, r *Recorder) *sql.DB {
	t.Helper()
	db := sql.OpenDB(connector{r})
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Queue appends a query answer.
func (r *Recorder) Queue(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// FailExec makes every following Exec return err.
func (r *Recorder) FailExec(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execErr = err
}

func (r *Recorder) Execs() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.execs...)
}

func (r *Recorder) Queries() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.queries...)
}

type connector struct{ r *Recorder }

func (c connector) Connect(context.Context) (driver.Conn, error) { return &conn{r: c.r}, nil }
func (c connector) Driver() driver.Driver                        { return drv{c.r} }

type drv struct{ r *Recorder }

func (d drv) Open(string) (driver.Conn, error) { return &conn{r: d.r}, nil }

type conn struct{ r *Recorder }

func (c *conn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("dbtest: prepared statements are not supported")
}
func (c *conn) Close() error              { return nil }
func (c *conn) Begin() (driver.Tx, error) { return nil, errors.New("dbtest: transactions are not supported") }

func (c *conn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.execs = append(c.r.execs, Call{SQL: query, Args: values(args)})
	if c.r.execErr != nil {
		return nil, c.r.execErr
	}
	return driver.RowsAffected(1), nil
}

func (c *conn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	c.r.queries = append(c.r.queries, Call{SQL: query, Args: values(args)})
	if len(c.r.results) == 0 {
		return &rows{}, nil
	}
	res := c.r.results[0]
	c.r.results = c.r.results[1:]
	return &rows{cols: res.Columns, data: res.Rows}, nil
}

func values(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

type rows struct {
	cols []string
	data [][]driver.Value
}

func (r *rows) Columns() []string { return r.cols }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if len(r.data) == 0 {
		return io.EOF
	}
	copy(dest, r.data[0])
	r.data = r.data[1:]
	return nil
}
