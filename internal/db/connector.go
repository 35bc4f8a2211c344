package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"datalist/internal/introspect"
	"datalist/internal/query"
	"datalist/pkg/config"
)

// ErrNoConnection is returned when the host has no active database.
var ErrNoConnection = errors.New("no active connection")

type Dialect interface {

	// Fields returns the columns of schema.table with their comments.
	// An empty schema means the connection's current schema.
	Fields(ctx context.Context, db *sql.DB, schema, table string) ([]introspect.Field, error)

	// LimitStyle tells the query builder how this engine limits rows.
	LimitStyle() query.LimitStyle
}

var dialects = map[string]Dialect{}

// Register makes a Dialect available under name.
func Register(name string, d Dialect) {
	dialects[strings.ToLower(name)] = d
}

// listRegistered returns the registered dialect keys (for diagnostics).
func listRegistered() []string {
	keys := make([]string, 0, len(dialects))
	for k := range dialects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisteredDialects is a helper that allows main to print registered dialects
func RegisteredDialects() []string {
	return listRegistered()
}

// Conn is an open database together with its dialect.
type Conn struct {
	DB      *sql.DB
	Driver  string
	Dialect Dialect

	users sync.WaitGroup // calls made through a Host
}

// NewConn wraps an already opened database.
func NewConn(driver string, dbConn *sql.DB) (*Conn, error) {
	driver = config.NormalizeDriver(driver)
	dialect, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())
	}
	return &Conn{DB: dbConn, Driver: driver, Dialect: dialect}, nil
}

// Connect opens and pings the database.
func Connect(driver, dsn string, timeoutSec int) (*Conn, error) {
	driver = config.NormalizeDriver(driver)
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())
	}
	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, err
	}
	return NewConn(driver, dbConn)
}

// Close closes the underlying database.
func (c *Conn) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// LimitStyle reports the dialect's row-limit syntax.
func (c *Conn) LimitStyle() query.LimitStyle {
	return c.Dialect.LimitStyle()
}

// FormFields returns the edit form of table. A "schema.table" name is split
// on its last dot.
func (c *Conn) FormFields(ctx context.Context, table string) (introspect.Form, error) {
	form := introspect.Form{Table: table}
	if i := strings.LastIndex(table, "."); i > 0 {
		form.Schema, form.Table = table[:i], table[i+1:]
	}
	fields, err := c.Dialect.Fields(ctx, c.DB, form.Schema, form.Table)
	if err != nil {
		return form, err
	}
	if len(fields) == 0 {
		return form, fmt.Errorf("table %s not found or has no columns", table)
	}
	form.Fields = fields
	return form, nil
}

// QueryRows runs q and returns every row keyed by column name.
// Byte slices are returned as strings.
func (c *Conn) QueryRows(ctx context.Context, q string) ([]introspect.Row, error) {
	rows, err := c.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var result []introspect.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(introspect.Row, len(columns))
		for i, name := range columns {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Host holds the connection the host application currently works on.
// The zero value has no connection.
//
// A replaced connection is closed once the calls that started on it return.
type Host struct {
	mu   sync.RWMutex
	conn *Conn
}

// SetActive replaces the active connection. The previous one is closed after
// its in-flight calls finish; SetActive waits for that.
func (h *Host) SetActive(c *Conn) {
	h.mu.Lock()
	prev := h.conn
	h.conn = c
	h.mu.Unlock()
	if prev != nil && prev != c {
		retire(prev)
	}
}

func retire(c *Conn) error {
	c.users.Wait()
	return c.Close()
}

// Active returns the active connection.
func (h *Host) Active() (*Conn, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.conn == nil {
		return nil, ErrNoConnection
	}
	return h.conn, nil
}

// acquire returns the active connection, which stays open until release is
// called.
func (h *Host) acquire() (c *Conn, release func(), err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.conn == nil {
		return nil, nil, ErrNoConnection
	}
	c = h.conn
	c.users.Add(1)
	return c, c.users.Done, nil
}

// QueryRows runs q on the active connection.
func (h *Host) QueryRows(ctx context.Context, q string) ([]introspect.Row, error) {
	c, release, err := h.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return c.QueryRows(ctx, q)
}

// FormFields returns the edit form of table on the active connection.
func (h *Host) FormFields(ctx context.Context, table string) (introspect.Form, error) {
	c, release, err := h.acquire()
	if err != nil {
		return introspect.Form{}, err
	}
	defer release()
	return c.FormFields(ctx, table)
}

// LimitStyle reports the active dialect's row-limit syntax, LimitClause when
// there is no connection.
func (h *Host) LimitStyle() query.LimitStyle {
	c, err := h.Active()
	if err != nil {
		return query.LimitClause
	}
	return c.LimitStyle()
}

// Close closes the active connection once its in-flight calls return.
func (h *Host) Close() error {
	h.mu.Lock()
	c := h.conn
	h.conn = nil
	h.mu.Unlock()
	if c == nil {
		return nil
	}
	return retire(c)
}
