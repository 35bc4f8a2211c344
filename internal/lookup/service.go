// Package lookup answers option-list requests for lookup-enabled fields.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"datalist/internal/directive"
	"datalist/internal/introspect"
	"datalist/internal/logger"
	"datalist/internal/query"
)

// ErrTableNotAllowed is returned for tables outside the configured allowlist.
var ErrTableNotAllowed = errors.New("table not allowed")

// DefaultTimeout bounds a single lookup query.
const DefaultTimeout = 5 * time.Second

// Executor runs read queries on the host's database connection.
type Executor interface {
	QueryRows(ctx context.Context, q string) ([]introspect.Row, error)
	LimitStyle() query.LimitStyle
}

type Options struct {
	DefaultLimit int
	Timeout      time.Duration
	// AllowedTables restricts lookups to these tables (case-insensitive).
	// Empty allows any table.
	AllowedTables []string
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		DefaultLimit: query.DefaultLimit,
		Timeout:      DefaultTimeout,
	}
}

func WithDefaultLimit(n int) OptionFn {
	return func(o *Options) { o.DefaultLimit = n }
}

func WithTimeout(d time.Duration) OptionFn {
	return func(o *Options) { o.Timeout = d }
}

func WithAllowedTables(tables ...string) OptionFn {
	return func(o *Options) { o.AllowedTables = append([]string{}, tables...) }
}

// Service builds, runs and shapes lookup queries.
type Service struct {
	exec    Executor
	opts    Options
	allowed map[string]bool
}

func NewService(exec Executor, fns ...OptionFn) *Service {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = query.DefaultLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	s := &Service{exec: exec, opts: opts}
	if len(opts.AllowedTables) > 0 {
		s.allowed = make(map[string]bool, len(opts.AllowedTables))
		for _, t := range opts.AllowedTables {
			s.allowed[strings.ToLower(t)] = true
		}
	}
	return s
}

// Check validates d before any query is built from it.
func (s *Service) Check(d directive.Directive) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if s.allowed != nil && !s.allowed[strings.ToLower(d.Table)] {
		return fmt.Errorf("%w: %s", ErrTableNotAllowed, d.Table)
	}
	return nil
}

// Lookup runs the directive's query once and returns one option per row.
// Failures and empty results come back as a sentinel result, never as an error.
func (s *Service) Lookup(ctx context.Context, d directive.Directive) Result {
	if err := s.Check(d); err != nil {
		logger.Warn("lookup rejected: %v", err)
		return ErrorResult(err.Error())
	}

	q := query.Build(d, s.opts.DefaultLimit, s.exec.LimitStyle())
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	rows, err := s.exec.QueryRows(ctx, q)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("lookup on %s failed after %v: %v", d.Table, elapsed, err)
		return ErrorResult(fmt.Sprintf("query failed: %v (%s)", err, q))
	}
	if len(rows) == 0 {
		logger.Info("lookup on %s returned no rows in %v", d.Table, elapsed)
		return ErrorResult(fmt.Sprintf("no results: (%s)", q))
	}
	logger.Debug("lookup on %s returned %d rows in %v", d.Table, len(rows), elapsed)
	return Shape(d, rows)
}

// Shape turns rows into options, keeping row order. The id is the value
// column's cell and the text joins the label cells with ", ".
func Shape(d directive.Directive, rows []introspect.Row) Result {
	res := Result{Results: make([]Option, 0, len(rows))}
	for _, row := range rows {
		texts := make([]string, 0, len(d.Labels))
		for _, l := range d.Labels {
			texts = append(texts, cellText(cell(row, l)))
		}
		res.Results = append(res.Results, Option{
			ID:   idText(cell(row, d.Value)),
			Text: strings.Join(texts, ", "),
		})
	}
	return res
}

// cell finds a column by exact name, then case-insensitively; engines such
// as PostgreSQL fold unquoted identifiers.
func cell(row introspect.Row, col string) any {
	if v, ok := row[col]; ok {
		return v
	}
	for k, v := range row {
		if strings.EqualFold(k, col) {
			return v
		}
	}
	return nil
}

// idText is empty for falsy cells: NULL, false, zero and the strings "" and
// "0". Drivers hand numbers back as int64, float64 or bytes.
func idText(v any) string {
	switch x := v.(type) {
	case bool:
		if !x {
			return ""
		}
	case int64:
		if x == 0 {
			return ""
		}
	case int:
		if x == 0 {
			return ""
		}
	case int32:
		if x == 0 {
			return ""
		}
	case uint64:
		if x == 0 {
			return ""
		}
	case float64:
		if x == 0 {
			return ""
		}
	case float32:
		if x == 0 {
			return ""
		}
	}
	s := cellText(v)
	if s == "0" {
		return ""
	}
	return s
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
