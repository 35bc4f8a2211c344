// Package query builds the read-only SELECT behind a lookup directive.
package query

import (
	"fmt"
	"strings"

	"datalist/internal/directive"
)

// DefaultLimit bounds a lookup when the directive gives no usable limit.
const DefaultLimit = 10000

// LimitStyle is how an engine spells a row limit.
type LimitStyle int

const (
	// LimitClause appends "LIMIT n" (MySQL, PostgreSQL, SQLite).
	LimitClause LimitStyle = iota
	// TopClause uses "SELECT TOP n" (SQL Server).
	TopClause
	// FetchFirst appends "FETCH FIRST n ROWS ONLY" (Oracle).
	FetchFirst
)

func (s LimitStyle) String() string {
	switch s {
	case LimitClause:
		return "limit"
	case TopClause:
		return "top"
	case FetchFirst:
		return "fetch-first"
	default:
		return fmt.Sprintf("LimitStyle(%d)", int(s))
	}
}

// Build returns the lookup query for d. The table name is used as written;
// the filter column restricts rows to those equal to '1'.
// A defaultLimit <= 0 is replaced by DefaultLimit.
func Build(d directive.Directive, defaultLimit int, style LimitStyle) string {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	limit := d.EffectiveLimit(defaultLimit)
	cols := strings.Join(d.Columns(), ", ")

	var b strings.Builder
	b.WriteString("SELECT ")
	if style == TopClause {
		fmt.Fprintf(&b, "TOP %d ", limit)
	}
	b.WriteString(cols)
	b.WriteString(" FROM ")
	b.WriteString(d.Table)
	if d.Filter != "" {
		fmt.Fprintf(&b, " WHERE %s = '1'", d.Filter)
	}
	switch style {
	case TopClause:
		b.WriteString(";")
	case FetchFirst:
		// godror rejects a trailing semicolon
		fmt.Fprintf(&b, " FETCH FIRST %d ROWS ONLY", limit)
	default:
		fmt.Fprintf(&b, " LIMIT %d;", limit)
	}
	return b.String()
}
