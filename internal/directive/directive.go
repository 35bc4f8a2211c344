// Package directive parses lookup annotations attached to form fields.
//
// An annotation is free text (usually a column comment) that may contain a
// directive such as
//
//	lookup:{table:HR.EMPLOYEES, label:[FULL_NAME, PHONE], value:ID, filter:ACTIVE, limit:999}
//
// Names are bare identifiers; quoting is not allowed.
package directive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultKeywords introduce a directive when no keyword is given to Parse.
var DefaultKeywords = []string{"lookup", "dropdown"}

var (
	identRe = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)
	limitRe = regexp.MustCompile(`^\d{1,5}$`)
)

// Directive describes which table and columns feed a field's option list.
type Directive struct {
	Table  string   `json:"table"`
	Labels []string `json:"labelColumns"`
	Value  string   `json:"valueColumn"`
	Filter string   `json:"filterColumn,omitempty"`
	// Limit is kept as written; see EffectiveLimit.
	Limit string `json:"limit,omitempty"`
}

// IsIdent reports whether s only uses identifier characters.
func IsIdent(s string) bool {
	return identRe.MatchString(s)
}

// Validate checks the directive's shape and that every name is an identifier.
// Parse output always validates; payloads received over the wire may not.
func (d Directive) Validate() error {
	if d.Table == "" {
		return fmt.Errorf("%w: missing table", ErrMalformed)
	}
	if !IsIdent(d.Table) {
		return fmt.Errorf("%w: invalid table name %q", ErrMalformed, d.Table)
	}
	if len(d.Labels) == 0 {
		return fmt.Errorf("%w: missing label", ErrMalformed)
	}
	for _, l := range d.Labels {
		if !IsIdent(l) {
			return fmt.Errorf("%w: invalid label column %q", ErrMalformed, l)
		}
	}
	if d.Value == "" {
		return fmt.Errorf("%w: missing value", ErrMalformed)
	}
	if !IsIdent(d.Value) {
		return fmt.Errorf("%w: invalid value column %q", ErrMalformed, d.Value)
	}
	if d.Filter != "" && !IsIdent(d.Filter) {
		return fmt.Errorf("%w: invalid filter column %q", ErrMalformed, d.Filter)
	}
	return nil
}

// EffectiveLimit returns the directive's limit when it is one to five digits
// and positive, otherwise def.
func (d Directive) EffectiveLimit(def int) int {
	if !limitRe.MatchString(d.Limit) {
		return def
	}
	n, err := strconv.Atoi(d.Limit)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Columns returns the label columns followed by the value column,
// without duplicates and in first-seen order.
func (d Directive) Columns() []string {
	seen := make(map[string]bool, len(d.Labels)+1)
	cols := make([]string, 0, len(d.Labels)+1)
	for _, c := range append(append([]string{}, d.Labels...), d.Value) {
		if seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
	}
	return cols
}

// String renders the directive in annotation syntax using the first default keyword.
func (d Directive) String() string {
	var b strings.Builder
	b.WriteString(DefaultKeywords[0])
	b.WriteString(":{table:")
	b.WriteString(d.Table)
	b.WriteString(", label:")
	if len(d.Labels) == 1 {
		b.WriteString(d.Labels[0])
	} else {
		b.WriteString("[" + strings.Join(d.Labels, ", ") + "]")
	}
	b.WriteString(", value:")
	b.WriteString(d.Value)
	if d.Filter != "" {
		b.WriteString(", filter:")
		b.WriteString(d.Filter)
	}
	if d.Limit != "" {
		b.WriteString(", limit:")
		b.WriteString(d.Limit)
	}
	b.WriteString("}")
	return b.String()
}

// Equal reports whether two directives describe the same lookup.
func (d Directive) Equal(o Directive) bool {
	if d.Table != o.Table || d.Value != o.Value || d.Filter != o.Filter || d.Limit != o.Limit {
		return false
	}
	if len(d.Labels) != len(o.Labels) {
		return false
	}
	for i := range d.Labels {
		if d.Labels[i] != o.Labels[i] {
			return false
		}
	}
	return true
}
