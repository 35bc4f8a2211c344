// Package form renders a table's edit form and wires lookup-enabled fields
// to the browser client.
package form

import (
	"errors"
	"sort"
	"strings"

	"datalist/internal/directive"
	"datalist/internal/introspect"
	"datalist/internal/logger"
)

// Resolve fills each field's Annotation and Lookup flag.
//
// The annotation is the column comment. A field without a comment may take
// one from overrides, whose keys are matched case-insensitively in this order:
// "TABLE.COLUMN" (or "SCHEMA.TABLE.COLUMN"), "*.COLUMN", then the longest
// "*SUFFIX" matching the column name.
func Resolve(form introspect.Form, overrides map[string]string, keywords []string) introspect.Form {
	ov := normalizeOverrides(overrides)
	out := form
	out.Fields = make([]introspect.Field, len(form.Fields))
	for i, f := range form.Fields {
		f.Annotation = f.Comment
		if strings.TrimSpace(f.Annotation) == "" {
			f.Annotation = override(ov, form, f.Name)
		}
		_, err := directive.Parse(f.Annotation, keywords...)
		switch {
		case err == nil:
			f.Lookup = true
		case errors.Is(err, directive.ErrMalformed):
			logger.Warn("field %s.%s keeps plain input: %v", form.Table, f.Name, err)
		}
		out.Fields[i] = f
	}
	return out
}

type overrides struct {
	exact    map[string]string
	suffixes []string // longest first
	bySuffix map[string]string
}

func normalizeOverrides(in map[string]string) overrides {
	ov := overrides{exact: map[string]string{}, bySuffix: map[string]string{}}
	for k, v := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if strings.HasPrefix(k, "*") && !strings.HasPrefix(k, "*.") {
			s := strings.TrimPrefix(k, "*")
			if s == "" {
				continue
			}
			ov.bySuffix[s] = v
			ov.suffixes = append(ov.suffixes, s)
			continue
		}
		ov.exact[k] = v
	}
	sort.Slice(ov.suffixes, func(i, j int) bool {
		if len(ov.suffixes[i]) != len(ov.suffixes[j]) {
			return len(ov.suffixes[i]) > len(ov.suffixes[j])
		}
		return ov.suffixes[i] < ov.suffixes[j]
	})
	return ov
}

func override(ov overrides, form introspect.Form, column string) string {
	col := strings.ToLower(column)
	table := strings.ToLower(form.Table)
	keys := []string{table + "." + col}
	if form.Schema != "" {
		keys = append([]string{strings.ToLower(form.Schema) + "." + table + "." + col}, keys...)
	}
	keys = append(keys, "*."+col)
	for _, k := range keys {
		if v, ok := ov.exact[k]; ok {
			return v
		}
	}
	for _, s := range ov.suffixes {
		if strings.HasSuffix(col, s) {
			return ov.bySuffix[s]
		}
	}
	return ""
}
