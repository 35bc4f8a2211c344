package directive

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	var tests = []struct {
		name       string
		annotation string
		want       Directive
	}{
		{"full directive",
			"lookup:{table:HR.EMPLOYEES, label:[FULL_NAME, PHONE], value:ID, filter:ACTIVE, limit:999}",
			Directive{Table: "HR.EMPLOYEES", Labels: []string{"FULL_NAME", "PHONE"}, Value: "ID", Filter: "ACTIVE", Limit: "999"}},
		{"single label",
			"lookup:{table:customers, label:name, value:id}",
			Directive{Table: "customers", Labels: []string{"name"}, Value: "id"}},
		{"legacy keyword and surrounding text",
			"Employee who placed the order. dropdown : { table : HR.EMPLOYEES , label : [ FULL_NAME ] , value : ID } see HR",
			Directive{Table: "HR.EMPLOYEES", Labels: []string{"FULL_NAME"}, Value: "ID"}},
		{"keyword case and labels alias",
			"LOOKUP:{table:t, labels:[a,b,], value:c,}",
			Directive{Table: "t", Labels: []string{"a", "b"}, Value: "c"}},
		{"newlines between tokens",
			"lookup:{\n\ttable:t,\n\tlabel:a,\n\tvalue:a\n}",
			Directive{Table: "t", Labels: []string{"a"}, Value: "a"}},
		{"limit kept as written",
			"lookup:{table:t, label:a, value:b, limit:abc}",
			Directive{Table: "t", Labels: []string{"a"}, Value: "b", Limit: "abc"}},
		{"negative limit kept as written",
			"lookup:{table:t, label:a, value:b, limit:-1}",
			Directive{Table: "t", Labels: []string{"a"}, Value: "b", Limit: "-1"}},
		{"signed limit before closing brace",
			"lookup:{table:t, label:a, value:b, limit:+5 }",
			Directive{Table: "t", Labels: []string{"a"}, Value: "b", Limit: "+5"}},
		{"limit before other keys",
			"lookup:{limit:1.5e3, table:t, label:a, value:b}",
			Directive{Table: "t", Labels: []string{"a"}, Value: "b", Limit: "1.5e3"}},
		{"newline after keyword",
			"lookup:\n{table:T, label:A, value:B}",
			Directive{Table: "T", Labels: []string{"A"}, Value: "B"}},
		{"newline before colon",
			"Seller.\r\ndropdown\n:\n\t{table:T, label:A, value:B}",
			Directive{Table: "T", Labels: []string{"A"}, Value: "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.annotation)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, d); diff != "" {
				t.Errorf("\nParse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseNotApplicable(t *testing.T) {
	var tests = []string{
		"",
		"plain column comment",
		"lookup table for employees",
		"lookup:[table:t]",
		"mylookup:{table:t, label:a, value:b}",
	}

	for _, annotation := range tests {
		t.Run(annotation, func(t *testing.T) {
			_, err := Parse(annotation)
			assert.ErrorIs(t, err, ErrNotApplicable)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	var tests = []struct {
		name       string
		annotation string
		reason     string
	}{
		{"quoted names", `lookup:{table:"t", label:a, value:b}`, "illegal character"},
		{"unterminated", "lookup:{table:t, label:a, value:b", "expected ',' or '}'"},
		{"missing colon", "lookup:{table t}", "expected ':'"},
		{"unknown key", "lookup:{table:t, label:a, value:b, order:a}", `unknown key "order"`},
		{"duplicate key", "lookup:{table:t, table:u, label:a, value:b}", `duplicate key "table"`},
		{"label and labels", "lookup:{table:t, label:a, labels:b, value:b}", `duplicate key "labels"`},
		{"missing table", "lookup:{label:a, value:b}", "missing table"},
		{"missing label", "lookup:{table:t, value:b}", "missing label"},
		{"missing value", "lookup:{table:t, label:a}", "missing value"},
		{"empty object", "lookup:{}", "missing table"},
		{"empty list", "lookup:{table:t, label:[], value:b}", "empty label list"},
		{"list for scalar", "lookup:{table:[t,u], label:a, value:b}", "not a list"},
		{"hyphen", "lookup:{table:my-table, label:a, value:b}", "illegal character"},
		{"nested object", "lookup:{table:{t}, label:a, value:b}", "expected identifier"},
		{"empty limit", "lookup:{table:t, label:a, value:b, limit:}", "expected identifier"},
		{"list for limit", "lookup:{table:t, label:a, value:b, limit:[5]}", "not a list"},
		{"unterminated limit", "lookup:{table:t, label:a, value:b, limit:-1", "expected ',' or '}'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.annotation)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.False(t, errors.Is(err, ErrNotApplicable))

			var me *MalformedError
			require.ErrorAs(t, err, &me)
			assert.Contains(t, me.Reason, tt.reason)
		})
	}
}

func TestParseMalformedLimitFallsBack(t *testing.T) {
	var tests = []struct {
		limit string
		want  int
	}{
		{"-1", 10000},
		{"+5", 10000},
		{"0", 10000},
		{"12.5", 10000},
		{"123456", 10000},
		{"250", 250},
	}

	for _, tt := range tests {
		t.Run(tt.limit, func(t *testing.T) {
			d, err := Parse("lookup:{table:t, label:a, value:b, limit:" + tt.limit + "}")
			require.NoError(t, err)
			assert.Equal(t, tt.limit, d.Limit)
			if got := d.EffectiveLimit(10000); got != tt.want {
				t.Errorf("\ngot %v, wanted %v", got, tt.want)
			}
		})
	}
}

func TestParseCustomKeywords(t *testing.T) {
	d, err := Parse("fk:{table:t, label:a, value:b}", "fk")
	require.NoError(t, err)
	assert.Equal(t, "t", d.Table)

	_, err = Parse("lookup:{table:t, label:a, value:b}", "fk")
	assert.ErrorIs(t, err, ErrNotApplicable)

	_, err = Parse("lookup:{table:t, label:a, value:b}", " ", "")
	assert.NoError(t, err, "blank keywords fall back to the defaults")
}

func TestRoundTrip(t *testing.T) {
	var tests = []string{
		"lookup:{table:HR.EMPLOYEES, label:[FULL_NAME, PHONE], value:ID, filter:ACTIVE, limit:999}",
		"dropdown:{table:t, label:a, value:a}",
		"lookup:{ limit:12, value:id, label:[x,y,z], table:s.t }",
		"lookup:{table:t, label:a, value:b, limit:oops}",
		"lookup:{table:t, label:a, value:b, limit:-1}",
	}

	for _, annotation := range tests {
		t.Run(annotation, func(t *testing.T) {
			d, err := Parse(annotation)
			require.NoError(t, err)

			again, err := Parse(d.String())
			require.NoError(t, err)
			if !d.Equal(again) {
				t.Errorf("\ngot %+v after round trip, wanted %+v", again, d)
			}
			assert.Equal(t, d.String(), again.String())
		})
	}
}
