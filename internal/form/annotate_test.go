package form

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"datalist/internal/introspect"
)

const customers = "lookup:{table:CUSTOMERS, label:NAME, value:ID}"

func ordersForm() introspect.Form {
	return introspect.Form{
		Schema: "SALES",
		Table:  "ORDERS",
		Fields: []introspect.Field{
			{Name: "ID", PK: true},
			{Name: "CUSTOMER_ID", Comment: "Buyer. " + customers},
			{Name: "NOTE", Comment: "free text"},
			{Name: "BROKEN", Comment: "lookup:{table:T, label:}"},
			{Name: "COUNTRY_CODE"},
			{Name: "CARRIER_ID"},
		},
	}
}

func TestResolve(t *testing.T) {
	overrides := map[string]string{
		"orders.country_code": "dropdown:{table:COUNTRIES, label:NAME, value:CODE}",
		"*_ID":                "lookup:{table:GENERIC, label:NAME, value:ID}",
		"*RIER_ID":            "lookup:{table:CARRIERS, label:NAME, value:ID}",
	}

	form := Resolve(ordersForm(), overrides, nil)

	var tests = []struct {
		field      string
		annotation string
		lookup     bool
	}{
		{"ID", "", false},
		{"CUSTOMER_ID", "Buyer. " + customers, true},
		{"NOTE", "free text", false},
		{"BROKEN", "lookup:{table:T, label:}", false},
		{"COUNTRY_CODE", "dropdown:{table:COUNTRIES, label:NAME, value:CODE}", true},
		{"CARRIER_ID", "lookup:{table:CARRIERS, label:NAME, value:ID}", true},
	}

	for i, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f := form.Fields[i]
			if f.Name != tt.field {
				t.Fatalf("\ngot field %v, wanted %v", f.Name, tt.field)
			}
			if f.Annotation != tt.annotation {
				t.Errorf("\ngot annotation %q, wanted %q", f.Annotation, tt.annotation)
			}
			if f.Lookup != tt.lookup {
				t.Errorf("\ngot lookup %v, wanted %v", f.Lookup, tt.lookup)
			}
		})
	}

	assert.Equal(t, []string{"CUSTOMER_ID", "COUNTRY_CODE", "CARRIER_ID"}, form.LookupFields())
}

func TestResolveKeepsInput(t *testing.T) {
	in := ordersForm()
	_ = Resolve(in, nil, nil)
	for _, f := range in.Fields {
		assert.Empty(t, f.Annotation)
		assert.False(t, f.Lookup)
	}
}

func TestResolveKeywords(t *testing.T) {
	form := Resolve(ordersForm(), nil, []string{"fk"})
	assert.Empty(t, form.LookupFields())

	in := ordersForm()
	in.Fields[2].Comment = "fk:{table:NOTES, label:TEXT, value:ID}"
	form = Resolve(in, nil, []string{"fk"})
	assert.Equal(t, []string{"NOTE"}, form.LookupFields())
}

func TestOverridePrecedence(t *testing.T) {
	ov := normalizeOverrides(map[string]string{
		"sales.orders.customer_id": "schema",
		"orders.customer_id":       "table",
		"*.customer_id":            "any table",
		"*_id":                     "short suffix",
		"*tomer_id":                "long suffix",
		"*":                        "ignored",
	})
	form := introspect.Form{Schema: "SALES", Table: "ORDERS"}

	assert.Equal(t, "schema", override(ov, form, "CUSTOMER_ID"))
	assert.Equal(t, "table", override(ov, introspect.Form{Table: "ORDERS"}, "CUSTOMER_ID"))
	assert.Equal(t, "any table", override(ov, introspect.Form{Table: "INVOICES"}, "CUSTOMER_ID"))
	assert.Equal(t, "long suffix", override(ov, form, "OLD_CUSTOMER_ID"))
	assert.Equal(t, "short suffix", override(ov, form, "SHIPPER_ID"))
	assert.Equal(t, "", override(ov, form, "NOTE"))
}

func TestResolveLooseDirectives(t *testing.T) {
	in := introspect.Form{Table: "ORDERS", Fields: []introspect.Field{
		{Name: "NEGATIVE_LIMIT", Comment: "lookup:{table:T, label:A, value:B, limit:-1}"},
		{Name: "SIGNED_LIMIT", Comment: "lookup:{table:T, label:A, value:B, limit:+5}"},
		{Name: "SPLIT_LINES", Comment: "Seller.\nlookup\n:\n{table:T, label:A, value:B}"},
	}}

	form := Resolve(in, nil, nil)
	assert.Equal(t, []string{"NEGATIVE_LIMIT", "SIGNED_LIMIT", "SPLIT_LINES"}, form.LookupFields())
}
