package introspect

// Field is one column of the table being edited.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	PK       bool   `json:"pk"`
	Comment  string `json:"comment,omitempty"` // column comment as stored by the engine
	// Annotation is the text directives are read from: the comment, or a
	// configured override when the comment is empty.
	Annotation string `json:"annotation,omitempty"`
	Lookup     bool   `json:"lookup"` // annotation carries a parsable directive
}

// Form is the edit form of a single table.
type Form struct {
	Schema string  `json:"schema,omitempty"`
	Table  string  `json:"table"`
	Fields []Field `json:"fields"`
}

// LookupFields returns the names of the fields that carry a directive.
func (f Form) LookupFields() []string {
	var names []string
	for _, fld := range f.Fields {
		if fld.Lookup {
			names = append(names, fld.Name)
		}
	}
	return names
}

// Row maps a result column name to its cell value.
type Row map[string]any
