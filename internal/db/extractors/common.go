package extractors

import "datalist/internal/introspect"

// markPK flags the field named col as part of the primary key.
func markPK(fields []introspect.Field, col string) {
	for j := range fields {
		if fields[j].Name == col {
			fields[j].PK = true
		}
	}
}
