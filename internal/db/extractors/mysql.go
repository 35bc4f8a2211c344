package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"datalist/internal/db"
	"datalist/internal/introspect"
	"datalist/internal/query"
)

// myDialect implements Dialect for MySQL (information_schema).
type myDialect struct{}

// Column comments live in information_schema.columns.column_comment.
func (myDialect) Fields(ctx context.Context, dbConn *sql.DB, schema, table string) ([]introspect.Field, error) {
	cr, err := dbConn.QueryContext(ctx, `
        SELECT column_name, column_type, is_nullable = 'YES', column_key = 'PRI', column_comment
        FROM information_schema.columns
        WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ?
        ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s.%s: %w", schema, table, err)
	}
	defer cr.Close()

	var fields []introspect.Field
	for cr.Next() {
		var f introspect.Field
		var comment sql.NullString
		if err := cr.Scan(&f.Name, &f.Type, &f.Nullable, &f.PK, &comment); err != nil {
			return nil, fmt.Errorf("scan column for %s.%s: %w", schema, table, err)
		}
		f.Comment = comment.String
		fields = append(fields, f)
	}
	return fields, cr.Err()
}

func (myDialect) LimitStyle() query.LimitStyle { return query.LimitClause }

func init() {
	db.Register("mysql", myDialect{})
	db.Register("mariadb", myDialect{})
}
