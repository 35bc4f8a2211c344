package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"datalist/internal/db"
	"datalist/internal/introspect"
	"datalist/internal/logger"
	"datalist/internal/query"
)

// pgDialect implements Dialect using information_schema + pg_catalog queries.
type pgDialect struct{}

// This is the column reader for PostgreSQL; comments come from col_description.
func (pgDialect) Fields(ctx context.Context, dbConn *sql.DB, schema, table string) ([]introspect.Field, error) {
	cr, err := dbConn.QueryContext(ctx, `
        SELECT c.column_name, c.data_type, c.is_nullable = 'YES',
               col_description((quote_ident(c.table_schema)||'.'||quote_ident(c.table_name))::regclass, c.ordinal_position::int)
        FROM information_schema.columns c
        WHERE c.table_schema = COALESCE(NULLIF($1, ''), current_schema()) AND c.table_name = $2
        ORDER BY c.ordinal_position`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s.%s: %w", schema, table, err)
	}

	var fields []introspect.Field
	for cr.Next() {
		var f introspect.Field
		var comment sql.NullString
		if err := cr.Scan(&f.Name, &f.Type, &f.Nullable, &comment); err != nil {
			cr.Close()
			return nil, fmt.Errorf("scan column for %s.%s: %w", schema, table, err)
		}
		f.Comment = comment.String
		fields = append(fields, f)
	}
	err = cr.Err()
	cr.Close()
	if err != nil {
		return nil, fmt.Errorf("read columns for %s.%s: %w", schema, table, err)
	}

	pkr, err := dbConn.QueryContext(ctx, `
        SELECT a.attname
        FROM pg_index i
        JOIN pg_class c ON i.indrelid = c.oid
        JOIN pg_namespace ns ON c.relnamespace = ns.oid
        JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY(i.indkey)
        WHERE ns.nspname = COALESCE(NULLIF($1, ''), current_schema()) AND c.relname = $2 AND i.indisprimary`, schema, table)
	if err == nil {
		for pkr.Next() {
			var pkcol string
			if err := pkr.Scan(&pkcol); err == nil {
				markPK(fields, pkcol)
			} else {
				logger.Error("scan primary key: %v", err)
			}
		}
		pkr.Close()
	} else {
		logger.Error("query primary key: %v", err)
	}
	return fields, nil
}

func (pgDialect) LimitStyle() query.LimitStyle { return query.LimitClause }

func init() {
	db.Register("postgres", pgDialect{})
	db.Register("postgresql", pgDialect{})
}
