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

// mssqlDialect implements Dialect for Microsoft SQL Server.
type mssqlDialect struct{}

// This is the column reader for Microsoft SQL Server; comments are the
// MS_Description extended property of each column.
func (mssqlDialect) Fields(ctx context.Context, dbConn *sql.DB, schema, table string) ([]introspect.Field, error) {
	cr, err := dbConn.QueryContext(ctx, `
        SELECT c.COLUMN_NAME, c.DATA_TYPE, CASE WHEN c.IS_NULLABLE='YES' THEN 1 ELSE 0 END,
               CAST(sep.value AS nvarchar(4000))
        FROM INFORMATION_SCHEMA.COLUMNS c
        LEFT JOIN sys.extended_properties sep
          ON sep.major_id = OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME))
         AND sep.minor_id = COLUMNPROPERTY(sep.major_id, c.COLUMN_NAME, 'ColumnId')
         AND sep.name = 'MS_Description'
        WHERE c.TABLE_SCHEMA = COALESCE(NULLIF(@schema, ''), SCHEMA_NAME()) AND c.TABLE_NAME = @table
        ORDER BY c.ORDINAL_POSITION`, sql.Named("schema", schema), sql.Named("table", table))
	if err != nil {
		return nil, fmt.Errorf("query columns for %s.%s: %w", schema, table, err)
	}

	var fields []introspect.Field
	for cr.Next() {
		var f introspect.Field
		var nullableInt int
		var comment sql.NullString
		if err := cr.Scan(&f.Name, &f.Type, &nullableInt, &comment); err != nil {
			cr.Close()
			return nil, fmt.Errorf("scan column for %s.%s: %w", schema, table, err)
		}
		f.Nullable = nullableInt == 1
		f.Comment = comment.String
		fields = append(fields, f)
	}
	err = cr.Err()
	cr.Close()
	if err != nil {
		return nil, fmt.Errorf("read columns for %s.%s: %w", schema, table, err)
	}

	// primary keys
	pkr, err := dbConn.QueryContext(ctx, `
        SELECT k.COLUMN_NAME
        FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS t
        JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k ON t.CONSTRAINT_NAME = k.CONSTRAINT_NAME AND t.TABLE_SCHEMA = k.TABLE_SCHEMA
        WHERE t.CONSTRAINT_TYPE = 'PRIMARY KEY'
          AND k.TABLE_SCHEMA = COALESCE(NULLIF(@schema, ''), SCHEMA_NAME()) AND k.TABLE_NAME = @table`,
		sql.Named("schema", schema), sql.Named("table", table))
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

func (mssqlDialect) LimitStyle() query.LimitStyle { return query.TopClause }

func init() {
	db.Register("sqlserver", mssqlDialect{})
	db.Register("mssql", mssqlDialect{})
}
