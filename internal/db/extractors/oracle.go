//go:build oracle
// +build oracle

package extractors

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/godror/godror"

	"datalist/internal/db"
	"datalist/internal/introspect"
	"datalist/internal/logger"
	"datalist/internal/query"
)

// oracleDialect implements Dialect for Oracle.
type oracleDialect struct{}

// This is the column reader for Oracle; comments come from all_col_comments.
func (oracleDialect) Fields(ctx context.Context, dbConn *sql.DB, schema, table string) ([]introspect.Field, error) {
	cr, err := dbConn.QueryContext(ctx, `
        SELECT atc.column_name, atc.data_type, atc.nullable, acc.comments
        FROM all_tab_columns atc
        LEFT JOIN all_col_comments acc
          ON acc.owner = atc.owner
         AND acc.table_name = atc.table_name
         AND acc.column_name = atc.column_name
        WHERE atc.owner = NVL(:1, USER) AND atc.table_name = :2
        ORDER BY atc.column_id`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s.%s: %w", schema, table, err)
	}

	var fields []introspect.Field
	for cr.Next() {
		var f introspect.Field
		var nullable string
		var comment sql.NullString
		if err := cr.Scan(&f.Name, &f.Type, &nullable, &comment); err != nil {
			cr.Close()
			return nil, fmt.Errorf("scan column for %s.%s: %w", schema, table, err)
		}
		f.Nullable = (nullable == "Y")
		f.Comment = comment.String
		fields = append(fields, f)
	}
	err = cr.Err()
	cr.Close()
	if err != nil {
		return nil, fmt.Errorf("read columns for %s.%s: %w", schema, table, err)
	}

	pkr, err := dbConn.QueryContext(ctx, `
        SELECT acc.column_name
        FROM all_cons_columns acc
        JOIN all_constraints ac ON acc.owner = ac.owner AND acc.constraint_name = ac.constraint_name
        WHERE ac.constraint_type = 'P' AND acc.owner = NVL(:1, USER) AND acc.table_name = :2`, schema, table)
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

func (oracleDialect) LimitStyle() query.LimitStyle { return query.FetchFirst }

func init() {
	db.Register("godror", oracleDialect{})
	db.Register("oracle", oracleDialect{})
}
