package extractors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"datalist/internal/db"
	"datalist/internal/introspect"
	"datalist/internal/logger"
	"datalist/internal/query"
)

// sqliteDialect implements Dialect for SQLite.
type sqliteDialect struct{}

// SQLite has no column comments; a trailing "-- comment" on the column's line
// of the CREATE TABLE statement is used instead.
func (sqliteDialect) Fields(ctx context.Context, dbConn *sql.DB, schema, table string) ([]introspect.Field, error) {
	dbName := schema
	if dbName == "" {
		dbName = "main"
	}
	quotedDB := strings.ReplaceAll(dbName, `"`, `""`)

	var createSQL sql.NullString
	err := dbConn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT sql FROM "%s".sqlite_master WHERE type = 'table' AND name = ?`, quotedDB), table).
		Scan(&createSQL)
	if err != nil && err != sql.ErrNoRows {
		logger.Error("read table definition of %s.%s: %v", dbName, table, err)
	}
	comments := columnComments(createSQL.String)

	tiQuery := fmt.Sprintf(`PRAGMA "%s".table_info('%s')`, quotedDB, strings.ReplaceAll(table, "'", "''"))
	pr, err := dbConn.QueryContext(ctx, tiQuery)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s.%s: %w", dbName, table, err)
	}
	defer pr.Close()

	var fields []introspect.Field
	for pr.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := pr.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column for %s.%s: %w", dbName, table, err)
		}
		fields = append(fields, introspect.Field{
			Name:     name,
			Type:     ctype,
			Nullable: notnull == 0,
			PK:       pk != 0,
			Comment:  comments[strings.ToLower(name)],
		})
	}
	return fields, pr.Err()
}

func (sqliteDialect) LimitStyle() query.LimitStyle { return query.LimitClause }

// columnComments maps lower-cased column names to the "--" comment written
// on the same line of a CREATE TABLE statement.
func columnComments(createSQL string) map[string]string {
	comments := map[string]string{}
	for _, line := range strings.Split(createSQL, "\n") {
		i := strings.Index(line, "--")
		if i < 0 {
			continue
		}
		def := strings.TrimSpace(line[:i])
		if open := strings.LastIndex(def, "("); open >= 0 && strings.Contains(strings.ToUpper(def[:open]), "CREATE TABLE") {
			def = strings.TrimSpace(def[open+1:])
		}
		fields := strings.Fields(def)
		if len(fields) == 0 {
			continue
		}
		name := strings.Trim(fields[0], "\"`[]")
		switch strings.ToUpper(name) {
		case "PRIMARY", "FOREIGN", "UNIQUE", "CHECK", "CONSTRAINT", ")":
			continue
		}
		comments[strings.ToLower(name)] = strings.TrimSpace(line[i+2:])
	}
	return comments
}

func init() {
	db.Register("sqlite3", sqliteDialect{})
	db.Register("sqlite", sqliteDialect{})
}
