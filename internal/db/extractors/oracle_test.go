//go:build oracle
// +build oracle

package extractors

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOracleRowError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("all_tab_columns").WillReturnRows(
		sqlmock.NewRows([]string{"column_name", "data_type", "nullable", "comments"}).
			AddRow("ID", "NUMBER", "N", nil).
			AddRow("NAME", "VARCHAR2", "Y", nil).
			RowError(1, errReset))

	fields, err := oracleDialect{}.Fields(context.Background(), mockDB, "HR", "EMPLOYEES")
	if !errors.Is(err, errReset) {
		t.Errorf("\ngot error %v, wanted %v", err, errReset)
	}
	assert.Nil(t, fields)
	assert.NoError(t, mock.ExpectationsWereMet())
}
