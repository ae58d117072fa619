package connector

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteDML(t *testing.T) {
	ctx := context.Background()
	c, mock := testSetupWithMock(t, nil)
	mock.ExpectPrepare("DELETE FROM t WHERE done = 1").ExpectExec().WillReturnResult(sqlmock.NewResult(0, 3))

	res, err := c.ExecuteDML(ctx, "DELETE FROM t WHERE done = 1")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, int64(3), res.RowsAffected)

	mock.ExpectPrepare("DELETE FROM missing").WillReturnError(errors.New("invalid object name"))
	_, err = c.ExecuteDML(ctx, "DELETE FROM missing")
	require.ErrorIs(t, err, ErrQuery)

	mock.ExpectPrepare("DELETE FROM missing").WillReturnError(errors.New("invalid object name"))
	res, err = c.ExecuteDML(ctx, "DELETE FROM missing", SuppressErrors())
	require.NoError(t, err)
	assert.False(t, res.OK())
	require.ErrorIs(t, res.Err, ErrQuery)
	assert.Equal(t, res.Err, c.LastError())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutePreparedDML(t *testing.T) {
	ctx := context.Background()
	c, mock := testSetupWithMock(t, map[string]string{"driver": "mysql"})
	mock.ExpectPrepare("INSERT INTO t (id, name, active, note) VALUES (?, ?, ?, ?)").
		ExpectExec().
		WithArgs(int64(5), "O'Brien", true, nil).
		WillReturnResult(sqlmock.NewResult(5, 1))

	res, err := c.ExecutePreparedDML(ctx, "INSERT INTO t (id, name, active, note) VALUES (?, ?, ?, ?)",
		[]string{"int", "text", "bool", "text"},
		[]string{"5", "O'Brien", "true", ""})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)

	mock.ExpectPrepare("INSERT INTO t (id) VALUES (?)").
		ExpectExec().
		WithArgs(int64(5)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '5' for key 'PRIMARY'"})
	_, err = c.ExecutePreparedDML(ctx, "INSERT INTO t (id) VALUES (?)", []string{"int"}, []string{"5"})
	require.ErrorIs(t, err, ErrQuery)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "1062", e.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutePreparedDML_invalid(t *testing.T) {
	ctx := context.Background()

	// the argument count is checked before the connection
	unconnected := New(MapConfig{})
	_, err := unconnected.ExecutePreparedDML(ctx, "UPDATE t SET a = ?", []string{"int", "int"}, []string{"1"})
	require.ErrorIs(t, err, ErrArgumentMismatch)
	assert.Equal(t, err, unconnected.LastError())

	c, mock := testSetupWithMock(t, nil)
	_, err = c.ExecutePreparedDML(ctx, "UPDATE t SET a = ?", []string{"int"}, []string{"one"})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutePreparedDML2(t *testing.T) {
	ctx := context.Background()
	c, mock := testSetupWithMock(t, nil)

	var b Bindings
	b.Bind("id", "int", "7")
	b.Bind("@name", "text", "x")
	b.Bind("total", "int", "1", InOut)
	b.Bind("note", "clob", "")

	mock.ExpectPrepare("UPDATE t SET name = @name, note = @note WHERE id = @id; SELECT @total = @@ROWCOUNT").
		ExpectExec().
		WithArgs(sql.Named("id", int64(7)), sql.Named("name", "x"), sqlmock.AnyArg(), sql.Named("note", nil)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := c.ExecutePreparedDML2(ctx, "UPDATE t SET name = @name, note = @note WHERE id = @id; SELECT @total = @@ROWCOUNT", b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	total, ok := b.Get("total")
	require.True(t, ok)
	assert.Equal(t, "1", total.Value)
	require.NoError(t, mock.ExpectationsWereMet())

	b.Bind("id", "int", "seven")
	_, err = c.ExecutePreparedDML2(ctx, "UPDATE t SET name = @name WHERE id = @id", b)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExecutePreparedDML2_positional(t *testing.T) {
	c, mock := testSetupWithMock(t, map[string]string{"driver": "pgsql"})

	var b Bindings
	b.Bind("a", "int", "1")
	b.Bind("b", "text", "two", InOut)

	mock.ExpectPrepare("UPDATE t SET b = $2 WHERE a = $1").
		ExpectExec().
		WithArgs(int64(1), "two").
		WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := c.ExecutePreparedDML2(context.Background(), "UPDATE t SET b = $2 WHERE a = $1", b)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.RowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}
