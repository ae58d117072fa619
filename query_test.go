package connector

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_firstRowFirstColumn(t *testing.T) {
	c, mock := testSetupWithMock(t, nil)
	mock.ExpectPrepare("SELECT 1 AS x").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(int64(1))).
		RowsWillBeClosed()

	res, err := c.Query(context.Background(), FirstRowFirstColumn, "SELECT 1 AS x")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, int64(1), res.Value)
	assert.Equal(t, 1, c.LastQueryTotalRows())
	assert.Equal(t, []string{"x"}, c.LastQueryColumns())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_allRows(t *testing.T) {
	var dsn string
	c, mock := testConnectorWithMock(t, map[string]string{"server": "db1", "database": "app"})
	opener := c.opener
	c.opener = func(driverName, s string) (*sql.DB, error) {
		dsn = s
		return opener(driverName, s)
	}
	require.NoError(t, c.Connect(context.Background(), "Database", nil, false))
	assert.Contains(t, dsn, "server=db1;database=app")

	mock.ExpectPrepare("SELECT 1 AS x").
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(int64(1))).
		RowsWillBeClosed()

	res, err := c.Query(context.Background(), AllRows, "SELECT 1 AS x")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, map[string]any{"x": int64(1)}, res.Rows[0].Map())
	assert.Equal(t, 1, c.LastQueryTotalRows())
	assert.Equal(t, []string{"x"}, c.LastQueryColumns())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_modes(t *testing.T) {
	newRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "alpha").
			AddRow(int64(2), []byte("beta")).
			AddRow(int64(3), nil)
	}
	row := func(id int64, name any) Row {
		return Row{Columns: []string{"id", "name"}, Values: []any{id, name}}
	}
	tests := []struct {
		name      string
		mode      ResultMode
		opts      []QueryOption
		want      *Result
		wantTotal int
	}{
		{
			name:      "raw",
			mode:      Raw,
			want:      &Result{Mode: Raw, OK: true, Rows: []Row{row(1, "alpha"), row(2, "beta"), row(3, nil)}},
			wantTotal: 3,
		},
		{
			name:      "first row",
			mode:      FirstRow,
			want:      &Result{Mode: FirstRow, OK: true, Row: row(1, "alpha")},
			wantTotal: 1,
		},
		{
			name:      "first row first column",
			mode:      FirstRowFirstColumn,
			want:      &Result{Mode: FirstRowFirstColumn, OK: true, Value: int64(1)},
			wantTotal: 1,
		},
		{
			name:      "key value pairs",
			mode:      AllKeyValuePairs,
			want:      &Result{Mode: AllKeyValuePairs, OK: true, Pairs: map[string]any{"1": "alpha", "2": "beta", "3": nil}},
			wantTotal: 3,
		},
		{
			name:      "first column values",
			mode:      AllFirstColumnValues,
			want:      &Result{Mode: AllFirstColumnValues, OK: true, Values: []any{int64(1), int64(2), int64(3)}},
			wantTotal: 3,
		},
		{
			name:      "all rows",
			mode:      AllRows,
			want:      &Result{Mode: AllRows, OK: true, Rows: []Row{row(1, "alpha"), row(2, "beta"), row(3, nil)}},
			wantTotal: 3,
		},
		{
			name: "all rows assoc",
			mode: AllRowsAssoc,
			opts: []QueryOption{IndexField("name")},
			want: &Result{Mode: AllRowsAssoc, OK: true, Indexed: map[string]Row{
				"alpha": row(1, "alpha"),
				"beta":  row(2, "beta"),
				"":      row(3, nil),
			}},
			wantTotal: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := testSetupWithMock(t, nil)
			mock.ExpectPrepare("SELECT id, name FROM t").ExpectQuery().WillReturnRows(newRows()).RowsWillBeClosed()

			got, err := c.Query(context.Background(), tt.mode, "SELECT id, name FROM t", tt.opts...)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Query() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantTotal, c.LastQueryTotalRows())
			assert.Equal(t, []string{"id", "name"}, c.LastQueryColumns())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQuery_emptyResult(t *testing.T) {
	tests := []struct {
		mode ResultMode
		want *Result
	}{
		{mode: Raw, want: &Result{Mode: Raw}},
		{mode: FirstRow, want: &Result{Mode: FirstRow}},
		{mode: FirstRowFirstColumn, want: &Result{Mode: FirstRowFirstColumn, Value: ""}},
		{mode: AllKeyValuePairs, want: &Result{Mode: AllKeyValuePairs, OK: true, Pairs: map[string]any{}}},
		{mode: AllFirstColumnValues, want: &Result{Mode: AllFirstColumnValues, OK: true, Values: []any{}}},
		{mode: AllRows, want: &Result{Mode: AllRows, OK: true, Rows: []Row{}}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			c, mock := testSetupWithMock(t, nil)
			mock.ExpectPrepare("SELECT v FROM t WHERE 1 = 0").ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"v"}))

			got, err := c.Query(context.Background(), tt.mode, "SELECT v FROM t WHERE 1 = 0")
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Query() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 0, c.LastQueryTotalRows())
		})
	}
}

func TestQuery_noResultSet(t *testing.T) {
	c, mock := testSetupWithMock(t, nil)
	mock.ExpectPrepare("UPDATE t SET v = 1").ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{}))

	res, err := c.Query(context.Background(), FirstRowFirstColumn, "UPDATE t SET v = 1")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "", res.Value)
	assert.Empty(t, c.LastQueryColumns())
	assert.Equal(t, 0, c.LastQueryTotalRows())

	mock.ExpectPrepare("DELETE FROM t").ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{}))
	res, err = c.Query(context.Background(), AllRowsAssoc, "DELETE FROM t", IndexField("id"))
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, res.Indexed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_invalidArguments(t *testing.T) {
	ctx := context.Background()

	// checked before the connection
	unconnected := New(MapConfig{})
	_, err := unconnected.Query(ctx, ResultMode(42), "SELECT 1")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "ResultMode(42)")
	_, err = unconnected.Query(ctx, AllRowsAssoc, "SELECT 1")
	require.ErrorIs(t, err, ErrInvalidArgument)

	c, mock := testSetupWithMock(t, nil)
	mock.ExpectPrepare("SELECT a FROM t").ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"a"}).AddRow("x"))
	// never suppressed
	_, err = c.Query(ctx, AllRowsAssoc, "SELECT a FROM t", IndexField("b"), SuppressErrors())
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, err, c.LastError())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_failure(t *testing.T) {
	ctx := context.Background()
	native := &pq.Error{Code: "42P01", Message: `relation "missing" does not exist`}

	t.Run("throw", func(t *testing.T) {
		c, mock := testSetupWithMock(t, map[string]string{"driver": "pgsql"})
		mock.ExpectPrepare("SELECT * FROM missing").WillReturnError(native)

		res, err := c.Query(ctx, AllRows, "SELECT * FROM missing")
		require.ErrorIs(t, err, ErrQuery)
		require.ErrorIs(t, err, native)
		assert.Nil(t, res)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "42P01", e.Code)
		assert.Equal(t, err, c.LastError())
	})

	t.Run("suppress", func(t *testing.T) {
		sink := &recordingSink{}
		c, mock := testSetupWithMock(t, map[string]string{"driver": "pgsql"}, WithDiagnostics(sink))
		mock.ExpectPrepare("SELECT * FROM missing").ExpectQuery().WillReturnError(native)

		res, err := c.Query(ctx, AllRows, "SELECT * FROM missing", SuppressErrors())
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.False(t, res.OK)
		require.ErrorIs(t, res.Err, ErrQuery)
		assert.Equal(t, res.Err, c.LastError())
		require.Len(t, sink.errs, 1)
		assert.Equal(t, 0, c.LastQueryTotalRows())
	})

	t.Run("fetch", func(t *testing.T) {
		c, mock := testSetupWithMock(t, nil)
		rows := sqlmock.NewRows([]string{"v"}).AddRow("a").AddRow("b").RowError(1, errors.New("connection reset"))
		mock.ExpectPrepare("SELECT v FROM t").ExpectQuery().WillReturnRows(rows).RowsWillBeClosed()

		_, err := c.Query(ctx, AllRows, "SELECT v FROM t")
		require.ErrorIs(t, err, ErrQuery)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuery_caseFolding(t *testing.T) {
	c, mock := testSetupWithMock(t, map[string]string{"case": "upper"})
	mock.ExpectPrepare("SELECT id, Name FROM t").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id", "Name"}).AddRow(int64(7), "x"))

	res, err := c.Query(context.Background(), AllRowsAssoc, "SELECT id, Name FROM t", IndexField("ID"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "NAME"}, c.LastQueryColumns())
	require.Contains(t, res.Indexed, "7")
	v, ok := res.Indexed["7"].Get("NAME")
	require.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, map[string]any{"ID": int64(7), "NAME": "x"}, res.Indexed["7"].Map())
}

func TestQuery_caseFolding_indexField(t *testing.T) {
	c, mock := testSetupWithMock(t, map[string]string{"case": "upper"})
	mock.ExpectPrepare("SELECT id, Name FROM t").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id", "Name"}).AddRow(int64(7), "x").AddRow(int64(8), "y"))

	res, err := c.Query(context.Background(), AllRowsAssoc, "SELECT id, Name FROM t", IndexField("id"))
	require.NoError(t, err)
	assert.Len(t, res.Indexed, 2)
	v, ok := res.Indexed["8"].Get("NAME")
	require.True(t, ok)
	assert.Equal(t, "y", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_stringify(t *testing.T) {
	c, mock := testSetupWithMock(t, map[string]string{"stringifyFetches": "1"})
	ts := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	mock.ExpectPrepare("SELECT * FROM t").ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"i", "f", "b", "ts", "n"}).AddRow(int64(42), 1.5, true, ts, nil))

	res, err := c.Query(context.Background(), FirstRow, "SELECT * FROM t")
	require.NoError(t, err)
	assert.Equal(t, []any{"42", "1.5", "1", "2024-05-17 10:30:00", nil}, res.Row.Values)
}

func TestResultMode_String(t *testing.T) {
	assert.Equal(t, "RT_ALL_ROWS_ASSOC", AllRowsAssoc.String())
	assert.Equal(t, "RT_RAW", Raw.String())
	assert.Equal(t, "ResultMode(-1)", ResultMode(-1).String())
}

func TestRow_Get(t *testing.T) {
	r := Row{Columns: []string{"a"}, Values: []any{1}}
	_, ok := r.Get("b")
	assert.False(t, ok)
}
