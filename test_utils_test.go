package connector

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// testSetupWithMock returns a Connector connected through sqlmock with cfg as
// its Database section. Statements are matched verbatim.
func testSetupWithMock(t *testing.T, cfg map[string]string, opts ...Option) (*Connector, sqlmock.Sqlmock) {
	t.Helper()
	c, mock := testConnectorWithMock(t, cfg, opts...)
	require.NoError(t, c.Connect(context.Background(), "Database", nil, false))
	return c, mock
}

// testConnectorWithMock returns an unconnected Connector whose opener hands
// out the sqlmock database.
func testConnectorWithMock(t *testing.T, cfg map[string]string, opts ...Option) (*Connector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	opener := func(string, string) (*sql.DB, error) { return db, nil }
	c := New(MapConfig{"Database": cfg}, append([]Option{WithOpener(opener)}, opts...)...)
	t.Cleanup(func() {
		_ = c.Disconnect(true)
		_ = db.Close()
	})
	return c, mock
}

// recordingSink collects every recorded diagnostic.
type recordingSink struct {
	errs []error
}

func (s *recordingSink) Record(err error) {
	s.errs = append(s.errs, err)
}
