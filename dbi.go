package connector

import (
	"context"
	"database/sql"
)

// DB is the common interface for statement execution, compatible with
// database/sql.Conn and database/sql.Tx.
type DB interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
}

// ConfigProvider resolves a named configuration section. Keys are matched
// case-insensitively and a missing key or section is never an error.
type ConfigProvider interface {
	Section(name string) (map[string]string, error)
}

// ParameterStore supplies named request values to the binding and literal helpers.
type ParameterStore interface {
	Param(name string) string
}

// DiagnosticSink receives every failure the connector records, including the
// ones suppressed by SuppressErrors.
type DiagnosticSink interface {
	Record(err error)
}

// Params is a ParameterStore backed by a map.
type Params map[string]string

// Param implements ParameterStore
func (p Params) Param(name string) string {
	return p[name]
}

// LastError is a DiagnosticSink keeping the most recent failure.
type LastError struct {
	err error
}

// Record implements DiagnosticSink
func (l *LastError) Record(err error) {
	l.err = err
}

// Err returns the last recorded failure.
func (l *LastError) Err() error {
	return l.err
}

// Reset clears the recorded failure.
func (l *LastError) Reset() {
	l.err = nil
}
