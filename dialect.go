package connector

import (
	"fmt"
	"strings"
)

// Dialect isolates everything that differs between engines: the native
// driver and its connection string, argument and call syntax, savepoints
// and native error codes.
type Dialect interface {
	// Name is the dialect identifier reported by Connector.DialectName.
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// DSN renders the native connection string for d.
	DSN(d *Descriptor) (string, error)
	// NamedArg wraps a value bound by name.
	NamedArg(name string, value any) any
	// OutArg wraps a destination the engine writes an output value into.
	// It returns false when the engine has no output arguments.
	OutArg(name string, dest *any, in bool) (any, bool)
	// ExplicitOutBinding reports whether OUT-only procedure parameters must
	// still be bound, with a length hint, for the engine to return them.
	ExplicitOutBinding() bool
	// CallSQL builds the statement invoking a stored procedure.
	CallSQL(procedure string, params Bindings) string
	// Placeholder returns the query parameter marker for the n-th (1 based)
	// positional argument.
	Placeholder(n int) string
	SavepointSQL(name string) string
	RollbackToSQL(name string) string
	// RollbackSQL is issued when a rollback is requested outside a transaction.
	RollbackSQL() string
	AutoCommitSQL(on bool) string
	// ErrorCode extracts the native error code, or "".
	ErrorCode(err error) string
}

var dialects = map[string]Dialect{}

// RegisterDialect makes d available to LookupDialect under its name and aliases.
func RegisterDialect(d Dialect, aliases ...string) {
	for _, name := range append([]string{d.Name()}, aliases...) {
		dialects[strings.ToLower(name)] = d
	}
}

// LookupDialect by configured driver name.
func LookupDialect(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown driver %q", ErrConfiguration, name)
	}
	return d, nil
}

func init() {
	RegisterDialect(SQLSrv{}, "sqlserver", "mssql", "azuresql")
	RegisterDialect(MySQL{}, "mariadb")
	RegisterDialect(PgSQL{}, "postgres", "postgresql", "pgx")
	RegisterDialect(Trino{}, "presto")
}

// Output length hints for engines with explicit output binding.
const (
	outSizeLarge     = 32766 / 2
	outSizeUnlimited = -1
)

// OutSizeHint returns the buffer length hint for an OUT parameter.
func OutSizeHint(logicalType string) int {
	switch strings.ToLower(logicalType) {
	case TypeInt, TypeInteger, TypeText:
		return outSizeLarge
	}
	return outSizeUnlimited
}

// paramName strips the marker callers sometimes keep on parameter names.
func paramName(name string) string {
	return strings.TrimLeft(name, ":@$")
}

// callArgs lists the parameters that appear in the call text.
func callArgs(params Bindings) Bindings {
	var out Bindings
	for _, p := range params {
		if p.Direction != Out {
			out = append(out, p)
		}
	}
	return out
}

// positionalCall renders "CALL proc(m1, m2)" with the dialect's markers.
func positionalCall(d Dialect, procedure string, params Bindings) string {
	args := callArgs(params)
	marks := make([]string, len(args))
	for i := range args {
		marks[i] = d.Placeholder(i + 1)
	}
	return "CALL " + procedure + "(" + strings.Join(marks, ", ") + ")"
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
