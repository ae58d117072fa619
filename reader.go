package connector

import (
	"context"
	"database/sql"
	"time"

	"github.com/hashicorp/go-hclog"
)

// LoggingQueryer traces statements sent to a DB and bounds them with an
// optional timeout.
type LoggingQueryer struct {
	db      DB
	logger  hclog.Logger
	timeout time.Duration
}

func NewLoggingQueryer(db DB, opts ...LoggingOption) LoggingQueryer {
	r := LoggingQueryer{
		db:     db,
		logger: hclog.NewNullLogger(),
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

type LoggingOption func(*LoggingQueryer)

// WithQueryLogger used to log statements before executing them
func WithQueryLogger(l hclog.Logger) LoggingOption {
	return func(r *LoggingQueryer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithQueryTimeout for a single operation
func WithQueryTimeout(t time.Duration) LoggingOption {
	return func(r *LoggingQueryer) {
		r.timeout = t
	}
}

// Context derives the context a whole operation (prepare, execute, fetch)
// runs under. The returned CancelFunc must be called once the cursor is closed.
func (r LoggingQueryer) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout != 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return ctx, func() {}
}

// Prepare a statement. The CloseFunc releases it.
func (r LoggingQueryer) Prepare(ctx context.Context, q string) (*sql.Stmt, CloseFunc, error) {
	r.logger.Trace("prepare", "sql", q)
	stmt, err := r.db.PrepareContext(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	return stmt, func() { stmt.Close() }, nil
}

func (r LoggingQueryer) Query(ctx context.Context, q string, v ...any) (*sql.Rows, CloseFunc, error) {
	r.logger.Trace("query", "sql", q, "args", len(v))
	rows, err := r.db.QueryContext(ctx, q, v...)
	if err != nil {
		return nil, nil, err
	}
	return rows, func() { rows.Close() }, nil
}

func (r LoggingQueryer) Exec(ctx context.Context, q string, v ...any) (sql.Result, error) {
	r.logger.Trace("exec", "sql", q, "args", len(v))
	return r.db.ExecContext(ctx, q, v...)
}

// CloseFunc should be called when result won't be processed anymore
type CloseFunc func()
