package connector

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Opener opens the native database handle. It defaults to sql.Open.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Connector owns a single native connection. It is not safe for concurrent
// use; use one Connector per goroutine.
type Connector struct {
	provider    ConfigProvider
	logger      hclog.Logger
	params      ParameterStore
	sink        DiagnosticSink
	last        LastError
	dialect     Dialect
	opener      Opener
	stmtTimeout time.Duration

	desc       *Descriptor
	dia        Dialect
	db         *sql.DB
	conn       *sql.Conn
	tx         *sql.Tx
	poolKey    string
	persistent bool

	lastColumns   []string
	lastTotalRows int
}

// Option configures a Connector.
type Option func(*Connector)

// WithLogger used to trace connections and statements
func WithLogger(l hclog.Logger) Option {
	return func(c *Connector) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithParameterStore used by BindParam, NullStrParam and DefaultStrParam
func WithParameterStore(p ParameterStore) Option {
	return func(c *Connector) {
		c.params = p
	}
}

// WithDiagnostics receives every recorded failure in addition to LastError
func WithDiagnostics(s DiagnosticSink) Option {
	return func(c *Connector) {
		c.sink = s
	}
}

// WithDialect overrides the dialect selected from the driver name
func WithDialect(d Dialect) Option {
	return func(c *Connector) {
		c.dialect = d
	}
}

// WithOpener replaces sql.Open
func WithOpener(o Opener) Option {
	return func(c *Connector) {
		c.opener = o
	}
}

// WithStatementTimeout bounds every single operation
func WithStatementTimeout(t time.Duration) Option {
	return func(c *Connector) {
		c.stmtTimeout = t
	}
}

// New Connector reading its configuration from provider.
func New(provider ConfigProvider, opts ...Option) *Connector {
	c := &Connector{
		provider: provider,
		logger:   hclog.NewNullLogger(),
		params:   Params{},
		opener:   sql.Open,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Connected reports whether Connect succeeded and Disconnect was not called since.
func (c *Connector) Connected() bool {
	return c.conn != nil
}

// Connect opens the connection described by the configuration section.
// Calling it while connected does nothing.
func (c *Connector) Connect(ctx context.Context, section string, overrides map[string]string, persistent bool) error {
	if c.conn != nil {
		return nil
	}
	if c.provider == nil {
		return c.record(newError(ErrConfiguration, "connect", "no configuration provider", nil))
	}
	cfg, err := c.provider.Section(section)
	if err != nil {
		return c.record(newError(ErrConfiguration, "connect", section, err))
	}
	desc, err := Resolve(cfg, overrides)
	if err != nil {
		return c.record(err)
	}
	dia := c.dialect
	if dia == nil {
		if dia, err = LookupDialect(desc.Driver); err != nil {
			return c.record(err)
		}
	}
	dsn, err := dia.DSN(desc)
	if err != nil {
		return c.record(err)
	}
	driverName := dia.DriverName()
	if u := desc.URL(); u != nil && u.GoDriver != "" {
		driverName = u.GoDriver
	}
	persistent = persistent || isTrue(desc.Persistent)

	db, conn, key, err := c.open(ctx, desc, driverName, dsn, persistent)
	if err != nil {
		e := newError(ErrConnection, "connect", "", err)
		e.Code = dia.ErrorCode(err)
		return c.record(e)
	}
	c.desc, c.dia, c.db, c.conn, c.poolKey, c.persistent = desc, dia, db, conn, key, persistent
	c.logger.Trace("database connected", "connect", desc.ConnectString(), "persistent", persistent)

	if desc.AutoCommit != nil {
		if stmt := dia.AutoCommitSQL(*desc.AutoCommit); stmt != "" {
			if _, err := c.queryer().Exec(ctx, stmt); err != nil {
				c.logger.Warn("autocommit setting failed", "sql", stmt, "error", err)
			}
		}
	}
	for _, stmt := range desc.ConnectSQL {
		res, err := c.Query(ctx, FirstRowFirstColumn, stmt, SuppressErrors())
		if err == nil && res.Err != nil {
			err = res.Err
		}
		if err != nil {
			c.logger.Warn("connect statement failed", "sql", stmt, "error", err)
		}
	}
	return nil
}

func (c *Connector) open(ctx context.Context, desc *Descriptor, driverName, dsn string, persistent bool) (*sql.DB, *sql.Conn, string, error) {
	var (
		db      *sql.DB
		key     string
		created = true
		err     error
	)
	if persistent {
		key = persistentKey(driverName, dsn)
		db, created, err = acquirePersistent(key, func() (*sql.DB, error) { return c.opener(driverName, dsn) })
	} else {
		db, err = c.opener(driverName, dsn)
	}
	if err != nil {
		return nil, nil, "", err
	}

	var conn *sql.Conn
	op := func() error {
		var err error
		if conn, err = db.Conn(ctx); err != nil {
			return err
		}
		if err = conn.PingContext(ctx); err != nil {
			conn.Close()
			conn = nil
			return err
		}
		return nil
	}
	if desc.ConnectRetries == nil || *desc.ConnectRetries <= 0 {
		err = op()
	} else {
		b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(*desc.ConnectRetries)), ctx)
		err = backoff.RetryNotify(op, b, func(err error, d time.Duration) {
			c.logger.Debug("connect failed, retrying", "error", err, "backoff", d)
		})
	}
	if err != nil {
		// A shared handle stays registered for the connectors already using it.
		if created {
			if persistent {
				releasePersistent(key)
			}
			db.Close()
		}
		return nil, nil, "", err
	}
	return db, conn, key, nil
}

// Disconnect releases the connection. A persistent connection keeps its
// native handle open for the next Connect unless force is set. Uncommitted
// work is rolled back. Disconnecting twice does nothing.
func (c *Connector) Disconnect(force bool) error {
	if c.conn == nil {
		return nil
	}
	var mErr *multierror.Error
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil && err != sql.ErrTxDone {
			mErr = multierror.Append(mErr, err)
		}
		c.tx = nil
	}
	if err := c.conn.Close(); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if !c.persistent || force {
		if c.persistent {
			releasePersistent(c.poolKey)
		}
		if err := c.db.Close(); err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}
	c.logger.Trace("database disconnected", "force", force)
	c.conn, c.db, c.desc, c.dia, c.poolKey, c.persistent = nil, nil, nil, nil, "", false
	return mErr.ErrorOrNil()
}

// Close implements io.Closer.
func (c *Connector) Close() error {
	return c.Disconnect(false)
}

// Using connects c, runs fn and disconnects on every exit path.
func Using(ctx context.Context, c *Connector, section string, fn func(*Connector) error) (err error) {
	if err := c.Connect(ctx, section, nil, false); err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(c)
}

// StartTransaction begins a transaction. Inside a transaction a named
// savepoint is set instead.
func (c *Connector) StartTransaction(ctx context.Context, savepoint string) error {
	if c.conn == nil {
		return c.notConnected("start transaction")
	}
	if savepoint != "" && !isIdentifier(savepoint) {
		return c.record(newError(ErrInvalidArgument, "start transaction", "invalid savepoint name "+savepoint, nil))
	}
	if c.tx == nil {
		tx, err := c.conn.BeginTx(ctx, nil)
		if err != nil {
			return c.failure("start transaction", ErrQuery, err)
		}
		c.tx = tx
		if savepoint == "" || c.dia.SavepointSQL(savepoint) == "" {
			return nil
		}
	} else if savepoint == "" {
		return c.record(newError(ErrInvalidArgument, "start transaction", "transaction already in progress", nil))
	}
	stmt := c.dia.SavepointSQL(savepoint)
	if stmt == "" {
		return c.record(newError(ErrNotSupported, "start transaction", "savepoints on "+c.dia.Name(), nil))
	}
	if _, err := c.queryer().Exec(ctx, stmt); err != nil {
		return c.failure("start transaction", ErrQuery, err)
	}
	return nil
}

// Commit the running transaction. Without one there is nothing to do.
func (c *Connector) Commit(context.Context) error {
	if c.conn == nil {
		return c.notConnected("commit")
	}
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return c.failure("commit", ErrQuery, err)
	}
	return nil
}

// Rollback the running transaction, or to savepoint when one is named.
// Outside a transaction the dialect's rollback statement is still issued.
func (c *Connector) Rollback(ctx context.Context, savepoint string) error {
	if c.conn == nil {
		return c.notConnected("rollback")
	}
	switch {
	case c.tx != nil && savepoint != "":
		if !isIdentifier(savepoint) {
			return c.record(newError(ErrInvalidArgument, "rollback", "invalid savepoint name "+savepoint, nil))
		}
		stmt := c.dia.RollbackToSQL(savepoint)
		if stmt == "" {
			return c.record(newError(ErrNotSupported, "rollback", "savepoints on "+c.dia.Name(), nil))
		}
		if _, err := c.queryer().Exec(ctx, stmt); err != nil {
			return c.failure("rollback", ErrQuery, err)
		}
	case c.tx != nil:
		tx := c.tx
		c.tx = nil
		if err := tx.Rollback(); err != nil {
			return c.failure("rollback", ErrQuery, err)
		}
	default:
		if _, err := c.queryer().Exec(ctx, c.dia.RollbackSQL()); err != nil {
			return c.failure("rollback", ErrQuery, err)
		}
	}
	return nil
}

// InTransaction reports whether a transaction is running.
func (c *Connector) InTransaction() (bool, error) {
	if c.conn == nil {
		return false, c.notConnected("in transaction")
	}
	return c.tx != nil, nil
}

// DialectName identifies the active engine, e.g. "sqlsrv". Before Connect
// it reports the dialect set with WithDialect, or the default one.
func (c *Connector) DialectName() string {
	switch {
	case c.dia != nil:
		return c.dia.Name()
	case c.dialect != nil:
		return c.dialect.Name()
	}
	return DefaultDriver
}

// Conn exposes the native connection, nil when disconnected.
func (c *Connector) Conn() *sql.Conn {
	return c.conn
}

// Descriptor of the current connection, nil when disconnected.
func (c *Connector) Descriptor() *Descriptor {
	return c.desc
}

// LastError returns the most recently recorded failure.
func (c *Connector) LastError() error {
	return c.last.Err()
}

// LastQueryColumns returns the column names of the last Query.
func (c *Connector) LastQueryColumns() []string {
	return c.lastColumns
}

// LastQueryTotalRows returns the number of rows the last Query produced.
func (c *Connector) LastQueryTotalRows() int {
	return c.lastTotalRows
}

// queryer targets the running transaction, or the connection.
func (c *Connector) queryer() LoggingQueryer {
	var db DB = c.conn
	if c.tx != nil {
		db = c.tx
	}
	return NewLoggingQueryer(db, WithQueryLogger(c.logger), WithQueryTimeout(c.stmtTimeout))
}

func (c *Connector) record(err error) error {
	c.last.Record(err)
	if c.sink != nil {
		c.sink.Record(err)
	}
	return err
}

func (c *Connector) notConnected(op string) error {
	return c.record(newError(ErrNotConnected, op, "", nil))
}

// failure records a native driver error as kind.
func (c *Connector) failure(op string, kind, err error) *Error {
	e := newError(kind, op, "", err)
	if c.dia != nil {
		e.Code = c.dia.ErrorCode(err)
	}
	c.record(e)
	return e
}
