package connector

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// PgSQL is the PostgreSQL dialect.
type PgSQL struct{}

func (PgSQL) Name() string { return "pgsql" }
func (PgSQL) DriverName() string { return "postgres" }

// DSN renders a libpq keyword/value string.
func (PgSQL) DSN(d *Descriptor) (string, error) {
	if d.url != nil {
		return d.url.DSN, nil
	}
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+pgQuote(v))
		}
	}
	add("host", d.Server)
	add("port", d.Port)
	add("dbname", d.Database)
	add("user", d.User)
	add("password", d.Password)
	add("sslmode", d.SSLMode)
	add("sslcert", d.SSLCert)
	add("sslkey", d.SSLKey)
	add("sslrootcert", d.SSLRootCert)
	if d.Timeout != nil {
		add("connect_timeout", strconv.Itoa(*d.Timeout))
	}
	for _, opt := range strings.Split(d.Options, ";") {
		if k, v, ok := strings.Cut(strings.TrimSpace(opt), "="); ok && k != "" {
			add(k, v)
		}
	}
	return strings.Join(parts, " "), nil
}

func pgQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func (PgSQL) NamedArg(_ string, value any) any { return value }

func (PgSQL) OutArg(string, *any, bool) (any, bool) { return nil, false }

func (PgSQL) ExplicitOutBinding() bool { return false }

func (p PgSQL) CallSQL(procedure string, params Bindings) string {
	return positionalCall(p, procedure, params)
}

func (PgSQL) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (PgSQL) SavepointSQL(name string) string { return "SAVEPOINT " + name }
func (PgSQL) RollbackToSQL(name string) string { return "ROLLBACK TO SAVEPOINT " + name }
func (PgSQL) RollbackSQL() string { return "ROLLBACK" }

// AutoCommitSQL is empty: the server always autocommits outside a transaction.
func (PgSQL) AutoCommitSQL(bool) string { return "" }

func (PgSQL) ErrorCode(err error) string {
	var e *pq.Error
	if errors.As(err, &e) {
		return string(e.Code)
	}
	return ""
}
