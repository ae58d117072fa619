package connector

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/trinodb/trino-go-client/trino"
)

// Trino is the Trino (Presto) dialect. Database is "catalog" or
// "catalog.schema"; raw options become session properties.
type Trino struct{}

func (Trino) Name() string { return "trino" }
func (Trino) DriverName() string { return "trino" }

func (Trino) DSN(d *Descriptor) (string, error) {
	if d.url != nil {
		return d.url.DSN, nil
	}
	u := url.URL{Scheme: "http", Host: d.Server}
	if d.SSLMode != "" && !strings.EqualFold(d.SSLMode, "disable") {
		u.Scheme = "https"
	}
	if d.Port != "" {
		u.Host = net.JoinHostPort(d.Server, d.Port)
	}
	switch {
	case d.User != "" && d.Password != "":
		u.User = url.UserPassword(d.User, d.Password)
	case d.User != "":
		u.User = url.User(d.User)
	}
	cfg := &trino.Config{
		ServerURI:   u.String(),
		Source:      "connector",
		SSLCertPath: d.SSLRootCert,
	}
	cfg.Catalog, cfg.Schema, _ = strings.Cut(d.Database, ".")
	for _, opt := range strings.Split(d.Options, ";") {
		if k, v, ok := strings.Cut(strings.TrimSpace(opt), "="); ok && k != "" {
			if cfg.SessionProperties == nil {
				cfg.SessionProperties = map[string]string{}
			}
			cfg.SessionProperties[k] = v
		}
	}
	dsn, err := cfg.FormatDSN()
	if err != nil {
		return "", newError(ErrConfiguration, "trino dsn", "", err)
	}
	return dsn, nil
}

func (Trino) NamedArg(_ string, value any) any { return value }

func (Trino) OutArg(string, *any, bool) (any, bool) { return nil, false }

func (Trino) ExplicitOutBinding() bool { return false }

func (t Trino) CallSQL(procedure string, params Bindings) string {
	return positionalCall(t, procedure, params)
}

func (Trino) Placeholder(int) string { return "?" }

// Savepoints are not supported.
func (Trino) SavepointSQL(string) string { return "" }
func (Trino) RollbackToSQL(string) string { return "" }
func (Trino) RollbackSQL() string { return "ROLLBACK" }
func (Trino) AutoCommitSQL(bool) string { return "" }

func (Trino) ErrorCode(err error) string {
	var e *trino.ErrQueryFailed
	if errors.As(err, &e) {
		return strconv.Itoa(e.StatusCode)
	}
	return ""
}
