package connector

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQL is the MySQL and MariaDB dialect.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) DSN(d *Descriptor) (string, error) {
	if d.url != nil {
		return d.url.DSN, nil
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.DBName = d.Database
	if d.Server != "" {
		cfg.Net = "tcp"
		cfg.Addr = d.Server
		if d.Port != "" {
			cfg.Addr = net.JoinHostPort(d.Server, d.Port)
		}
	}
	if d.Timeout != nil {
		cfg.Timeout = time.Duration(*d.Timeout) * time.Second
	}
	switch strings.ToLower(d.SSLMode) {
	case "":
	case "disable":
		cfg.TLSConfig = "false"
	case "allow", "prefer":
		cfg.TLSConfig = "preferred"
	case "require":
		cfg.TLSConfig = "skip-verify"
	default:
		cfg.TLSConfig = "true"
	}
	for _, opt := range strings.Split(d.Options, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(opt), "=")
		if !ok || k == "" {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[k] = v
	}
	return cfg.FormatDSN(), nil
}

// NamedArg binds positionally; the driver has no named parameters.
func (MySQL) NamedArg(_ string, value any) any { return value }

func (MySQL) OutArg(string, *any, bool) (any, bool) { return nil, false }

func (MySQL) ExplicitOutBinding() bool { return false }

func (m MySQL) CallSQL(procedure string, params Bindings) string {
	return positionalCall(m, procedure, params)
}

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) SavepointSQL(name string) string { return "SAVEPOINT " + name }
func (MySQL) RollbackToSQL(name string) string { return "ROLLBACK TO SAVEPOINT " + name }
func (MySQL) RollbackSQL() string { return "ROLLBACK" }

func (MySQL) AutoCommitSQL(on bool) string {
	if on {
		return "SET autocommit=1"
	}
	return "SET autocommit=0"
}

func (MySQL) ErrorCode(err error) string {
	var e *mysql.MySQLError
	if errors.As(err, &e) {
		return strconv.Itoa(int(e.Number))
	}
	return ""
}
