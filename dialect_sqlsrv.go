package connector

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
)

// SQLSrv is the Microsoft SQL Server dialect.
type SQLSrv struct{}

func (SQLSrv) Name() string { return "sqlsrv" }
func (SQLSrv) DriverName() string { return "sqlserver" }

// DSN renders an ADO style connection string. The server, port, database and
// raw options keep the order of Descriptor.ConnectString.
func (SQLSrv) DSN(d *Descriptor) (string, error) {
	if d.url != nil {
		return d.url.DSN, nil
	}
	parts := d.fragments()
	if d.User != "" {
		parts = append(parts, "user id="+d.User)
	}
	if d.Password != "" {
		parts = append(parts, "password="+d.Password)
	}
	if d.Timeout != nil {
		parts = append(parts, "dial timeout="+strconv.Itoa(*d.Timeout))
	}
	switch strings.ToLower(d.SSLMode) {
	case "":
	case "disable":
		parts = append(parts, "encrypt=disable")
	case "allow", "prefer":
		parts = append(parts, "encrypt=false")
	case "require":
		parts = append(parts, "encrypt=true", "TrustServerCertificate=true")
	default:
		parts = append(parts, "encrypt=true")
	}
	if d.SSLRootCert != "" {
		parts = append(parts, "certificate="+d.SSLRootCert)
	}
	return strings.Join(parts, ";"), nil
}

func (SQLSrv) NamedArg(name string, value any) any {
	return sql.Named(paramName(name), value)
}

func (SQLSrv) OutArg(name string, dest *any, in bool) (any, bool) {
	return sql.Named(paramName(name), sql.Out{Dest: dest, In: in}), true
}

// ExplicitOutBinding is false: OUT-only values come back in the procedure's
// result row.
func (SQLSrv) ExplicitOutBinding() bool { return false }

// CallSQL renders "exec proc @a, @b OUTPUT". OUT-only parameters are left out.
func (SQLSrv) CallSQL(procedure string, params Bindings) string {
	var args []string
	for _, p := range callArgs(params) {
		a := "@" + paramName(p.Name)
		if p.Direction == InOut {
			a += " OUTPUT"
		}
		args = append(args, a)
	}
	if len(args) == 0 {
		return "exec " + procedure
	}
	return "exec " + procedure + " " + strings.Join(args, ", ")
}

func (SQLSrv) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

func (SQLSrv) SavepointSQL(name string) string { return "SAVE TRANSACTION " + name }
func (SQLSrv) RollbackToSQL(name string) string { return "ROLLBACK TRANSACTION " + name }
func (SQLSrv) RollbackSQL() string { return "IF @@TRANCOUNT > 0 ROLLBACK TRANSACTION" }

func (SQLSrv) AutoCommitSQL(on bool) string {
	if on {
		return "SET IMPLICIT_TRANSACTIONS OFF"
	}
	return "SET IMPLICIT_TRANSACTIONS ON"
}

func (SQLSrv) ErrorCode(err error) string {
	var e mssql.Error
	if errors.As(err, &e) {
		return strconv.Itoa(int(e.Number))
	}
	return ""
}
