/*
Package connector hides a relational database client behind one contract:
connecting from a configuration section, running queries into a chosen
result shape, DML with typed bindings, transactions, stored procedures with
IN/OUT/INOUT parameters, and literal escaping for hand-built SQL.

# Connecting

A Connector reads its section from a ConfigProvider (MapConfig, EnvConfig)
and resolves it into a Descriptor. Unset keys never reach the native
connection string, so the driver keeps its own defaults:

	c := connector.New(connector.MapConfig{
		"Database": {"server": "db1", "database": "app", "user": "sa", "password": "secret"},
	})
	if err := c.Connect(ctx, "Database", nil, false); err != nil {
		return err
	}
	defer c.Close()

The driver key selects a Dialect (sqlsrv, mysql, pgsql, trino); a url key
is parsed with dburl instead of the individual fields.

# Queries

Query transforms the rows of a statement per ResultMode and always closes
the cursor before returning. LastQueryColumns and LastQueryTotalRows
describe the last call.

	res, err := c.Query(ctx, connector.AllRowsAssoc, "SELECT id, name FROM users", connector.IndexField("id"))

# Errors

Errors match ErrNotConnected, ErrQuery, ErrInvalidArgument and the other
kinds with errors.Is and unwrap to the native driver error. With
SuppressErrors, native prepare and execute failures are reported through
the result's Err field and LastError instead of the returned error.
Programming errors, such as a missing IndexField, are always returned.

# Concurrency

A Connector owns exactly one native connection and does no locking. Use one
Connector per goroutine.
*/
package connector
