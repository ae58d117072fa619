package connector

import (
	"context"
	"fmt"
)

// ExecResult of a DML statement.
type ExecResult struct {
	RowsAffected int64
	// Err is the failure SuppressErrors kept from being returned.
	Err error
}

// OK reports whether the statement ran.
func (r ExecResult) OK() bool {
	return r.Err == nil
}

// ExecuteDML runs a statement without parameters.
func (c *Connector) ExecuteDML(ctx context.Context, query string, opts ...QueryOption) (ExecResult, error) {
	if c.conn == nil {
		return ExecResult{}, c.notConnected("execute dml")
	}
	return c.exec(ctx, "execute dml", query, nil, getQueryOpts(opts...))
}

// ExecutePreparedDML binds values positionally, each coerced with the
// logical type at the same index.
func (c *Connector) ExecutePreparedDML(ctx context.Context, query string, types, values []string, opts ...QueryOption) (ExecResult, error) {
	if len(types) != len(values) {
		return ExecResult{}, c.record(newError(ErrArgumentMismatch, "execute prepared dml",
			fmt.Sprintf("%d data types for %d values", len(types), len(values)), nil))
	}
	if c.conn == nil {
		return ExecResult{}, c.notConnected("execute prepared dml")
	}
	args := make([]any, len(values))
	for i := range values {
		tag, v, err := Coerce(types[i], values[i])
		if err != nil {
			return ExecResult{}, c.record(newError(ErrInvalidArgument, "execute prepared dml", fmt.Sprintf("value %d", i+1), err))
		}
		args[i] = nativeValue(tag, v)
	}
	return c.exec(ctx, "execute prepared dml", query, args, getQueryOpts(opts...))
}

// ExecutePreparedDML2 binds a binding set by name. OUT and INOUT entries are
// bound as input-output arguments where the dialect supports them, and their
// returned values are written back into b.
func (c *Connector) ExecutePreparedDML2(ctx context.Context, query string, b Bindings, opts ...QueryOption) (ExecResult, error) {
	if c.conn == nil {
		return ExecResult{}, c.notConnected("execute prepared dml")
	}
	params, err := b.coerce()
	if err != nil {
		return ExecResult{}, c.record(newError(ErrInvalidArgument, "execute prepared dml", "", err))
	}
	args := make([]any, 0, len(params))
	outs := map[int]*any{}
	for i, p := range params {
		if p.tag.IsInputOutput() {
			dest := new(any)
			*dest = p.value
			if arg, ok := c.dia.OutArg(p.Name, dest, true); ok {
				args = append(args, arg)
				outs[i] = dest
				continue
			}
		}
		args = append(args, c.dia.NamedArg(p.Name, p.value))
	}
	res, err := c.exec(ctx, "execute prepared dml", query, args, getQueryOpts(opts...))
	if err != nil || res.Err != nil {
		return res, err
	}
	for i, dest := range outs {
		b[i].Value = stringValue(normalize(*dest, false))
	}
	return res, nil
}

func (c *Connector) exec(ctx context.Context, op, query string, args []any, o queryOptions) (ExecResult, error) {
	q := c.queryer()
	ctx, cancel := q.Context(ctx)
	defer cancel()

	fail := func(err error) (ExecResult, error) {
		e := c.failure(op, ErrQuery, err)
		if !o.suppress {
			return ExecResult{}, e
		}
		c.logger.Warn("statement failed", "op", op, "error", e)
		return ExecResult{Err: e}, nil
	}

	stmt, closeStmt, err := q.Prepare(ctx, query)
	if err != nil {
		return fail(err)
	}
	defer closeStmt()

	r, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return fail(err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return fail(err)
	}
	return ExecResult{RowsAffected: n}, nil
}
