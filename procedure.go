package connector

import (
	"context"
)

// ResultCase folds the names of the columns a procedure returns. The
// default is CaseUpper.
func ResultCase(m CaseMode) QueryOption {
	return func(o *queryOptions) {
		o.caseMode = m
	}
}

// Into merges procedure results into m instead of a fresh map.
func Into(m map[string]any) QueryOption {
	return func(o *queryOptions) {
		o.into = m
	}
}

// CallResult of a stored procedure.
type CallResult struct {
	// Values holds every input value under its folded parameter name,
	// overwritten by the output values and the first result row.
	Values map[string]any
	OK     bool
	// Err is the failure SuppressErrors kept from being returned.
	Err error
}

// ExecuteStoredProcedure calls procedure with params. OUT-only parameters
// are left out of the call text; their values are expected back in the
// first result row, which is merged into the result.
func (c *Connector) ExecuteStoredProcedure(ctx context.Context, procedure string, params Bindings, opts ...QueryOption) (*CallResult, error) {
	if c.conn == nil {
		return nil, c.notConnected("execute stored procedure")
	}
	o := getQueryOpts(opts...)
	coerced, err := params.coerce()
	if err != nil {
		return nil, c.record(newError(ErrInvalidArgument, "execute stored procedure", procedure, err))
	}

	res := &CallResult{Values: o.into}
	if res.Values == nil {
		res.Values = make(map[string]any, len(params))
	}
	for _, p := range params {
		res.Values[o.caseMode.Fold(p.Name)] = p.Value
	}

	type output struct {
		name string
		dest *any
	}
	var args []any
	var outs []output
	for _, p := range coerced {
		switch p.Direction {
		case Out:
			if !c.dia.ExplicitOutBinding() {
				continue
			}
			dest := new(any)
			if arg, ok := c.dia.OutArg(p.Name, dest, false); ok {
				c.logger.Trace("binding output", "name", p.Name, "size", OutSizeHint(p.Type))
				args = append(args, arg)
				outs = append(outs, output{p.Name, dest})
			}
		case InOut:
			dest := new(any)
			*dest = p.value
			if arg, ok := c.dia.OutArg(p.Name, dest, true); ok {
				args = append(args, arg)
				outs = append(outs, output{p.Name, dest})
				continue
			}
			args = append(args, c.dia.NamedArg(p.Name, p.value))
		default:
			args = append(args, c.dia.NamedArg(p.Name, p.value))
		}
	}

	fail := func(err error) (*CallResult, error) {
		e := c.failure("execute stored procedure", ErrQuery, err)
		if !o.suppress {
			return nil, e
		}
		c.logger.Warn("stored procedure failed", "procedure", procedure, "error", e)
		res.OK, res.Err = false, e
		return res, nil
	}

	q := c.queryer()
	ctx, cancel := q.Context(ctx)
	defer cancel()

	stmt, closeStmt, err := q.Prepare(ctx, c.dia.CallSQL(procedure, params))
	if err != nil {
		return fail(err)
	}
	defer closeStmt()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return fail(err)
	}
	defer rows.Close()

	var row Row
	var found bool
	cols, err := rows.Columns()
	if err != nil {
		return fail(err)
	}
	if len(cols) > 0 {
		if row, found, err = c.fetchOne(rows, cols); err != nil {
			return fail(err)
		}
	}
	// output arguments are only filled in once the results are consumed
	if err := rows.Close(); err != nil {
		return fail(err)
	}

	for _, out := range outs {
		res.Values[o.caseMode.Fold(out.name)] = normalize(*out.dest, false)
	}
	if found {
		for i, col := range row.Columns {
			res.Values[o.caseMode.Fold(col)] = row.Values[i]
		}
	}
	res.OK = true
	return res, nil
}
