package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ResultMode selects the shape Query transforms rows into.
type ResultMode int

const (
	// Raw returns every row; an empty result is a failure.
	Raw ResultMode = iota
	// FirstRow returns the first row; an empty result is a failure.
	FirstRow
	// FirstRowFirstColumn returns the first column of the first row.
	FirstRowFirstColumn
	// AllKeyValuePairs maps the first column to the second.
	AllKeyValuePairs
	// AllFirstColumnValues collects the first column.
	AllFirstColumnValues
	// AllRows returns every row.
	AllRows
	// AllRowsAssoc indexes every row by the IndexField column.
	AllRowsAssoc
)

var resultModeNames = [...]string{
	"RT_RAW",
	"RT_FIRST_ROW",
	"RT_FIRST_ROW_FIRST_COLUMN",
	"RT_ALL_KEY_VALUE_PAIRS",
	"RT_ALL_FIRST_COLUMN_VALUES",
	"RT_ALL_ROWS",
	"RT_ALL_ROWS_ASSOC",
}

func (m ResultMode) String() string {
	if m < 0 || int(m) >= len(resultModeNames) {
		return "ResultMode(" + strconv.Itoa(int(m)) + ")"
	}
	return resultModeNames[m]
}

// Row is a fetched row with its column names in result order.
type Row struct {
	Columns []string
	Values  []any
}

// Get the value of column name.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map of column name to value.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

// Result of a Query. Only the field matching Mode is filled.
type Result struct {
	Mode ResultMode
	// OK is false when the statement failed with errors suppressed, or when
	// Raw, FirstRow or FirstRowFirstColumn found no row.
	OK      bool
	Rows    []Row
	Row     Row
	Value   any
	Pairs   map[string]any
	Values  []any
	Indexed map[string]Row
	// Err is the failure SuppressErrors kept from being returned.
	Err error
}

type queryOptions struct {
	indexField string
	suppress   bool
	caseMode   CaseMode
	into       map[string]any
}

// QueryOption tunes a single Query, DML or procedure call.
type QueryOption func(*queryOptions)

// IndexField names the column AllRowsAssoc keys rows by
func IndexField(name string) QueryOption {
	return func(o *queryOptions) {
		o.indexField = name
	}
}

// SuppressErrors reports native prepare and execute failures through the
// result's Err and the diagnostics instead of the returned error
func SuppressErrors() QueryOption {
	return func(o *queryOptions) {
		o.suppress = true
	}
}

func getQueryOpts(opts ...QueryOption) queryOptions {
	o := queryOptions{caseMode: CaseUpper}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Query runs a statement without parameters and transforms its rows per mode.
// The cursor is closed before Query returns, whatever the outcome.
func (c *Connector) Query(ctx context.Context, mode ResultMode, query string, opts ...QueryOption) (*Result, error) {
	c.lastColumns, c.lastTotalRows = nil, 0
	o := getQueryOpts(opts...)

	if mode < Raw || mode > AllRowsAssoc {
		return nil, c.record(newError(ErrInvalidArgument, "query", "unknown query result type "+mode.String(), nil))
	}
	if mode == AllRowsAssoc && o.indexField == "" {
		return nil, c.record(newError(ErrInvalidArgument, "query", "index field name is mandatory on "+mode.String(), nil))
	}
	if c.conn == nil {
		return nil, c.notConnected("query")
	}

	res := &Result{Mode: mode}
	q := c.queryer()
	ctx, cancel := q.Context(ctx)
	defer cancel()

	stmt, closeStmt, err := q.Prepare(ctx, query)
	if err != nil {
		return c.queryFailed(res, err, o)
	}
	defer closeStmt()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return c.queryFailed(res, err, o)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return c.queryFailed(res, err, o)
	}
	fold := c.desc.caseMode()
	for i := range cols {
		cols[i] = fold.Fold(cols[i])
	}
	o.indexField = fold.Fold(o.indexField)
	c.lastColumns = cols

	if err := c.transform(res, rows, cols, o); err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return nil, c.record(err)
		}
		return c.queryFailed(res, err, o)
	}
	if err := rows.Close(); err != nil {
		return c.queryFailed(res, err, o)
	}
	return res, nil
}

func (c *Connector) queryFailed(res *Result, err error, o queryOptions) (*Result, error) {
	e := c.failure("query", ErrQuery, err)
	c.lastTotalRows = 0
	if !o.suppress {
		return nil, e
	}
	c.logger.Warn("query failed", "error", e)
	res.OK, res.Err = false, e
	return res, nil
}

func (c *Connector) transform(res *Result, rows *sql.Rows, cols []string, o queryOptions) error {
	switch res.Mode {
	case Raw:
		all, err := c.fetchAll(rows, cols)
		if err != nil {
			return err
		}
		res.OK = len(all) > 0
		if res.OK {
			res.Rows = all
		}
		c.lastTotalRows = len(all)
		return nil
	case FirstRow:
		row, ok, err := c.fetchOne(rows, cols)
		if err != nil || !ok {
			return err
		}
		res.OK, res.Row = true, row
		c.lastTotalRows = 1
		return nil
	}

	idx := -1
	if res.Mode == AllRowsAssoc {
		for i, col := range cols {
			if col == o.indexField {
				idx = i
			}
		}
		if idx < 0 && len(cols) > 0 {
			return newError(ErrInvalidArgument, "query", fmt.Sprintf("index field %q not in result", o.indexField), nil)
		}
	}

	res.OK = true
	switch res.Mode {
	case FirstRowFirstColumn:
		res.Value = ""
	case AllKeyValuePairs:
		res.Pairs = map[string]any{}
	case AllFirstColumnValues:
		res.Values = []any{}
	case AllRows:
		res.Rows = []Row{}
	case AllRowsAssoc:
		res.Indexed = map[string]Row{}
	}
	// a statement without a result set has nothing to fetch
	if len(cols) == 0 {
		return nil
	}

	switch res.Mode {
	case FirstRowFirstColumn:
		row, ok, err := c.fetchOne(rows, cols)
		if err != nil {
			return err
		}
		if !ok {
			res.OK = false
			return nil
		}
		res.Value = row.Values[0]
		c.lastTotalRows = 1
	case AllKeyValuePairs:
		err := c.each(rows, cols, func(r Row) {
			var v any
			if len(r.Values) > 1 {
				v = r.Values[1]
			}
			res.Pairs[keyString(r.Values[0])] = v
		})
		if err != nil {
			return err
		}
		c.lastTotalRows = len(res.Pairs)
	case AllFirstColumnValues:
		err := c.each(rows, cols, func(r Row) {
			res.Values = append(res.Values, r.Values[0])
		})
		if err != nil {
			return err
		}
		c.lastTotalRows = len(res.Values)
	case AllRows:
		all, err := c.fetchAll(rows, cols)
		if err != nil {
			return err
		}
		res.Rows = append(res.Rows, all...)
		c.lastTotalRows = len(res.Rows)
	case AllRowsAssoc:
		err := c.each(rows, cols, func(r Row) {
			res.Indexed[keyString(r.Values[idx])] = r
		})
		if err != nil {
			return err
		}
		c.lastTotalRows = len(res.Indexed)
	}
	return nil
}

func (c *Connector) fetchOne(rows *sql.Rows, cols []string) (Row, bool, error) {
	if !rows.Next() {
		return Row{}, false, rows.Err()
	}
	row, err := c.scan(rows, cols)
	if err != nil {
		return Row{}, false, err
	}
	return row, true, nil
}

func (c *Connector) fetchAll(rows *sql.Rows, cols []string) ([]Row, error) {
	var all []Row
	err := c.each(rows, cols, func(r Row) {
		all = append(all, r)
	})
	return all, err
}

func (c *Connector) each(rows *sql.Rows, cols []string, fn func(Row)) error {
	for rows.Next() {
		row, err := c.scan(rows, cols)
		if err != nil {
			return err
		}
		fn(row)
	}
	return rows.Err()
}

func (c *Connector) scan(rows *sql.Rows, cols []string) (Row, error) {
	values := make([]any, len(cols))
	scanArgs := make([]any, len(cols))
	for i := range values {
		scanArgs[i] = &values[i]
	}
	if err := rows.Scan(scanArgs...); err != nil {
		return Row{}, err
	}
	stringify := c.desc != nil && isTrue(c.desc.StringifyFetches)
	for i, v := range values {
		values[i] = normalize(v, stringify)
	}
	return Row{Columns: cols, Values: values}, nil
}

// normalize copies driver owned bytes and, when stringify is set, renders
// every non-NULL value as a string.
func normalize(v any, stringify bool) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if !stringify || v == nil {
		return v
	}
	return stringValue(v)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case time.Time:
		return t.Format("2006-01-02 15:04:05.999999999")
	}
	return fmt.Sprint(v)
}

func keyString(v any) string {
	return stringValue(normalize(v, false))
}
