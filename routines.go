package connector

import (
	"context"
	"fmt"
	"strings"
)

// ProcedureParameter describes an argument of a stored procedure as the
// information_schema reports it.
type ProcedureParameter struct {
	Name        string
	Position    int
	Direction   Direction
	DataType    string
	LogicalType string
}

// ProcedureParameters in ordinal order.
type ProcedureParameters []ProcedureParameter

// Bindings binds every parameter with its logical type and direction,
// taking IN and INOUT values from store.
func (ps ProcedureParameters) Bindings(store ParameterStore) Bindings {
	var b Bindings
	for _, p := range ps {
		var v string
		if p.Direction != Out {
			v = store.Param(p.Name)
		}
		b.Bind(p.Name, p.LogicalType, v, p.Direction)
	}
	return b
}

// routineReader queries information_schema.parameters.
type routineReader struct {
	q  LoggingQueryer
	pf func(int) string
}

type routineFilter struct {
	Schema string
	Name   string
}

type formats struct {
	schema string
	name   string
}

// ProcedureParameters reads the arguments of procedure, optionally qualified
// with its schema as in "dbo.proc". The return value of SQL Server functions
// (ordinal 0, no name) is skipped.
func (c *Connector) ProcedureParameters(ctx context.Context, procedure string) (ProcedureParameters, error) {
	if c.conn == nil {
		return nil, c.notConnected("procedure parameters")
	}
	f := routineFilter{Name: procedure}
	if i := strings.LastIndex(procedure, "."); i >= 0 {
		f.Schema, f.Name = procedure[:i], procedure[i+1:]
	}
	r := routineReader{q: c.queryer(), pf: c.dia.Placeholder}
	ctx, cancel := r.q.Context(ctx)
	defer cancel()
	params, err := r.parameters(ctx, f)
	if err != nil {
		return nil, c.failure("procedure parameters", ErrQuery, err)
	}
	return params, nil
}

func (r routineReader) parameters(ctx context.Context, f routineFilter) (ProcedureParameters, error) {
	columns := []string{
		"COALESCE(parameter_name, '')",
		"ordinal_position",
		"COALESCE(parameter_mode, '')",
		"COALESCE(data_type, '')",
	}
	qstr := "SELECT\n  " + strings.Join(columns, ",\n  ") + " FROM information_schema.parameters\n"
	conds, vals := r.conditions(1, f, formats{
		schema: "specific_schema LIKE %s",
		name:   "specific_name LIKE %s",
	})
	if len(conds) != 0 {
		qstr += "WHERE " + strings.Join(conds, " AND ") + "\n"
	}
	qstr += "ORDER BY ordinal_position"

	rows, closeRows, err := r.q.Query(ctx, qstr, vals...)
	if err != nil {
		return nil, err
	}
	defer closeRows()

	results := ProcedureParameters{}
	for rows.Next() {
		var rec ProcedureParameter
		var mode string
		if err := rows.Scan(&rec.Name, &rec.Position, &mode, &rec.DataType); err != nil {
			return nil, err
		}
		if rec.Position == 0 && rec.Name == "" {
			continue
		}
		rec.Name = paramName(rec.Name)
		if rec.Direction, err = ParseDirection(mode); err != nil {
			return nil, err
		}
		rec.LogicalType = logicalType(rec.DataType)
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return results, nil
}

func (r routineReader) conditions(baseParam int, filter routineFilter, formats formats) ([]string, []any) {
	conds := []string{}
	vals := []any{}
	if filter.Schema != "" && formats.schema != "" {
		vals = append(vals, filter.Schema)
		conds = append(conds, fmt.Sprintf(formats.schema, r.pf(baseParam)))
		baseParam++
	}
	if filter.Name != "" && formats.name != "" {
		vals = append(vals, filter.Name)
		conds = append(conds, fmt.Sprintf(formats.name, r.pf(baseParam)))
	}
	return conds, vals
}

// logicalType maps an information_schema data type to the logical type Coerce understands.
func logicalType(dataType string) string {
	switch strings.ToLower(dataType) {
	case "bit", "bool", "boolean":
		return TypeBool
	case "tinyint", "smallint", "int", "integer", "mediumint":
		return TypeInt
	case "bigint":
		return TypeBigint
	case "real", "float", "double", "double precision", "decimal", "numeric", "money", "smallmoney":
		return TypeFloat
	case "text", "ntext", "clob", "longtext", "mediumtext":
		return TypeClob
	}
	return TypeText
}
