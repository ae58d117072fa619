package connector

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction of a bound parameter.
type Direction int

const (
	In Direction = iota
	Out
	InOut
)

func (d Direction) String() string {
	if d < In || d > InOut {
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
	return [...]string{"IN", "OUT", "INOUT"}[d]
}

// ParseDirection accepts IN, OUT, INOUT and IN_OUT in any case. An empty
// string is IN.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "IN":
		return In, nil
	case "OUT":
		return Out, nil
	case "INOUT", "IN_OUT", "IN OUT":
		return InOut, nil
	}
	return In, fmt.Errorf("%w: unknown parameter direction %q", ErrInvalidArgument, s)
}

// Returns reports whether the engine sends a value back for the parameter.
func (d Direction) Returns() bool {
	return d == Out || d == InOut
}

// BoundParameter is a single entry of a binding set.
type BoundParameter struct {
	Name      string
	Type      string
	Value     string
	Direction Direction
}

// Bindings is an insertion-ordered binding set. Call syntax is built in this
// order, so rebinding an existing name keeps its position.
type Bindings []BoundParameter

// Bind inserts or overwrites name. An empty clob is stored as text because
// some drivers reject empty LOB values.
func (b *Bindings) Bind(name, logicalType, value string, dir ...Direction) {
	p := BoundParameter{Name: name, Type: logicalType, Value: value}
	if len(dir) > 0 {
		p.Direction = dir[0]
	}
	if strings.EqualFold(logicalType, TypeClob) && value == "" {
		p.Type = TypeText
	}
	for i := range *b {
		if (*b)[i].Name == name {
			(*b)[i] = p
			return
		}
	}
	*b = append(*b, p)
}

// BindParam binds the value the store holds for name as an IN parameter.
func (b *Bindings) BindParam(store ParameterStore, name, logicalType string) {
	b.Bind(name, logicalType, store.Param(name))
}

// Get returns the parameter bound as name.
func (b Bindings) Get(name string) (BoundParameter, bool) {
	for _, p := range b {
		if p.Name == name {
			return p, true
		}
	}
	return BoundParameter{}, false
}

// Names of the bound parameters in binding order.
func (b Bindings) Names() []string {
	names := make([]string, len(b))
	for i, p := range b {
		names[i] = p.Name
	}
	return names
}

// coerced is a parameter after type coercion, ready to be handed to a dialect.
type coerced struct {
	BoundParameter
	tag   Tag
	value any
}

func (b Bindings) coerce() ([]coerced, error) {
	out := make([]coerced, 0, len(b))
	for _, p := range b {
		tag, v, err := Coerce(p.Type, p.Value)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		if p.Direction.Returns() {
			tag |= TagInputOutput
		}
		out = append(out, coerced{BoundParameter: p, tag: tag, value: nativeValue(tag, v)})
	}
	return out, nil
}
