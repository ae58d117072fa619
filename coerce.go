package connector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-secure-stdlib/parseutil"
)

// Tag is the native bind type a logical type maps to.
type Tag int

const (
	TagNull Tag = iota
	TagBool
	TagInt
	TagString
)

// TagInputOutput is or-ed onto a Tag for INOUT and OUT bindings.
const TagInputOutput Tag = 1 << 8

// Base strips the input-output flag.
func (t Tag) Base() Tag {
	return t &^ TagInputOutput
}

// IsInputOutput reports whether the input-output flag is set.
func (t Tag) IsInputOutput() bool {
	return t&TagInputOutput != 0
}

func (t Tag) String() string {
	b := t.Base()
	if b < TagNull || b > TagString {
		return "Tag(" + strconv.Itoa(int(t)) + ")"
	}
	s := [...]string{"null", "bool", "int", "string"}[b]
	if t.IsInputOutput() {
		s += "|inout"
	}
	return s
}

// Logical types understood by Coerce. Anything else binds as a string.
const (
	TypeBool    = "bool"
	TypeInt     = "int"
	TypeInteger = "integer"
	TypeBigint  = "bigint"
	TypeFloat   = "float"
	TypeClob    = "clob"
	TypeText    = "text"
)

// Coerce maps a logical type to its native tag and normalizes the value.
// An empty type or value yields TagNull with the value untouched.
func Coerce(logicalType, value string) (Tag, any, error) {
	if logicalType == "" || value == "" {
		return TagNull, value, nil
	}
	switch strings.ToLower(logicalType) {
	case TypeBool:
		b, err := parseutil.ParseBool(value)
		if err != nil {
			return TagBool, value, fmt.Errorf("%w: %q is not a bool", ErrInvalidArgument, value)
		}
		return TagBool, b, nil
	case TypeInt, TypeInteger, TypeBigint:
		i, err := parseutil.ParseInt(value)
		if err != nil {
			return TagInt, value, fmt.Errorf("%w: %q is not an integer", ErrInvalidArgument, value)
		}
		return TagInt, i, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return TagString, value, fmt.Errorf("%w: %q is not a float", ErrInvalidArgument, value)
		}
		return TagString, f, nil
	default:
		return TagString, value, nil
	}
}

// nativeValue is what the driver receives for a coerced value.
func nativeValue(t Tag, v any) any {
	if t.Base() == TagNull {
		return nil
	}
	return v
}
