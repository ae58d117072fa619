package connector

import (
	"strings"
)

type literalOptions struct {
	unquoted  bool
	maxLength int
	strict    string
	comma     bool
}

// LiteralOption tunes NullLiteral and DefaultLiteral.
type LiteralOption func(*literalOptions)

// Unquoted passes the value through as is, for numbers and expressions
func Unquoted() LiteralOption {
	return func(o *literalOptions) {
		o.unquoted = true
	}
}

// MaxLength truncates string values to n characters
func MaxLength(n int) LiteralOption {
	return func(o *literalOptions) {
		o.maxLength = n
	}
}

// Strict fails with ErrValueTooLong and msg instead of truncating
func Strict(msg string) LiteralOption {
	return func(o *literalOptions) {
		if msg == "" {
			msg = "value exceeds maximum length"
		}
		o.strict = msg
	}
}

// WithComma appends ", " to the literal
func WithComma() LiteralOption {
	return func(o *literalOptions) {
		o.comma = true
	}
}

// NullLiteral renders value as an SQL literal, or NULL when it is empty.
// String values are single-quoted with embedded quotes doubled.
func NullLiteral(value string, opts ...LiteralOption) (string, error) {
	return literal(value, "NULL", opts)
}

// DefaultLiteral is NullLiteral with DEFAULT for empty values.
func DefaultLiteral(value string, opts ...LiteralOption) (string, error) {
	return literal(value, "DEFAULT", opts)
}

func literal(value, keyword string, opts []LiteralOption) (string, error) {
	var o literalOptions
	for _, opt := range opts {
		opt(&o)
	}
	result := keyword
	if value != "" {
		result = value
		if !o.unquoted {
			if r := []rune(value); o.maxLength > 0 && len(r) > o.maxLength {
				if o.strict != "" {
					return "", newError(ErrValueTooLong, "literal", o.strict, nil)
				}
				value = string(r[:o.maxLength])
			}
			result = "'" + strings.ReplaceAll(value, "'", "''") + "'"
		}
	}
	if o.comma {
		result += ", "
	}
	return result, nil
}

// NullStrParam renders the named parameter store value with NullLiteral.
func (c *Connector) NullStrParam(name string, opts ...LiteralOption) (string, error) {
	return NullLiteral(c.params.Param(name), opts...)
}

// DefaultStrParam renders the named parameter store value with DefaultLiteral.
func (c *Connector) DefaultStrParam(name string, opts ...LiteralOption) (string, error) {
	return DefaultLiteral(c.params.Param(name), opts...)
}

// BindParam binds the parameter store value of name into b.
func (c *Connector) BindParam(b *Bindings, name, logicalType string) {
	b.BindParam(c.params, name, logicalType)
}
