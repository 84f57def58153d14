package programtest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a parsed literal of a test description. The concrete types are
// Null, Bool, Int, UInt, Float, Array, Random and Repeat.
type Value interface {
	fmt.Stringer
	isValue()
}

// Null is the NULL buffer literal.
type Null struct{}

// Bool is a boolean literal.
type Bool bool

// Int is an integer literal that fits int64.
type Int int64

// UInt is a non-negative integer literal above the int64 range.
type UInt uint64

// Float is a floating-point literal, including nan and infinities.
type Float float64

// Array is a homogeneous list of scalar literals.
type Array []Value

// Random asks for a buffer filled with generated values.
type Random struct{}

// Repeat is a pattern cycled over the whole buffer.
type Repeat []Value

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Int) isValue()    {}
func (UInt) isValue()   {}
func (Float) isValue()  {}
func (Array) isValue()  {}
func (Random) isValue() {}
func (Repeat) isValue() {}

func (Null) String() string     { return "NULL" }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }
func (u UInt) String() string   { return strconv.FormatUint(uint64(u), 10) }
func (f Float) String() string  { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (Random) String() string   { return "RANDOM" }
func (a Array) String() string  { return joinValues(a) }
func (r Repeat) String() string { return "REPEAT " + joinValues(r) }

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

// ParseLiteral parses one scalar literal: a boolean, a decimal or 0x-prefixed
// hexadecimal integer, or a float (decimal, hex-float, nan, inf, infinity,
// optionally signed).
func ParseLiteral(s string) (Value, error) {
	switch s {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	if v, ok, err := parseInteger(s); ok {
		return v, err
	}
	if f, ok := parseSpecial(s); ok {
		return Float(f), nil
	}
	if isFloatWord(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return Float(f), nil
		}
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return nil, fmt.Errorf("float literal %q out of range", s)
		}
	}
	return nil, fmt.Errorf("invalid literal %q", s)
}

// parseInteger reports ok when s has integer syntax.
func parseInteger(s string) (v Value, ok bool, err error) {
	digits, neg := s, false
	switch {
	case strings.HasPrefix(digits, "-"):
		digits, neg = digits[1:], true
	case strings.HasPrefix(digits, "+"):
		digits = digits[1:]
	}
	base := 10
	if rest, hex := cutHexPrefix(digits); hex {
		digits, base = rest, 16
	}
	if digits == "" || !allDigits(digits, base) {
		return nil, false, nil
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return nil, true, fmt.Errorf("integer literal %q out of range", s)
	}
	if neg {
		if u > 1<<63 {
			return nil, true, fmt.Errorf("integer literal %q out of range", s)
		}
		return Int(-int64(u)), true, nil
	}
	if u > 1<<63-1 {
		return UInt(u), true, nil
	}
	return Int(u), true, nil
}

func cutHexPrefix(s string) (string, bool) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:], true
	}
	return s, false
}

func allDigits(s string, base int) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case base == 16 && (c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'):
		default:
			return false
		}
	}
	return true
}

// parseSpecial parses nan and infinity tokens with an optional sign.
func parseSpecial(s string) (float64, bool) {
	body, sign := s, 1
	switch {
	case strings.HasPrefix(body, "-"):
		body, sign = body[1:], -1
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	}
	switch body {
	case "nan", "NaN", "NAN":
		return math.NaN(), true
	case "inf", "INF", "Inf", "infinity", "INFINITY", "Infinity":
		return math.Inf(sign), true
	}
	return 0, false
}

// isFloatWord rejects words strconv.ParseFloat accepts but descriptions do
// not use, such as underscores and mixed-case specials.
func isFloatWord(s string) bool {
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 {
		return false
	}
	return body != "" && !strings.ContainsAny(body, "_") && !strings.ContainsFunc(body, func(r rune) bool {
		return !strings.ContainsRune("0123456789abcdefABCDEFxXpP.+-", r)
	})
}
