package programtest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scalar is an OpenCL C scalar element type.
type Scalar int

const (
	ScalarChar Scalar = iota
	ScalarUChar
	ScalarShort
	ScalarUShort
	ScalarInt
	ScalarUInt
	ScalarLong
	ScalarULong
	ScalarFloat
	ScalarDouble
)

var scalarNames = [...]string{
	ScalarChar:   "char",
	ScalarUChar:  "uchar",
	ScalarShort:  "short",
	ScalarUShort: "ushort",
	ScalarInt:    "int",
	ScalarUInt:   "uint",
	ScalarLong:   "long",
	ScalarULong:  "ulong",
	ScalarFloat:  "float",
	ScalarDouble: "double",
}

func (s Scalar) String() string {
	if s < 0 || int(s) >= len(scalarNames) {
		return fmt.Sprintf("Scalar(%d)", int(s))
	}
	return scalarNames[s]
}

// Size returns the size of the scalar in bytes.
func (s Scalar) Size() int {
	switch s {
	case ScalarChar, ScalarUChar:
		return 1
	case ScalarShort, ScalarUShort:
		return 2
	case ScalarInt, ScalarUInt, ScalarFloat:
		return 4
	default:
		return 8
	}
}

// IsFloat reports whether s is a floating-point type.
func (s Scalar) IsFloat() bool { return s == ScalarFloat || s == ScalarDouble }

// IsSigned reports whether s is a signed integer type.
func (s Scalar) IsSigned() bool {
	return s == ScalarChar || s == ScalarShort || s == ScalarInt || s == ScalarLong
}

// IsUnsigned reports whether s is an unsigned integer type.
func (s Scalar) IsUnsigned() bool {
	return s == ScalarUChar || s == ScalarUShort || s == ScalarUInt || s == ScalarULong
}

// intRange returns the inclusive range of a signed integer type.
func (s Scalar) intRange() (int64, int64) {
	bits := uint(8 * s.Size())
	return -1 << (bits - 1), 1<<(bits-1) - 1
}

// uintMax returns the maximum of an unsigned integer type.
func (s Scalar) uintMax() uint64 {
	return math.MaxUint64 >> (64 - 8*s.Size())
}

// Type is a scalar or vector argument type such as int or float4.
type Type struct {
	Scalar Scalar
	Width  int // 1, 2, 3, 4, 8 or 16
}

// ParseType parses a type name such as "uint" or "float3".
func ParseType(s string) (Type, error) {
	for i := len(scalarNames) - 1; i >= 0; i-- {
		name := scalarNames[i]
		rest, ok := strings.CutPrefix(s, name)
		if !ok {
			continue
		}
		if rest == "" {
			return Type{Scalar: Scalar(i), Width: 1}, nil
		}
		w, err := strconv.Atoi(rest)
		if err != nil || !validWidth(w) || rest[0] < '1' || rest[0] > '9' {
			return Type{}, fmt.Errorf("invalid vector width in type %q", s)
		}
		return Type{Scalar: Scalar(i), Width: w}, nil
	}
	return Type{}, fmt.Errorf("unknown type %q", s)
}

func validWidth(w int) bool {
	switch w {
	case 2, 3, 4, 8, 16:
		return true
	}
	return false
}

func (t Type) String() string {
	if t.Width == 1 {
		return t.Scalar.String()
	}
	return fmt.Sprintf("%s%d", t.Scalar, t.Width)
}

// MemWidth returns the number of scalars one element occupies in memory.
// Three-component vectors are padded to four.
func (t Type) MemWidth() int {
	if t.Width == 3 {
		return 4
	}
	return t.Width
}

// Size returns the size of one element in bytes.
func (t Type) Size() int {
	return t.Scalar.Size() * t.MemWidth()
}
