package programtest

import (
	"fmt"
	"math"
	"strconv"

	"github.com/AndreyAkinshin/conform/internal/compare"
)

// Direction tells whether an argument is a kernel input or an expected
// output.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "arg_out"
	}
	return "arg_in"
}

// Arg is one kernel argument of a sub-test.
type Arg struct {
	Dir    Direction
	Index  int
	Type   Type
	Buffer bool
	// Len is the number of elements of a buffer argument.
	Len int
	// Value is an Array for plain values. For buffers it is one of Null,
	// Random, Repeat or Array.
	Value     Value
	Tolerance compare.Tolerance

	// bits holds the parsed scalars as they are laid out in memory.
	bits []uint64
}

// Size returns the number of bytes the argument occupies on the device.
func (a *Arg) Size() int {
	if a.Buffer {
		return a.Type.Size() * a.Len
	}
	return a.Type.Size()
}

// IsNull reports whether the argument binds a NULL buffer.
func (a *Arg) IsNull() bool {
	_, ok := a.Value.(Null)
	return ok
}

// IsRandom reports whether the argument is filled with generated values.
func (a *Arg) IsRandom() bool {
	_, ok := a.Value.(Random)
	return ok
}

func (a *Arg) String() string {
	if !a.Buffer {
		return fmt.Sprintf("%v: %d %v %v", a.Dir, a.Index, a.Type, a.Value)
	}
	return fmt.Sprintf("%v: %d buffer %v[%d] %v", a.Dir, a.Index, a.Type, a.Len, a.Value)
}

// ParseArg parses the value of an arg_in or arg_out line:
//
//	IDX TYPE VALUE...
//	IDX buffer TYPE[N] (NULL | RANDOM | REPEAT VALUE... | VALUE...) [tolerance T [ulp]]
func ParseArg(dir Direction, text string) (*Arg, error) {
	s := newScanner(text)
	a := &Arg{Dir: dir}

	t, err := s.expect(tokWord, "argument index")
	if err != nil {
		return nil, err
	}
	if a.Index, err = strconv.Atoi(t.text); err != nil || a.Index < 0 {
		return nil, fmt.Errorf("invalid argument index %q", t.text)
	}

	if s.peekWord("buffer") {
		s.next()
		a.Buffer = true
	}
	if t, err = s.expect(tokWord, "argument type"); err != nil {
		return nil, err
	}
	if a.Type, err = ParseType(t.text); err != nil {
		return nil, err
	}
	if a.Buffer {
		if a.Len, err = parseLength(s); err != nil {
			return nil, err
		}
	}

	if a.Value, err = parsePayload(s, a.Buffer); err != nil {
		return nil, err
	}
	if s.peekWord("tolerance") {
		s.next()
		if a.Tolerance, err = parseTolerance(s, a.Type.Scalar); err != nil {
			return nil, err
		}
		if dir == In {
			return nil, fmt.Errorf("tolerance is only allowed on output arguments")
		}
	}
	if !s.atEOF() {
		return nil, fmt.Errorf("unexpected %v", s.peek())
	}

	if err := a.check(); err != nil {
		return nil, err
	}
	return a, nil
}

func parseLength(s *scanner) (int, error) {
	if _, err := s.expect(tokLBracket, "'[' after buffer type"); err != nil {
		return 0, err
	}
	t, err := s.expect(tokWord, "buffer length")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(t.text)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid buffer length %q", t.text)
	}
	if _, err := s.expect(tokRBracket, "']'"); err != nil {
		return 0, err
	}
	return n, nil
}

func parsePayload(s *scanner, buffer bool) (Value, error) {
	var special Value
	switch {
	case s.peekWord("NULL"):
		special = Null{}
	case s.peekWord("RANDOM", "random"):
		special = Random{}
	case s.peekWord("REPEAT", "repeat"):
		s.next()
		if !buffer {
			return nil, fmt.Errorf("REPEAT is only allowed on buffer arguments")
		}
		vs, err := s.literals("tolerance")
		if err != nil {
			return nil, err
		}
		return Repeat(vs), nil
	default:
		return s.literals("tolerance")
	}
	if !buffer {
		return nil, fmt.Errorf("%v is only allowed on buffer arguments", special)
	}
	s.next()
	return special, nil
}

func parseTolerance(s *scanner, sc Scalar) (compare.Tolerance, error) {
	t, err := s.expect(tokWord, "tolerance value")
	if err != nil {
		return compare.Exact, err
	}
	v, err := ParseLiteral(t.text)
	if err != nil {
		return compare.Exact, err
	}
	ulp := s.peekWord("ulp")
	if ulp {
		s.next()
		if !sc.IsFloat() {
			return compare.Exact, fmt.Errorf("ulp tolerance requires a floating-point type, got %v", sc)
		}
	}

	if sc.IsFloat() && !ulp {
		var f float64
		switch v := v.(type) {
		case Int:
			f = float64(v)
		case UInt:
			f = float64(v)
		case Float:
			f = float64(v)
		default:
			return compare.Exact, fmt.Errorf("invalid tolerance %v", v)
		}
		if f < 0 || math.IsNaN(f) {
			return compare.Exact, fmt.Errorf("invalid tolerance %v", v)
		}
		return compare.Absolute(f), nil
	}

	var n uint64
	switch v := v.(type) {
	case Int:
		if v < 0 {
			return compare.Exact, fmt.Errorf("negative tolerance %v", v)
		}
		n = uint64(v)
	case UInt:
		n = uint64(v)
	default:
		return compare.Exact, fmt.Errorf("tolerance %v must be a non-negative integer", v)
	}
	if ulp {
		return compare.ULP(n), nil
	}
	return compare.IntAbsolute(n), nil
}

// check applies the argument rules and converts the literals to their
// memory representation.
func (a *Arg) check() error {
	if a.Dir == Out && !a.Buffer {
		return fmt.Errorf("output argument %d must be a buffer", a.Index)
	}
	var lits []Value
	switch v := a.Value.(type) {
	case Null:
		if a.Dir == Out {
			return fmt.Errorf("output buffer %d cannot be NULL", a.Index)
		}
		return nil
	case Random:
		if a.Dir == Out {
			return fmt.Errorf("output buffer %d cannot be RANDOM", a.Index)
		}
		return nil
	case Repeat:
		lits = v
	case Array:
		want := a.Type.Width
		if a.Buffer {
			want *= a.Len
		}
		if len(v) != want {
			return fmt.Errorf("argument %d: expected %d values for %v, got %d", a.Index, want, a.describe(), len(v))
		}
		lits = v
	}

	a.bits = make([]uint64, len(lits))
	for i, lit := range lits {
		b, err := toBits(lit, a.Type.Scalar)
		if err != nil {
			return fmt.Errorf("argument %d: %w", a.Index, err)
		}
		a.bits[i] = b
	}
	return nil
}

func (a *Arg) describe() string {
	if a.Buffer {
		return fmt.Sprintf("%v[%d]", a.Type, a.Len)
	}
	return a.Type.String()
}

// toBits converts a literal to the bit pattern of scalar type sc.
func toBits(v Value, sc Scalar) (uint64, error) {
	switch v := v.(type) {
	case Bool:
		n := uint64(0)
		if v {
			n = 1
		}
		if sc == ScalarFloat {
			return uint64(math.Float32bits(float32(n))), nil
		}
		if sc == ScalarDouble {
			return math.Float64bits(float64(n)), nil
		}
		return n, nil
	case Int:
		switch {
		case sc.IsSigned():
			lo, hi := sc.intRange()
			if int64(v) < lo || int64(v) > hi {
				return 0, fmt.Errorf("%v out of range for %v", v, sc)
			}
			return uint64(v), nil
		case sc.IsUnsigned():
			if v < 0 || uint64(v) > sc.uintMax() {
				return 0, fmt.Errorf("%v out of range for %v", v, sc)
			}
			return uint64(v), nil
		default:
			return floatBits(float64(v), sc, v)
		}
	case UInt:
		switch {
		case sc.IsSigned():
			return 0, fmt.Errorf("%v out of range for %v", v, sc)
		case sc.IsUnsigned():
			if uint64(v) > sc.uintMax() {
				return 0, fmt.Errorf("%v out of range for %v", v, sc)
			}
			return uint64(v), nil
		default:
			return floatBits(float64(v), sc, v)
		}
	case Float:
		if !sc.IsFloat() {
			return 0, fmt.Errorf("floating-point literal %v for integer type %v", v, sc)
		}
		return floatBits(float64(v), sc, v)
	default:
		return 0, fmt.Errorf("unexpected %v in value list", v)
	}
}

func floatBits(f float64, sc Scalar, lit Value) (uint64, error) {
	if sc == ScalarDouble {
		return math.Float64bits(f), nil
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return 0, fmt.Errorf("%v out of range for %v", lit, sc)
	}
	return uint64(math.Float32bits(float32(f))), nil
}

// checkPair verifies that an input and an output argument bound to the same
// index describe the same memory.
func checkPair(in, out *Arg) error {
	if in.Type != out.Type || in.Size() != out.Size() {
		return fmt.Errorf("argument %d: %s %s does not match %s %s",
			in.Index, in.Dir, in.describe(), out.Dir, out.describe())
	}
	return nil
}
