package programtest

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/AndreyAkinshin/conform/internal/compare"
)

// Fill returns the bytes of an argument as they are written to the device.
// Parsed scalars are laid out with two strides: the array stride (the
// vector width) indexes the parsed values modulo their count, and the
// memory stride pads three-component vectors to four. Padding lanes are
// zero. NULL arguments have no payload and return nil.
func Fill(a *Arg, rng *rand.Rand) []byte {
	if a.IsNull() {
		return nil
	}
	size := a.Type.Scalar.Size()
	buf := make([]byte, a.Size())
	n := a.count()
	for i := 0; i < n; i++ {
		for c := 0; c < a.Type.Width; c++ {
			var bits uint64
			if a.IsRandom() {
				bits = randomBits(a.Type.Scalar, rng)
			} else {
				bits = a.bits[(i*a.Type.Width+c)%len(a.bits)]
			}
			putBits(buf[(i*a.Type.MemWidth()+c)*size:], size, bits)
		}
	}
	return buf
}

// count returns the number of logical elements.
func (a *Arg) count() int {
	if a.Buffer {
		return a.Len
	}
	return 1
}

func putBits(b []byte, size int, bits uint64) {
	switch size {
	case 1:
		b[0] = byte(bits)
	case 2:
		binary.NativeEndian.PutUint16(b, uint16(bits))
	case 4:
		binary.NativeEndian.PutUint32(b, uint32(bits))
	default:
		binary.NativeEndian.PutUint64(b, bits)
	}
}

func getBits(b []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.NativeEndian.Uint16(b))
	case 4:
		return uint64(binary.NativeEndian.Uint32(b))
	default:
		return binary.NativeEndian.Uint64(b)
	}
}

// randomBits draws a value of type sc. Integers use every bit pattern;
// floats are finite.
func randomBits(sc Scalar, rng *rand.Rand) uint64 {
	for {
		bits := rng.Uint64()
		switch sc {
		case ScalarFloat:
			f := math.Float32frombits(uint32(bits))
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				continue
			}
			return uint64(uint32(bits))
		case ScalarDouble:
			f := math.Float64frombits(bits)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			return bits
		default:
			return bits & (math.MaxUint64 >> (64 - 8*sc.Size()))
		}
	}
}

// Mismatch is one output element that differs from its expectation.
type Mismatch struct {
	Arg      int
	Element  int
	Lane     int
	Width    int
	Expected string
	Actual   string
}

func (m Mismatch) String() string {
	where := fmt.Sprintf("argument %d element %d", m.Arg, m.Element)
	if m.Width > 1 {
		where += fmt.Sprintf(".s%x", m.Lane)
	}
	return fmt.Sprintf("%s: expected %s, got %s", where, m.Expected, m.Actual)
}

// Verify compares the bytes read back for an output argument against its
// expected values under the argument's tolerance. It reports every
// mismatching element.
func Verify(a *Arg, actual []byte) []Mismatch {
	sc := a.Type.Scalar
	size := sc.Size()
	var out []Mismatch
	for i := 0; i < a.count(); i++ {
		for c := 0; c < a.Type.Width; c++ {
			off := (i*a.Type.MemWidth() + c) * size
			if off+size > len(actual) {
				out = append(out, Mismatch{Arg: a.Index, Element: i, Lane: c, Width: a.Type.Width,
					Expected: format(sc, a.bits[(i*a.Type.Width+c)%len(a.bits)]), Actual: "<missing>"})
				continue
			}
			want := a.bits[(i*a.Type.Width+c)%len(a.bits)]
			got := getBits(actual[off:], size)
			if !equal(sc, want, got, a.Tolerance) {
				out = append(out, Mismatch{Arg: a.Index, Element: i, Lane: c, Width: a.Type.Width,
					Expected: format(sc, want), Actual: format(sc, got)})
			}
		}
	}
	return out
}

func equal(sc Scalar, want, got uint64, tol compare.Tolerance) bool {
	switch {
	case sc == ScalarFloat:
		return compare.Float32(math.Float32frombits(uint32(want)), math.Float32frombits(uint32(got)), tol)
	case sc == ScalarDouble:
		return compare.Float64(math.Float64frombits(want), math.Float64frombits(got), tol)
	case sc.IsSigned():
		return compare.Int(signExtend(want, sc.Size()), signExtend(got, sc.Size()), tol)
	default:
		return compare.Uint(want, got, tol)
	}
}

func signExtend(bits uint64, size int) int64 {
	shift := 64 - 8*size
	return int64(bits<<shift) >> shift
}

func format(sc Scalar, bits uint64) string {
	switch {
	case sc == ScalarFloat:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(bits))), 'g', -1, 32)
	case sc == ScalarDouble:
		return Float(math.Float64frombits(bits)).String()
	case sc.IsSigned():
		return Int(signExtend(bits, sc.Size())).String()
	default:
		return UInt(bits).String()
	}
}
