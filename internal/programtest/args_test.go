package programtest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AndreyAkinshin/conform/internal/compare"
)

func TestParseArg(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		dir  Direction
		in   string
		want *Arg
	}{
		{
			name: "value",
			dir:  In,
			in:   "0 int 5",
			want: &Arg{Dir: In, Index: 0, Type: Type{ScalarInt, 1}, Value: Array{Int(5)}, bits: []uint64{5}},
		},
		{
			name: "vector value",
			dir:  In,
			in:   "2 float2 1.5 -1",
			want: &Arg{Dir: In, Index: 2, Type: Type{ScalarFloat, 2}, Value: Array{Float(1.5), Int(-1)},
				bits: []uint64{0x3fc00000, 0xbf800000}},
		},
		{
			name: "buffer",
			dir:  In,
			in:   "1 buffer uchar[3] 1 2 0xff",
			want: &Arg{Dir: In, Index: 1, Type: Type{ScalarUChar, 1}, Buffer: true, Len: 3,
				Value: Array{Int(1), Int(2), Int(255)}, bits: []uint64{1, 2, 255}},
		},
		{
			name: "bracketed buffer",
			dir:  In,
			in:   "1 buffer int[2] [3 4]",
			want: &Arg{Dir: In, Index: 1, Type: Type{ScalarInt, 1}, Buffer: true, Len: 2,
				Value: Array{Int(3), Int(4)}, bits: []uint64{3, 4}},
		},
		{
			name: "null buffer",
			dir:  In,
			in:   "3 buffer int[4] NULL",
			want: &Arg{Dir: In, Index: 3, Type: Type{ScalarInt, 1}, Buffer: true, Len: 4, Value: Null{}},
		},
		{
			name: "random buffer",
			dir:  In,
			in:   "0 buffer float4[8] random",
			want: &Arg{Dir: In, Index: 0, Type: Type{ScalarFloat, 4}, Buffer: true, Len: 8, Value: Random{}},
		},
		{
			name: "repeat buffer",
			dir:  In,
			in:   "0 buffer int[7] REPEAT 1 2 3",
			want: &Arg{Dir: In, Index: 0, Type: Type{ScalarInt, 1}, Buffer: true, Len: 7,
				Value: Repeat{Int(1), Int(2), Int(3)}, bits: []uint64{1, 2, 3}},
		},
		{
			name: "repeat with brackets",
			dir:  Out,
			in:   "0 buffer short[4] repeat [-1]",
			want: &Arg{Dir: Out, Index: 0, Type: Type{ScalarShort, 1}, Buffer: true, Len: 4,
				Value: Repeat{Int(-1)}, bits: []uint64{0xffffffffffffffff}},
		},
		{
			name: "integer tolerance",
			dir:  Out,
			in:   "1 buffer int[1] 10 tolerance 2",
			want: &Arg{Dir: Out, Index: 1, Type: Type{ScalarInt, 1}, Buffer: true, Len: 1,
				Value: Array{Int(10)}, Tolerance: compare.IntAbsolute(2), bits: []uint64{10}},
		},
		{
			name: "float absolute tolerance",
			dir:  Out,
			in:   "1 buffer float[1] 1 tolerance 0.5",
			want: &Arg{Dir: Out, Index: 1, Type: Type{ScalarFloat, 1}, Buffer: true, Len: 1,
				Value: Array{Int(1)}, Tolerance: compare.Absolute(0.5), bits: []uint64{0x3f800000}},
		},
		{
			name: "float ulp tolerance",
			dir:  Out,
			in:   "1 buffer double[1] 1 tolerance 4 ulp",
			want: &Arg{Dir: Out, Index: 1, Type: Type{ScalarDouble, 1}, Buffer: true, Len: 1,
				Value: Array{Int(1)}, Tolerance: compare.ULP(4), bits: []uint64{0x3ff0000000000000}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseArg(tt.dir, tt.in)
			if err != nil {
				t.Fatalf("ParseArg(%q) error: %v", tt.in, err)
			}
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(Arg{})); diff != "" {
				t.Errorf("ParseArg(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseArg_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		dir  Direction
		in   string
		msg  string
	}{
		{"missing index", In, "", "argument index"},
		{"negative index", In, "-1 int 5", "invalid argument index"},
		{"unknown type", In, "0 half 1", "unknown type"},
		{"value out", Out, "0 int 5", "must be a buffer"},
		{"tolerance on input", In, "0 buffer int[1] 5 tolerance 1", "only allowed on output"},
		{"ulp on integer", Out, "0 buffer int[1] 5 tolerance 1 ulp", "requires a floating-point type"},
		{"null output", Out, "0 buffer int[1] NULL", "cannot be NULL"},
		{"random output", Out, "0 buffer int[1] RANDOM", "cannot be RANDOM"},
		{"too few values", In, "0 buffer int[3] 1 2", "expected 3 values"},
		{"too many values", In, "0 int2 1 2 3", "expected 2 values"},
		{"vector buffer count", In, "0 buffer int2[2] 1 2 3", "expected 4 values"},
		{"out of range", In, "0 uchar 256", "out of range"},
		{"negative unsigned", In, "0 uint -1", "out of range"},
		{"float for integer", In, "0 int 1.5", "floating-point literal"},
		{"float out of range", In, "0 float 1e300", "out of range"},
		{"null value", In, "0 int NULL", "only allowed on buffer"},
		{"random value", In, "0 int RANDOM", "only allowed on buffer"},
		{"repeat value", In, "0 int REPEAT 1", "only allowed on buffer"},
		{"missing length", In, "0 buffer int 1", "'['"},
		{"zero length", In, "0 buffer int[0] 1", "invalid buffer length"},
		{"missing values", In, "0 buffer int[1]", "expected value"},
		{"negative tolerance", Out, "0 buffer int[1] 1 tolerance -1", "negative tolerance"},
		{"float integer tolerance", Out, "0 buffer int[1] 1 tolerance 0.5", "non-negative integer"},
		{"trailing garbage", Out, "0 buffer float[1] 1 tolerance 1 ulp extra", "unexpected"},
		{"unclosed list", In, "0 buffer int[2] [1 2", "']'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseArg(tt.dir, tt.in)
			if err == nil {
				t.Fatalf("ParseArg(%q) should fail", tt.in)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want substring %q", err, tt.msg)
			}
		})
	}
}

func TestCheckPair(t *testing.T) {
	t.Parallel()
	in, err := ParseArg(In, "0 int 5")
	if err != nil {
		t.Fatal(err)
	}
	out, err := ParseArg(Out, "0 buffer int[1] 5")
	if err != nil {
		t.Fatal(err)
	}
	if err := checkPair(in, out); err != nil {
		t.Errorf("matching pair rejected: %v", err)
	}

	bigger, err := ParseArg(Out, "0 buffer int[2] 5 6")
	if err != nil {
		t.Fatal(err)
	}
	if err := checkPair(in, bigger); err == nil {
		t.Error("size mismatch should be rejected")
	}

	other, err := ParseArg(Out, "0 buffer uint[1] 5")
	if err != nil {
		t.Fatal(err)
	}
	if err := checkPair(in, other); err == nil {
		t.Error("type mismatch should be rejected")
	}
}
