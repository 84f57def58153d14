// Package programtest loads OpenCL program test descriptions and runs them:
// it builds the program on every matching device, binds the described
// kernel arguments, runs the kernels and verifies their outputs.
package programtest

import (
	"github.com/AndreyAkinshin/conform/internal/config"
)

// SubTest is one [test] section: a kernel launch with its arguments and
// expected outputs.
type SubTest struct {
	Name           string
	KernelName     string
	ExpectTestFail bool
	Dimensions     int
	GlobalSize     [3]int
	// LocalSize is nil when the implementation chooses the work-group size.
	LocalSize []int
	ArgsIn    []*Arg
	ArgsOut   []*Arg

	// Line is the line of the [test] header.
	Line int
}

// Global returns the global work size for Dimensions dimensions.
func (t *SubTest) Global() []int {
	return t.GlobalSize[:t.Dimensions]
}

// Local returns the local work size, or nil.
func (t *SubTest) Local() []int {
	if t.LocalSize == nil {
		return nil
	}
	return t.LocalSize[:t.Dimensions]
}

// In returns the input argument bound at index, or nil.
func (t *SubTest) In(index int) *Arg {
	return findArg(t.ArgsIn, index)
}

// Out returns the output argument bound at index, or nil.
func (t *SubTest) Out(index int) *Arg {
	return findArg(t.ArgsOut, index)
}

func findArg(args []*Arg, index int) *Arg {
	for _, a := range args {
		if a.Index == index {
			return a
		}
	}
	return nil
}

// Program is a parsed program test description.
type Program struct {
	Config *config.TestConfig
	Tests  []*SubTest
	// Path is the description file, used to resolve program_*_file keys.
	Path string
}

// ProgramConfig returns the program payload of the description.
func (p *Program) ProgramConfig() *config.ProgramConfig {
	return p.Config.Program
}
