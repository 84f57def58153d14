package programtest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/config"
	"github.com/AndreyAkinshin/conform/internal/errors"
)

type state int

const (
	stateNone state = iota
	stateConfig
	stateTest
)

var (
	headerRE = regexp.MustCompile(`^\[([a-z ]+)\]$`)
	keyRE    = regexp.MustCompile(`^[a-z_]+$`)
)

const (
	sectionConfig        = "config"
	sectionTest          = "test"
	sectionProgramSource = "program source"
	sectionProgramBinary = "program binary"
)

// Parse parses a program test description. name labels error messages and
// becomes the default test name; firstLine is the line number of the first
// line of text within its file.
func Parse(name, text string, firstLine int) (*Program, error) {
	p := &parser{
		file:      name,
		lines:     strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"),
		firstLine: firstLine,
		prog: &Program{
			Config: &config.TestConfig{
				Name:         defaultName(name),
				RunPerDevice: true,
				Program:      &config.ProgramConfig{},
			},
		},
		defaults: SubTest{Dimensions: 1, GlobalSize: [3]int{1, 1, 1}},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.prog, nil
}

// defaultName derives a test name from a file name.
func defaultName(file string) string {
	base := file[strings.LastIndexAny(file, `/\`)+1:]
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return strings.NewReplacer("%", "_").Replace(base)
}

type parser struct {
	file      string
	lines     []string
	pos       int
	firstLine int
	line      int // line number of the logical line being parsed

	state     state
	sawConfig bool
	sawTest   bool
	seen      map[string]bool

	prog     *Program
	defaults SubTest
	cur      *SubTest
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Configf("%s:%d: %s", p.file, p.line, fmt.Sprintf(format, args...))
}

// logical returns the next non-blank logical line with comments stripped and
// continuations joined.
func (p *parser) logical() (string, bool) {
	for p.pos < len(p.lines) {
		p.line = p.firstLine + p.pos
		line := stripComment(p.lines[p.pos])
		p.pos++
		for {
			trimmed := strings.TrimRight(line, " \t")
			if !strings.HasSuffix(trimmed, `\`) {
				break
			}
			line = strings.TrimSuffix(trimmed, `\`)
			if p.pos >= len(p.lines) {
				break
			}
			line += " " + stripComment(p.lines[p.pos])
			p.pos++
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, true
		}
	}
	return "", false
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// raw consumes physical lines verbatim up to the next section header.
func (p *parser) raw() string {
	start := p.pos
	for p.pos < len(p.lines) && !headerRE.MatchString(strings.TrimSpace(stripComment(p.lines[p.pos]))) {
		p.pos++
	}
	return strings.Join(p.lines[start:p.pos], "\n")
}

func (p *parser) parse() error {
	for {
		line, ok := p.logical()
		if !ok {
			break
		}
		if m := headerRE.FindStringSubmatch(line); m != nil {
			if err := p.section(m[1]); err != nil {
				return err
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || !keyRE.MatchString(key) {
			return p.errorf("expected 'key: value', got %q", line)
		}
		if err := p.keyValue(key, value); err != nil {
			return err
		}
	}
	if err := p.endSection(); err != nil {
		return err
	}
	if !p.sawConfig {
		return errors.Configf("%s: missing [config] section", p.file)
	}
	return nil
}

func (p *parser) section(name string) error {
	if err := p.endSection(); err != nil {
		return err
	}
	p.seen = map[string]bool{}
	pc := p.prog.Config.Program
	switch name {
	case sectionConfig:
		if p.sawConfig {
			return p.errorf("duplicate [config] section")
		}
		if p.sawTest {
			return p.errorf("[config] section must precede all [test] sections")
		}
		p.sawConfig = true
		p.state = stateConfig
	case sectionTest:
		if !p.sawConfig {
			return p.errorf("[test] section before [config] section")
		}
		if pc.ExpectBuildFail {
			return p.errorf("[test] section in a program expected to fail to build")
		}
		p.sawTest = true
		p.state = stateTest
		t := p.defaults
		if p.defaults.LocalSize != nil {
			t.LocalSize = append([]int(nil), p.defaults.LocalSize...)
		}
		t.Line = p.line
		p.cur = &t
	case sectionProgramSource:
		if pc.Source != "" {
			return p.errorf("duplicate [program source] section")
		}
		p.state = stateNone
		pc.Source = p.raw()
	case sectionProgramBinary:
		if len(pc.Binary) > 0 {
			return p.errorf("duplicate [program binary] section")
		}
		p.state = stateNone
		pc.Binary = []byte(p.raw())
	default:
		return p.errorf("unknown section [%s]", name)
	}
	return nil
}

// endSection finishes the current [test] section.
func (p *parser) endSection() error {
	if p.state != stateTest || p.cur == nil {
		return nil
	}
	t := p.cur
	p.cur = nil
	if t.Name == "" {
		t.Name = fmt.Sprintf("test %d", len(p.prog.Tests)+1)
	}
	if t.KernelName == "" {
		t.KernelName = p.prog.Config.Program.KernelName
	}
	if t.KernelName == "" {
		return errors.Configf("%s:%d: test %q has no kernel_name", p.file, t.Line, t.Name)
	}
	for _, other := range p.prog.Tests {
		if other.Name == t.Name {
			return errors.Configf("%s:%d: duplicate test name %q", p.file, t.Line, t.Name)
		}
	}
	p.prog.Tests = append(p.prog.Tests, t)
	return nil
}

func (p *parser) keyValue(key, value string) error {
	if p.state == stateNone {
		return p.errorf("%q outside of a [config] or [test] section", key)
	}
	if key != "arg_in" && key != "arg_out" {
		if p.seen[key] {
			return p.errorf("duplicate key %q", key)
		}
		p.seen[key] = true
	}
	var err error
	if p.state == stateConfig {
		err = p.configKey(key, value)
	} else {
		err = p.testKey(key, value)
	}
	if err != nil {
		return p.errorf("%s: %v", key, err)
	}
	return nil
}

func (p *parser) configKey(key, value string) error {
	cfg := p.prog.Config
	pc := cfg.Program
	var err error
	switch key {
	case "name":
		if err := config.ValidateName(value); err != nil {
			return fmt.Errorf("invalid name %q", value)
		}
		cfg.Name = value
	case "clc_version_min":
		pc.CLCVersionMin, err = cl.ParseVersionNumber(value)
	case "clc_version_max":
		pc.CLCVersionMax, err = cl.ParseVersionNumber(value)
	case "platform_regex":
		cfg.PlatformRegex = value
	case "device_regex":
		cfg.DeviceRegex = value
	case "require_platform_extensions":
		cfg.RequirePlatformExtensions = value
	case "require_device_extensions":
		cfg.RequireDeviceExtensions = value
	case "program_source_file":
		pc.SourceFile = value
	case "program_binary_file":
		pc.BinaryFile = value
	case "build_options":
		pc.BuildOptions = value
	case "kernel_name":
		pc.KernelName = value
	case "expect_build_fail":
		pc.ExpectBuildFail, err = parseBool(value)
	case "expect_test_fail", "dimensions", "global_size", "local_size":
		err = launchKey(&p.defaults, key, value)
	default:
		return fmt.Errorf("unknown [config] key")
	}
	return err
}

func (p *parser) testKey(key, value string) error {
	t := p.cur
	switch key {
	case "name":
		if value == "" {
			return fmt.Errorf("empty test name")
		}
		t.Name = value
	case "kernel_name":
		t.KernelName = value
	case "expect_test_fail", "dimensions", "global_size", "local_size":
		return launchKey(t, key, value)
	case "arg_in":
		return p.addArg(In, value)
	case "arg_out":
		return p.addArg(Out, value)
	default:
		return fmt.Errorf("unknown [test] key")
	}
	return nil
}

// launchKey handles the keys that may appear in both sections.
func launchKey(t *SubTest, key, value string) error {
	var err error
	switch key {
	case "expect_test_fail":
		t.ExpectTestFail, err = parseBool(value)
	case "dimensions":
		t.Dimensions, err = strconv.Atoi(value)
		if err == nil && (t.Dimensions < 1 || t.Dimensions > 3) {
			err = fmt.Errorf("must be 1, 2 or 3")
		}
	case "global_size":
		var sizes []int
		if sizes, err = parseSizes(value); err == nil {
			t.GlobalSize = [3]int{1, 1, 1}
			copy(t.GlobalSize[:], sizes)
		}
	case "local_size":
		if value == "NULL" {
			t.LocalSize = nil
			return nil
		}
		var sizes []int
		if sizes, err = parseSizes(value); err == nil {
			t.LocalSize = []int{1, 1, 1}
			copy(t.LocalSize, sizes)
		}
	}
	return err
}

func (p *parser) addArg(dir Direction, value string) error {
	a, err := ParseArg(dir, value)
	if err != nil {
		return err
	}
	t := p.cur
	own, other := &t.ArgsIn, t.ArgsOut
	if dir == Out {
		own, other = &t.ArgsOut, t.ArgsIn
	}
	if findArg(*own, a.Index) != nil {
		return fmt.Errorf("argument index %d already used", a.Index)
	}
	if o := findArg(other, a.Index); o != nil {
		in, out := o, a
		if dir == In {
			in, out = a, o
		}
		if err := checkPair(in, out); err != nil {
			return err
		}
	}
	*own = append(*own, a)
	return nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func parseSizes(s string) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 3 {
		return nil, fmt.Errorf("expected 1 to 3 sizes, got %q", s)
	}
	sizes := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid size %q", f)
		}
		sizes[i] = n
	}
	return sizes, nil
}
