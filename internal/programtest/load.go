package programtest

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AndreyAkinshin/conform/internal/config"
	"github.com/AndreyAkinshin/conform/internal/errors"
)

var mainArgRE = regexp.MustCompile(`\.(cl|program_test|bin)$`)

// IsMainArg reports whether path names a program test, an OpenCL C source
// or a program binary.
func IsMainArg(path string) bool {
	return mainArgRE.MatchString(path)
}

// Load loads the program test named by main. A .program_test file carries its
// own configuration; a .cl file is the program source and takes its
// configuration from configPath or from an embedded /*! ... !*/ block; a
// .bin file is a program binary configured by configPath. Without any
// configuration the program is only built.
func Load(main, configPath string) (*Program, error) {
	m := mainArgRE.FindStringSubmatch(main)
	if m == nil {
		return nil, errors.Configf("%s: expected a .cl, .program_test or .bin file", main)
	}
	if m[1] == "program_test" {
		if configPath != "" {
			return nil, errors.Configf("-config cannot be used with %s", main)
		}
		return parseFile(main)
	}

	data, err := readFile(main)
	if err != nil {
		return nil, err
	}
	var prog *Program
	switch {
	case configPath != "":
		if prog, err = parseFile(configPath); err != nil {
			return nil, err
		}
	case m[1] == "cl":
		block, line, found, err := embedded(main, string(data))
		if err != nil {
			return nil, err
		}
		if found {
			if prog, err = Parse(main, block, line); err != nil {
				return nil, err
			}
			prog.Path = main
		}
	}
	if prog == nil {
		prog = &Program{
			Config: &config.TestConfig{
				Name:         defaultName(main),
				RunPerDevice: true,
				Program:      &config.ProgramConfig{},
			},
			Path: main,
		}
	}

	pc := prog.Config.Program
	if set := pc.Payloads(); len(set) > 0 {
		return nil, errors.Configf("%s: program given on the command line and as %s", prog.Path, set[0])
	}
	if m[1] == "cl" {
		pc.Source = string(data)
	} else {
		pc.Binary = data
	}
	return prog, nil
}

func parseFile(path string) (*Program, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := Parse(path, string(data), 1)
	if err != nil {
		return nil, err
	}
	prog.Path = path
	return prog, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.Error{Kind: errors.KindConfig, Message: "cannot read " + path, Cause: err}
	}
	return data, nil
}

// embedded extracts the /*! ... !*/ block of an OpenCL C source and the line
// its text starts on.
func embedded(name, src string) (block string, line int, found bool, err error) {
	start := strings.Index(src, "/*!")
	if start < 0 {
		return "", 0, false, nil
	}
	body := src[start+3:]
	end := strings.Index(body, "!*/")
	if end < 0 {
		return "", 0, false, errors.Configf("%s: unterminated /*! configuration block", name)
	}
	return body[:end], strings.Count(src[:start], "\n") + 1, true, nil
}

// Payload returns the program source or binary, reading program_source_file
// and program_binary_file relative to the description.
func (p *Program) Payload() (source string, binary []byte, err error) {
	pc := p.Config.Program
	resolve := func(name string) string {
		if filepath.IsAbs(name) || p.Path == "" {
			return name
		}
		return filepath.Join(filepath.Dir(p.Path), name)
	}
	switch {
	case pc.SourceFile != "":
		data, err := readFile(resolve(pc.SourceFile))
		return string(data), nil, err
	case pc.BinaryFile != "":
		data, err := readFile(resolve(pc.BinaryFile))
		return "", data, err
	case len(pc.Binary) > 0:
		return "", pc.Binary, nil
	default:
		return pc.Source, nil, nil
	}
}
