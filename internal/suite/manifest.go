// Package suite runs collections of conformance tests described by a YAML
// manifest, one child process per test, and records their results.
package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/schema"
)

// Manifest is a parsed suite manifest.
type Manifest struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Tests       []Entry `yaml:"tests"`

	// Dir is the directory the manifest was loaded from. Paths in entries
	// are relative to it.
	Dir string `yaml:"-"`
}

// Entry is one item of the manifest's test list. Exactly one of Program,
// Programs, Test and Command is set.
type Entry struct {
	Name     string   `yaml:"name"`
	Program  string   `yaml:"program"`
	Programs string   `yaml:"programs"`
	Config   string   `yaml:"config"`
	Test     string   `yaml:"test"`
	Command  string   `yaml:"command"`
	Args     []string `yaml:"args"`
	Timeout  string   `yaml:"timeout"`
}

// Kind says how a case is run.
type Kind int

const (
	// KindProgram runs an OpenCL program test.
	KindProgram Kind = iota
	// KindTest runs a registered test.
	KindTest
	// KindCommand runs an arbitrary executable that reports result lines.
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindProgram:
		return "program"
	case KindTest:
		return "test"
	case KindCommand:
		return "command"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Case is one test process to run.
type Case struct {
	Name string
	Kind Kind
	// Target is the program path or registered test name.
	Target  string
	Config  string
	Command []string
	Args    []string
	Dir     string
	// Timeout overrides the profile's timeout when non-zero.
	Timeout time.Duration
}

// LoadManifest reads, validates and decodes a suite manifest. Unknown
// fields are returned as warnings.
func LoadManifest(path string) (*Manifest, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindConfig, Message: "failed to read suite manifest", Cause: err}
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindConfig, Message: fmt.Sprintf("%s: failed to parse suite manifest", path), Cause: err}
	}
	if err := schema.ValidateValue(raw, schema.ValidateSuite); err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindValidation, Message: path, Cause: err}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindConfig, Message: fmt.Sprintf("%s: failed to decode suite manifest", path), Cause: err}
	}
	m.Dir = filepath.Dir(path)
	return &m, detectUnknownFields(raw), nil
}

// detectUnknownFields compares the raw document with the known yaml
// fields.
func detectUnknownFields(raw map[string]any) []string {
	var warnings []string
	known := yamlFields(reflect.TypeOf(Manifest{}))
	for _, key := range sortedKeys(raw) {
		if key != "$schema" && !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
		}
	}

	tests, _ := raw["tests"].([]any)
	knownEntry := yamlFields(reflect.TypeOf(Entry{}))
	for i, t := range tests {
		entry, ok := t.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range sortedKeys(entry) {
			if !knownEntry[key] {
				warnings = append(warnings, fmt.Sprintf("unknown field %q in test %d (ignored)", key, i+1))
			}
		}
	}
	return warnings
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// yamlFields returns the set of yaml field names of a struct type.
func yamlFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			fields[name] = true
		}
	}
	return fields
}

// Cases expands the manifest's entries into test cases, in manifest order.
// A programs pattern expands to one case per matching file, sorted by path.
func (m *Manifest) Cases() ([]Case, error) {
	var cases []Case
	seen := map[string]bool{}
	add := func(c Case) error {
		if seen[c.Name] {
			return errors.Configf("%s: duplicate test name %q", m.Name, c.Name)
		}
		seen[c.Name] = true
		cases = append(cases, c)
		return nil
	}

	for i, e := range m.Tests {
		base := Case{Args: e.Args, Dir: m.Dir}
		if e.Timeout != "" {
			d, err := time.ParseDuration(e.Timeout)
			if err != nil {
				return nil, errors.Configf("test %d: invalid timeout %q", i+1, e.Timeout)
			}
			base.Timeout = d
		}

		switch {
		case e.Program != "":
			c := base
			c.Kind, c.Target = KindProgram, m.path(e.Program)
			c.Name = firstNonEmpty(e.Name, m.caseName(e.Program))
			if e.Config != "" {
				c.Config = m.path(e.Config)
			}
			if err := add(c); err != nil {
				return nil, err
			}

		case e.Programs != "":
			matches, err := filepath.Glob(m.path(e.Programs))
			if err != nil {
				return nil, errors.Configf("test %d: invalid pattern %q: %v", i+1, e.Programs, err)
			}
			if len(matches) == 0 {
				return nil, errors.Configf("test %d: pattern %q matched no files", i+1, e.Programs)
			}
			for _, match := range matches {
				rel, err := filepath.Rel(m.Dir, match)
				if err != nil {
					rel = match
				}
				c := base
				c.Kind, c.Target, c.Name = KindProgram, match, m.caseName(rel)
				if e.Name != "" {
					c.Name = e.Name + "/" + c.Name
				}
				if err := add(c); err != nil {
					return nil, err
				}
			}

		case e.Test != "":
			c := base
			c.Kind, c.Target, c.Name = KindTest, e.Test, firstNonEmpty(e.Name, e.Test)
			if err := add(c); err != nil {
				return nil, err
			}

		case e.Command != "":
			argv, err := shellquote.Split(e.Command)
			if err != nil || len(argv) == 0 {
				return nil, errors.Configf("test %d: invalid command %q", i+1, e.Command)
			}
			c := base
			c.Kind, c.Command, c.Name = KindCommand, argv, firstNonEmpty(e.Name, filepath.Base(argv[0]))
			if err := add(c); err != nil {
				return nil, err
			}

		default:
			return nil, errors.Configf("test %d: no program, programs, test or command", i+1)
		}
	}
	return cases, nil
}

func (m *Manifest) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// caseName derives a case name from a program path: the slash-separated
// path without its extension.
func (m *Manifest) caseName(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	return strings.TrimSuffix(p, filepath.Ext(p))
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
