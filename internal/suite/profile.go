package suite

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/schema"
)

// DefaultMaxProcMem is the virtual memory limit of each test process when
// the profile does not set one.
const DefaultMaxProcMem uint64 = 6 << 30

// DefaultTimeout bounds each test process when the profile does not.
const DefaultTimeout = 2 * time.Minute

// ProfileHelp describes the run profile format.
const ProfileHelp = `
A run profile is a TOML file configuring how a suite is run. All fields
are optional:

          jobs: number of tests run in parallel (default: number of CPUs)
       timeout: time limit per test process, e.g. "90s" (default: 2m)
  max_proc_mem: virtual memory limit per test process in bytes
                (default: 6 GiB, 0 disables the limit)
           env: extra environment variables of the form "X=Y"
       backend: OpenCL backend passed to program and test entries
      platform: only run on the platform with this exact name
        device: only run on the device with this exact name
          seed: seed for RANDOM buffers of program tests
       exclude: regular expressions; matching test names are not run

For example:

  jobs = 8
  timeout = "5m"
  env = ["OCL_ICD_VENDORS=/etc/OpenCL/vendors"]
  exclude = ["^glx-", "/double_"]
`

// Duration is a time.Duration written as a string in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Profile configures a suite run.
type Profile struct {
	Jobs       int      `toml:"jobs"`
	Timeout    Duration `toml:"timeout"`
	MaxProcMem *uint64  `toml:"max_proc_mem"`
	Env        []string `toml:"env"`
	Backend    string   `toml:"backend"`
	Platform   string   `toml:"platform"`
	Device     string   `toml:"device"`
	Seed       *uint64  `toml:"seed"`
	Exclude    []string `toml:"exclude"`

	exclude []*regexp.Regexp
}

// DefaultProfile returns the profile used when none is given.
func DefaultProfile() *Profile {
	return &Profile{}
}

// LoadProfile reads, validates and decodes a TOML run profile. Unknown keys
// are returned as warnings.
func LoadProfile(path string) (*Profile, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindConfig, Message: "failed to read run profile", Cause: err}
	}
	return ParseProfile(path, string(data))
}

// ParseProfile is LoadProfile for profile text already in memory.
func ParseProfile(name, text string) (*Profile, []string, error) {
	var raw map[string]any
	if _, err := toml.Decode(text, &raw); err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindConfig, Message: fmt.Sprintf("%s: failed to parse run profile", name), Cause: err}
	}
	if err := schema.ValidateValue(raw, schema.ValidateProfile); err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindValidation, Message: name, Cause: err}
	}

	var p Profile
	md, err := toml.Decode(text, &p)
	if err != nil {
		return nil, nil, &errors.Error{Kind: errors.KindConfig, Message: fmt.Sprintf("%s: failed to decode run profile", name), Cause: err}
	}
	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown field %q (ignored)", key.String()))
	}
	if err := p.compile(); err != nil {
		return nil, warnings, err
	}
	return &p, warnings, nil
}

func (p *Profile) compile() error {
	p.exclude = p.exclude[:0]
	for _, expr := range p.Exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			return errors.Configf("invalid exclude pattern %q: %v", expr, err)
		}
		p.exclude = append(p.exclude, re)
	}
	return nil
}

// Excluded reports whether a test name matches an exclude pattern.
func (p *Profile) Excluded(name string) bool {
	if len(p.exclude) != len(p.Exclude) {
		if err := p.compile(); err != nil {
			return false
		}
	}
	for _, re := range p.exclude {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// jobs returns the parallelism of the run.
func (p *Profile) jobs() int {
	if p.Jobs > 0 {
		return p.Jobs
	}
	return runtime.NumCPU()
}

func (p *Profile) timeout() time.Duration {
	if p.Timeout.Duration > 0 {
		return p.Timeout.Duration
	}
	return DefaultTimeout
}

func (p *Profile) maxProcMem() uint64 {
	if p.MaxProcMem != nil {
		return *p.MaxProcMem
	}
	return DefaultMaxProcMem
}

// environ returns the environment of test processes: nil inherits ours.
func (p *Profile) environ() []string {
	if len(p.Env) == 0 {
		return nil
	}
	return append(os.Environ(), p.Env...)
}
