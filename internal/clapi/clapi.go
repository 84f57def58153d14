// Package clapi holds OpenCL API tests that query platform and device
// information. Importing it registers them with the harness.
package clapi

import (
	"strings"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/config"
	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/harness"
	"github.com/AndreyAkinshin/conform/internal/result"
)

func init() {
	harness.Register("api-platform-info", PlatformInfoConfig, harness.TestFunc(PlatformInfo))
	harness.Register("api-device-info", DeviceInfoConfig, harness.TestFunc(DeviceInfo))
}

// PlatformInfoConfig runs PlatformInfo once per platform.
func PlatformInfoConfig() *config.TestConfig {
	return &config.TestConfig{Name: "api-platform-info", RunPerPlatform: true}
}

// DeviceInfoConfig runs DeviceInfo once per device.
func DeviceInfoConfig() *config.TestConfig {
	return &config.TestConfig{Name: "api-device-info", RunPerDevice: true}
}

type check struct {
	name string
	fn   func() error
}

func run(env *harness.Env, checks []check) result.Result {
	r := env.Runner()
	res := result.Skip
	for _, c := range checks {
		sr := result.Pass
		if err := c.fn(); err != nil {
			sr = errors.ResultOf(err)
			r.Fail(c.name, err)
		}
		r.Subtest(c.name, sr)
		res = result.Merge(res, sr)
	}
	return res
}

// PlatformInfo checks the platform's name, vendor, version and extension
// strings.
func PlatformInfo(env *harness.Env, _ *config.TestConfig) result.Result {
	p := env.Platform
	return run(env, []check{
		{"CL_PLATFORM_NAME", func() error { return nonEmpty(p.Name()) }},
		{"CL_PLATFORM_VENDOR", func() error { return nonEmpty(p.Vendor()) }},
		{"CL_PLATFORM_VERSION", func() error {
			_, err := cl.ParseVersion(p.Version())
			return err
		}},
		{"CL_PLATFORM_EXTENSIONS", func() error { return wellFormedExtensions(p.Extensions()) }},
	})
}

// DeviceInfo checks the device's version strings against each other and
// against the platform, and the device extension string.
func DeviceInfo(env *harness.Env, _ *config.TestConfig) result.Result {
	d := env.Device
	return run(env, []check{
		{"CL_DEVICE_NAME", func() error { return nonEmpty(d.Name()) }},
		{"CL_DEVICE_VERSION", func() error {
			v, err := cl.ParseVersion(d.Version())
			if err != nil {
				return err
			}
			pv, err := cl.ParseVersion(d.Platform().Version())
			if err != nil {
				return errors.Wrap(err, "platform version")
			}
			if v > pv {
				return errors.Newf("device version %v is newer than platform version %v", v, pv)
			}
			return nil
		}},
		{"CL_DEVICE_OPENCL_C_VERSION", func() error {
			if env.Version < cl.NewVersion(1, 1) {
				return errors.Capabilityf("query added in OpenCL 1.1")
			}
			cv, err := cl.ParseCVersion(d.CVersion())
			if err != nil {
				return err
			}
			if cv > env.Version {
				return errors.Newf("OpenCL C version %v is newer than device version %v", cv, env.Version)
			}
			return nil
		}},
		{"CL_DEVICE_EXTENSIONS", func() error { return wellFormedExtensions(d.Extensions()) }},
	})
}

func nonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("empty string")
	}
	return nil
}

// wellFormedExtensions checks that every extension name starts with cl_ and
// appears once.
func wellFormedExtensions(s string) error {
	seen := map[string]bool{}
	for _, name := range strings.Fields(s) {
		if !strings.HasPrefix(name, "cl_") {
			return errors.Newf("extension %q does not start with cl_", name)
		}
		if seen[name] {
			return errors.Newf("extension %q listed twice", name)
		}
		seen[name] = true
	}
	return nil
}
