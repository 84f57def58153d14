package harness

import (
	"iter"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/config"
	"github.com/AndreyAkinshin/conform/internal/errors"
)

// Env is the execution context handed to a test. Handles are borrowed from
// the backend and valid for one iteration only.
type Env struct {
	Platform cl.Platform
	// Device is nil on per-platform runs.
	Device cl.Device
	// Version is the platform version on per-platform runs and the device
	// version on per-device runs.
	Version cl.Version
	// CVersion is the device's OpenCL C version, zero on per-platform runs.
	CVersion cl.Version

	runner *Runner
}

// Runner returns the runner dispatching this environment.
func (e *Env) Runner() *Runner { return e.runner }

// Where names the platform or device of the environment.
func (e *Env) Where() string {
	if e.Device != nil {
		return e.Device.Name()
	}
	return e.Platform.Name()
}

// Platforms lazily yields every platform that passes the name selection, the
// platform regex, the platform extension gate and the version gate. A failed
// backend query is yielded as an error and ends the sequence.
func (r *Runner) Platforms(cfg *config.TestConfig, f *config.Filters) iter.Seq2[*Env, error] {
	return func(yield func(*Env, error) bool) {
		platforms, err := r.Backend.Platforms()
		if err != nil {
			yield(nil, errors.Wrap(err, "failed to query platforms"))
			return
		}
		for _, p := range platforms {
			if !r.platformSelected(p, f) {
				continue
			}
			v, err := cl.ParseVersion(p.Version())
			if err != nil {
				yield(nil, errors.Wrapf(err, "platform %q", p.Name()))
				return
			}
			if !v.InRange(cfg.VersionMin, cfg.VersionMax) {
				r.log().Debug("platform %q: version %v outside [%v, %v]", p.Name(), v, cfg.VersionMin, cfg.VersionMax)
				continue
			}
			if !yield(&Env{Platform: p, Version: v, runner: r}, nil) {
				return
			}
		}
	}
}

// Devices lazily yields every device that passes the platform filters, the
// device name selection, the device regex, the device extension gate, the
// version gate and, for program tests, the OpenCL C version gate.
func (r *Runner) Devices(cfg *config.TestConfig, f *config.Filters) iter.Seq2[*Env, error] {
	return func(yield func(*Env, error) bool) {
		platforms, err := r.Backend.Platforms()
		if err != nil {
			yield(nil, errors.Wrap(err, "failed to query platforms"))
			return
		}
		for _, p := range platforms {
			if !r.platformSelected(p, f) {
				continue
			}
			devices, err := p.Devices()
			if err != nil {
				yield(nil, errors.Wrapf(err, "failed to query devices of platform %q", p.Name()))
				return
			}
			for _, d := range devices {
				env, err := r.deviceEnv(cfg, f, p, d)
				if err != nil {
					yield(nil, err)
					return
				}
				if env == nil {
					continue
				}
				if !yield(env, nil) {
					return
				}
			}
		}
	}
}

func (r *Runner) platformSelected(p cl.Platform, f *config.Filters) bool {
	name := p.Name()
	if r.PlatformName != "" && name != r.PlatformName {
		r.log().Debug("platform %q: not selected", name)
		return false
	}
	if f.Platform != nil && !f.Platform.MatchString(name) {
		r.log().Debug("platform %q: name does not match %q", name, f.Platform)
		return false
	}
	if missing := cl.ParseExtensions(p.Extensions()).Missing(f.PlatformExtensions); len(missing) > 0 {
		r.log().Debug("platform %q: missing extensions %v", name, missing)
		return false
	}
	return true
}

// deviceEnv returns nil when the device is filtered out.
func (r *Runner) deviceEnv(cfg *config.TestConfig, f *config.Filters, p cl.Platform, d cl.Device) (*Env, error) {
	name := d.Name()
	if r.DeviceName != "" && name != r.DeviceName {
		r.log().Debug("device %q: not selected", name)
		return nil, nil
	}
	if f.Device != nil && !f.Device.MatchString(name) {
		r.log().Debug("device %q: name does not match %q", name, f.Device)
		return nil, nil
	}
	if missing := cl.ParseExtensions(d.Extensions()).Missing(f.DeviceExtensions); len(missing) > 0 {
		r.log().Debug("device %q: missing extensions %v", name, missing)
		return nil, nil
	}
	v, err := cl.ParseVersion(d.Version())
	if err != nil {
		return nil, errors.Wrapf(err, "device %q", name)
	}
	if !v.InRange(cfg.VersionMin, cfg.VersionMax) {
		r.log().Debug("device %q: version %v outside [%v, %v]", name, v, cfg.VersionMin, cfg.VersionMax)
		return nil, nil
	}
	cv, err := cl.ParseCVersion(d.CVersion())
	if err != nil {
		return nil, errors.Wrapf(err, "device %q", name)
	}
	if pc := cfg.Program; pc != nil && !cv.InRange(pc.CLCVersionMin, pc.CLCVersionMax) {
		r.log().Debug("device %q: OpenCL C version %v outside [%v, %v]", name, cv, pc.CLCVersionMin, pc.CLCVersionMax)
		return nil, nil
	}
	return &Env{Platform: p, Device: d, Version: v, CVersion: cv, runner: r}, nil
}
