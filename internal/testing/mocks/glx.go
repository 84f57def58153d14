package mocks

import (
	"fmt"

	"github.com/AndreyAkinshin/conform/internal/glx"
)

// Display implements glx.Display for testing.
// Use NewDisplay() to create instances with a fluent builder API.
type Display struct {
	major, minor int
	extensions   string
	visuals      []*PixelFormat
	configs      []*PixelFormat
	err          error
	closed       int
}

// NewDisplay creates a mock GLX 1.4 display with no visuals.
func NewDisplay() *Display {
	return &Display{major: 1, minor: 4}
}

// WithVersion sets the GLX version.
func (d *Display) WithVersion(major, minor int) *Display {
	d.major, d.minor = major, minor
	return d
}

// WithExtensions sets the space-delimited GLX extension string.
func (d *Display) WithExtensions(ext string) *Display {
	d.extensions = ext
	return d
}

// WithVisual appends a visual.
func (d *Display) WithVisual(v *PixelFormat) *Display {
	d.visuals = append(d.visuals, v)
	return d
}

// WithFBConfig appends an fbconfig.
func (d *Display) WithFBConfig(c *PixelFormat) *Display {
	d.configs = append(d.configs, c)
	return d
}

// WithError makes visual and fbconfig queries fail.
func (d *Display) WithError(err error) *Display {
	d.err = err
	return d
}

// Visuals returns the configured visuals in order.
func (d *Display) Visuals() ([]glx.Visual, error) {
	if d.err != nil {
		return nil, d.err
	}
	vs := make([]glx.Visual, len(d.visuals))
	for i, v := range d.visuals {
		vs[i] = v
	}
	return vs, nil
}

// FBConfigs returns the configured fbconfigs in order.
func (d *Display) FBConfigs() ([]glx.FBConfig, error) {
	if d.err != nil {
		return nil, d.err
	}
	cs := make([]glx.FBConfig, len(d.configs))
	for i, c := range d.configs {
		cs[i] = c
	}
	return cs, nil
}

// Extensions returns the GLX extension string.
func (d *Display) Extensions() string { return d.extensions }

// Version returns the GLX version.
func (d *Display) Version() (major, minor int) { return d.major, d.minor }

// Close records that the display was closed.
func (d *Display) Close() error {
	d.closed++
	return nil
}

// Closed returns how many times Close was called.
func (d *Display) Closed() int { return d.closed }

// PixelFormat implements both glx.Visual and glx.FBConfig. Unset
// attributes read as zero.
type PixelFormat struct {
	id     int
	attrs  map[glx.Attrib]int
	broken map[glx.Attrib]bool
}

// NewPixelFormat creates a pixel format with the given id.
func NewPixelFormat(id int) *PixelFormat {
	return &PixelFormat{id: id, attrs: make(map[glx.Attrib]int), broken: make(map[glx.Attrib]bool)}
}

// With sets an attribute value.
func (p *PixelFormat) With(a glx.Attrib, v int) *PixelFormat {
	p.attrs[a] = v
	return p
}

// WithBrokenAttrib makes queries of a fail.
func (p *PixelFormat) WithBrokenAttrib(a glx.Attrib) *PixelFormat {
	p.broken[a] = true
	return p
}

// ID returns the pixel format id.
func (p *PixelFormat) ID() int { return p.id }

// Attrib returns the value of a.
func (p *PixelFormat) Attrib(a glx.Attrib) (int, error) {
	if p.broken[a] {
		return 0, fmt.Errorf("mock: GLX_BAD_ATTRIBUTE %v", a)
	}
	return p.attrs[a], nil
}
