// Package glx enumerates GLX visuals and framebuffer configurations for tests
// that run once per pixel format.
package glx

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/result"
)

// Attrib is a GLX attribute token. Values match GL/glx.h.
type Attrib int

const (
	UseGL        Attrib = 1
	BufferSize   Attrib = 2
	Level        Attrib = 3
	RGBA         Attrib = 4
	DoubleBuffer Attrib = 5
	Stereo       Attrib = 6
	AuxBuffers   Attrib = 7
	RedSize      Attrib = 8
	GreenSize    Attrib = 9
	BlueSize     Attrib = 10
	AlphaSize    Attrib = 11
	DepthSize    Attrib = 12
	StencilSize  Attrib = 13
	VisualID     Attrib = 0x800B
	DrawableType Attrib = 0x8010
	RenderType   Attrib = 0x8011
	XRenderable  Attrib = 0x8012
	FBConfigID   Attrib = 0x8013
)

// Bits of the DrawableType attribute.
const (
	WindowBit  = 0x1
	PixmapBit  = 0x2
	PbufferBit = 0x4
)

// Bits of the RenderType attribute.
const (
	RGBABit       = 0x1
	ColorIndexBit = 0x2
)

var attribNames = map[Attrib]string{
	UseGL:        "GLX_USE_GL",
	BufferSize:   "GLX_BUFFER_SIZE",
	Level:        "GLX_LEVEL",
	RGBA:         "GLX_RGBA",
	DoubleBuffer: "GLX_DOUBLEBUFFER",
	Stereo:       "GLX_STEREO",
	AuxBuffers:   "GLX_AUX_BUFFERS",
	RedSize:      "GLX_RED_SIZE",
	GreenSize:    "GLX_GREEN_SIZE",
	BlueSize:     "GLX_BLUE_SIZE",
	AlphaSize:    "GLX_ALPHA_SIZE",
	DepthSize:    "GLX_DEPTH_SIZE",
	StencilSize:  "GLX_STENCIL_SIZE",
	VisualID:     "GLX_VISUAL_ID",
	DrawableType: "GLX_DRAWABLE_TYPE",
	RenderType:   "GLX_RENDER_TYPE",
	XRenderable:  "GLX_X_RENDERABLE",
	FBConfigID:   "GLX_FBCONFIG_ID",
}

func (a Attrib) String() string {
	if name, ok := attribNames[a]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", int(a))
}

// Display is the connection to an X server's GLX implementation. Visuals
// and fbconfigs it returns are valid until Close.
type Display interface {
	Visuals() ([]Visual, error)
	FBConfigs() ([]FBConfig, error)
	Extensions() string
	Version() (major, minor int)
	Close() error
}

// Visual is an X visual with GLX attributes.
type Visual interface {
	ID() int
	Attrib(a Attrib) (int, error)
}

// FBConfig is a GLX framebuffer configuration.
type FBConfig interface {
	ID() int
	Attrib(a Attrib) (int, error)
}

// RequireExtension returns a capability error naming the first extension
// the display lacks.
func RequireExtension(d Display, names ...string) error {
	if missing := cl.ParseExtensions(d.Extensions()).Missing(names); len(missing) > 0 {
		return errors.Capabilityf("test requires %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequireVersion returns a capability error when the display's GLX version
// is older than major.minor.
func RequireVersion(d Display, major, minor int) error {
	haveMajor, haveMinor := d.Version()
	if haveMajor < major || (haveMajor == major && haveMinor < minor) {
		return errors.Capabilityf("test requires GLX %d.%d, have %d.%d", major, minor, haveMajor, haveMinor)
	}
	return nil
}

// Match is a minimum attribute requirement. DrawableType and RenderType are
// bit masks that must all be present; every other attribute is a lower
// bound.
type Match map[Attrib]int

type attribQuerier interface {
	Attrib(a Attrib) (int, error)
}

func (m Match) matches(q attribQuerier) (bool, error) {
	for _, a := range slices.Sorted(maps.Keys(m)) {
		want := m[a]
		have, err := q.Attrib(a)
		if err != nil {
			return false, err
		}
		switch a {
		case DrawableType, RenderType:
			if have&want != want {
				return false, nil
			}
		default:
			if have < want {
				return false, nil
			}
		}
	}
	return true, nil
}

// IterateVisuals calls fn for every visual that supports GL rendering and
// merges the results starting from Skip.
func IterateVisuals(d Display, fn func(Visual) result.Result) (result.Result, error) {
	visuals, err := d.Visuals()
	if err != nil {
		return result.Fail, errors.Wrap(err, "failed to query visuals")
	}
	res := result.Skip
	for _, v := range visuals {
		ok, err := (Match{UseGL: 1}).matches(v)
		if err != nil {
			return result.Merge(res, result.Fail), errors.Wrapf(err, "visual 0x%x", v.ID())
		}
		if ok {
			res = result.Merge(res, fn(v))
		}
	}
	return res, nil
}

// IteratePixmapFBConfigs calls fn for every X-renderable fbconfig that can
// render to a pixmap.
func IteratePixmapFBConfigs(d Display, fn func(FBConfig) result.Result) (result.Result, error) {
	return IterateFBConfigs(d, Match{DrawableType: PixmapBit, XRenderable: 1}, fn)
}

// IterateFBConfigs calls fn for every fbconfig satisfying m, in the order
// the server reports them, and merges the results starting from Skip.
func IterateFBConfigs(d Display, m Match, fn func(FBConfig) result.Result) (result.Result, error) {
	configs, err := d.FBConfigs()
	if err != nil {
		return result.Fail, errors.Wrap(err, "failed to query fbconfigs")
	}
	res := result.Skip
	for _, c := range configs {
		ok, err := m.matches(c)
		if err != nil {
			return result.Merge(res, result.Fail), errors.Wrapf(err, "fbconfig 0x%x", c.ID())
		}
		if ok {
			res = result.Merge(res, fn(c))
		}
	}
	return res, nil
}
