//go:build glx && cgo

package x11

/*
#cgo LDFLAGS: -lGL -lX11
#include <stdlib.h>
#include <X11/Xlib.h>
#include <X11/Xutil.h>
#include <GL/glx.h>
*/
import "C"

import (
	"unsafe"

	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/glx"
)

func init() {
	glx.RegisterDisplay(glx.DefaultDisplay, Open)
}

// Open connects to the X server named by $DISPLAY and checks that it
// supports GLX.
func Open() (glx.Display, error) {
	dpy := C.XOpenDisplay(nil)
	if dpy == nil {
		return nil, errors.Environmentf("cannot open X display (is DISPLAY set?)")
	}
	d := &display{dpy: dpy, screen: C.XDefaultScreen(dpy)}
	var major, minor C.int
	if C.glXQueryVersion(dpy, &major, &minor) == 0 {
		C.XCloseDisplay(dpy)
		return nil, errors.Capabilityf("X server does not support GLX")
	}
	d.major, d.minor = int(major), int(minor)
	return d, nil
}

type display struct {
	dpy          *C.Display
	screen       C.int
	major, minor int
	// allocations are Xlib arrays freed by Close.
	allocations []unsafe.Pointer
}

func (d *display) Version() (major, minor int) { return d.major, d.minor }

func (d *display) Extensions() string {
	return C.GoString(C.glXQueryExtensionsString(d.dpy, d.screen))
}

func (d *display) Visuals() ([]glx.Visual, error) {
	var tmpl C.XVisualInfo
	tmpl.screen = d.screen
	var n C.int
	infos := C.XGetVisualInfo(d.dpy, C.VisualScreenMask, &tmpl, &n)
	if infos == nil || n == 0 {
		return nil, nil
	}
	d.allocations = append(d.allocations, unsafe.Pointer(infos))
	infoSlice := unsafe.Slice(infos, n)
	visuals := make([]glx.Visual, n)
	for i := range infoSlice {
		visuals[i] = &visual{d: d, info: &infoSlice[i]}
	}
	return visuals, nil
}

func (d *display) FBConfigs() ([]glx.FBConfig, error) {
	if err := glx.RequireVersion(d, 1, 3); err != nil {
		return nil, err
	}
	var n C.int
	configs := C.glXGetFBConfigs(d.dpy, d.screen, &n)
	if configs == nil || n == 0 {
		return nil, nil
	}
	d.allocations = append(d.allocations, unsafe.Pointer(configs))
	out := make([]glx.FBConfig, n)
	for i, c := range unsafe.Slice(configs, n) {
		out[i] = &fbconfig{d: d, cfg: c}
	}
	return out, nil
}

func (d *display) Close() error {
	for _, p := range d.allocations {
		C.XFree(p)
	}
	d.allocations = nil
	if d.dpy != nil {
		C.XCloseDisplay(d.dpy)
		d.dpy = nil
	}
	return nil
}

type visual struct {
	d    *display
	info *C.XVisualInfo
}

func (v *visual) ID() int { return int(v.info.visualid) }

func (v *visual) Attrib(a glx.Attrib) (int, error) {
	var value C.int
	if err := check("glXGetConfig", int(C.glXGetConfig(v.d.dpy, v.info, C.int(a), &value))); err != nil {
		return 0, err
	}
	return int(value), nil
}

type fbconfig struct {
	d   *display
	cfg C.GLXFBConfig
}

func (c *fbconfig) ID() int {
	id, _ := c.Attrib(glx.FBConfigID)
	return id
}

func (c *fbconfig) Attrib(a glx.Attrib) (int, error) {
	var value C.int
	if err := check("glXGetFBConfigAttrib", int(C.glXGetFBConfigAttrib(c.d.dpy, c.cfg, C.int(a), &value))); err != nil {
		return 0, err
	}
	return int(value), nil
}
