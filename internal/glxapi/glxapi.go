// Package glxapi holds GLX tests that check the attributes of visuals and
// framebuffer configurations. Importing it registers them.
package glxapi

import (
	"fmt"

	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/glx"
	"github.com/AndreyAkinshin/conform/internal/result"
)

func init() {
	glx.Register("glx-visual-config", VisualConfig)
	glx.Register("glx-pixmap-fbconfig", PixmapFBConfig)
}

type querier interface {
	Attrib(a glx.Attrib) (int, error)
}

// attribs reads every attribute in as, stopping at the first failure.
func attribs(q querier, as ...glx.Attrib) (map[glx.Attrib]int, error) {
	m := make(map[glx.Attrib]int, len(as))
	for _, a := range as {
		v, err := q.Attrib(a)
		if err != nil {
			return nil, errors.Wrapf(err, "query %v", a)
		}
		m[a] = v
	}
	return m, nil
}

// checkColor checks the colour attributes shared by visuals and fbconfigs.
func checkColor(m map[glx.Attrib]int, rgba bool) error {
	for _, a := range []glx.Attrib{glx.BufferSize, glx.RedSize, glx.GreenSize, glx.BlueSize, glx.AlphaSize, glx.DepthSize, glx.StencilSize, glx.AuxBuffers} {
		if m[a] < 0 {
			return errors.Newf("%v is negative: %d", a, m[a])
		}
	}
	for _, a := range []glx.Attrib{glx.DoubleBuffer, glx.Stereo} {
		if m[a] != 0 && m[a] != 1 {
			return errors.Newf("%v is not a boolean: %d", a, m[a])
		}
	}
	if rgba {
		sum := m[glx.RedSize] + m[glx.GreenSize] + m[glx.BlueSize] + m[glx.AlphaSize]
		if sum > m[glx.BufferSize] {
			return errors.Newf("channel sizes add up to %d, more than %v %d", sum, glx.BufferSize, m[glx.BufferSize])
		}
	}
	return nil
}

var colorAttribs = []glx.Attrib{
	glx.BufferSize, glx.RedSize, glx.GreenSize, glx.BlueSize, glx.AlphaSize,
	glx.DepthSize, glx.StencilSize, glx.AuxBuffers, glx.DoubleBuffer, glx.Stereo,
}

// VisualConfig checks the GLX attributes of every visual that supports GL.
func VisualConfig(r *glx.Runner) (result.Result, error) {
	return glx.IterateVisuals(r.Display, func(v glx.Visual) result.Result {
		return r.Check(fmt.Sprintf("visual 0x%x", v.ID()), func() error {
			m, err := attribs(v, append(colorAttribs, glx.RGBA)...)
			if err != nil {
				return err
			}
			if m[glx.RGBA] != 0 && m[glx.RGBA] != 1 {
				return errors.Newf("%v is not a boolean: %d", glx.RGBA, m[glx.RGBA])
			}
			return checkColor(m, m[glx.RGBA] == 1)
		})
	})
}

// PixmapFBConfig checks every X-renderable fbconfig that can render to a
// pixmap. It needs GLX 1.3.
func PixmapFBConfig(r *glx.Runner) (result.Result, error) {
	if err := glx.RequireVersion(r.Display, 1, 3); err != nil {
		return result.Skip, err
	}
	return glx.IteratePixmapFBConfigs(r.Display, func(c glx.FBConfig) result.Result {
		return r.Check(fmt.Sprintf("fbconfig 0x%x", c.ID()), func() error {
			m, err := attribs(c, append(colorAttribs, glx.RenderType, glx.VisualID)...)
			if err != nil {
				return err
			}
			if m[glx.VisualID] == 0 {
				return errors.Newf("X-renderable fbconfig has no %v", glx.VisualID)
			}
			if m[glx.RenderType]&(glx.RGBABit|glx.ColorIndexBit) == 0 {
				return errors.Newf("%v 0x%x has neither RGBA nor color index bit", glx.RenderType, m[glx.RenderType])
			}
			return checkColor(m, m[glx.RenderType]&glx.RGBABit != 0)
		})
	})
}
