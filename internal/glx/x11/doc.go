// Package x11 binds GLX through Xlib. Builds with the glx tag register it as
// the "x11" display; other builds register nothing.
package x11
