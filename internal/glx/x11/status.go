package x11

import "fmt"

// Status codes returned by glXGetConfig and glXGetFBConfigAttrib.
var statusNames = map[int]string{
	0: "Success",
	1: "GLX_BAD_SCREEN",
	2: "GLX_BAD_ATTRIBUTE",
	3: "GLX_NO_EXTENSION",
	4: "GLX_BAD_VISUAL",
	5: "GLX_BAD_CONTEXT",
	6: "GLX_BAD_VALUE",
	7: "GLX_BAD_ENUM",
}

// Error is a failed GLX attribute query.
type Error struct {
	Op   string
	Code int
}

func (e *Error) Error() string {
	name, ok := statusNames[e.Code]
	if !ok {
		name = "unknown status"
	}
	return fmt.Sprintf("%s failed: %s (%d)", e.Op, name, e.Code)
}

func check(op string, code int) error {
	if code == 0 {
		return nil
	}
	return &Error{Op: op, Code: code}
}
