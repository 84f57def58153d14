package x11

import "testing"

func TestCheck(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code int
		want string
	}{
		{0, ""},
		{2, "glXGetConfig failed: GLX_BAD_ATTRIBUTE (2)"},
		{3, "glXGetConfig failed: GLX_NO_EXTENSION (3)"},
		{42, "glXGetConfig failed: unknown status (42)"},
	}
	for _, tt := range tests {
		err := check("glXGetConfig", tt.code)
		got := ""
		if err != nil {
			got = err.Error()
		}
		if got != tt.want {
			t.Errorf("check(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
