// Package main is the entry point for the conform CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/conform/internal/cli"

	// The system OpenCL backend, present in builds with -tags opencl.
	_ "github.com/AndreyAkinshin/conform/internal/cl/opencl"
	// The Xlib GLX display, present in builds with -tags glx.
	_ "github.com/AndreyAkinshin/conform/internal/glx/x11"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
