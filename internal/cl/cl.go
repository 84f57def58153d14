// Package cl describes the parts of the OpenCL platform API the harness
// sequences and filters. Implementations wrap a real ICD loader or stand in
// for one in tests; the harness never alters their semantics.
package cl

// Backend enumerates the platforms an OpenCL implementation reports.
type Backend interface {
	Name() string
	Platforms() ([]Platform, error)
}

// Platform is a vendor's compute stack instance.
type Platform interface {
	Name() string
	Vendor() string
	// Version returns CL_PLATFORM_VERSION, e.g. "OpenCL 1.2 Mesa".
	Version() string
	// Extensions returns the space-delimited CL_PLATFORM_EXTENSIONS string.
	Extensions() string
	Devices() ([]Device, error)
	// CreateContext creates a context holding the given devices of this
	// platform.
	CreateContext(devices ...Device) (Context, error)
}

// Device is a concrete processor exposed by a platform.
type Device interface {
	Name() string
	Platform() Platform
	// Version returns CL_DEVICE_VERSION, e.g. "OpenCL 1.2 foo".
	Version() string
	// CVersion returns CL_DEVICE_OPENCL_C_VERSION, e.g. "OpenCL C 1.2 ".
	CVersion() string
	// Extensions returns the space-delimited CL_DEVICE_EXTENSIONS string.
	Extensions() string
}

// Context owns programs, queues and buffers created for its devices.
type Context interface {
	CreateQueue(device Device) (Queue, error)
	CreateProgramWithSource(source string) (Program, error)
	CreateProgramWithBinary(device Device, binary []byte) (Program, error)
	CreateBuffer(size int) (Buffer, error)
	Release() error
}

// Program is a built or unbuilt OpenCL program.
type Program interface {
	Build(devices []Device, options string) error
	BuildLog(device Device) string
	CreateKernel(name string) (Kernel, error)
	Release() error
}

// Kernel is one kernel function of a built program.
type Kernel interface {
	Name() string
	// SetArg binds a plain value argument given as raw bytes.
	SetArg(index int, value []byte) error
	// SetArgBuffer binds a buffer argument. A nil buffer binds NULL.
	SetArgBuffer(index int, buffer Buffer) error
	Release() error
}

// Queue is an in-order command queue. All transfers block until complete.
type Queue interface {
	WriteBuffer(buffer Buffer, data []byte) error
	ReadBuffer(buffer Buffer, data []byte) error
	// EnqueueNDRange runs kernel over dims dimensions. A nil local lets the
	// implementation choose the work-group size.
	EnqueueNDRange(kernel Kernel, dims int, global, local []int) error
	Finish() error
	Release() error
}

// Buffer is a device memory object.
type Buffer interface {
	Size() int
	Release() error
}
