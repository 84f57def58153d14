//go:build opencl && cgo

package opencl

/*
#cgo !darwin LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL
#define CL_TARGET_OPENCL_VERSION 120
#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif
#include <stdlib.h>
*/
import "C"

import (
	"strings"
	"unsafe"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/errors"
)

func init() {
	cl.RegisterBackend(cl.DefaultBackend, Open)
}

// Open opens the system OpenCL implementation.
func Open() (cl.Backend, error) {
	return backend{}, nil
}

func check(op string, code C.cl_int) error {
	if code == C.CL_SUCCESS {
		return nil
	}
	return &cl.Error{Op: op, Code: int(code)}
}

// infoString reads a string-valued info query. get is called once for the
// size and once for the value.
func infoString(op string, get func(size C.size_t, value unsafe.Pointer, ret *C.size_t) C.cl_int) (string, error) {
	var n C.size_t
	if err := check(op, get(0, nil, &n)); err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if err := check(op, get(n, unsafe.Pointer(&buf[0]), nil)); err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

type backend struct{}

func (backend) Name() string { return cl.DefaultBackend }

func (backend) Platforms() ([]cl.Platform, error) {
	var n C.cl_uint
	code := C.clGetPlatformIDs(0, nil, &n)
	count, err := idCount("clGetPlatformIDs", int(code), platformNotFoundKHR, uint32(n))
	if err != nil {
		return nil, errors.Environmentf("no usable OpenCL ICD loader: %v", err)
	}
	if count == 0 {
		return nil, nil
	}
	ids := make([]C.cl_platform_id, n)
	if err := check("clGetPlatformIDs", C.clGetPlatformIDs(n, &ids[0], nil)); err != nil {
		return nil, err
	}
	platforms := make([]cl.Platform, len(ids))
	for i, id := range ids {
		platforms[i] = &platform{id: id}
	}
	return platforms, nil
}

type platform struct {
	id C.cl_platform_id
}

func (p *platform) info(param C.cl_platform_info) string {
	s, _ := infoString("clGetPlatformInfo", func(size C.size_t, value unsafe.Pointer, ret *C.size_t) C.cl_int {
		return C.clGetPlatformInfo(p.id, param, size, value, ret)
	})
	return s
}

func (p *platform) Name() string       { return p.info(C.CL_PLATFORM_NAME) }
func (p *platform) Vendor() string     { return p.info(C.CL_PLATFORM_VENDOR) }
func (p *platform) Version() string    { return p.info(C.CL_PLATFORM_VERSION) }
func (p *platform) Extensions() string { return p.info(C.CL_PLATFORM_EXTENSIONS) }

func (p *platform) Devices() ([]cl.Device, error) {
	var n C.cl_uint
	code := C.clGetDeviceIDs(p.id, C.CL_DEVICE_TYPE_ALL, 0, nil, &n)
	count, err := idCount("clGetDeviceIDs", int(code), deviceNotFound, uint32(n))
	if err != nil || count == 0 {
		return nil, err
	}
	ids := make([]C.cl_device_id, n)
	if err := check("clGetDeviceIDs", C.clGetDeviceIDs(p.id, C.CL_DEVICE_TYPE_ALL, n, &ids[0], nil)); err != nil {
		return nil, err
	}
	devices := make([]cl.Device, len(ids))
	for i, id := range ids {
		devices[i] = &device{id: id, platform: p}
	}
	return devices, nil
}

func (p *platform) CreateContext(devices ...cl.Device) (cl.Context, error) {
	ids := deviceIDs(devices)
	props := []C.cl_context_properties{
		C.CL_CONTEXT_PLATFORM, C.cl_context_properties(uintptr(unsafe.Pointer(p.id))),
		0,
	}
	var code C.cl_int
	ctx := C.clCreateContext(&props[0], C.cl_uint(len(ids)), &ids[0], nil, nil, &code)
	if err := check("clCreateContext", code); err != nil {
		return nil, err
	}
	return &context{id: ctx}, nil
}

type device struct {
	id       C.cl_device_id
	platform *platform
}

func deviceIDs(devices []cl.Device) []C.cl_device_id {
	ids := make([]C.cl_device_id, len(devices))
	for i, d := range devices {
		ids[i] = d.(*device).id
	}
	return ids
}

func (d *device) info(param C.cl_device_info) (string, error) {
	return infoString("clGetDeviceInfo", func(size C.size_t, value unsafe.Pointer, ret *C.size_t) C.cl_int {
		return C.clGetDeviceInfo(d.id, param, size, value, ret)
	})
}

func (d *device) Name() string {
	s, _ := d.info(C.CL_DEVICE_NAME)
	return s
}

func (d *device) Platform() cl.Platform { return d.platform }

func (d *device) Version() string {
	s, _ := d.info(C.CL_DEVICE_VERSION)
	return s
}

// CVersion falls back to OpenCL C 1.0 on devices that predate the query.
func (d *device) CVersion() string {
	s, err := d.info(C.CL_DEVICE_OPENCL_C_VERSION)
	if err != nil || s == "" {
		return "OpenCL C 1.0 "
	}
	return s
}

func (d *device) Extensions() string {
	s, _ := d.info(C.CL_DEVICE_EXTENSIONS)
	return s
}

type context struct {
	id C.cl_context
}

func (c *context) CreateQueue(d cl.Device) (cl.Queue, error) {
	var code C.cl_int
	q := C.clCreateCommandQueue(c.id, d.(*device).id, 0, &code)
	if err := check("clCreateCommandQueue", code); err != nil {
		return nil, err
	}
	return &queue{id: q}, nil
}

func (c *context) CreateProgramWithSource(source string) (cl.Program, error) {
	src := C.CString(source)
	defer C.free(unsafe.Pointer(src))
	length := C.size_t(len(source))
	var code C.cl_int
	p := C.clCreateProgramWithSource(c.id, 1, &src, &length, &code)
	if err := check("clCreateProgramWithSource", code); err != nil {
		return nil, err
	}
	return &program{id: p}, nil
}

func (c *context) CreateProgramWithBinary(d cl.Device, binary []byte) (cl.Program, error) {
	if len(binary) == 0 {
		return nil, &cl.Error{Op: "clCreateProgramWithBinary", Code: C.CL_INVALID_VALUE}
	}
	bin := (*C.uchar)(C.CBytes(binary))
	defer C.free(unsafe.Pointer(bin))
	id := d.(*device).id
	length := C.size_t(len(binary))
	var status, code C.cl_int
	p := C.clCreateProgramWithBinary(c.id, 1, &id, &length, &bin, &status, &code)
	if err := check("clCreateProgramWithBinary", code); err != nil {
		return nil, err
	}
	return &program{id: p}, nil
}

func (c *context) CreateBuffer(size int) (cl.Buffer, error) {
	var code C.cl_int
	m := C.clCreateBuffer(c.id, C.CL_MEM_READ_WRITE, C.size_t(size), nil, &code)
	if err := check("clCreateBuffer", code); err != nil {
		return nil, err
	}
	return &buffer{id: m, size: size}, nil
}

func (c *context) Release() error {
	return check("clReleaseContext", C.clReleaseContext(c.id))
}

type program struct {
	id C.cl_program
}

func (p *program) Build(devices []cl.Device, options string) error {
	ids := deviceIDs(devices)
	opts := C.CString(options)
	defer C.free(unsafe.Pointer(opts))
	var first *C.cl_device_id
	if len(ids) > 0 {
		first = &ids[0]
	}
	return check("clBuildProgram", C.clBuildProgram(p.id, C.cl_uint(len(ids)), first, opts, nil, nil))
}

func (p *program) BuildLog(d cl.Device) string {
	s, _ := infoString("clGetProgramBuildInfo", func(size C.size_t, value unsafe.Pointer, ret *C.size_t) C.cl_int {
		return C.clGetProgramBuildInfo(p.id, d.(*device).id, C.CL_PROGRAM_BUILD_LOG, size, value, ret)
	})
	return s
}

func (p *program) CreateKernel(name string) (cl.Kernel, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var code C.cl_int
	k := C.clCreateKernel(p.id, cname, &code)
	if err := check("clCreateKernel", code); err != nil {
		return nil, err
	}
	return &kernel{id: k, name: name}, nil
}

func (p *program) Release() error {
	return check("clReleaseProgram", C.clReleaseProgram(p.id))
}

type kernel struct {
	id   C.cl_kernel
	name string
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) SetArg(index int, value []byte) error {
	var ptr unsafe.Pointer
	if len(value) > 0 {
		ptr = unsafe.Pointer(&value[0])
	}
	return check("clSetKernelArg", C.clSetKernelArg(k.id, C.cl_uint(index), C.size_t(len(value)), ptr))
}

func (k *kernel) SetArgBuffer(index int, b cl.Buffer) error {
	size := C.size_t(unsafe.Sizeof(C.cl_mem(nil)))
	if b == nil {
		return check("clSetKernelArg", C.clSetKernelArg(k.id, C.cl_uint(index), size, nil))
	}
	m := b.(*buffer).id
	return check("clSetKernelArg", C.clSetKernelArg(k.id, C.cl_uint(index), size, unsafe.Pointer(&m)))
}

func (k *kernel) Release() error {
	return check("clReleaseKernel", C.clReleaseKernel(k.id))
}

type queue struct {
	id C.cl_command_queue
}

func (q *queue) WriteBuffer(b cl.Buffer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return check("clEnqueueWriteBuffer", C.clEnqueueWriteBuffer(q.id, b.(*buffer).id, C.CL_TRUE, 0,
		C.size_t(len(data)), unsafe.Pointer(&data[0]), 0, nil, nil))
}

func (q *queue) ReadBuffer(b cl.Buffer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return check("clEnqueueReadBuffer", C.clEnqueueReadBuffer(q.id, b.(*buffer).id, C.CL_TRUE, 0,
		C.size_t(len(data)), unsafe.Pointer(&data[0]), 0, nil, nil))
}

func sizes(v []int) []C.size_t {
	out := make([]C.size_t, len(v))
	for i, n := range v {
		out[i] = C.size_t(n)
	}
	return out
}

func (q *queue) EnqueueNDRange(k cl.Kernel, dims int, global, local []int) error {
	g := sizes(global)
	var lp *C.size_t
	if local != nil {
		l := sizes(local)
		lp = &l[0]
	}
	return check("clEnqueueNDRangeKernel", C.clEnqueueNDRangeKernel(q.id, k.(*kernel).id, C.cl_uint(dims),
		nil, &g[0], lp, 0, nil, nil))
}

func (q *queue) Finish() error {
	return check("clFinish", C.clFinish(q.id))
}

func (q *queue) Release() error {
	return check("clReleaseCommandQueue", C.clReleaseCommandQueue(q.id))
}

type buffer struct {
	id   C.cl_mem
	size int
}

func (b *buffer) Size() int { return b.size }

func (b *buffer) Release() error {
	return check("clReleaseMemObject", C.clReleaseMemObject(b.id))
}
