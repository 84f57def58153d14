// Package mocks provides shared test doubles for conform packages.
package mocks

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/AndreyAkinshin/conform/internal/cl"
)

// Operation names accepted by Platform.FailOn.
const (
	OpCreateContext = "clCreateContext"
	OpCreateQueue   = "clCreateCommandQueue"
	OpCreateProgram = "clCreateProgram"
	OpBuild         = "clBuildProgram"
	OpCreateKernel  = "clCreateKernel"
	OpCreateBuffer  = "clCreateBuffer"
	OpWriteBuffer   = "clEnqueueWriteBuffer"
	OpReadBuffer    = "clEnqueueReadBuffer"
	OpSetArg        = "clSetKernelArg"
	OpEnqueue       = "clEnqueueNDRangeKernel"
)

// errDoubleRelease is returned when an object is released twice.
var errDoubleRelease = errors.New("mock: object released twice")

// Backend implements cl.Backend for testing.
// Use NewBackend() to create instances with a fluent builder API.
type Backend struct {
	name      string
	platforms []*Platform
	err       error
}

// NewBackend creates a mock backend reporting the given platforms.
func NewBackend(platforms ...*Platform) *Backend {
	return &Backend{name: "mock", platforms: platforms}
}

// WithName sets the backend name.
func (b *Backend) WithName(name string) *Backend {
	b.name = name
	return b
}

// WithPlatform appends a platform.
func (b *Backend) WithPlatform(p *Platform) *Backend {
	b.platforms = append(b.platforms, p)
	return b
}

// WithError makes platform queries fail.
func (b *Backend) WithError(err error) *Backend {
	b.err = err
	return b
}

// Name returns the backend name.
func (b *Backend) Name() string { return b.name }

// Platforms returns the configured platforms in order.
func (b *Backend) Platforms() ([]cl.Platform, error) {
	if b.err != nil {
		return nil, b.err
	}
	ps := make([]cl.Platform, len(b.platforms))
	for i, p := range b.platforms {
		ps[i] = p
	}
	return ps, nil
}

// KernelFunc is the Go body of a mock kernel. It reads and writes the bound
// arguments directly.
type KernelFunc func(args *Args, global []int) error

// Platform implements cl.Platform for testing. Every object created through
// it is tracked so tests can check that nothing leaks.
type Platform struct {
	name       string
	vendor     string
	version    string
	extensions string
	devices    []*Device
	devicesErr error
	kernels    map[string]KernelFunc
	failures   map[string]error

	mu        sync.Mutex
	builds    []string
	live      int
	enqueued  int
	doubleRel int
}

// NewPlatform creates a mock OpenCL 1.2 platform.
func NewPlatform(name string) *Platform {
	return &Platform{
		name:     name,
		vendor:   "Mock",
		version:  "OpenCL 1.2 Mock",
		kernels:  make(map[string]KernelFunc),
		failures: make(map[string]error),
	}
}

// WithVendor sets the platform vendor.
func (p *Platform) WithVendor(vendor string) *Platform {
	p.vendor = vendor
	return p
}

// WithVersion sets the CL_PLATFORM_VERSION string.
func (p *Platform) WithVersion(version string) *Platform {
	p.version = version
	return p
}

// WithExtensions sets the space-delimited extension string.
func (p *Platform) WithExtensions(ext string) *Platform {
	p.extensions = ext
	return p
}

// WithDevice appends a device to the platform.
func (p *Platform) WithDevice(d *Device) *Platform {
	d.platform = p
	p.devices = append(p.devices, d)
	return p
}

// WithDevicesError makes device queries fail.
func (p *Platform) WithDevicesError(err error) *Platform {
	p.devicesErr = err
	return p
}

// WithKernel makes a kernel available to every program built on the
// platform.
func (p *Platform) WithKernel(name string, fn KernelFunc) *Platform {
	p.kernels[name] = fn
	return p
}

// FailOn makes the named operation fail with CL_OUT_OF_RESOURCES.
func (p *Platform) FailOn(ops ...string) *Platform {
	for _, op := range ops {
		p.failures[op] = &cl.Error{Op: op, Code: -5}
	}
	return p
}

func (p *Platform) check(op string) error {
	return p.failures[op]
}

// Builds returns the build options of every program build, in order.
func (p *Platform) Builds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.builds...)
}

// Live returns the number of created objects not yet released.
func (p *Platform) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// DoubleReleases returns how many times an object was released twice.
func (p *Platform) DoubleReleases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doubleRel
}

// Enqueued returns the number of successful kernel launches.
func (p *Platform) Enqueued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enqueued
}

func (p *Platform) created() {
	p.mu.Lock()
	p.live++
	p.mu.Unlock()
}

// released accounts for one release of an object and reports the error of
// a second release.
func (p *Platform) released(done *bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if *done {
		p.doubleRel++
		return errDoubleRelease
	}
	*done = true
	p.live--
	return nil
}

// Name returns the platform name.
func (p *Platform) Name() string { return p.name }

// Vendor returns the platform vendor.
func (p *Platform) Vendor() string { return p.vendor }

// Version returns the platform version string.
func (p *Platform) Version() string { return p.version }

// Extensions returns the platform extension string.
func (p *Platform) Extensions() string { return p.extensions }

// Devices returns the configured devices in order.
func (p *Platform) Devices() ([]cl.Device, error) {
	if p.devicesErr != nil {
		return nil, p.devicesErr
	}
	ds := make([]cl.Device, len(p.devices))
	for i, d := range p.devices {
		ds[i] = d
	}
	return ds, nil
}

// CreateContext creates a mock context.
func (p *Platform) CreateContext(devices ...cl.Device) (cl.Context, error) {
	if err := p.check(OpCreateContext); err != nil {
		return nil, err
	}
	p.created()
	return &clContext{platform: p}, nil
}

// Device implements cl.Device for testing.
type Device struct {
	name       string
	version    string
	cversion   string
	extensions string
	platform   *Platform
}

// NewDevice creates a mock OpenCL 1.2 device.
func NewDevice(name string) *Device {
	return &Device{
		name:     name,
		version:  "OpenCL 1.2 Mock",
		cversion: "OpenCL C 1.2 ",
	}
}

// WithVersion sets the CL_DEVICE_VERSION string.
func (d *Device) WithVersion(version string) *Device {
	d.version = version
	return d
}

// WithCVersion sets the CL_DEVICE_OPENCL_C_VERSION string.
func (d *Device) WithCVersion(version string) *Device {
	d.cversion = version
	return d
}

// WithExtensions sets the space-delimited extension string.
func (d *Device) WithExtensions(ext string) *Device {
	d.extensions = ext
	return d
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Platform returns the owning platform.
func (d *Device) Platform() cl.Platform { return d.platform }

// Version returns the device version string.
func (d *Device) Version() string { return d.version }

// CVersion returns the device OpenCL C version string.
func (d *Device) CVersion() string { return d.cversion }

// Extensions returns the device extension string.
func (d *Device) Extensions() string { return d.extensions }

type clContext struct {
	platform *Platform
	done     bool
}

func (c *clContext) CreateQueue(device cl.Device) (cl.Queue, error) {
	if err := c.platform.check(OpCreateQueue); err != nil {
		return nil, err
	}
	c.platform.created()
	return &queue{platform: c.platform}, nil
}

func (c *clContext) CreateProgramWithSource(source string) (cl.Program, error) {
	if err := c.platform.check(OpCreateProgram); err != nil {
		return nil, err
	}
	c.platform.created()
	return &program{platform: c.platform, source: source}, nil
}

func (c *clContext) CreateProgramWithBinary(device cl.Device, binary []byte) (cl.Program, error) {
	if err := c.platform.check(OpCreateProgram); err != nil {
		return nil, err
	}
	if len(binary) == 0 {
		return nil, &cl.Error{Op: OpCreateProgram, Code: -42}
	}
	c.platform.created()
	return &program{platform: c.platform, binary: true}, nil
}

func (c *clContext) CreateBuffer(size int) (cl.Buffer, error) {
	if err := c.platform.check(OpCreateBuffer); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, &cl.Error{Op: OpCreateBuffer, Code: -61}
	}
	c.platform.created()
	return &buffer{platform: c.platform, data: make([]byte, size)}, nil
}

func (c *clContext) Release() error { return c.platform.released(&c.done) }

type program struct {
	platform *Platform
	source   string
	binary   bool
	built    bool
	log      string
	done     bool
}

// Build fails when the build is configured to fail or the source contains
// an #error directive.
func (pr *program) Build(devices []cl.Device, options string) error {
	pr.platform.mu.Lock()
	pr.platform.builds = append(pr.platform.builds, options)
	pr.platform.mu.Unlock()
	if err := pr.platform.check(OpBuild); err != nil {
		pr.log = "mock: build failure requested"
		return &cl.Error{Op: OpBuild, Code: -11}
	}
	if i := strings.Index(pr.source, "#error"); i >= 0 {
		line, _, _ := strings.Cut(pr.source[i:], "\n")
		pr.log = "error: " + line
		return &cl.Error{Op: OpBuild, Code: -11}
	}
	pr.built = true
	return nil
}

func (pr *program) BuildLog(device cl.Device) string { return pr.log }

func (pr *program) CreateKernel(name string) (cl.Kernel, error) {
	if err := pr.platform.check(OpCreateKernel); err != nil {
		return nil, err
	}
	if !pr.built {
		return nil, &cl.Error{Op: OpCreateKernel, Code: -45}
	}
	fn, ok := pr.platform.kernels[name]
	if !ok {
		return nil, &cl.Error{Op: OpCreateKernel, Code: -46}
	}
	pr.platform.created()
	return &kernel{platform: pr.platform, name: name, fn: fn, args: newArgs()}, nil
}

func (pr *program) Release() error { return pr.platform.released(&pr.done) }

type kernel struct {
	platform *Platform
	name     string
	fn       KernelFunc
	args     *Args
	done     bool
}

func (k *kernel) Name() string { return k.name }

func (k *kernel) SetArg(index int, value []byte) error {
	if err := k.platform.check(OpSetArg); err != nil {
		return err
	}
	k.args.values[index] = append([]byte(nil), value...)
	delete(k.args.buffers, index)
	return nil
}

func (k *kernel) SetArgBuffer(index int, b cl.Buffer) error {
	if err := k.platform.check(OpSetArg); err != nil {
		return err
	}
	delete(k.args.values, index)
	if b == nil {
		k.args.buffers[index] = nil
		return nil
	}
	mb, ok := b.(*buffer)
	if !ok || mb.done {
		return &cl.Error{Op: OpSetArg, Code: -38}
	}
	k.args.buffers[index] = mb
	return nil
}

func (k *kernel) Release() error { return k.platform.released(&k.done) }

type queue struct {
	platform *Platform
	done     bool
}

func (q *queue) WriteBuffer(b cl.Buffer, data []byte) error {
	if err := q.platform.check(OpWriteBuffer); err != nil {
		return err
	}
	mb := b.(*buffer)
	if len(data) > len(mb.data) {
		return &cl.Error{Op: OpWriteBuffer, Code: -30}
	}
	copy(mb.data, data)
	return nil
}

func (q *queue) ReadBuffer(b cl.Buffer, data []byte) error {
	if err := q.platform.check(OpReadBuffer); err != nil {
		return err
	}
	mb := b.(*buffer)
	if len(data) > len(mb.data) {
		return &cl.Error{Op: OpReadBuffer, Code: -30}
	}
	copy(data, mb.data)
	return nil
}

func (q *queue) EnqueueNDRange(k cl.Kernel, dims int, global, local []int) error {
	if err := q.platform.check(OpEnqueue); err != nil {
		return err
	}
	mk := k.(*kernel)
	if dims < 1 || dims > 3 || len(global) != dims || (local != nil && len(local) != dims) {
		return &cl.Error{Op: OpEnqueue, Code: -53}
	}
	for i := range local {
		if local[i] == 0 || global[i]%local[i] != 0 {
			return &cl.Error{Op: OpEnqueue, Code: -54}
		}
	}
	if err := mk.fn(mk.args, global); err != nil {
		return fmt.Errorf("%s: %w", OpEnqueue, err)
	}
	q.platform.mu.Lock()
	q.platform.enqueued++
	q.platform.mu.Unlock()
	return nil
}

func (q *queue) Finish() error { return nil }

func (q *queue) Release() error { return q.platform.released(&q.done) }

type buffer struct {
	platform *Platform
	data     []byte
	done     bool
}

func (b *buffer) Size() int { return len(b.data) }

func (b *buffer) Release() error { return b.platform.released(&b.done) }

// Args gives a mock kernel access to its bound arguments.
type Args struct {
	values  map[int][]byte
	buffers map[int]*buffer
}

func newArgs() *Args {
	return &Args{values: make(map[int][]byte), buffers: make(map[int]*buffer)}
}

// Value returns the bytes of a value argument, or nil.
func (a *Args) Value(index int) []byte { return a.values[index] }

// Buffer returns the device memory bound at index. It is nil for NULL or
// unbound arguments. Writes to the slice change the buffer.
func (a *Args) Buffer(index int) []byte {
	if b := a.buffers[index]; b != nil {
		return b.data
	}
	return nil
}

// IsNull reports whether a NULL buffer was bound at index.
func (a *Args) IsNull(index int) bool {
	b, ok := a.buffers[index]
	return ok && b == nil
}

// Int32s decodes native-endian int32 values.
func Int32s(b []byte) []int32 {
	v := make([]int32, len(b)/4)
	for i := range v {
		v[i] = int32(binary.NativeEndian.Uint32(b[4*i:]))
	}
	return v
}

// PutInt32s encodes native-endian int32 values into b.
func PutInt32s(b []byte, v []int32) {
	for i, x := range v {
		binary.NativeEndian.PutUint32(b[4*i:], uint32(x))
	}
}

// Float32s decodes native-endian float32 values.
func Float32s(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.NativeEndian.Uint32(b[4*i:]))
	}
	return v
}

// PutFloat32s encodes native-endian float32 values into b.
func PutFloat32s(b []byte, v []float32) {
	for i, x := range v {
		binary.NativeEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
}
