package programtest

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/config"
	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/harness"
	"github.com/AndreyAkinshin/conform/internal/result"
)

// Tester runs a program test description on every matching device.
type Tester struct {
	// Seed seeds the generator behind RANDOM buffers.
	Seed uint64

	prog   *Program
	source string
	binary []byte
	arena  *Arena
	rng    *rand.Rand
}

// NewTester returns a tester for an already loaded description.
func NewTester(prog *Program, seed uint64) *Tester {
	return &Tester{prog: prog, Seed: seed}
}

// Program returns the loaded description, or nil before Init.
func (t *Tester) Program() *Program { return t.prog }

// Config returns the configuration of the program test. Its Init hook loads
// the description named by the arguments ([-config FILE] MAIN) unless one
// was given to NewTester; its Clean hook releases every device object.
func (t *Tester) Config() *config.TestConfig {
	return &config.TestConfig{
		Name:         "program",
		RunPerDevice: true,
		Init:         t.init,
		Clean:        func(*config.TestConfig) { t.Release() },
	}
}

func (t *Tester) init(cfg *config.TestConfig, args []string) error {
	if t.prog == nil {
		main, configPath, err := parseArgs(args)
		if err != nil {
			return err
		}
		if t.prog, err = Load(main, configPath); err != nil {
			return err
		}
	}
	source, binary, err := t.prog.Payload()
	if err != nil {
		return err
	}
	t.source, t.binary = source, binary
	t.arena = NewArena()
	t.rng = rand.New(rand.NewPCG(t.Seed, t.Seed^0x9e3779b97f4a7c15))

	clean := cfg.Clean
	*cfg = *t.prog.Config
	cfg.Init, cfg.Clean = nil, clean
	return nil
}

// parseArgs accepts [-config FILE] MAIN in any order.
func parseArgs(args []string) (main, configPath string, err error) {
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "-config" || arg == "--config":
			if i+1 >= len(args) {
				return "", "", errors.Configf("-config requires a file argument")
			}
			i++
			configPath = args[i]
		case strings.HasPrefix(arg, "-"):
			return "", "", errors.Configf("unknown option %s", arg)
		case main != "":
			return "", "", errors.Configf("more than one main argument: %s and %s", main, arg)
		default:
			main = arg
		}
	}
	if main == "" {
		return "", "", errors.Configf("missing main argument (PROGRAM.cl, PROGRAM.bin or CONFIG.program_test)")
	}
	if !IsMainArg(main) {
		return "", "", errors.Configf("%s: expected a .cl, .program_test or .bin file", main)
	}
	return main, configPath, nil
}

// Release frees every device object created by the tester. It is safe to
// call more than once.
func (t *Tester) Release() {
	if t.arena != nil {
		_ = t.arena.Release()
	}
}

// BuildOptions returns the options the program is built with on a device
// supporting OpenCL C version cv: -cl-std is added for versions above 1.0
// unless the options already select a standard.
func BuildOptions(options string, cv cl.Version) string {
	if cv <= 10 {
		return options
	}
	words, err := shellquote.Split(options)
	if err != nil {
		words = strings.Fields(options)
	}
	for _, w := range words {
		if strings.HasPrefix(w, "-cl-std") {
			return options
		}
	}
	std := fmt.Sprintf("-cl-std=CL%d.%d", cv.Major(), cv.Minor())
	if options == "" {
		return std
	}
	return options + " " + std
}

// Run builds the program on env's device and runs every sub-test in file
// order, reporting one result line per sub-test.
func (t *Tester) Run(env *harness.Env, cfg *config.TestConfig) result.Result {
	r := env.Runner()
	log := r.Output()
	pc := cfg.Program
	scope := t.arena.Scope()
	defer func() { _ = scope.Release() }()

	ctx, err := env.Platform.CreateContext(env.Device)
	if err != nil {
		r.Fail(cfg.Name, errors.Resourcef(err, "failed to create context"))
		return result.Fail
	}
	scope.Track(ctx)

	var prog cl.Program
	if t.binary != nil {
		prog, err = ctx.CreateProgramWithBinary(env.Device, t.binary)
	} else {
		prog, err = ctx.CreateProgramWithSource(t.source)
	}
	if err != nil {
		r.Fail(cfg.Name, errors.Resourcef(err, "failed to create program"))
		return result.Fail
	}
	scope.Track(prog)

	options := BuildOptions(pc.BuildOptions, env.CVersion)
	log.Debug("building with options %q", options)
	if err := prog.Build([]cl.Device{env.Device}, options); err != nil {
		if pc.ExpectBuildFail {
			log.Info("%s: build failed as expected", cfg.Name)
			return result.Pass
		}
		r.Fail(cfg.Name, fmt.Errorf("build failed: %w\n%s", err, prog.BuildLog(env.Device)))
		return result.Fail
	}
	if pc.ExpectBuildFail {
		r.Fail(cfg.Name, errors.New("build succeeded but was expected to fail"))
		return result.Fail
	}

	kernels := map[string]cl.Kernel{}
	if pc.KernelName != "" {
		k, err := prog.CreateKernel(pc.KernelName)
		if err != nil {
			r.Fail(cfg.Name, errors.Resourcef(err, "failed to create kernel %s", pc.KernelName))
			return result.Fail
		}
		scope.Track(k)
		kernels[pc.KernelName] = k
	}
	if len(t.prog.Tests) == 0 {
		return result.Pass
	}

	queue, err := ctx.CreateQueue(env.Device)
	if err != nil {
		r.Fail(cfg.Name, errors.Resourcef(err, "failed to create command queue"))
		return result.Fail
	}
	scope.Track(queue)

	d := &device{ctx: ctx, queue: queue, prog: prog, kernels: kernels, arena: scope, rng: t.rng}
	res := result.Skip
	for _, st := range t.prog.Tests {
		sr, err := d.run(st)
		if err != nil {
			r.Fail(st.Name, err)
		}
		r.Subtest(st.Name, sr)
		res = result.Merge(res, sr)
	}
	return res
}

// device holds the objects shared by the sub-tests of one device.
type device struct {
	ctx     cl.Context
	queue   cl.Queue
	prog    cl.Program
	kernels map[string]cl.Kernel
	arena   *Arena
	rng     *rand.Rand
}

func (d *device) kernel(name string) (cl.Kernel, error) {
	if k, ok := d.kernels[name]; ok {
		return k, nil
	}
	k, err := d.prog.CreateKernel(name)
	if err != nil {
		return nil, errors.Resourcef(err, "failed to create kernel %s", name)
	}
	d.arena.Track(k)
	d.kernels[name] = k
	return k, nil
}

// run runs one sub-test. Objects created for it are released before it
// returns.
func (d *device) run(st *SubTest) (result.Result, error) {
	k, err := d.kernel(st.KernelName)
	if err != nil {
		return result.Fail, err
	}
	scope := d.arena.Scope()
	defer func() { _ = scope.Release() }()

	outputs, err := d.bind(k, st, scope)
	if err != nil {
		return result.Fail, err
	}

	err = d.queue.EnqueueNDRange(k, st.Dimensions, st.Global(), st.Local())
	if err == nil {
		err = d.queue.Finish()
	}
	if err != nil {
		return result.Fail, errors.Resourcef(err, "failed to run kernel %s", st.KernelName)
	}

	if st.ExpectTestFail && len(outputs) == 0 {
		return result.Fail, errors.New("test is expected to fail but has no outputs to check")
	}
	var problems []string
	for _, o := range outputs {
		got := make([]byte, o.arg.Size())
		if err := d.queue.ReadBuffer(o.buf, got); err != nil {
			return result.Fail, errors.Resourcef(err, "failed to read argument %d", o.arg.Index)
		}
		mismatches := Verify(o.arg, got)
		switch {
		case st.ExpectTestFail && len(mismatches) == 0:
			problems = append(problems, fmt.Sprintf("argument %d matched but was expected to fail", o.arg.Index))
		case !st.ExpectTestFail:
			for _, m := range mismatches {
				problems = append(problems, m.String())
			}
		}
	}
	if len(problems) == 0 {
		return result.Pass, nil
	}
	if st.ExpectTestFail {
		return result.Fail, errors.New(strings.Join(problems, "; "))
	}
	return result.Fail, errors.Newf("%d mismatches:\n  %s", len(problems), strings.Join(problems, "\n  "))
}

type output struct {
	arg *Arg
	buf cl.Buffer
}

// bind sets every kernel argument of st. An output buffer bound to the same
// index as an input buffer starts with the input's contents.
func (d *device) bind(k cl.Kernel, st *SubTest, scope *Arena) ([]output, error) {
	indices := map[int]bool{}
	for _, a := range st.ArgsIn {
		indices[a.Index] = true
	}
	for _, a := range st.ArgsOut {
		indices[a.Index] = true
	}
	order := make([]int, 0, len(indices))
	for i := range indices {
		order = append(order, i)
	}
	sort.Ints(order)

	var outputs []output
	for _, idx := range order {
		in, out := st.In(idx), st.Out(idx)
		if in != nil && !in.Buffer && out == nil {
			if err := k.SetArg(idx, Fill(in, d.rng)); err != nil {
				return nil, errors.Resourcef(err, "failed to set argument %d", idx)
			}
			continue
		}
		if out == nil && in.IsNull() {
			if err := k.SetArgBuffer(idx, nil); err != nil {
				return nil, errors.Resourcef(err, "failed to set argument %d", idx)
			}
			continue
		}

		size := 0
		if out != nil {
			size = out.Size()
		} else {
			size = in.Size()
		}
		buf, err := d.ctx.CreateBuffer(size)
		if err != nil {
			return nil, errors.Resourcef(err, "failed to create buffer for argument %d", idx)
		}
		scope.Track(buf)
		if in != nil && in.Buffer && !in.IsNull() {
			if err := d.queue.WriteBuffer(buf, Fill(in, d.rng)); err != nil {
				return nil, errors.Resourcef(err, "failed to write argument %d", idx)
			}
		}
		if err := k.SetArgBuffer(idx, buf); err != nil {
			return nil, errors.Resourcef(err, "failed to set argument %d", idx)
		}
		if out != nil {
			outputs = append(outputs, output{arg: out, buf: buf})
		}
	}
	return outputs, nil
}
