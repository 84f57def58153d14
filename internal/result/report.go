package result

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// LinePrefix starts every machine-readable line a test process prints.
const LinePrefix = "CONFORM: "

// Reporter writes machine-readable result lines.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewReporter creates a Reporter that writes to out. A nil out means stdout.
func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{out: out}
}

// Subtest reports the result of one named sub-test.
func (r *Reporter) Subtest(name string, res Result) {
	r.write(map[string]map[string]Result{"subtest": {name: res}})
}

// Final reports the aggregate result of the whole test.
func (r *Reporter) Final(res Result) {
	r.write(map[string]Result{"result": res})
}

func (r *Reporter) write(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		// Result values and string keys always marshal.
		panic(fmt.Errorf("result: marshal report line: %w", err))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s%s\n", LinePrefix, data)
}
