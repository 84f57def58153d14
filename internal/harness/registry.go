package harness

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AndreyAkinshin/conform/internal/config"
	"github.com/AndreyAkinshin/conform/internal/errors"
)

// Entry is a registered test: a configuration constructor and its behavior.
type Entry struct {
	Name   string
	Config func() *config.TestConfig
	Test   Test
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Entry{}
)

// Register makes a test available by name. It panics on a duplicate or
// invalid name, as registration happens from init functions.
func Register(name string, cfg func() *config.TestConfig, test Test) {
	if err := config.ValidateName(name); err != nil {
		panic(fmt.Sprintf("harness: %v", err))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("harness: test %q registered twice", name))
	}
	registry[name] = Entry{Name: name, Config: cfg, Test: test}
}

// Lookup retrieves a registered test by name.
func Lookup(name string) (Entry, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[name]
	if !ok {
		return Entry{}, errors.NotFound("test", name)
	}
	return e, nil
}

// Names returns all registered test names sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
