package cl

import (
	"fmt"
	"sort"
	"sync"
)

// Opener opens a backend.
type Opener func() (Backend, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]Opener{}
)

// DefaultBackend is the name of the backend used when none is selected.
const DefaultBackend = "opencl"

// RegisterBackend makes a backend available under name. Registering the
// same name twice replaces the earlier opener.
func RegisterBackend(name string, open Opener) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = open
}

// OpenBackend opens the backend registered under name.
func OpenBackend(name string) (Backend, error) {
	backendsMu.RLock()
	open, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, &UnknownBackendError{Name: name, Known: BackendNames()}
	}
	return open()
}

// BackendNames returns the registered backend names, sorted.
func BackendNames() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownBackendError is returned when no backend is registered under a name.
type UnknownBackendError struct {
	Name  string
	Known []string
}

func (e *UnknownBackendError) Error() string {
	if e.Name == DefaultBackend {
		return fmt.Sprintf("backend %q is not available (build with -tags opencl); registered: %v", e.Name, e.Known)
	}
	return fmt.Sprintf("unknown backend %q; registered: %v", e.Name, e.Known)
}
