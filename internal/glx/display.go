package glx

import (
	"fmt"
	"sort"
	"sync"
)

// Opener opens a display connection.
type Opener func() (Display, error)

var (
	displaysMu sync.RWMutex
	displays   = map[string]Opener{}
)

// DefaultDisplay is the name of the display binding used when none is
// selected.
const DefaultDisplay = "x11"

// RegisterDisplay makes a display binding available under name. Registering
// the same name twice replaces the earlier opener.
func RegisterDisplay(name string, open Opener) {
	displaysMu.Lock()
	defer displaysMu.Unlock()
	displays[name] = open
}

// OpenDisplay opens the display binding registered under name.
func OpenDisplay(name string) (Display, error) {
	displaysMu.RLock()
	open, ok := displays[name]
	displaysMu.RUnlock()
	if !ok {
		return nil, &UnknownDisplayError{Name: name, Known: DisplayNames()}
	}
	return open()
}

// DisplayNames returns the registered display binding names, sorted.
func DisplayNames() []string {
	displaysMu.RLock()
	defer displaysMu.RUnlock()
	names := make([]string, 0, len(displays))
	for name := range displays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownDisplayError is returned when no display binding is registered
// under a name.
type UnknownDisplayError struct {
	Name  string
	Known []string
}

func (e *UnknownDisplayError) Error() string {
	if e.Name == DefaultDisplay {
		return fmt.Sprintf("display %q is not available (build with -tags glx); registered: %v", e.Name, e.Known)
	}
	return fmt.Sprintf("unknown display %q; registered: %v", e.Name, e.Known)
}
