package programtest

import (
	stderrors "errors"
	"sync"
)

// Releaser is a device object that must be released exactly once.
type Releaser interface {
	Release() error
}

// Arena owns the device objects created for a program description and
// releases them together. Scopes nest: releasing a scope releases only the
// objects tracked through it.
type Arena struct {
	mu       sync.Mutex
	objects  []Releaser
	scopes   []*Arena
	released bool
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Track adds r to the arena and returns it. Tracking into a released arena
// releases r immediately.
func (a *Arena) Track(r Releaser) Releaser {
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		_ = r.Release()
		return r
	}
	a.objects = append(a.objects, r)
	a.mu.Unlock()
	return r
}

// Scope returns a child arena released with a but also releasable on its
// own.
func (a *Arena) Scope() *Arena {
	child := NewArena()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		child.released = true
		return child
	}
	a.scopes = append(a.scopes, child)
	return child
}

// Release releases every tracked object in reverse order of creation,
// children first. It is idempotent and returns the errors joined.
func (a *Arena) Release() error {
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return nil
	}
	a.released = true
	objects, scopes := a.objects, a.scopes
	a.objects, a.scopes = nil, nil
	a.mu.Unlock()

	var errs []error
	for i := len(scopes) - 1; i >= 0; i-- {
		errs = append(errs, scopes[i].Release())
	}
	for i := len(objects) - 1; i >= 0; i-- {
		errs = append(errs, objects[i].Release())
	}
	return stderrors.Join(errs...)
}

// Len returns the number of objects tracked directly by the arena.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.objects)
}
