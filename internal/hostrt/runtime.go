// Package hostrt models the managed side of the bridge: the execution
// contexts that boundary-crossing callbacks run under, and the
// extended-lifetime references that keep host-owned objects (streams,
// buffers) alive while the native engine uses them across calls.
package hostrt

import (
	"errors"
	"sync"
)

var (
	// ErrAttach is returned when the runtime refuses to attach the calling
	// thread, e.g. because it is shutting down.
	ErrAttach = errors.New("hostrt: runtime rejected attach")
	// ErrClosed is returned when a new reference is requested after shutdown.
	ErrClosed = errors.New("hostrt: runtime is closed")
)

// Runtime is the process-wide host runtime handle. It has no teardown in
// normal operation; Shutdown exists so tests can exercise attach failure.
type Runtime struct {
	mu       sync.Mutex
	closed   bool
	attached int
	attaches uint64
	detaches uint64
	refs     map[*Ref]struct{}
}

// New returns a runtime with no attached contexts and no live references.
func New() *Runtime {
	return &Runtime{refs: make(map[*Ref]struct{})}
}

// ExecutionContext is a callable context for one attached thread. It is
// valid until detached through the runtime that issued it.
type ExecutionContext struct {
	rt       *Runtime
	detached bool
}

// AttachCurrent registers the calling thread with the runtime and returns
// its execution context. Callers that may already hold a context should go
// through Env, which caches the first successful attach.
func (r *Runtime) AttachCurrent() (*ExecutionContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrAttach
	}
	r.attached++
	r.attaches++
	return &ExecutionContext{rt: r}, nil
}

// Detach releases an execution context obtained from AttachCurrent.
// Detaching twice is a no-op.
func (r *Runtime) Detach(ec *ExecutionContext) {
	if ec == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ec.detached {
		return
	}
	ec.detached = true
	r.attached--
	r.detaches++
}

// NewRef pins obj for use beyond the current call. The reference stays
// valid until Release.
func (r *Runtime) NewRef(obj any) (*Ref, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	ref := &Ref{rt: r, obj: obj}
	r.refs[ref] = struct{}{}
	return ref, nil
}

// Shutdown stops the runtime: subsequent attaches and reference creation
// fail. Existing references stay readable so in-flight closes can finish.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// LiveRefs reports the number of extended-lifetime references not yet
// released.
func (r *Runtime) LiveRefs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.refs)
}

// Attached reports the number of currently attached execution contexts.
func (r *Runtime) Attached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached
}

// AttachStats returns total attach and detach counts since creation.
func (r *Runtime) AttachStats() (attaches, detaches uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attaches, r.detaches
}

// Ref is an extended-lifetime reference to a host-owned object.
type Ref struct {
	rt       *Runtime
	obj      any
	released bool
	mu       sync.Mutex
}

// Value returns the pinned object, or nil after Release.
func (ref *Ref) Value() any {
	ref.mu.Lock()
	defer ref.mu.Unlock()
	if ref.released {
		return nil
	}
	return ref.obj
}

// Release drops the pin. Releasing twice is a no-op.
func (ref *Ref) Release() {
	ref.mu.Lock()
	if ref.released {
		ref.mu.Unlock()
		return
	}
	ref.released = true
	ref.obj = nil
	ref.mu.Unlock()

	ref.rt.mu.Lock()
	delete(ref.rt.refs, ref)
	ref.rt.mu.Unlock()
}
