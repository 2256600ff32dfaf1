package hostrt

// Env resolves a usable execution context for callbacks that may arrive on
// threads the host runtime has never seen. The first Context call attaches
// and remembers that this Env performed the attach; Release detaches
// exactly once, when the owning resource closes, never per individual
// operation.
type Env struct {
	rt       *Runtime
	ctx      *ExecutionContext
	attached bool
}

// NewEnv returns an Env bound to rt. No attach happens until Context is
// first called.
func NewEnv(rt *Runtime) *Env {
	return &Env{rt: rt}
}

// Context returns the execution context for the current call, attaching on
// first use. It fails with ErrAttach when the runtime refuses.
func (e *Env) Context() (*ExecutionContext, error) {
	if e.ctx != nil {
		return e.ctx, nil
	}
	ctx, err := e.rt.AttachCurrent()
	if err != nil {
		return nil, err
	}
	e.ctx = ctx
	e.attached = true
	return ctx, nil
}

// Release detaches the context if and only if this Env attached it.
// Idempotent.
func (e *Env) Release() {
	if !e.attached || e.ctx == nil {
		return
	}
	e.rt.Detach(e.ctx)
	e.ctx = nil
	e.attached = false
}
