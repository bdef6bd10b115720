// Package hooking lets observers attach to the simulators without the
// simulators knowing who is listening.
package hooking

// HookPos names a point in a simulator where hooks run. Positions are
// compared by pointer, so each one is declared once as a package variable.
type HookPos struct {
	Name string
}

// HookCtx is passed to every hook.
type HookCtx struct {
	// Domain is the object that ran the hooks.
	Domain Hookable

	// Pos tells which point of Domain was reached.
	Pos *HookPos

	// Item is the thing being handled, for example a trace record.
	Item any

	// Detail carries whatever else Pos defines, or nil.
	Detail any
}

// Hookable is implemented by everything that hooks can attach to.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// Hook observes a Hookable. Func runs synchronously on the goroutine of the
// Hookable and must not keep ctx.Item after returning.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc turns a function into a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase is embedded by types that run hooks. Its zero value holds no
// hooks and is ready to use. It is not safe for concurrent registration.
type HookableBase struct {
	hooks []Hook
}

// NumHooks counts the attached hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks lists the attached hooks in the order they run.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook attaches a hook. Attaching the same hook value twice panics;
// HookFunc values cannot be compared and are always accepted.
func (h *HookableBase) AcceptHook(hook Hook) {
	if h.isAttached(hook) {
		panic("hook is already attached")
	}

	h.hooks = append(h.hooks, hook)
}

func (h *HookableBase) isAttached(hook Hook) bool {
	if _, isFunc := hook.(HookFunc); isFunc {
		return false
	}

	for _, attached := range h.hooks {
		if attached == hook {
			return true
		}
	}

	return false
}

// InvokeHook runs every attached hook with ctx, in attach order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
