package tether

import (
	"fmt"
	"strings"
)

// SignalFlags control registration and dispatch of a signal.
type SignalFlags uint8

const (
	// SignalRunFirst runs the class handler before user handlers.
	SignalRunFirst SignalFlags = 1 << iota
	// SignalRunLast runs the class handler between the before and after
	// handler groups. The default stage when neither is given.
	SignalRunLast
	// SignalDetailed permits "name::detail" on connect and emit.
	SignalDetailed
	// SignalAction marks a signal intended to be emitted by outside callers
	// as a request, not only by the implementation as a report.
	SignalAction
	// SignalNoRecurse drops a nested emission of the same signal and detail
	// on the same instance instead of re-entering the handler list.
	SignalNoRecurse
)

// SignalHandler is the callback shape for class and user handlers. The
// return value is ignored for signals declared with no return type.
type SignalHandler func(obj Object, args []Value) Value

// SignalAccumulator folds each handler's return into acc and reports whether
// emission should continue. Without one, the last handler's return wins.
type SignalAccumulator func(acc *Value, ret Value) bool

// SignalSpec declares one signal: parameter types, return type, dispatch
// flags, and the optional class handler and accumulator.
type SignalSpec struct {
	Name         string
	Params       []Type
	Return       Type
	Flags        SignalFlags
	ClassHandler SignalHandler
	Accumulator  SignalAccumulator

	owner Type
}

// OwnerType returns the type whose class registered this signal.
func (s *SignalSpec) OwnerType() Type {
	return s.owner
}

func validateSignalName(name string) error {
	if name == "" {
		return errMsg(KindOperationFailed, name, "signal name must not be empty")
	}
	c := name[0]
	if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
		return errMsg(KindOperationFailed, name, "signal name must start with a letter")
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
			continue
		}
		return errMsg(KindOperationFailed, name, "invalid character %q in signal name", c)
	}
	return nil
}

// splitDetail separates "name::detail" into its parts. Both parts are
// canonicalized so "notify::first_name" and "notify::first-name" match.
func splitDetail(name string) (base, detail string) {
	if i := strings.Index(name, "::"); i >= 0 {
		return canonicalName(name[:i]), canonicalName(name[i+2:])
	}
	return canonicalName(name), ""
}

// FindSignal resolves a signal registration by base name across the whole
// lineage, nil when absent.
func (o Object) FindSignal(name string) *SignalSpec {
	c := o.class()
	if c == nil {
		return nil
	}
	base, _ := splitDetail(name)
	return c.findSignal(base)
}

// ListSignals returns every signal of the instance's lineage, ancestors
// first.
func (o Object) ListSignals() []*SignalSpec {
	return o.class().ListSignals()
}

// Connect attaches a handler to run in the before group, ahead of a RunLast
// class handler. A "name::detail" target restricts dispatch to emissions
// carrying that detail.
func (o Object) Connect(name string, fn SignalHandler) (HandlerID, error) {
	return o.connect(name, fn, false)
}

// ConnectAfter attaches a handler to the after group, behind the class
// handler and all before handlers.
func (o Object) ConnectAfter(name string, fn SignalHandler) (HandlerID, error) {
	return o.connect(name, fn, true)
}

// MustConnect is Connect for signal names known to exist.
func (o Object) MustConnect(name string, fn SignalHandler) HandlerID {
	id, err := o.Connect(name, fn)
	if err != nil {
		panic(fmt.Sprintf("tether: connecting %s on %s: %v", name, o.Type().Name(), err))
	}
	return id
}

func (o Object) connect(name string, fn SignalHandler, after bool) (HandlerID, error) {
	if fn == nil {
		return 0, errMsg(KindOperationFailed, name, "nil signal handler")
	}
	base, detail := splitDetail(name)
	spec := o.class().findSignal(base)
	if spec == nil {
		return 0, errName(KindSignalNotFound, base)
	}
	if detail != "" && spec.Flags&SignalDetailed == 0 {
		return 0, errMsg(KindSignalNotFound, base, "signal does not accept a detail")
	}
	h := newHandler(spec, detail, fn, after)

	in := o.inst
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.destroyed.Load() {
		return 0, errMsg(KindOperationFailed, base, "instance is destroyed")
	}
	in.handlers[h.id] = h
	in.connectOrder[base] = append(in.connectOrder[base], h)
	return h.id, nil
}

// Emit dispatches a signal synchronously on the calling goroutine and
// returns the accumulated handler return, a none-typed Value for void
// signals. The argument list must match the registration; object arguments
// may be subtypes of the declared type.
func (o Object) Emit(name string, args ...Value) (Value, error) {
	base, detail := splitDetail(name)
	spec := o.class().findSignal(base)
	if spec == nil {
		return Value{}, errName(KindSignalNotFound, base)
	}
	if detail != "" && spec.Flags&SignalDetailed == 0 {
		return Value{}, errMsg(KindSignalNotFound, base, "signal does not accept a detail")
	}
	if len(args) != len(spec.Params) {
		return Value{}, errMsg(KindArgumentCountMismatch, base,
			"signal takes %d arguments, got %d", len(spec.Params), len(args))
	}
	for i, a := range args {
		if !a.holds(spec.Params[i]) {
			return Value{}, errTypes(KindArgumentTypeMismatch, base, spec.Params[i], a.Type())
		}
	}
	return o.inst.emit(spec, detail, args), nil
}

// EmitAction emits a signal declared with SignalAction, the entry point for
// outside callers requesting behavior rather than reporting it. Emitting a
// non-action signal this way is refused.
func (o Object) EmitAction(name string, args ...Value) (Value, error) {
	spec := o.FindSignal(name)
	if spec == nil {
		base, _ := splitDetail(name)
		return Value{}, errName(KindSignalNotFound, base)
	}
	if spec.Flags&SignalAction == 0 {
		return Value{}, errMsg(KindOperationFailed, spec.Name, "signal is not an action")
	}
	return o.Emit(name, args...)
}

// MustEmit is Emit for emissions known to be well-formed.
func (o Object) MustEmit(name string, args ...Value) Value {
	v, err := o.Emit(name, args...)
	if err != nil {
		panic(fmt.Sprintf("tether: emitting %s on %s: %v", name, o.Type().Name(), err))
	}
	return v
}

// StopEmission aborts the innermost in-progress emission of the named signal
// on this instance. Handlers later in that emission do not run. Calling it
// outside a matching emission reports SignalNotFound.
func (o Object) StopEmission(name string) error {
	base, detail := splitDetail(name)
	in := o.inst
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := len(in.emissions) - 1; i >= 0; i-- {
		fr := in.emissions[i]
		if fr.spec.Name == base && fr.detail == detail {
			fr.stopped = true
			return nil
		}
	}
	return errMsg(KindSignalNotFound, base, "no emission of this signal is in progress")
}

// emissionFrame tracks one in-progress emission for StopEmission and the
// no-recurse check.
type emissionFrame struct {
	spec    *SignalSpec
	detail  string
	stopped bool
}

// emitSignal dispatches by name with no argument checking, for internal
// emissions whose shape is known, such as notify.
func (in *instance) emitSignal(base, detail string, args []Value) {
	spec := classOf(in.typ).findSignal(base)
	if spec == nil {
		return
	}
	in.emit(spec, detail, args)
}

func (in *instance) emit(spec *SignalSpec, detail string, args []Value) Value {
	in.mu.Lock()
	if spec.Flags&SignalNoRecurse != 0 {
		for _, fr := range in.emissions {
			if fr.spec == spec && fr.detail == detail {
				in.mu.Unlock()
				return NewValue(spec.Return)
			}
		}
	}
	frame := &emissionFrame{spec: spec, detail: detail}
	in.emissions = append(in.emissions, frame)

	// Snapshot matching handlers in connect order. Handlers connected
	// during this emission do not run in it; blocked and disconnected
	// states are re-read at invoke time.
	var before, after []*handler
	for _, h := range in.connectOrder[spec.Name] {
		if h.detail != "" && h.detail != detail {
			continue
		}
		if h.after {
			after = append(after, h)
		} else {
			before = append(before, h)
		}
	}
	in.mu.Unlock()

	defer func() {
		in.mu.Lock()
		for i := len(in.emissions) - 1; i >= 0; i-- {
			if in.emissions[i] == frame {
				in.emissions = append(in.emissions[:i], in.emissions[i+1:]...)
				break
			}
		}
		in.mu.Unlock()
	}()

	// The emission keeps the instance alive even if a handler drops the last
	// outside reference. pin rather than ref: dispose hooks emit too, when
	// the count is already zero.
	in.pin()
	defer in.unpin()

	obj := in.view()
	ret := NewValue(spec.Return)

	runClass := func() bool {
		if spec.ClassHandler == nil {
			return true
		}
		return in.dispatchOne(frame, spec, &ret, func() Value {
			return spec.ClassHandler(obj, args)
		})
	}
	runGroup := func(hs []*handler) bool {
		for _, h := range hs {
			if frame.stopped {
				return false
			}
			if !h.runnable(in) {
				continue
			}
			if !in.dispatchOne(frame, spec, &ret, func() Value {
				return h.fn(obj, args)
			}) {
				return false
			}
		}
		return true
	}

	switch {
	case spec.Flags&SignalRunFirst != 0:
		if !runClass() {
			return ret
		}
		if !runGroup(before) {
			return ret
		}
	default:
		if !runGroup(before) {
			return ret
		}
		if frame.stopped {
			return ret
		}
		if !runClass() {
			return ret
		}
	}
	if frame.stopped {
		return ret
	}
	runGroup(after)
	return ret
}

// dispatchOne invokes a single callback, enforces the return contract, and
// folds the return into ret. Reports whether emission should continue.
func (in *instance) dispatchOne(frame *emissionFrame, spec *SignalSpec, ret *Value, call func() Value) bool {
	r := call()
	if spec.Return == TypeNone {
		return !frame.stopped
	}
	if !r.holds(spec.Return) {
		panic(fmt.Sprintf("tether: handler for %s on %s returned %s, want %s",
			spec.Name, in.typ.Name(), r.Type().Name(), spec.Return.Name()))
	}
	if spec.Accumulator != nil {
		if !spec.Accumulator(ret, r) {
			return false
		}
		return !frame.stopped
	}
	ret.Unset()
	*ret = r
	return !frame.stopped
}
