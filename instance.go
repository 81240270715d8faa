package tether

import (
	"sync"
	"sync/atomic"

	"tether/internal/glog"
)

// instance is one live object: the refcount, the floating flag, default
// property storage, connected handlers, and subclass private state.
//
// Only the refcount and the floating flag are safe to touch from arbitrary
// goroutines. Everything else follows the instance's own threading contract;
// the mutex below exists for handler-list bookkeeping so that emission can
// snapshot handlers without holding a lock across callbacks, which is what
// makes re-entrant emission safe.
type instance struct {
	typ       Type
	refs      atomic.Int32
	floating  atomic.Bool
	destroyed atomic.Bool

	mu           sync.Mutex
	handlers     map[HandlerID]*handler
	connectOrder map[string][]*handler
	weakNotifies []func()
	emissions    []*emissionFrame

	props map[string]Value
	priv  map[Type]any
}

// view returns a non-owning handle used for callbacks into host code.
func (in *instance) view() Object {
	return wrapBorrowed(in)
}

func (in *instance) ref() {
	if in.refs.Add(1) <= 1 {
		panic("tether: ref on a destroyed instance")
	}
}

func (in *instance) unref() {
	n := in.refs.Add(-1)
	if n == 0 {
		in.destroy()
		return
	}
	if n < 0 {
		panic("tether: unref without a matching ref")
	}
}

// pin keeps the instance alive for the duration of a dispatch. Unlike ref it
// tolerates a zero count, so dispose hooks may still set properties and emit
// teardown signals.
func (in *instance) pin() {
	in.refs.Add(1)
}

func (in *instance) unpin() {
	n := in.refs.Add(-1)
	if n < 0 {
		panic("tether: unpin without a matching pin")
	}
	if n == 0 && !in.destroyed.Load() {
		in.destroy()
	}
}

// refSink establishes ownership of a floating instance exactly once; on an
// already-owned instance it behaves like ref.
func (in *instance) refSink() {
	if in.floating.CompareAndSwap(true, false) {
		return
	}
	in.ref()
}

// tryRef is the weak-upgrade path: it only succeeds while at least one
// strong reference exists, so it can never resurrect a destroyed instance.
func (in *instance) tryRef() bool {
	for {
		n := in.refs.Load()
		if n <= 0 {
			return false
		}
		if in.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (in *instance) destroy() {
	// A reference balanced inside a dispose hook re-reaches zero; destruction
	// itself runs exactly once.
	if !in.destroyed.CompareAndSwap(false, true) {
		return
	}

	if c := classOf(in.typ); c != nil {
		if dispose := c.hookDispose(); dispose != nil {
			dispose(in.view())
		}
	}

	in.mu.Lock()
	notifies := in.weakNotifies
	in.weakNotifies = nil
	in.handlers = nil
	in.connectOrder = nil
	in.mu.Unlock()

	// Destruction observers fire after dispose, before storage is dropped.
	for _, fn := range notifies {
		fn()
	}

	for name, v := range in.props {
		v.Unset()
		delete(in.props, name)
	}
	in.priv = nil
}

// addWeakNotify registers a destruction observer. Returns false when the
// instance is already gone.
func (in *instance) addWeakNotify(fn func()) bool {
	if in.destroyed.Load() {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.destroyed.Load() {
		return false
	}
	in.weakNotifies = append(in.weakNotifies, fn)
	return true
}

// ConstructProp pairs a property name with its construction value.
type ConstructProp struct {
	Name  string
	Value Value
}

// Prop builds a ConstructProp for NewObject.
func Prop(name string, v Value) ConstructProp {
	return ConstructProp{Name: name, Value: v}
}

func newInstance(t Type, props []ConstructProp) (*instance, error) {
	node := reg.lookup(t)
	if node == nil {
		return nil, errMsg(KindConstructionFailed, t.Name(), "type is not registered")
	}
	if !t.IsA(TypeObject) || t.isInterface() {
		return nil, errMsg(KindConstructionFailed, t.Name(), "type is not instantiable")
	}
	class := classOf(t)
	if class == nil {
		return nil, errMsg(KindConstructionFailed, t.Name(), "type has no class")
	}

	in := &instance{
		typ:          t,
		handlers:     make(map[HandlerID]*handler),
		connectOrder: make(map[string][]*handler),
		props:        make(map[string]Value),
		priv:         make(map[Type]any),
	}
	in.refs.Store(1)
	in.floating.Store(lineageFloating(t))

	// Private state is constructed root-most ancestor first, exactly once
	// per lineage level that registered a constructor.
	for _, level := range lineageOf(t) {
		n := reg.lookup(level)
		if n != nil && n.newPrivate != nil {
			in.priv[level] = n.newPrivate()
		}
	}

	// A failed construction releases everything already committed, so an
	// object-valued construct property never leaks its strong reference.
	fail := func(err error) (*instance, error) {
		for name, v := range in.props {
			v.Unset()
			delete(in.props, name)
		}
		in.priv = nil
		return nil, err
	}

	supplied := make(map[string]bool, len(props))
	for _, p := range props {
		name := canonicalName(p.Name)
		spec := class.findProperty(name)
		if spec == nil {
			return fail(errName(KindPropertyNotFound, name))
		}
		if !spec.Writable() {
			return fail(errName(KindPropertyNotWritable, name))
		}
		if !p.Value.holds(spec.ValueType) {
			return fail(errTypes(KindTypeMismatch, name, spec.ValueType, p.Value.Type()))
		}
		v := p.Value.Copy()
		if spec.Validate(&v) && spec.Flags&ParamLaxValidation == 0 {
			v.Unset()
			return fail(errMsg(KindValueOutOfRange, name, "construct value rejected by validation"))
		}
		in.setPropertyRaw(spec, v)
		supplied[name] = true
	}

	// Construct-flagged properties not supplied are written with their
	// defaults so overriding accessors observe every construct property.
	for _, spec := range class.ListProperties() {
		if spec.Flags&ParamConstruct == 0 || supplied[spec.Name] {
			continue
		}
		in.setPropertyRaw(spec, spec.DefaultValue())
	}

	if constructed := class.hookConstructed(); constructed != nil {
		constructed(in.view())
	}
	return in, nil
}

func lineageOf(t Type) []Type {
	var chain []Type
	for cur := t; cur != InvalidType; {
		chain = append(chain, cur)
		n := reg.lookup(cur)
		if n == nil {
			break
		}
		cur = n.parent
	}
	// reverse: root first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func lineageFloating(t Type) bool {
	for cur := t; cur != InvalidType; {
		n := reg.lookup(cur)
		if n == nil {
			return false
		}
		if n.floating {
			return true
		}
		cur = n.parent
	}
	return false
}

// setPropertyRaw commits a validated value, routing through the installing
// class's override when one exists, otherwise into default storage. The
// committed value is owned by the callee.
func (in *instance) setPropertyRaw(spec *ParamSpec, v Value) {
	if oc := classOf(in.typ).ownerClassFor(spec); oc != nil && oc.setProperty != nil {
		oc.setProperty(in.view(), spec, v)
		v.Unset()
		return
	}
	if old, ok := in.props[spec.Name]; ok {
		old.Unset()
	}
	in.props[spec.Name] = v
}

// getPropertyRaw reads into a fresh container via the installing class's
// override or from default storage.
func (in *instance) getPropertyRaw(spec *ParamSpec) (Value, error) {
	if oc := classOf(in.typ).ownerClassFor(spec); oc != nil && oc.getProperty != nil {
		v, err := oc.getProperty(in.view(), spec)
		if err != nil {
			glog.Critical().Str("type", in.typ.Name()).Str("property", spec.Name).
				Err(err).Msg("property getter failed")
			return Value{}, errMsg(KindOperationFailed, spec.Name, "failed to get property: %v", err)
		}
		if !v.IsValid() {
			glog.Critical().Str("type", in.typ.Name()).Str("property", spec.Name).
				Msg("property getter returned an invalid value")
			return Value{}, errMsg(KindOperationFailed, spec.Name, "getter returned an invalid value")
		}
		return v, nil
	}
	if v, ok := in.props[spec.Name]; ok {
		return v.Copy(), nil
	}
	return spec.DefaultValue(), nil
}
