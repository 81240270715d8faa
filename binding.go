package tether

import (
	"sync"

	"tether/internal/glog"
)

// BindingFlags control how a property binding behaves.
type BindingFlags uint8

const (
	// BindingDefault propagates source changes to the target.
	BindingDefault BindingFlags = 0
	// BindingBidirectional also propagates target changes back.
	BindingBidirectional BindingFlags = 1 << 0
	// BindingSyncCreate pushes the source value to the target when the
	// binding is built, not only on the next change.
	BindingSyncCreate BindingFlags = 1 << 1
	// BindingInvertBoolean negates boolean values in both directions.
	// Incompatible with explicit transforms.
	BindingInvertBoolean BindingFlags = 1 << 2
)

// TransformFunc converts a property value crossing the binding. Returning
// false drops the propagation for that change.
type TransformFunc func(v Value) (Value, bool)

// BindingBuilder accumulates the configuration for one property binding.
type BindingBuilder struct {
	source     Object
	sourceProp string
	target     Object
	targetProp string
	flags      BindingFlags
	to         TransformFunc
	from       TransformFunc
}

// BindProperty starts building a binding that propagates this object's
// sourceProp into target's targetProp.
func (o Object) BindProperty(sourceProp string, target Object, targetProp string) *BindingBuilder {
	return &BindingBuilder{
		source:     o,
		sourceProp: sourceProp,
		target:     target,
		targetProp: targetProp,
	}
}

// Flags replaces the binding flags.
func (b *BindingBuilder) Flags(f BindingFlags) *BindingBuilder {
	b.flags = f
	return b
}

// Bidirectional adds back-propagation from target to source.
func (b *BindingBuilder) Bidirectional() *BindingBuilder {
	b.flags |= BindingBidirectional
	return b
}

// SyncCreate pushes the current source value on Build.
func (b *BindingBuilder) SyncCreate() *BindingBuilder {
	b.flags |= BindingSyncCreate
	return b
}

// InvertBoolean negates boolean values crossing the binding.
func (b *BindingBuilder) InvertBoolean() *BindingBuilder {
	b.flags |= BindingInvertBoolean
	return b
}

// TransformTo converts values flowing from source to target.
func (b *BindingBuilder) TransformTo(fn TransformFunc) *BindingBuilder {
	b.to = fn
	return b
}

// TransformFrom converts values flowing from target back to source. Only
// meaningful together with Bidirectional.
func (b *BindingBuilder) TransformFrom(fn TransformFunc) *BindingBuilder {
	b.from = fn
	return b
}

// Binding is one live property binding. It holds only weak references: the
// binding tears itself down when either endpoint is destroyed, and never
// keeps an endpoint alive.
type Binding struct {
	mu       sync.Mutex
	source   *Weak
	target   *Weak
	srcProp  string
	dstProp  string
	srcID    HandlerID
	dstID    HandlerID
	updating bool
	unbound  bool
}

// Build validates the endpoints and activates the binding.
func (b *BindingBuilder) Build() (*Binding, error) {
	srcSpec := b.source.FindProperty(b.sourceProp)
	if srcSpec == nil {
		return nil, errName(KindPropertyNotFound, canonicalName(b.sourceProp))
	}
	dstSpec := b.target.FindProperty(b.targetProp)
	if dstSpec == nil {
		return nil, errName(KindPropertyNotFound, canonicalName(b.targetProp))
	}
	if !srcSpec.Readable() {
		return nil, errName(KindPropertyNotReadable, srcSpec.Name)
	}
	if !dstSpec.Writable() || dstSpec.ConstructOnly() {
		return nil, errName(KindPropertyNotWritable, dstSpec.Name)
	}
	if b.flags&BindingBidirectional != 0 {
		if !dstSpec.Readable() {
			return nil, errName(KindPropertyNotReadable, dstSpec.Name)
		}
		if !srcSpec.Writable() || srcSpec.ConstructOnly() {
			return nil, errName(KindPropertyNotWritable, srcSpec.Name)
		}
	}

	to, from := b.to, b.from
	if b.flags&BindingInvertBoolean != 0 {
		if to != nil || from != nil {
			return nil, errMsg(KindOperationFailed, srcSpec.Name,
				"invert-boolean cannot be combined with explicit transforms")
		}
		if srcSpec.ValueType != TypeBool || dstSpec.ValueType != TypeBool {
			return nil, errTypes(KindTypeMismatch, srcSpec.Name, TypeBool, srcSpec.ValueType)
		}
		to, from = invertBool, invertBool
	}
	if to == nil && srcSpec.ValueType != dstSpec.ValueType {
		return nil, errTypes(KindTypeMismatch, srcSpec.Name, dstSpec.ValueType, srcSpec.ValueType)
	}
	if b.flags&BindingBidirectional != 0 && from == nil && srcSpec.ValueType != dstSpec.ValueType {
		return nil, errTypes(KindTypeMismatch, dstSpec.Name, srcSpec.ValueType, dstSpec.ValueType)
	}

	bd := &Binding{
		source:  b.source.Downgrade(),
		target:  b.target.Downgrade(),
		srcProp: srcSpec.Name,
		dstProp: dstSpec.Name,
	}

	id, err := b.source.ConnectNotify(srcSpec.Name, func(obj Object, _ *ParamSpec) {
		bd.propagate(obj, bd.target, bd.srcProp, bd.dstProp, to)
	})
	if err != nil {
		return nil, err
	}
	bd.srcID = id

	if b.flags&BindingBidirectional != 0 {
		id, err := b.target.ConnectNotify(dstSpec.Name, func(obj Object, _ *ParamSpec) {
			bd.propagate(obj, bd.source, bd.dstProp, bd.srcProp, from)
		})
		if err != nil {
			b.source.Disconnect(bd.srcID)
			return nil, err
		}
		bd.dstID = id
	}

	// Either endpoint's destruction dissolves the binding.
	b.source.AddWeakNotify(bd.Unbind)
	b.target.AddWeakNotify(bd.Unbind)

	if b.flags&BindingSyncCreate != 0 {
		bd.propagate(b.source, bd.target, bd.srcProp, bd.dstProp, to)
	}
	return bd, nil
}

// propagate moves one value from a live endpoint to the other, skipping the
// write when the binding itself caused the notification.
func (bd *Binding) propagate(from Object, toWeak *Weak, fromProp, toProp string, transform TransformFunc) {
	bd.mu.Lock()
	if bd.unbound || bd.updating {
		bd.mu.Unlock()
		return
	}
	bd.updating = true
	bd.mu.Unlock()
	defer func() {
		bd.mu.Lock()
		bd.updating = false
		bd.mu.Unlock()
	}()

	dst, ok := toWeak.Upgrade()
	if !ok {
		return
	}
	defer dst.Unref()

	v, err := from.Property(fromProp)
	if err != nil {
		glog.Critical().Str("property", fromProp).Err(err).Msg("binding read failed")
		return
	}
	if transform != nil {
		w, ok := transform(v)
		v.Unset()
		if !ok {
			return
		}
		v = w
	}
	if err := dst.SetProperty(toProp, v); err != nil {
		glog.Critical().Str("property", toProp).Err(err).Msg("binding write failed")
	}
	v.Unset()
}

// Unbind dissolves the binding. Safe to call more than once and from either
// endpoint's destruction.
func (bd *Binding) Unbind() {
	bd.mu.Lock()
	if bd.unbound {
		bd.mu.Unlock()
		return
	}
	bd.unbound = true
	srcID, dstID := bd.srcID, bd.dstID
	bd.mu.Unlock()

	if src, ok := bd.source.Upgrade(); ok {
		src.Disconnect(srcID)
		src.Unref()
	}
	if dstID != 0 {
		if dst, ok := bd.target.Upgrade(); ok {
			dst.Disconnect(dstID)
			dst.Unref()
		}
	}
	bd.source.Clear()
	bd.target.Clear()
}

func invertBool(v Value) (Value, bool) {
	b, err := v.Bool()
	if err != nil {
		return Value{}, false
	}
	return BoolValue(!b), true
}
