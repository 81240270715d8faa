package tether

import (
	"fmt"
	"unsafe"
)

// Object is a handle onto one refcounted instance, seen through a static
// view type. Copying the struct copies the handle, not the reference: the
// caller stays responsible for balancing Ref and Unref. The zero Object is
// invalid.
type Object struct {
	inst *instance
	view Type
}

// wrapOwned returns a handle that owns one strong reference the instance
// already carries.
func wrapOwned(in *instance) Object {
	return Object{inst: in, view: in.typ}
}

// wrapBorrowed returns a handle without touching the refcount.
func wrapBorrowed(in *instance) Object {
	return Object{inst: in, view: in.typ}
}

// NewObject instantiates t with the given construct properties and returns
// an owned handle. A floating first reference is sunk, so the caller always
// holds plain ownership.
func NewObject(t Type, props ...ConstructProp) (Object, error) {
	in, err := newInstance(t, props)
	if err != nil {
		return Object{}, err
	}
	in.floating.Store(false)
	return wrapOwned(in), nil
}

// NewObjectFloating instantiates t and preserves the floating state of the
// first reference, for types registered with Floating set. MustRefSink or an
// owning container is expected to claim it.
func NewObjectFloating(t Type, props ...ConstructProp) (Object, error) {
	in, err := newInstance(t, props)
	if err != nil {
		return Object{}, err
	}
	return wrapOwned(in), nil
}

// MustNewObject is NewObject for registrations known to succeed, such as
// tests and initialization code.
func MustNewObject(t Type, props ...ConstructProp) Object {
	o, err := NewObject(t, props...)
	if err != nil {
		panic(fmt.Sprintf("tether: constructing %s: %v", t.Name(), err))
	}
	return o
}

// IsValid reports whether the handle points at an instance.
func (o Object) IsValid() bool {
	return o.inst != nil
}

// Type returns the concrete type of the underlying instance, regardless of
// the handle's view.
func (o Object) Type() Type {
	if o.inst == nil {
		return InvalidType
	}
	return o.inst.typ
}

// ViewType returns the static view this handle was obtained under.
func (o Object) ViewType() Type {
	return o.view
}

// Ref acquires one more strong reference and returns the same handle.
func (o Object) Ref() Object {
	o.inst.ref()
	return o
}

// Unref releases one strong reference. Dropping the last one destroys the
// instance: dispose runs, destruction observers fire, storage is released.
func (o Object) Unref() {
	o.inst.unref()
}

// RefSink converts a floating reference into an owned one, or acquires a new
// reference when the instance is already owned.
func (o Object) RefSink() Object {
	o.inst.refSink()
	return o
}

// RefCount reads the current strong count. Meaningful only for diagnostics;
// the value may be stale by the time the caller looks at it.
func (o Object) RefCount() int32 {
	return o.inst.refs.Load()
}

// IsFloating reports whether the first reference is still unowned.
func (o Object) IsFloating() bool {
	return o.inst.floating.Load()
}

// Eq reports whether two handles address the same instance, independent of
// their views.
func (o Object) Eq(other Object) bool {
	return o.inst == other.inst
}

// Pointer returns the instance address for identity hashing and ordering.
func (o Object) Pointer() uintptr {
	return uintptr(unsafe.Pointer(o.inst))
}

// class returns the most-derived class of the instance.
func (o Object) class() *Class {
	if o.inst == nil {
		return nil
	}
	return classOf(o.inst.typ)
}

// FindProperty resolves a descriptor by name across the whole lineage, nil
// when absent. Underscores and dashes are interchangeable in the name.
func (o Object) FindProperty(name string) *ParamSpec {
	c := o.class()
	if c == nil {
		return nil
	}
	return c.findProperty(canonicalName(name))
}

// HasProperty reports whether the lineage declares the named property.
func (o Object) HasProperty(name string) bool {
	return o.FindProperty(name) != nil
}

// PropertyType returns the declared value type of the named property.
func (o Object) PropertyType(name string) (Type, bool) {
	spec := o.FindProperty(name)
	if spec == nil {
		return InvalidType, false
	}
	return spec.ValueType, true
}

// ListProperties returns every descriptor of the instance's lineage,
// ancestors first.
func (o Object) ListProperties() []*ParamSpec {
	return o.class().ListProperties()
}

// SetProperty validates and writes one property, then emits notify with the
// property name as detail. Construct-only properties reject writes here;
// out-of-range values are rejected unless the descriptor allows clamping.
func (o Object) SetProperty(name string, v Value) error {
	spec := o.FindProperty(name)
	if spec == nil {
		return errName(KindPropertyNotFound, canonicalName(name))
	}
	if !spec.Writable() || spec.ConstructOnly() {
		return errName(KindPropertyNotWritable, spec.Name)
	}
	if !v.holds(spec.ValueType) {
		return errTypes(KindTypeMismatch, spec.Name, spec.ValueType, v.Type())
	}
	w := v.Copy()
	if spec.Validate(&w) && spec.Flags&ParamLaxValidation == 0 {
		w.Unset()
		return errMsg(KindValueOutOfRange, spec.Name, "value rejected by validation")
	}
	o.inst.setPropertyRaw(spec, w)
	o.notifySpec(spec)
	return nil
}

// SetProperties applies name/value pairs in order, stopping at the first
// failure.
func (o Object) SetProperties(props ...ConstructProp) error {
	for _, p := range props {
		if err := o.SetProperty(p.Name, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// Property reads one property into a fresh container.
func (o Object) Property(name string) (Value, error) {
	spec := o.FindProperty(name)
	if spec == nil {
		return Value{}, errName(KindPropertyNotFound, canonicalName(name))
	}
	if !spec.Readable() {
		return Value{}, errName(KindPropertyNotReadable, spec.Name)
	}
	return o.inst.getPropertyRaw(spec)
}

// MustProperty is Property for names known to exist.
func (o Object) MustProperty(name string) Value {
	v, err := o.Property(name)
	if err != nil {
		panic(fmt.Sprintf("tether: reading %s.%s: %v", o.Type().Name(), name, err))
	}
	return v
}

// Notify emits the notify signal for a property by hand, for implementations
// whose accessors change state outside SetProperty.
func (o Object) Notify(name string) error {
	spec := o.FindProperty(name)
	if spec == nil {
		return errName(KindPropertyNotFound, canonicalName(name))
	}
	o.notifySpec(spec)
	return nil
}

func (o Object) notifySpec(spec *ParamSpec) {
	o.inst.emitSignal("notify", spec.Name, []Value{BoxedValue(spec)})
}
