package tether

// Is reports whether the instance behind the handle is t, derives from t, or
// conforms to t when t is an interface.
func (o Object) Is(t Type) bool {
	return o.inst != nil && o.inst.typ.IsA(t)
}

// Upcast rebinds the handle's view to an ancestor or conformed interface.
// Upcasting never fails for a correct target; an impossible target is a
// programming error and panics. The refcount is untouched.
func (o Object) Upcast(t Type) Object {
	if !o.Is(t) {
		panic("tether: cannot upcast " + o.Type().Name() + " to " + t.Name())
	}
	return Object{inst: o.inst, view: t}
}

// Downcast rebinds the view to a more derived type. It reports failure
// instead of panicking because the concrete type is a runtime fact.
func (o Object) Downcast(t Type) (Object, bool) {
	if !o.Is(t) {
		return Object{}, false
	}
	return Object{inst: o.inst, view: t}, true
}

// DynamicCast rebinds the view in either direction, up or down, with an
// error describing the failed conversion.
func (o Object) DynamicCast(t Type) (Object, error) {
	if !o.Is(t) {
		return Object{}, errTypes(KindTypeMismatch, o.Type().Name(), t, o.Type())
	}
	return Object{inst: o.inst, view: t}, nil
}
