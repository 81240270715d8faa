package tether

// NotifyHandler observes property changes; spec describes the property that
// changed. Reading the new value goes through obj.Property.
type NotifyHandler func(obj Object, spec *ParamSpec)

// ConnectNotify observes changes to one property, or to every property when
// name is empty.
func (o Object) ConnectNotify(name string, fn NotifyHandler) (HandlerID, error) {
	target := "notify"
	if name != "" {
		spec := o.FindProperty(name)
		if spec == nil {
			return 0, errName(KindPropertyNotFound, canonicalName(name))
		}
		target = "notify::" + spec.Name
	}
	return o.Connect(target, func(obj Object, args []Value) Value {
		boxed, err := args[0].Boxed()
		if err != nil {
			return Value{}
		}
		if spec, ok := boxed.(*ParamSpec); ok {
			fn(obj, spec)
		}
		return Value{}
	})
}
