package tether

import "reflect"

// ObjectImpl is the private state of a Go-implemented type. One value is
// allocated per instance; its methods, matched against the optional
// interfaces below, become the type's class hooks.
type ObjectImpl interface {
	TypeName() string
}

// ParentTyper selects the parent type. Without it the type derives directly
// from Object.
type ParentTyper interface {
	ParentType() Type
}

// ClassIniter installs properties and signals during registration. Called
// once, on the prototype value, before the type id escapes.
type ClassIniter interface {
	ClassInit(c *Class)
}

// PropertyImpl routes property access for descriptors this type installed.
// SetProperty receives a borrowed value: copy it to keep it. Descriptors the
// implementation does not handle itself go through BaseSetProperty and
// BaseProperty.
type PropertyImpl interface {
	SetProperty(obj Object, spec *ParamSpec, v Value)
	Property(obj Object, spec *ParamSpec) (Value, error)
}

// ConstructedImpl runs after construct properties are committed. Chain with
// ParentConstructed first.
type ConstructedImpl interface {
	Constructed(obj Object)
}

// DisposeImpl runs when the last strong reference drops, before destruction
// observers. Chain with ParentDispose last.
type DisposeImpl interface {
	Dispose(obj Object)
}

// FloatingImpl marks a type whose instances start with a floating first
// reference.
type FloatingImpl interface {
	InitiallyUnowned()
}

// InterfaceLister declares conformed interface types.
type InterfaceLister interface {
	Implements() []Type
}

// RegisterSubclass registers the Go type behind proto as a runtime type.
// proto must be a pointer to a struct; a fresh value of that struct becomes
// each instance's private state. Registering the same type name again
// returns the existing id.
func RegisterSubclass(proto ObjectImpl) (Type, error) {
	rt := reflect.TypeOf(proto)
	if rt == nil || rt.Kind() != reflect.Pointer || rt.Elem().Kind() != reflect.Struct {
		return InvalidType, errMsg(KindOperationFailed, "", "implementation must be a pointer to a struct")
	}
	name := proto.TypeName()
	return EnsureType(name, func() (Type, error) {
		parent := TypeObject
		if pt, ok := proto.(ParentTyper); ok {
			parent = pt.ParentType()
		}
		info := TypeInfo{
			newPrivate: func() any { return reflect.New(rt.Elem()).Interface() },
		}
		if _, ok := proto.(FloatingImpl); ok {
			info.Floating = true
		}
		if il, ok := proto.(InterfaceLister); ok {
			info.Implements = il.Implements()
		}
		info.ClassInit = func(c *Class) {
			if ci, ok := proto.(ClassIniter); ok {
				ci.ClassInit(c)
			}
			t := c.Type()
			if _, ok := proto.(PropertyImpl); ok {
				c.setProperty = func(obj Object, spec *ParamSpec, v Value) {
					implAt(obj, t).(PropertyImpl).SetProperty(obj, spec, v)
				}
				c.getProperty = func(obj Object, spec *ParamSpec) (Value, error) {
					return implAt(obj, t).(PropertyImpl).Property(obj, spec)
				}
			}
			if _, ok := proto.(ConstructedImpl); ok {
				c.constructed = func(obj Object) {
					implAt(obj, t).(ConstructedImpl).Constructed(obj)
				}
			}
			if _, ok := proto.(DisposeImpl); ok {
				c.dispose = func(obj Object) {
					implAt(obj, t).(DisposeImpl).Dispose(obj)
				}
			}
		}
		return RegisterType(name, parent, info)
	})
}

// MustRegisterSubclass is RegisterSubclass for registrations known to
// succeed.
func MustRegisterSubclass(proto ObjectImpl) Type {
	t, err := RegisterSubclass(proto)
	if err != nil {
		panic("tether: " + err.Error())
	}
	return t
}

// implAt returns the private state the lineage level t allocated for the
// instance behind obj.
func implAt(obj Object, t Type) any {
	p, ok := obj.inst.priv[t]
	if !ok {
		panic("tether: no private state for " + t.Name() + " on " + obj.Type().Name())
	}
	return p
}

// PrivateOf returns the instance's private state of the given Go type,
// searching the lineage from the most derived level up.
func PrivateOf[T any](obj Object) *T {
	for lvl := obj.Type(); lvl != InvalidType; {
		if p, ok := obj.inst.priv[lvl].(*T); ok {
			return p
		}
		parent, ok := lvl.Parent()
		if !ok {
			break
		}
		lvl = parent
	}
	panic("tether: no private state of the requested type on " + obj.Type().Name())
}

// BaseSetProperty commits a value into the instance's default storage,
// bypassing override hooks. The value is copied.
func BaseSetProperty(obj Object, spec *ParamSpec, v Value) {
	in := obj.inst
	if old, ok := in.props[spec.Name]; ok {
		old.Unset()
	}
	in.props[spec.Name] = v.Copy()
}

// BaseProperty reads from the instance's default storage, bypassing override
// hooks, falling back to the descriptor's default.
func BaseProperty(obj Object, spec *ParamSpec) (Value, error) {
	if v, ok := obj.inst.props[spec.Name]; ok {
		return v.Copy(), nil
	}
	return spec.DefaultValue(), nil
}

// ParentSetProperty chains a property write to the class above at; with no
// override there, the value lands in default storage.
func ParentSetProperty(obj Object, at Type, spec *ParamSpec, v Value) {
	if hook := parentClass(at).hookSetProperty(); hook != nil {
		hook(obj, spec, v)
		return
	}
	BaseSetProperty(obj, spec, v)
}

// ParentProperty chains a property read to the class above at.
func ParentProperty(obj Object, at Type, spec *ParamSpec) (Value, error) {
	if hook := parentClass(at).hookGetProperty(); hook != nil {
		return hook(obj, spec)
	}
	return BaseProperty(obj, spec)
}

// ParentConstructed chains to the constructed hook above at, a no-op when no
// ancestor installed one.
func ParentConstructed(obj Object, at Type) {
	if hook := parentClass(at).hookConstructed(); hook != nil {
		hook(obj)
	}
}

// ParentDispose chains to the dispose hook above at.
func ParentDispose(obj Object, at Type) {
	if hook := parentClass(at).hookDispose(); hook != nil {
		hook(obj)
	}
}

func parentClass(at Type) *Class {
	parent, ok := at.Parent()
	if !ok {
		return nil
	}
	return classOf(parent)
}
