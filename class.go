package tether

// Class is the per-type table of property descriptors, signal registrations,
// and override hooks. It is populated during ClassInit and immutable once
// the owning type's registration completes.
type Class struct {
	typ    Type
	parent *Class

	props     map[string]*ParamSpec
	propOrder []*ParamSpec
	signals   map[string]*SignalSpec
	sigOrder  []*SignalSpec

	// Override hooks. A nil hook falls through to the parent class; the
	// base object class stores properties in the instance's own table.
	setProperty func(obj Object, spec *ParamSpec, v Value)
	getProperty func(obj Object, spec *ParamSpec) (Value, error)
	constructed func(obj Object)
	dispose     func(obj Object)
}

func newClass(t Type, parent *Class) *Class {
	return &Class{
		typ:     t,
		parent:  parent,
		props:   make(map[string]*ParamSpec),
		signals: make(map[string]*SignalSpec),
	}
}

func newBaseObjectClass() *Class {
	c := newClass(TypeObject, nil)
	// Property change notification is itself a detailed signal; the detail
	// is the canonical property name.
	c.sigOrder = append(c.sigOrder, &SignalSpec{
		Name:   "notify",
		owner:  TypeObject,
		Params: []Type{TypeBoxed},
		Return: TypeNone,
		Flags:  SignalRunFirst | SignalDetailed,
	})
	c.signals["notify"] = c.sigOrder[0]
	return c
}

// Type returns the type this class belongs to.
func (c *Class) Type() Type {
	return c.typ
}

// InstallProperties registers this type's property descriptors. Names must
// be unique across the whole lineage.
func (c *Class) InstallProperties(specs []*ParamSpec) {
	for _, spec := range specs {
		c.InstallProperty(spec)
	}
}

// InstallProperty registers a single property descriptor.
func (c *Class) InstallProperty(spec *ParamSpec) {
	if spec == nil || spec.Name == "" {
		panic("tether: installing a nil or unnamed property")
	}
	if c.findProperty(spec.Name) != nil {
		panic("tether: property " + spec.Name + " already installed in the lineage of " + c.typ.Name())
	}
	spec.owner = c.typ
	c.props[spec.Name] = spec
	c.propOrder = append(c.propOrder, spec)
}

// FindProperty looks a descriptor up by name, walking the lineage.
func (c *Class) FindProperty(name string) *ParamSpec {
	return c.findProperty(canonicalName(name))
}

// ListProperties returns every descriptor visible from this class, ancestors
// first, each in installation order.
func (c *Class) ListProperties() []*ParamSpec {
	if c == nil {
		return nil
	}
	out := c.parent.ListProperties()
	return append(out, c.propOrder...)
}

// AddSignal registers a signal owned by this type.
func (c *Class) AddSignal(spec SignalSpec) {
	if err := validateSignalName(spec.Name); err != nil {
		panic("tether: " + err.Error())
	}
	if c.findSignal(spec.Name) != nil {
		panic("tether: signal " + spec.Name + " already registered in the lineage of " + c.typ.Name())
	}
	if spec.Flags&(SignalRunFirst|SignalRunLast) == 0 {
		spec.Flags |= SignalRunLast
	}
	s := spec
	s.owner = c.typ
	c.signals[s.Name] = &s
	c.sigOrder = append(c.sigOrder, &s)
}

// AddSignalWithClassHandler registers a signal with a default handler that
// runs at the stage declared by the flags.
func (c *Class) AddSignalWithClassHandler(spec SignalSpec, handler SignalHandler) {
	spec.ClassHandler = handler
	c.AddSignal(spec)
}

// ListSignals returns every signal visible from this class, ancestors first.
func (c *Class) ListSignals() []*SignalSpec {
	if c == nil {
		return nil
	}
	out := c.parent.ListSignals()
	return append(out, c.sigOrder...)
}

func (c *Class) findProperty(canonical string) *ParamSpec {
	for cur := c; cur != nil; cur = cur.parent {
		if spec, ok := cur.props[canonical]; ok {
			return spec
		}
	}
	return nil
}

func (c *Class) findSignal(name string) *SignalSpec {
	for cur := c; cur != nil; cur = cur.parent {
		if spec, ok := cur.signals[name]; ok {
			return spec
		}
	}
	return nil
}

// ownerClassFor returns the class that installed spec, used to route
// property access through the installing type's hooks.
func (c *Class) ownerClassFor(spec *ParamSpec) *Class {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.typ == spec.owner {
			return cur
		}
	}
	return nil
}

// hookSetProperty resolves the nearest set-property override at or above c.
func (c *Class) hookSetProperty() func(Object, *ParamSpec, Value) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.setProperty != nil {
			return cur.setProperty
		}
	}
	return nil
}

func (c *Class) hookGetProperty() func(Object, *ParamSpec) (Value, error) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.getProperty != nil {
			return cur.getProperty
		}
	}
	return nil
}

// hookConstructed resolves the most-derived constructed hook; chaining to
// ancestors is the hook's own responsibility.
func (c *Class) hookConstructed() func(Object) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.constructed != nil {
			return cur.constructed
		}
	}
	return nil
}

func (c *Class) hookDispose() func(Object) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.dispose != nil {
			return cur.dispose
		}
	}
	return nil
}
