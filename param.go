package tether

import "strings"

// ParamFlags control how a property may be accessed.
type ParamFlags uint8

const (
	// ParamReadable allows Property/get access.
	ParamReadable ParamFlags = 1 << iota
	// ParamWritable allows SetProperty access.
	ParamWritable
	// ParamConstruct asks construction to write the property (supplied value
	// or default) exactly once before Constructed runs.
	ParamConstruct
	// ParamConstructOnly restricts writes to construction time.
	ParamConstructOnly
	// ParamLaxValidation lets out-of-range values be clamped instead of rejected.
	ParamLaxValidation

	// ParamReadWrite is the common readable+writable combination.
	ParamReadWrite = ParamReadable | ParamWritable
)

// ParamSpec describes one property: canonical name, declared value type,
// access flags, and the validation range for numeric types. Immutable once
// installed on a class.
type ParamSpec struct {
	Name      string
	Nick      string
	Blurb     string
	ValueType Type
	Flags     ParamFlags

	// Numeric range and default. For non-numeric types only Default is used.
	MinInt     int64
	MaxInt     int64
	MinUint    uint64
	MaxUint    uint64
	MinFloat   float64
	MaxFloat   float64
	defaultVal Value

	hasRange bool
	owner    Type
}

// OwnerType returns the type whose class installed this descriptor.
func (p *ParamSpec) OwnerType() Type {
	return p.owner
}

// DefaultValue returns a copy of the descriptor's default.
func (p *ParamSpec) DefaultValue() Value {
	return p.defaultVal.Copy()
}

// Readable reports the readable flag.
func (p *ParamSpec) Readable() bool { return p.Flags&ParamReadable != 0 }

// Writable reports the writable flag.
func (p *ParamSpec) Writable() bool { return p.Flags&ParamWritable != 0 }

// ConstructOnly reports the construct-only flag.
func (p *ParamSpec) ConstructOnly() bool { return p.Flags&ParamConstructOnly != 0 }

// canonicalName maps '_' to '-'; the two spellings name the same property.
func canonicalName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

func newSpec(name string, t Type, flags ParamFlags, def Value) *ParamSpec {
	name = canonicalName(name)
	if name == "" {
		panic("tether: property name must not be empty")
	}
	if flags&(ParamConstructOnly|ParamConstruct) == ParamConstructOnly {
		flags |= ParamConstruct
	}
	return &ParamSpec{
		Name:       name,
		ValueType:  t,
		Flags:      flags,
		defaultVal: def,
	}
}

// ParamString describes a string property.
func ParamString(name string, flags ParamFlags, def string) *ParamSpec {
	return newSpec(name, TypeString, flags, StringValue(def))
}

// ParamBool describes a boolean property.
func ParamBool(name string, flags ParamFlags, def bool) *ParamSpec {
	return newSpec(name, TypeBool, flags, BoolValue(def))
}

// ParamInt64 describes a signed integer property. The inclusive range always
// applies; pass math.MinInt64/math.MaxInt64 for an unconstrained property.
func ParamInt64(name string, flags ParamFlags, min, max, def int64) *ParamSpec {
	p := newSpec(name, TypeInt64, flags, Int64Value(def))
	p.MinInt, p.MaxInt = min, max
	p.hasRange = true
	return p
}

// ParamUint64 describes an unsigned integer property. The inclusive range
// always applies; pass 0/math.MaxUint64 for an unconstrained property.
func ParamUint64(name string, flags ParamFlags, min, max, def uint64) *ParamSpec {
	p := newSpec(name, TypeUint64, flags, Uint64Value(def))
	p.MinUint, p.MaxUint = min, max
	p.hasRange = true
	return p
}

// ParamFloat64 describes a float property. The inclusive range always
// applies; pass -math.MaxFloat64/math.MaxFloat64 for an unconstrained
// property.
func ParamFloat64(name string, flags ParamFlags, min, max, def float64) *ParamSpec {
	p := newSpec(name, TypeFloat64, flags, Float64Value(def))
	p.MinFloat, p.MaxFloat = min, max
	p.hasRange = true
	return p
}

// ParamObject describes an object-valued property; values must be t or a
// subtype of it. The default is unset.
func ParamObject(name string, flags ParamFlags, t Type) *ParamSpec {
	if t.Fundamental() != TypeObject {
		panic("tether: ParamObject with non-object type " + t.Name())
	}
	return newSpec(name, t, flags, NewValue(t))
}

// ParamEnum describes an enum-typed property.
func ParamEnum(name string, flags ParamFlags, t Type, def int64) *ParamSpec {
	return newSpec(name, t, flags, EnumValue(t, def))
}

// ParamFlagsSpec describes a flags-typed property.
func ParamFlagsSpec(name string, flags ParamFlags, t Type, def uint64) *ParamSpec {
	return newSpec(name, t, flags, FlagsValue(t, def))
}

// ParamBoxed describes a property holding an arbitrary boxed host value.
func ParamBoxed(name string, flags ParamFlags) *ParamSpec {
	return newSpec(name, TypeBoxed, flags, NewValue(TypeBoxed))
}

// ParamVariant describes a property holding a serialized variant.
func ParamVariant(name string, flags ParamFlags) *ParamSpec {
	return newSpec(name, TypeVariant, flags, NewValue(TypeVariant))
}

// Validate coerces v into the descriptor's declared range, reporting whether
// the content had to change. Callers reject changed values unless the
// descriptor carries ParamLaxValidation.
func (p *ParamSpec) Validate(v *Value) bool {
	if !p.hasRange {
		return false
	}
	switch p.ValueType.Fundamental() {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeEnum:
		if v.i < p.MinInt {
			v.i = p.MinInt
			return true
		}
		if v.i > p.MaxInt {
			v.i = p.MaxInt
			return true
		}
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeFlags:
		if v.u < p.MinUint {
			v.u = p.MinUint
			return true
		}
		if v.u > p.MaxUint {
			v.u = p.MaxUint
			return true
		}
	case TypeFloat32, TypeFloat64:
		if v.f < p.MinFloat {
			v.f = p.MinFloat
			return true
		}
		if v.f > p.MaxFloat {
			v.f = p.MaxFloat
			return true
		}
	}
	return false
}
