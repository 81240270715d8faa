package tether

import (
	"fmt"

	"fortio.org/safecast"
)

// Value is a type-tagged container holding exactly one value of a
// runtime-known type. The zero Value is invalid.
//
// Object-valued contents hold a strong reference; release it with Unset.
type Value struct {
	typ Type

	b     bool
	i     int64
	u     uint64
	f     float64
	s     string
	obj   *instance
	boxed any
	ptr   uintptr
	vrnt  *Variant
}

// NewValue returns an empty container tagged with t, initialized to the
// zero content of t's fundamental kind.
func NewValue(t Type) Value {
	return Value{typ: t}
}

// Type returns the tag the container was initialized with.
func (v *Value) Type() Type {
	return v.typ
}

// IsValid reports whether the container holds a typed content at all.
func (v *Value) IsValid() bool {
	return v.typ != InvalidType
}

// Constructors --------------------------------------------------------------

// BoolValue boxes a bool.
func BoolValue(b bool) Value { return Value{typ: TypeBool, b: b} }

// Int64Value boxes an int64. IntValue and friends tag narrower widths.
func Int64Value(i int64) Value   { return Value{typ: TypeInt64, i: i} }
func Int32Value(i int32) Value   { return Value{typ: TypeInt32, i: int64(i)} }
func Int16Value(i int16) Value   { return Value{typ: TypeInt16, i: int64(i)} }
func Int8Value(i int8) Value     { return Value{typ: TypeInt8, i: int64(i)} }
func Uint64Value(u uint64) Value { return Value{typ: TypeUint64, u: u} }
func Uint32Value(u uint32) Value { return Value{typ: TypeUint32, u: uint64(u)} }
func Uint16Value(u uint16) Value { return Value{typ: TypeUint16, u: uint64(u)} }
func Uint8Value(u uint8) Value   { return Value{typ: TypeUint8, u: uint64(u)} }

// Float64Value boxes a float64; Float32Value tags the narrower width.
func Float64Value(f float64) Value { return Value{typ: TypeFloat64, f: f} }
func Float32Value(f float32) Value { return Value{typ: TypeFloat32, f: float64(f)} }

// StringValue boxes a string.
func StringValue(s string) Value { return Value{typ: TypeString, s: s} }

// PointerValue boxes an opaque pointer-sized token.
func PointerValue(p uintptr) Value { return Value{typ: TypePointer, ptr: p} }

// BoxedValue boxes an arbitrary host value under the boxed fundamental.
func BoxedValue(x any) Value { return Value{typ: TypeBoxed, boxed: x} }

// VariantValue boxes a serialized variant.
func VariantValue(vr *Variant) Value { return Value{typ: TypeVariant, vrnt: vr} }

// EnumValue boxes a member of a registered enum type.
func EnumValue(t Type, member int64) Value {
	if t.Fundamental() != TypeEnum {
		panic("tether: EnumValue with a non-enum type " + t.Name())
	}
	return Value{typ: t, i: member}
}

// FlagsValue boxes a combination of a registered flags type.
func FlagsValue(t Type, bits uint64) Value {
	if t.Fundamental() != TypeFlags {
		panic("tether: FlagsValue with a non-flags type " + t.Name())
	}
	return Value{typ: t, u: bits}
}

// ObjectValue boxes an object handle, taking a new strong reference. The
// container's tag is the instance's runtime type.
func ObjectValue(o Object) Value {
	if o.inst == nil {
		panic("tether: ObjectValue with an invalid handle")
	}
	o.inst.ref()
	return Value{typ: o.inst.typ, obj: o.inst}
}

// ValueOf boxes common Go natives. Object handles and *Variant are accepted
// directly; anything else is a type mismatch.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case bool:
		return BoolValue(t), nil
	case int:
		return Int64Value(int64(t)), nil
	case int8:
		return Int8Value(t), nil
	case int16:
		return Int16Value(t), nil
	case int32:
		return Int32Value(t), nil
	case int64:
		return Int64Value(t), nil
	case uint:
		return Uint64Value(uint64(t)), nil
	case uint8:
		return Uint8Value(t), nil
	case uint16:
		return Uint16Value(t), nil
	case uint32:
		return Uint32Value(t), nil
	case uint64:
		return Uint64Value(t), nil
	case float32:
		return Float32Value(t), nil
	case float64:
		return Float64Value(t), nil
	case string:
		return StringValue(t), nil
	case Object:
		return ObjectValue(t), nil
	case *Variant:
		return VariantValue(t), nil
	case Value:
		return t.Copy(), nil
	default:
		return Value{}, errMsg(KindTypeMismatch, "", "cannot box a %T", x)
	}
}

// Getters --------------------------------------------------------------------

// Bool unboxes a boolean content.
func (v *Value) Bool() (bool, error) {
	if v.typ.Fundamental() != TypeBool {
		return false, errTypes(KindTypeMismatch, "", TypeBool, v.typ)
	}
	return v.b, nil
}

// Int64 unboxes any integer content, widening or narrowing with an
// overflow check.
func (v *Value) Int64() (int64, error) {
	switch v.typ.Fundamental() {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeEnum:
		return v.i, nil
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		n, err := safecast.Conv[int64](v.u)
		if err != nil {
			return 0, errMsg(KindValueOutOfRange, "", "uint64 %d overflows int64", v.u)
		}
		return n, nil
	default:
		return 0, errTypes(KindTypeMismatch, "", TypeInt64, v.typ)
	}
}

// Uint64 unboxes any unsigned content, converting signed with an
// overflow check.
func (v *Value) Uint64() (uint64, error) {
	switch v.typ.Fundamental() {
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeFlags:
		return v.u, nil
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		n, err := safecast.Conv[uint64](v.i)
		if err != nil {
			return 0, errMsg(KindValueOutOfRange, "", "int64 %d is negative", v.i)
		}
		return n, nil
	default:
		return 0, errTypes(KindTypeMismatch, "", TypeUint64, v.typ)
	}
}

// Float64 unboxes float content, or widens integer content exactly.
func (v *Value) Float64() (float64, error) {
	switch v.typ.Fundamental() {
	case TypeFloat32, TypeFloat64:
		return v.f, nil
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return float64(v.i), nil
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return float64(v.u), nil
	default:
		return 0, errTypes(KindTypeMismatch, "", TypeFloat64, v.typ)
	}
}

// String unboxes string content. It intentionally does not implement
// fmt.Stringer; use Describe for a diagnostic rendering.
func (v *Value) String() (string, error) {
	if v.typ.Fundamental() != TypeString {
		return "", errTypes(KindTypeMismatch, "", TypeString, v.typ)
	}
	return v.s, nil
}

// Object unboxes an object content as a fresh strong handle; the caller
// owns the returned reference.
func (v *Value) Object() (Object, error) {
	if v.typ.Fundamental() != TypeObject {
		return Object{}, errTypes(KindTypeMismatch, "", TypeObject, v.typ)
	}
	if v.obj == nil {
		return Object{}, errMsg(KindOperationFailed, "", "object content is unset")
	}
	v.obj.ref()
	return wrapOwned(v.obj), nil
}

// Boxed unboxes an arbitrary host value.
func (v *Value) Boxed() (any, error) {
	if v.typ.Fundamental() != TypeBoxed {
		return nil, errTypes(KindTypeMismatch, "", TypeBoxed, v.typ)
	}
	return v.boxed, nil
}

// Pointer unboxes an opaque pointer-sized token.
func (v *Value) Pointer() (uintptr, error) {
	if v.typ.Fundamental() != TypePointer {
		return 0, errTypes(KindTypeMismatch, "", TypePointer, v.typ)
	}
	return v.ptr, nil
}

// Enum unboxes an enum member.
func (v *Value) Enum() (int64, error) {
	if v.typ.Fundamental() != TypeEnum {
		return 0, errTypes(KindTypeMismatch, "", TypeEnum, v.typ)
	}
	return v.i, nil
}

// Flags unboxes a flags combination.
func (v *Value) Flags() (uint64, error) {
	if v.typ.Fundamental() != TypeFlags {
		return 0, errTypes(KindTypeMismatch, "", TypeFlags, v.typ)
	}
	return v.u, nil
}

// GoValue returns the content as a plain Go value, or nil for an unset or
// invalid container. Object contents come back as a borrowed Object view;
// take a Ref to keep it.
func (v *Value) GoValue() any {
	switch v.typ.Fundamental() {
	case TypeBool:
		return v.b
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeEnum:
		return v.i
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeFlags:
		return v.u
	case TypeFloat32, TypeFloat64:
		return v.f
	case TypeString:
		return v.s
	case TypePointer:
		return v.ptr
	case TypeBoxed:
		return v.boxed
	case TypeVariant:
		return v.vrnt
	case TypeObject:
		if v.obj == nil {
			return nil
		}
		return Object{inst: v.obj, view: v.obj.typ}
	default:
		return nil
	}
}

// Copy duplicates the container. Object contents gain one reference.
func (v *Value) Copy() Value {
	out := *v
	if out.obj != nil {
		out.obj.ref()
	}
	return out
}

// Unset releases any held object reference and invalidates the container.
func (v *Value) Unset() {
	if v.obj != nil {
		v.obj.unref()
	}
	*v = Value{}
}

// Describe renders the content for diagnostics.
func (v *Value) Describe() string {
	if v.typ == InvalidType {
		return "<invalid>"
	}
	return fmt.Sprintf("%s(%v)", v.typ.Name(), v.GoValue())
}

// holds reports whether the content can be stored in a slot declared as
// want: same type, or a subtype for object-valued slots.
func (v *Value) holds(want Type) bool {
	if v.typ == want {
		return true
	}
	switch want.Fundamental() {
	case TypeObject, TypeInterface:
		return v.typ.IsA(want)
	default:
		return false
	}
}
