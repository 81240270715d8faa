package tether

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Variant is the serialized form of a scalar or string Value: a msgpack
// payload tagged with the registered type name. Object, pointer, and boxed
// contents have no serialized form.
type Variant struct {
	typeName string
	payload  []byte
}

type variantEnvelope struct {
	Type string `msgpack:"type"`
	Data any    `msgpack:"data"`
}

// TypeName returns the registered name of the contained value's type.
func (vr *Variant) TypeName() string {
	return vr.typeName
}

// Bytes returns the full serialized envelope.
func (vr *Variant) Bytes() ([]byte, error) {
	var data any
	if err := msgpack.Unmarshal(vr.payload, &data); err != nil {
		return nil, errMsg(KindOperationFailed, vr.typeName, "corrupt variant payload: %v", err)
	}
	return msgpack.Marshal(variantEnvelope{Type: vr.typeName, Data: data})
}

// ParseVariant decodes an envelope produced by Bytes.
func ParseVariant(raw []byte) (*Variant, error) {
	var env variantEnvelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return nil, errMsg(KindOperationFailed, "", "cannot decode variant: %v", err)
	}
	if _, ok := TypeFromName(env.Type); !ok {
		return nil, errMsg(KindOperationFailed, env.Type, "variant names an unregistered type")
	}
	payload, err := msgpack.Marshal(env.Data)
	if err != nil {
		return nil, errMsg(KindOperationFailed, env.Type, "cannot re-encode variant payload: %v", err)
	}
	return &Variant{typeName: env.Type, payload: payload}, nil
}

// ToVariant serializes the container's content. Only scalar, string, enum,
// and flags contents are serializable.
func (v *Value) ToVariant() (*Variant, error) {
	var data any
	switch v.typ.Fundamental() {
	case TypeBool:
		data = v.b
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeEnum:
		data = v.i
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeFlags:
		data = v.u
	case TypeFloat32, TypeFloat64:
		data = v.f
	case TypeString:
		data = v.s
	default:
		return nil, errTypes(KindTypeMismatch, "", TypeVariant, v.typ)
	}
	payload, err := msgpack.Marshal(data)
	if err != nil {
		return nil, errMsg(KindOperationFailed, v.typ.Name(), "cannot encode variant: %v", err)
	}
	return &Variant{typeName: v.typ.Name(), payload: payload}, nil
}

// Value deserializes the variant back into a typed container.
func (vr *Variant) Value() (Value, error) {
	t, ok := TypeFromName(vr.typeName)
	if !ok {
		return Value{}, errMsg(KindOperationFailed, vr.typeName, "variant names an unregistered type")
	}
	out := NewValue(t)
	switch t.Fundamental() {
	case TypeBool:
		if err := msgpack.Unmarshal(vr.payload, &out.b); err != nil {
			return Value{}, variantDecodeErr(vr.typeName, err)
		}
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeEnum:
		if err := msgpack.Unmarshal(vr.payload, &out.i); err != nil {
			return Value{}, variantDecodeErr(vr.typeName, err)
		}
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64, TypeFlags:
		if err := msgpack.Unmarshal(vr.payload, &out.u); err != nil {
			return Value{}, variantDecodeErr(vr.typeName, err)
		}
	case TypeFloat32, TypeFloat64:
		if err := msgpack.Unmarshal(vr.payload, &out.f); err != nil {
			return Value{}, variantDecodeErr(vr.typeName, err)
		}
	case TypeString:
		if err := msgpack.Unmarshal(vr.payload, &out.s); err != nil {
			return Value{}, variantDecodeErr(vr.typeName, err)
		}
	default:
		return Value{}, errTypes(KindTypeMismatch, vr.typeName, TypeVariant, t)
	}
	return out, nil
}

func variantDecodeErr(name string, err error) *Error {
	return errMsg(KindOperationFailed, name, "cannot decode variant payload: %v", err)
}
