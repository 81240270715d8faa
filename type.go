package tether

import "fmt"

// Type uniquely identifies a registered runtime type. Equality is by raw
// id; lineage queries go through the process-wide registry.
type Type uint32

// InvalidType marks the absence of a type.
const InvalidType Type = 0

// Fundamental types, pre-registered at package init in this exact order.
const (
	TypeNone Type = iota + 1
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString
	TypePointer
	TypeBoxed
	TypeEnum
	TypeFlags
	TypeInterface
	TypeObject
	TypeVariant
)

// IsValid reports whether the id names a registered type.
func (t Type) IsValid() bool {
	return reg.lookup(t) != nil
}

// Name returns the registered name, or "<invalid>" for an unknown id.
func (t Type) Name() string {
	n := reg.lookup(t)
	if n == nil {
		return "<invalid>"
	}
	return n.name
}

func (t Type) String() string {
	return t.Name()
}

// Parent returns the immediate ancestor. Fundamental types have none.
func (t Type) Parent() (Type, bool) {
	n := reg.lookup(t)
	if n == nil || n.parent == InvalidType {
		return InvalidType, false
	}
	return n.parent, true
}

// Children returns the direct descendants in registration order.
func (t Type) Children() []Type {
	return reg.childrenOf(t)
}

// Fundamental returns the root of the lineage t belongs to.
func (t Type) Fundamental() Type {
	cur := t
	for {
		n := reg.lookup(cur)
		if n == nil {
			return InvalidType
		}
		if n.parent == InvalidType {
			return cur
		}
		cur = n.parent
	}
}

// IsA reports whether t equals other, inherits from it, or conforms to it
// when other is an interface type. The relation is reflexive and transitive.
func (t Type) IsA(other Type) bool {
	if t == InvalidType || other == InvalidType {
		return false
	}
	if other.isInterface() {
		return t.conformsTo(other)
	}
	for cur := t; cur != InvalidType; {
		if cur == other {
			return true
		}
		n := reg.lookup(cur)
		if n == nil {
			return false
		}
		cur = n.parent
	}
	return false
}

// IsInterface reports whether t is an interface lineage point.
func (t Type) IsInterface() bool {
	return t.isInterface()
}

// Interfaces returns every interface type the lineage of t declares.
func (t Type) Interfaces() []Type {
	var out []Type
	seen := map[Type]bool{}
	for cur := t; cur != InvalidType; {
		n := reg.lookup(cur)
		if n == nil {
			break
		}
		for _, iface := range n.implements {
			if !seen[iface] {
				seen[iface] = true
				out = append(out, iface)
			}
		}
		cur = n.parent
	}
	return out
}

func (t Type) isInterface() bool {
	if t == TypeInterface {
		return true
	}
	n := reg.lookup(t)
	return n != nil && n.parent == TypeInterface
}

func (t Type) conformsTo(iface Type) bool {
	if t == iface {
		return true
	}
	for cur := t; cur != InvalidType; {
		n := reg.lookup(cur)
		if n == nil {
			return false
		}
		for _, i := range n.implements {
			if i == iface {
				return true
			}
		}
		cur = n.parent
	}
	return false
}

// TypeFromName resolves a registered name back to its id.
func TypeFromName(name string) (Type, bool) {
	return reg.byName(name)
}

func fundamentalName(t Type) string {
	switch t {
	case TypeNone:
		return "none"
	case TypeBool:
		return "bool"
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeUint32:
		return "uint32"
	case TypeUint64:
		return "uint64"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypePointer:
		return "pointer"
	case TypeBoxed:
		return "boxed"
	case TypeEnum:
		return "enum"
	case TypeFlags:
		return "flags"
	case TypeInterface:
		return "interface"
	case TypeObject:
		return "Object"
	case TypeVariant:
		return "variant"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}
