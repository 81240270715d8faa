package tether

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
	"golang.org/x/sync/singleflight"
)

// TypeInfo carries everything RegisterType needs beyond the name and parent.
type TypeInfo struct {
	// ClassInit installs properties, signals, and override hooks. Runs once,
	// before RegisterType returns.
	ClassInit func(*Class)
	// Floating makes instances start with a floating first reference.
	Floating bool
	// Implements lists interface types the new type conforms to.
	Implements []Type

	// newPrivate allocates per-instance private state. Set by Register only.
	newPrivate func() any
}

type typeNode struct {
	name       string
	parent     Type
	implements []Type
	floating   bool
	newPrivate func() any
	class      *Class
}

// registry is the process-wide, append-only type table. Registration is
// global state that is never torn down; that asymmetry is deliberate.
type registry struct {
	mu    sync.RWMutex
	nodes []*typeNode
	names map[string]Type
	kids  map[Type][]Type
}

var (
	reg    = newRegistry()
	regSFG singleflight.Group
)

func newRegistry() *registry {
	r := &registry{
		names: make(map[string]Type, 64),
		kids:  make(map[Type][]Type),
	}
	r.nodes = append(r.nodes, nil) // reserve 0 as the invalid sentinel
	for t := TypeNone; t <= TypeVariant; t++ {
		node := &typeNode{name: fundamentalName(t)}
		r.nodes = append(r.nodes, node)
		r.names[node.name] = t
	}
	r.nodes[TypeObject].class = newBaseObjectClass()
	return r
}

func (r *registry) lookup(t Type) *typeNode {
	if t == InvalidType {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(t) >= len(r.nodes) {
		return nil
	}
	return r.nodes[t]
}

func (r *registry) byName(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.names[name]
	return t, ok
}

func (r *registry) childrenOf(t Type) []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kids := r.kids[t]
	if len(kids) == 0 {
		return nil
	}
	out := make([]Type, len(kids))
	copy(out, kids)
	return out
}

func (r *registry) add(name string, parent Type, info TypeInfo) (Type, *typeNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.names[name]; dup {
		return InvalidType, nil, errMsg(KindOperationFailed, name, "type name already registered")
	}
	raw, err := safecast.Conv[uint32](len(r.nodes))
	if err != nil {
		panic(fmt.Errorf("type table overflow: %w", err))
	}
	id := Type(raw)
	node := &typeNode{
		name:       name,
		parent:     parent,
		implements: append([]Type(nil), info.Implements...),
		floating:   info.Floating,
		newPrivate: info.newPrivate,
	}
	r.nodes = append(r.nodes, node)
	r.names[name] = id
	r.kids[parent] = append(r.kids[parent], id)
	return id, node, nil
}

// RegisterType adds a derived type under parent. Registration is global and
// permanent: there is no unregistration, and a colliding name fails loudly
// rather than aliasing two distinct types to one registry entry.
func RegisterType(name string, parent Type, info TypeInfo) (Type, error) {
	if err := validateTypeName(name); err != nil {
		return InvalidType, err
	}
	pnode := reg.lookup(parent)
	if pnode == nil {
		return InvalidType, errMsg(KindOperationFailed, name, "parent type is not registered")
	}
	switch parent.Fundamental() {
	case TypeObject, TypeEnum, TypeFlags, TypeBoxed, TypeInterface:
	default:
		return InvalidType, errMsg(KindOperationFailed, name,
			"cannot derive from fundamental type %s", parent.Name())
	}
	for _, iface := range info.Implements {
		if !iface.isInterface() {
			return InvalidType, errMsg(KindOperationFailed, name,
				"%s is not an interface type", iface.Name())
		}
	}

	id, node, err := reg.add(name, parent, info)
	if err != nil {
		return InvalidType, err
	}

	// Class construction happens outside the registry lock so ClassInit can
	// query the registry freely. The id escapes only after the class is set.
	if parent.Fundamental() == TypeObject && !id.isInterface() {
		class := newClass(id, pnode.class)
		if info.ClassInit != nil {
			info.ClassInit(class)
		}
		reg.mu.Lock()
		node.class = class
		reg.mu.Unlock()
	}
	return id, nil
}

// RegisterInterface adds an interface lineage point: a type usable with
// DynamicCast and Implements declarations but never instantiated.
func RegisterInterface(name string) (Type, error) {
	if err := validateTypeName(name); err != nil {
		return InvalidType, err
	}
	id, _, err := reg.add(name, TypeInterface, TypeInfo{})
	return id, err
}

// EnsureType resolves name, calling register exactly once even under
// concurrent callers, and never re-registering a name that already exists.
func EnsureType(name string, register func() (Type, error)) (Type, error) {
	if t, ok := reg.byName(name); ok {
		return t, nil
	}
	v, err, _ := regSFG.Do(name, func() (any, error) {
		if t, ok := reg.byName(name); ok {
			return t, nil
		}
		return register()
	})
	if err != nil {
		return InvalidType, err
	}
	return v.(Type), nil
}

// ClassFor returns the class table of an object type, nil for anything
// else. The returned class is live registry state: read it, don't mutate it.
func ClassFor(t Type) *Class {
	if t.Fundamental() != TypeObject || t.isInterface() {
		return nil
	}
	return classOf(t)
}

func classOf(t Type) *Class {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for cur := t; cur != InvalidType; {
		if int(cur) >= len(reg.nodes) {
			return nil
		}
		n := reg.nodes[cur]
		if n == nil {
			return nil
		}
		if n.class != nil {
			return n.class
		}
		cur = n.parent
	}
	return nil
}

func validateTypeName(name string) error {
	if len(name) < 2 {
		return errMsg(KindOperationFailed, name, "type name too short")
	}
	c := name[0]
	if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
		return errMsg(KindOperationFailed, name, "type name must start with a letter")
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '.' || c == '_' {
			continue
		}
		return errMsg(KindOperationFailed, name, "invalid character %q in type name", c)
	}
	return nil
}
