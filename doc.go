// Package tether is a dynamic object runtime: reference-counted object
// handles with runtime type identity, introspectable properties, and a
// publish/subscribe signal mechanism.
//
// # Purpose
//
//   - Provide a process-wide, append-only type registry (Type) with lineage
//     queries, name resolution, and lazy one-time registration.
//   - Wrap every live object behind a reference-counted handle (Object) with
//     three mutually exclusive acquisition modes (owned, borrowed, floating)
//     and identity semantics defined by the underlying instance, never by
//     the lineage point through which it is observed.
//   - Validate property access (flags, type compatibility, range) before any
//     state is touched, and fire change notification synchronously after
//     every successful write.
//   - Dispatch named, typed signals to connected handlers in connection
//     order, partitioned around the type's class handler, with blocking,
//     detailed emission, accumulators, and re-entrant emission support.
//   - Let host-defined Go types register as first-class runtime types
//     (Subclass), install properties and signals, override property
//     accessors and construction, and chain to parent behavior.
//
// # Data model
//
// Type is a compact registry id. Value is a type-tagged container holding
// exactly one value. ParamSpec describes one property: canonical name,
// value type, access flags, and range. SignalSpec describes one signal:
// parameter types, return type, and emission flags. Object is the
// refcounted handle; Weak observes liveness without owning.
//
// # Concurrency
//
// Reference counting, floating-sink, and weak upgrades are atomic and safe
// from any goroutine. Everything else on an instance (property values,
// handler lists) follows the instance's own threading contract: the runtime
// makes the counting race-free, it does not retrofit thread safety onto a
// single-goroutine object. Emission and property access may synchronously
// re-enter the runtime from handlers; per-instance bookkeeping tolerates
// arbitrary nesting.
//
// # Errors
//
// Ordinary misuse (unknown name, wrong flags, wrong type, out of range)
// surfaces as *Error with a Kind from the fixed taxonomy and enough context
// for a diagnostic without re-querying the registry. Panics are reserved
// for host programming errors: malformed subclass hooks, handler return
// values violating their own signal contract, and cross-goroutine use of a
// pinned weak reference.
package tether
