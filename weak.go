package tether

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
)

// Weak observes an instance without keeping it alive. Upgrade succeeds only
// while at least one strong reference exists, so a Weak can never resurrect
// a destroyed instance. All methods are safe from any goroutine. The zero
// Weak is valid and empty.
type Weak struct {
	mu   sync.Mutex
	inst *instance
}

// Downgrade returns a weak reference to the instance behind the handle.
func (o Object) Downgrade() *Weak {
	return &Weak{inst: o.inst}
}

// Upgrade attempts to recover a strong handle. On success the caller owns a
// new reference and must Unref it.
func (w *Weak) Upgrade() (Object, bool) {
	w.mu.Lock()
	in := w.inst
	w.mu.Unlock()
	if in == nil || !in.tryRef() {
		return Object{}, false
	}
	return wrapOwned(in), true
}

// Set repoints the weak reference at another instance.
func (w *Weak) Set(o Object) {
	w.mu.Lock()
	w.inst = o.inst
	w.mu.Unlock()
}

// Clear empties the weak reference.
func (w *Weak) Clear() {
	w.mu.Lock()
	w.inst = nil
	w.mu.Unlock()
}

// Clone returns an independent weak reference to the same instance.
func (w *Weak) Clone() *Weak {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &Weak{inst: w.inst}
}

// AddWeakNotify registers fn to run once when the instance is destroyed,
// after dispose and before property storage is released. The callback may
// run on whichever goroutine drops the last reference.
func (o Object) AddWeakNotify(fn func()) {
	o.inst.addWeakNotify(fn)
}

// PinnedWeak is a weak reference confined to the goroutine that created it.
// It may be stored in and moved through structures shared across goroutines,
// but Upgrade panics anywhere except the owning goroutine. Use it to hold
// objects whose state must only be touched from one goroutine.
type PinnedWeak struct {
	weak *Weak
	gid  uint64
}

// Pin confines a weak reference to the calling goroutine.
func (o Object) Pin() *PinnedWeak {
	return &PinnedWeak{weak: o.Downgrade(), gid: goroutineID()}
}

// Upgrade recovers a strong handle on the owning goroutine and panics on any
// other.
func (p *PinnedWeak) Upgrade() (Object, bool) {
	if g := goroutineID(); g != p.gid {
		panic(fmt.Sprintf("tether: pinned reference owned by goroutine %d upgraded on goroutine %d", p.gid, g))
	}
	return p.weak.Upgrade()
}

// OwnedByCaller reports whether the calling goroutine may upgrade.
func (p *PinnedWeak) OwnedByCaller() bool {
	return goroutineID() == p.gid
}

// goroutineID parses the header of the calling goroutine's stack trace.
// There is no cheaper supported way to identify a goroutine.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
