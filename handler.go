package tether

import "sync/atomic"

// HandlerID names one connection for later block, unblock, or disconnect.
// Ids are unique for the life of the process, never reused.
type HandlerID uint64

var handlerIDs atomic.Uint64

type handler struct {
	id     HandlerID
	spec   *SignalSpec
	detail string
	after  bool
	fn     SignalHandler

	// Guarded by the owning instance's mutex.
	blocked      int
	disconnected bool
}

func newHandler(spec *SignalSpec, detail string, fn SignalHandler, after bool) *handler {
	return &handler{
		id:     HandlerID(handlerIDs.Add(1)),
		spec:   spec,
		detail: detail,
		after:  after,
		fn:     fn,
	}
}

// runnable re-reads the handler's state at invoke time so that blocking or
// disconnecting from an earlier handler takes effect within the same
// emission.
func (h *handler) runnable(in *instance) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return !h.disconnected && h.blocked == 0
}

// HandlerBlock suspends dispatch of one handler. Blocks nest; the handler
// runs again after as many unblocks.
func (o Object) HandlerBlock(id HandlerID) {
	in := o.inst
	in.mu.Lock()
	defer in.mu.Unlock()
	if h, ok := in.handlers[id]; ok {
		h.blocked++
	}
}

// HandlerUnblock reverses one HandlerBlock.
func (o Object) HandlerUnblock(id HandlerID) {
	in := o.inst
	in.mu.Lock()
	defer in.mu.Unlock()
	if h, ok := in.handlers[id]; ok && h.blocked > 0 {
		h.blocked--
	}
}

// Disconnect permanently removes a handler. Safe to call with an id that is
// already disconnected or unknown.
func (o Object) Disconnect(id HandlerID) {
	in := o.inst
	in.mu.Lock()
	defer in.mu.Unlock()
	h, ok := in.handlers[id]
	if !ok {
		return
	}
	h.disconnected = true
	delete(in.handlers, id)
	order := in.connectOrder[h.spec.Name]
	for i, cand := range order {
		if cand == h {
			in.connectOrder[h.spec.Name] = append(order[:i], order[i+1:]...)
			break
		}
	}
}

// HandlerIsConnected reports whether the id still names a live connection.
func (o Object) HandlerIsConnected(id HandlerID) bool {
	in := o.inst
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.handlers[id]
	return ok
}
