// Package bridge implements the host side of the guest boundary: the
// capability table guests program against, the framed value codec, dynamic
// calls through parameter blocks, event dispatch, and runtime type
// reification.
package bridge

import (
	"context"
	"log/slog"

	"github.com/VioletHelianthus/uika/guest"
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// Bridge owns the boundary state for one host runtime: staged parameter
// blocks, pinned objects, and the guest callback surface. It is confined to
// a single goroutine, like the runtime it fronts; guests reenter it through
// their callbacks but never concurrently.
type Bridge struct {
	rt  *object.Runtime
	log *slog.Logger

	cbs guest.Callbacks
	ctx context.Context

	blocks *table[*object.Block]

	// pinned tracks objects the guest holds strong references to. Their
	// destruction is announced through NotifyPinnedDestroyed.
	pinned map[handle.Object]struct{}

	proxyClass *object.Class
	proxySig   map[handle.Object]*proxyBinding
}

// proxyBinding pairs a live delegate proxy with the guest closure it fires.
type proxyBinding struct {
	callbackID uint64
	signature  *object.Function
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge's logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// New creates a bridge over rt and installs the construct and invoke hooks
// that route reified-class activity to the bound guest.
func New(rt *object.Runtime, opts ...Option) *Bridge {
	b := &Bridge{
		rt:       rt,
		log:      rt.Logger(),
		ctx:      context.Background(),
		blocks:   newTable[*object.Block](),
		pinned:   make(map[handle.Object]struct{}),
		proxySig: make(map[handle.Object]*proxyBinding),
	}
	for _, o := range opts {
		o(b)
	}
	rt.ConstructHook = b.onConstruct
	rt.InvokeHook = b.onInvoke
	return b
}

// Runtime returns the host runtime the bridge fronts.
func (b *Bridge) Runtime() *object.Runtime { return b.rt }

// Bind installs the guest callback surface. The context governs every
// subsequent host-to-guest call until the next Bind.
func (b *Bridge) Bind(ctx context.Context, cbs guest.Callbacks) {
	b.ctx = ctx
	b.cbs = cbs
}

// Unbind drops the guest callback surface. Reified classes stay registered;
// their guest bodies simply stop dispatching until the next Bind.
func (b *Bridge) Unbind() {
	b.cbs = nil
	b.ctx = context.Background()
}

// Callbacks returns the bound guest surface, or nil.
func (b *Bridge) Callbacks() guest.Callbacks { return b.cbs }

// onConstruct pairs a new reified-class instance with guest state. Stores
// the guest instance identifier in the class's instance slot. The drop
// listener registers even when no guest is bound, so an instance created
// mid-reload still announces its destruction once a module is rebound.
func (b *Bridge) onConstruct(obj *object.Object) {
	b.rt.Objects().Listen(obj, func(o *object.Object) {
		if b.cbs != nil {
			b.cbs.DropInstance(b.ctx, o.Handle, o.Class().GuestTypeID, b.instanceID(o))
		}
	})
	if b.cbs == nil {
		return
	}
	id, err := b.cbs.ConstructInstance(b.ctx, obj.Class().GuestTypeID, obj.Handle, obj.IsDefault())
	if err != nil {
		b.log.Error("guest instance construction failed",
			"class", obj.Class().Name(), "error", err)
		return
	}
	b.setInstanceID(obj, id)
}

// onInvoke dispatches a guest-implemented function body.
func (b *Bridge) onInvoke(obj *object.Object, fn *object.Function, blk *object.Block) error {
	if b.cbs == nil {
		// No guest bound (mid-reload). The call is dropped, not queued.
		b.log.Warn("guest call dropped, no module bound",
			"class", obj.Class().Name(), "function", fn.Name())
		return nil
	}
	idx := b.blocks.Add(blk)
	defer b.blocks.Remove(idx)
	return b.cbs.InvokeFunction(b.ctx, obj.Handle, fn.CallbackID, handle.Block(idx))
}

// block resolves a block handle.
func (b *Bridge) block(h handle.Block) (*object.Block, handle.Code) {
	blk, ok := b.blocks.Get(uint64(h))
	if !ok {
		return nil, handle.InvalidOperation
	}
	return blk, handle.OK
}

// resolve maps an object handle to its live instance.
func (b *Bridge) resolve(h handle.Object) (*object.Object, handle.Code) {
	if h.IsNull() {
		return nil, handle.NullArgument
	}
	obj := b.rt.Resolve(h)
	if obj == nil {
		return nil, handle.ObjectDestroyed
	}
	return obj, handle.OK
}
