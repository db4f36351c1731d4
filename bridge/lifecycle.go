package bridge

import (
	"fmt"

	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// AddRoot pins the referenced object against garbage collection. Calls
// nest; each AddRoot needs a matching RemoveRoot.
func (b *Bridge) AddRoot(h handle.Object) handle.Code {
	obj, code := b.resolve(h)
	if code != handle.OK {
		return code
	}
	b.rt.Objects().AddRoot(obj)
	return handle.OK
}

// RemoveRoot releases one collection pin. Removing a root from an already
// destroyed object is a no-op success.
func (b *Bridge) RemoveRoot(h handle.Object) handle.Code {
	obj := b.rt.Resolve(h)
	if obj == nil {
		return handle.OK
	}
	b.rt.Objects().RemoveRoot(obj)
	return handle.OK
}

// Pin registers a guest strong reference to the object: it is rooted, and
// if the host destroys it anyway the guest hears about it through
// NotifyPinnedDestroyed before the handle goes stale. Pinning twice is a
// no-op.
func (b *Bridge) Pin(h handle.Object) handle.Code {
	obj, code := b.resolve(h)
	if code != handle.OK {
		return code
	}
	if _, ok := b.pinned[h]; ok {
		return handle.OK
	}
	b.pinned[h] = struct{}{}
	b.rt.Objects().AddRoot(obj)
	b.rt.Objects().Listen(obj, func(o *object.Object) {
		if _, ok := b.pinned[o.Handle]; !ok {
			return
		}
		delete(b.pinned, o.Handle)
		if b.cbs != nil {
			b.cbs.NotifyPinnedDestroyed(b.ctx, o.Handle)
		}
	})
	return handle.OK
}

// Unpin releases a guest strong reference. Unpinning an unpinned or stale
// handle is a no-op success.
func (b *Bridge) Unpin(h handle.Object) handle.Code {
	if _, ok := b.pinned[h]; !ok {
		return handle.OK
	}
	delete(b.pinned, h)
	if obj := b.rt.Resolve(h); obj != nil {
		b.rt.Objects().RemoveRoot(obj)
	}
	return handle.OK
}

// Teardown severs the guest pairing before the module unloads: every live
// reified-class instance has its guest state dropped and its pairing slot
// cleared, guest pins are forgotten, and the guest gets its shutdown call.
// Host objects are NOT destroyed; their identity carries across the reload.
func (b *Bridge) Teardown() error {
	if b.cbs == nil {
		return nil
	}
	b.rt.Objects().Live(func(obj *object.Object) {
		if obj.Class().Flags()&object.ClassReified == 0 || obj.IsDefault() {
			return
		}
		if id := b.instanceID(obj); id != 0 {
			b.cbs.DropInstance(b.ctx, obj.Handle, obj.Class().GuestTypeID, id)
			b.setInstanceID(obj, uint64(0))
		}
	})
	// Guest pins die with the guest. Roots they held are released so the
	// next module starts from a clean slate and re-pins what it loads.
	for h := range b.pinned {
		if obj := b.rt.Resolve(h); obj != nil {
			b.rt.Objects().RemoveRoot(obj)
		}
		delete(b.pinned, h)
	}
	if err := b.cbs.OnShutdown(b.ctx); err != nil {
		return fmt.Errorf("guest shutdown: %w", err)
	}
	return nil
}

// Reconstruct re-pairs every live reified-class instance with fresh guest
// state after a new module is bound, default instances included. Instance
// identity is untouched: the same host objects, the same handles, new
// guest halves.
func (b *Bridge) Reconstruct() error {
	if b.cbs == nil {
		return fmt.Errorf("no module bound")
	}
	var firstErr error
	b.rt.Objects().Live(func(obj *object.Object) {
		if obj.Class().Flags()&object.ClassReified == 0 {
			return
		}
		id, err := b.cbs.ConstructInstance(b.ctx, obj.Class().GuestTypeID, obj.Handle, obj.IsDefault())
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("reconstruct %s: %w", obj.Class().Name(), err)
			}
			return
		}
		b.setInstanceID(obj, id)
	})
	return firstErr
}
