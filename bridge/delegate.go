package bridge

import (
	"github.com/VioletHelianthus/uika/handle"
	"github.com/VioletHelianthus/uika/object"
)

// proxyThunkName is the sentinel function name delegate proxies bind with.
// Dispatch on a proxy intercepts it before normal resolution and forwards
// the parameter block to the guest closure registered for the proxy.
const proxyThunkName = "__DelegateProxyThunk"

func (b *Bridge) delegateSlot(oh handle.Object, ph handle.Property) (*object.DelegateValue, handle.Code) {
	v, _, code := b.propRead(oh, ph, 0, object.Delegate)
	if code != handle.OK {
		return nil, code
	}
	return v.(*object.DelegateValue), handle.OK
}

func (b *Bridge) multicastSlot(oh handle.Object, ph handle.Property) (*object.MulticastValue, handle.Code) {
	v, _, code := b.propRead(oh, ph, 0, object.MulticastDelegate)
	if code != handle.OK {
		return nil, code
	}
	return v.(*object.MulticastValue), handle.OK
}

// checkSubscriber validates a (target, function) pair: the target must be
// live and its class must carry the named function, unless the name is the
// proxy sentinel on a registered proxy.
func (b *Bridge) checkSubscriber(target handle.Object, fn handle.Name) handle.Code {
	obj, code := b.resolve(target)
	if code != handle.OK {
		return code
	}
	name := b.rt.Names().String(fn)
	if name == "" {
		return handle.NullArgument
	}
	if name == proxyThunkName {
		if _, ok := b.proxySig[target]; ok {
			return handle.OK
		}
	}
	if obj.Class().Function(name) == nil {
		return handle.FunctionNotFound
	}
	return handle.OK
}

// DelegateBind installs a subscriber on a single-binding event slot,
// replacing any previous binding.
func (b *Bridge) DelegateBind(oh handle.Object, ph handle.Property, target handle.Object, fn handle.Name) handle.Code {
	slot, code := b.delegateSlot(oh, ph)
	if code != handle.OK {
		return code
	}
	if code := b.checkSubscriber(target, fn); code != handle.OK {
		return code
	}
	slot.Target = target
	slot.Func = fn
	return handle.OK
}

// DelegateUnbind clears a single-binding event slot. Unbinding an unbound
// slot is a no-op success.
func (b *Bridge) DelegateUnbind(oh handle.Object, ph handle.Property) handle.Code {
	slot, code := b.delegateSlot(oh, ph)
	if code != handle.OK {
		return code
	}
	*slot = object.DelegateValue{}
	return handle.OK
}

// DelegateIsBound reports whether the slot has a live subscriber.
func (b *Bridge) DelegateIsBound(oh handle.Object, ph handle.Property) (bool, handle.Code) {
	slot, code := b.delegateSlot(oh, ph)
	if code != handle.OK {
		return false, code
	}
	return slot.Bound() && b.rt.Resolve(slot.Target) != nil, handle.OK
}

// DelegateExecute fires a single-binding slot with the staged block. An
// unbound slot, or one whose subscriber died, is a silent no-op.
func (b *Bridge) DelegateExecute(oh handle.Object, ph handle.Property, bh handle.Block) handle.Code {
	slot, code := b.delegateSlot(oh, ph)
	if code != handle.OK {
		return code
	}
	blk, code := b.block(bh)
	if code != handle.OK {
		return code
	}
	if !slot.Bound() {
		return handle.OK
	}
	b.fireEntry(*slot, blk)
	return handle.OK
}

// MulticastAdd appends a subscriber. Entries fire in subscription order; an
// already present (target, function) pair is not duplicated.
func (b *Bridge) MulticastAdd(oh handle.Object, ph handle.Property, target handle.Object, fn handle.Name) handle.Code {
	slot, code := b.multicastSlot(oh, ph)
	if code != handle.OK {
		return code
	}
	if code := b.checkSubscriber(target, fn); code != handle.OK {
		return code
	}
	for _, e := range slot.Entries {
		if e.Target == target && e.Func == fn {
			return handle.OK
		}
	}
	slot.Entries = append(slot.Entries, object.DelegateValue{Target: target, Func: fn})
	return handle.OK
}

// MulticastRemove drops a subscriber. Removing an absent pair is a no-op
// success.
func (b *Bridge) MulticastRemove(oh handle.Object, ph handle.Property, target handle.Object, fn handle.Name) handle.Code {
	slot, code := b.multicastSlot(oh, ph)
	if code != handle.OK {
		return code
	}
	for i, e := range slot.Entries {
		if e.Target == target && e.Func == fn {
			slot.Entries = append(slot.Entries[:i], slot.Entries[i+1:]...)
			return handle.OK
		}
	}
	return handle.OK
}

// MulticastClear drops every subscriber.
func (b *Bridge) MulticastClear(oh handle.Object, ph handle.Property) handle.Code {
	slot, code := b.multicastSlot(oh, ph)
	if code != handle.OK {
		return code
	}
	slot.Entries = nil
	return handle.OK
}

// MulticastBroadcast fires every subscriber in subscription order with the
// staged block. The entry list is snapshotted first, so subscribers that
// add or remove entries during the broadcast affect only later broadcasts.
// Entries whose target died are skipped and pruned.
func (b *Bridge) MulticastBroadcast(oh handle.Object, ph handle.Property, bh handle.Block) handle.Code {
	slot, code := b.multicastSlot(oh, ph)
	if code != handle.OK {
		return code
	}
	blk, code := b.block(bh)
	if code != handle.OK {
		return code
	}
	snapshot := make([]object.DelegateValue, len(slot.Entries))
	copy(snapshot, slot.Entries)
	dead := make(map[object.DelegateValue]bool)
	for _, e := range snapshot {
		if !b.fireEntry(e, blk) {
			dead[e] = true
		}
	}
	if len(dead) > 0 {
		kept := slot.Entries[:0]
		for _, e := range slot.Entries {
			if !dead[e] {
				kept = append(kept, e)
			}
		}
		slot.Entries = kept
	}
	return handle.OK
}

// fireEntry dispatches one subscriber; false means the target is gone.
func (b *Bridge) fireEntry(e object.DelegateValue, blk *object.Block) bool {
	target := b.rt.Resolve(e.Target)
	if target == nil {
		return false
	}
	name := b.rt.Names().String(e.Func)
	fn := target.Class().Function(name)
	if fn == nil {
		if binding, ok := b.proxySig[e.Target]; ok && name == proxyThunkName {
			fn = binding.signature
		} else {
			return false
		}
	}
	if err := b.rt.ProcessEvent(target, fn, blk); err != nil {
		b.log.Error("event dispatch failed",
			"class", target.Class().Name(), "function", name, "error", err)
	}
	return true
}

// CreateProxy creates a delegate proxy: a host object whose sentinel
// function forwards any block it is dispatched with to the guest closure
// registered under callbackID. The proxy is outered to the event's owner,
// so it lives exactly as long as the object whose events it listens to and
// is collected with it. Subscribe it with the sentinel name; destroy it
// early to unsubscribe everywhere at once.
func (b *Bridge) CreateProxy(owner handle.Object, sig handle.Function, callbackID uint64) (handle.Object, handle.Code) {
	ownerObj, code := b.resolve(owner)
	if code != handle.OK {
		return 0, code
	}
	sigFn := b.rt.FunctionOf(sig)
	if sigFn == nil {
		return 0, handle.NullArgument
	}
	if b.proxyClass == nil {
		cls, err := b.rt.NewClass("DelegateProxy", nil, object.ClassNative, nil)
		if err != nil {
			return 0, handle.InternalError
		}
		if _, err := cls.AddFunction(proxyThunkName); err != nil {
			return 0, handle.InternalError
		}
		cls.SetDispatch(b.proxyDispatch)
		cls.Link()
		b.proxyClass = cls
	}
	obj, err := b.rt.NewObject(b.proxyClass, ownerObj, "")
	if err != nil {
		return 0, handle.InternalError
	}
	b.proxySig[obj.Handle] = &proxyBinding{callbackID: callbackID, signature: sigFn}
	b.rt.Objects().Listen(obj, func(o *object.Object) {
		delete(b.proxySig, o.Handle)
	})
	return obj.Handle, handle.OK
}

// ProxyThunkName returns the sentinel name proxies subscribe with.
func (b *Bridge) ProxyThunkName() handle.Name {
	return b.rt.Names().Intern(proxyThunkName)
}

func (b *Bridge) proxyDispatch(rt *object.Runtime, obj *object.Object, fn *object.Function, blk *object.Block) bool {
	// Only the sentinel is intercepted; anything else dispatches normally.
	if fn.Name() != proxyThunkName {
		return false
	}
	binding, ok := b.proxySig[obj.Handle]
	if !ok {
		return false
	}
	if b.cbs == nil {
		return true
	}
	idx := b.blocks.Add(blk)
	defer b.blocks.Remove(idx)
	if err := b.cbs.InvokeDelegateCallback(b.ctx, binding.callbackID, handle.Block(idx)); err != nil {
		b.log.Error("delegate callback failed", "callback", binding.callbackID, "error", err)
	}
	return true
}
