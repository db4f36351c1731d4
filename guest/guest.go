// Package guest defines the contract a loaded guest module presents to the
// host: the callback surface the host invokes, and the loader that produces
// module instances the reload coordinator can swap out.
package guest

import (
	"context"

	"github.com/VioletHelianthus/uika/handle"
)

// Callbacks is the host-to-guest surface. The host calls these to drive
// guest-side state paired with host objects; all of them may reenter the
// host API arbitrarily deep before returning.
type Callbacks interface {
	// ConstructInstance creates the guest-side state for a freshly
	// constructed host object of the guest type identified by typeID, and
	// returns the guest's instance identifier for it.
	ConstructInstance(ctx context.Context, typeID uint64, obj handle.Object, isDefault bool) (uint64, error)

	// DropInstance releases the guest-side state identified by instanceID.
	// The destroyed object's handle and guest type identifier ride along so
	// the guest can clear references keyed either way. Dropping an
	// identifier the guest no longer knows is a no-op.
	DropInstance(ctx context.Context, obj handle.Object, typeID uint64, instanceID uint64)

	// InvokeFunction runs the guest body registered under callbackID on
	// the receiver obj, with parameters staged in block.
	InvokeFunction(ctx context.Context, obj handle.Object, callbackID uint64, block handle.Block) error

	// InvokeDelegateCallback runs the guest closure registered under
	// callbackID with parameters staged in block.
	InvokeDelegateCallback(ctx context.Context, callbackID uint64, block handle.Block) error

	// NotifyPinnedDestroyed tells the guest a host object it pinned has
	// been destroyed, so the guest can drop its reference.
	NotifyPinnedDestroyed(ctx context.Context, obj handle.Object)

	// OnShutdown asks the guest to release everything it holds before the
	// module is unloaded. After it returns the host calls nothing else.
	OnShutdown(ctx context.Context) error
}

// Module is one loaded guest instance.
type Module interface {
	// Callbacks returns the module's callback surface. Valid until Close.
	Callbacks() Callbacks

	// Close releases the module. OnShutdown must already have run.
	Close(ctx context.Context) error
}

// Loader produces guest modules from an artifact path. The reload
// coordinator calls it once at startup and again on every reload, with a
// fresh copy of the artifact each time.
type Loader interface {
	Load(ctx context.Context, path string) (Module, error)
}
