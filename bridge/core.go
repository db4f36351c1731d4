package bridge

import (
	"log/slog"

	"github.com/VioletHelianthus/uika/handle"
)

// Version is the capability-table protocol version. A guest built against a
// different major version must refuse to start.
const Version uint32 = 0x0002_0000

// InternName interns s and returns its handle. Empty interns to null.
func (b *Bridge) InternName(s string) handle.Name {
	return b.rt.Names().Intern(s)
}

// NameString resolves a name handle; "" for null or unknown handles.
func (b *Bridge) NameString(h handle.Name) string {
	return b.rt.Names().String(h)
}

// FindName looks a string up without interning. Null if never interned.
func (b *Bridge) FindName(s string) handle.Name {
	return b.rt.Names().Lookup(s)
}

// NewObject constructs an instance of the class named by cls, owned by
// outer (which may be null), with the given instance name.
func (b *Bridge) NewObject(cls handle.Class, outer handle.Object, name string) (handle.Object, handle.Code) {
	class := b.rt.ClassOf(cls)
	if class == nil {
		return 0, handle.NullArgument
	}
	parent := b.rt.Resolve(outer)
	if !outer.IsNull() && parent == nil {
		return 0, handle.ObjectDestroyed
	}
	obj, err := b.rt.NewObject(class, parent, name)
	if err != nil {
		b.log.Error("object construction failed", "class", class.Name(), "error", err)
		return 0, handle.InvalidOperation
	}
	return obj.Handle, handle.OK
}

// DestroyObject tears the referenced object down. Stale and null handles
// are a no-op success: double-destroy is not an error.
func (b *Bridge) DestroyObject(h handle.Object) handle.Code {
	obj := b.rt.Resolve(h)
	if obj == nil {
		return handle.OK
	}
	b.rt.Objects().Destroy(obj)
	return handle.OK
}

// IsValid reports whether h names a live object.
func (b *Bridge) IsValid(h handle.Object) bool {
	return b.rt.Resolve(h) != nil
}

// GetClass returns the class of the referenced object.
func (b *Bridge) GetClass(h handle.Object) (handle.Class, handle.Code) {
	obj, code := b.resolve(h)
	if code != handle.OK {
		return 0, code
	}
	return b.rt.ClassHandle(obj.Class()), handle.OK
}

// GetObjectName returns the instance name of the referenced object.
func (b *Bridge) GetObjectName(h handle.Object) (handle.Name, handle.Code) {
	obj, code := b.resolve(h)
	if code != handle.OK {
		return 0, code
	}
	return obj.Name(), handle.OK
}

// GetOuter returns the owner of the referenced object, or null for
// top-level objects.
func (b *Bridge) GetOuter(h handle.Object) (handle.Object, handle.Code) {
	obj, code := b.resolve(h)
	if code != handle.OK {
		return 0, code
	}
	if obj.Outer() == nil {
		return 0, handle.OK
	}
	return obj.Outer().Handle, handle.OK
}

// WeakFromObject derives a weak handle. Null in, null out.
func (b *Bridge) WeakFromObject(h handle.Object) handle.Weak {
	return b.rt.Objects().Weak(h)
}

// ObjectFromWeak upgrades a weak handle; null when the referent is gone.
func (b *Bridge) ObjectFromWeak(w handle.Weak) handle.Object {
	return b.rt.Objects().Pin(w)
}

// Collect runs a garbage-collection pass and reports how many objects were
// destroyed.
func (b *Bridge) Collect() int {
	n := b.rt.Objects().Collect()
	if n > 0 {
		b.log.Debug("collected objects", "count", n)
	}
	return n
}

// Guest log severities, mapped onto the host's structured levels.
const (
	LogTrace uint32 = iota
	LogDebug
	LogInfo
	LogWarn
	LogError
)

// Log forwards a guest log line into the host's structured log.
func (b *Bridge) Log(level uint32, msg string) {
	var lv slog.Level
	switch level {
	case LogTrace, LogDebug:
		lv = slog.LevelDebug
	case LogInfo:
		lv = slog.LevelInfo
	case LogWarn:
		lv = slog.LevelWarn
	default:
		lv = slog.LevelError
	}
	b.log.Log(b.ctx, lv, msg, "origin", "guest")
}
