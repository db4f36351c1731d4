// Package wasmhost loads guest modules compiled to WebAssembly and wires
// them to the bridge: the capability table is exported as host functions
// over guest memory, and the guest's exported callbacks are adapted to the
// host-side callback contract. Closing a module closes its whole wazero
// runtime, so an unloaded guest is genuinely gone.
package wasmhost

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/VioletHelianthus/uika/bridge"
	"github.com/VioletHelianthus/uika/guest"
	"github.com/VioletHelianthus/uika/handle"
)

// Exported guest entry points.
const (
	exportStart             = "uika_start"
	exportConstructInstance = "uika_construct_instance"
	exportDropInstance      = "uika_drop_instance"
	exportInvokeFunction    = "uika_invoke_function"
	exportInvokeDelegate    = "uika_invoke_delegate_callback"
	exportPinnedDestroyed   = "uika_notify_pinned_destroyed"
	exportOnShutdown        = "uika_on_shutdown"
)

// Loader loads wasm guest modules against one bridge.
type Loader struct {
	br  *bridge.Bridge
	log *slog.Logger
	cfg wazero.RuntimeConfig
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(ld *Loader) { ld.log = l }
}

// WithRuntimeConfig overrides the wazero runtime configuration.
func WithRuntimeConfig(cfg wazero.RuntimeConfig) LoaderOption {
	return func(ld *Loader) { ld.cfg = cfg }
}

// NewLoader creates a loader that exports br's capability table to every
// module it loads.
func NewLoader(br *bridge.Bridge, opts ...LoaderOption) *Loader {
	ld := &Loader{
		br:  br,
		log: br.Runtime().Logger(),
		cfg: wazero.NewRuntimeConfig(),
	}
	for _, o := range opts {
		o(ld)
	}
	return ld
}

// Load compiles and instantiates the wasm artifact at path, checks the
// protocol handshake, and returns the running module. Each module gets its
// own wazero runtime so Close releases everything it allocated.
func (ld *Loader) Load(ctx context.Context, path string) (guest.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	r := wazero.NewRuntimeWithConfig(ctx, ld.cfg)
	ok := false
	defer func() {
		if !ok {
			r.Close(ctx)
		}
	}()

	wasi_snapshot_preview1.MustInstantiate(ctx, r)
	if err := instantiateHostAPI(ctx, r, ld.br); err != nil {
		return nil, fmt.Errorf("export host api: %w", err)
	}

	compiled, err := r.CompileModule(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName("guest").
		WithStartFunctions("_initialize"))
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", path, err)
	}

	wm := &wasmModule{runtime: r, mod: mod, log: ld.log}
	for _, name := range []string{
		exportStart, exportConstructInstance, exportDropInstance,
		exportInvokeFunction, exportInvokeDelegate,
		exportPinnedDestroyed, exportOnShutdown,
	} {
		if mod.ExportedFunction(name) == nil {
			return nil, fmt.Errorf("guest does not export %s", name)
		}
	}

	res, err := mod.ExportedFunction(exportStart).Call(ctx, uint64(bridge.Version))
	if err != nil {
		return nil, fmt.Errorf("guest start: %w", err)
	}
	if len(res) != 1 || uint32(res[0]) != 0 {
		return nil, fmt.Errorf("guest refused protocol version %#x", bridge.Version)
	}

	ok = true
	ld.log.Debug("wasm module instantiated", "path", path)
	return wm, nil
}

// wasmModule is one instantiated guest with its private runtime.
type wasmModule struct {
	runtime wazero.Runtime
	mod     api.Module
	log     *slog.Logger
	closed  bool
}

func (w *wasmModule) Callbacks() guest.Callbacks { return (*wasmCallbacks)(w) }

func (w *wasmModule) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.runtime.Close(ctx)
}

// wasmCallbacks adapts the guest's exported functions to the callback
// contract.
type wasmCallbacks wasmModule

func (w *wasmCallbacks) call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	if w.closed {
		return nil, fmt.Errorf("module closed")
	}
	return w.mod.ExportedFunction(name).Call(ctx, args...)
}

func (w *wasmCallbacks) ConstructInstance(ctx context.Context, typeID uint64, obj handle.Object, isDefault bool) (uint64, error) {
	var def uint64
	if isDefault {
		def = 1
	}
	res, err := w.call(ctx, exportConstructInstance, typeID, uint64(obj), def)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", exportConstructInstance, err)
	}
	if len(res) != 1 {
		return 0, fmt.Errorf("%s: bad result arity %d", exportConstructInstance, len(res))
	}
	return res[0], nil
}

func (w *wasmCallbacks) DropInstance(ctx context.Context, obj handle.Object, typeID uint64, instanceID uint64) {
	if _, err := w.call(ctx, exportDropInstance, uint64(obj), typeID, instanceID); err != nil {
		w.log.Error("guest drop failed", "instance", instanceID, "error", err)
	}
}

func (w *wasmCallbacks) InvokeFunction(ctx context.Context, obj handle.Object, callbackID uint64, block handle.Block) error {
	res, err := w.call(ctx, exportInvokeFunction, uint64(obj), callbackID, uint64(block))
	if err != nil {
		return fmt.Errorf("%s: %w", exportInvokeFunction, err)
	}
	if len(res) == 1 && uint32(res[0]) != 0 {
		return fmt.Errorf("guest function %d failed: %s", callbackID, handle.Code(res[0]))
	}
	return nil
}

func (w *wasmCallbacks) InvokeDelegateCallback(ctx context.Context, callbackID uint64, block handle.Block) error {
	res, err := w.call(ctx, exportInvokeDelegate, callbackID, uint64(block))
	if err != nil {
		return fmt.Errorf("%s: %w", exportInvokeDelegate, err)
	}
	if len(res) == 1 && uint32(res[0]) != 0 {
		return fmt.Errorf("guest delegate %d failed: %s", callbackID, handle.Code(res[0]))
	}
	return nil
}

func (w *wasmCallbacks) NotifyPinnedDestroyed(ctx context.Context, obj handle.Object) {
	if _, err := w.call(ctx, exportPinnedDestroyed, uint64(obj)); err != nil {
		w.log.Error("pinned-destroyed notify failed", "error", err)
	}
}

func (w *wasmCallbacks) OnShutdown(ctx context.Context) error {
	res, err := w.call(ctx, exportOnShutdown)
	if err != nil {
		return fmt.Errorf("%s: %w", exportOnShutdown, err)
	}
	if len(res) == 1 && uint32(res[0]) != 0 {
		return fmt.Errorf("guest shutdown reported %s", handle.Code(res[0]))
	}
	return nil
}
