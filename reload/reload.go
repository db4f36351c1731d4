// Package reload coordinates guest module hot swaps: tearing down the old
// module, staging a fresh copy of the artifact, loading it, and re-pairing
// every live host object with new guest state. Host object identity is
// never disturbed; a handle taken before a reload resolves to the same
// object after it.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/VioletHelianthus/uika/bridge"
	"github.com/VioletHelianthus/uika/guest"
)

// Coordinator drives the load/reload/shutdown lifecycle of one guest
// module. It is confined to the same goroutine as the bridge.
type Coordinator struct {
	br     *bridge.Bridge
	loader guest.Loader
	log    *slog.Logger

	// sourcePath is the artifact the build toolchain overwrites.
	sourcePath string
	// stageDir receives per-generation copies, so the source stays
	// writable while a copy is loaded.
	stageDir string

	module     guest.Module
	stagedPath string
	generation int
	degraded   bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(co *Coordinator) { co.log = l }
}

// WithStageDir sets where staged artifact copies go. Defaults to the
// source artifact's directory.
func WithStageDir(dir string) Option {
	return func(co *Coordinator) { co.stageDir = dir }
}

// New creates a coordinator for the artifact at sourcePath.
func New(br *bridge.Bridge, loader guest.Loader, sourcePath string, opts ...Option) *Coordinator {
	co := &Coordinator{
		br:         br,
		loader:     loader,
		log:        br.Runtime().Logger(),
		sourcePath: sourcePath,
		stageDir:   filepath.Dir(sourcePath),
	}
	for _, o := range opts {
		o(co)
	}
	return co
}

// Degraded reports whether the last reload failed after teardown, leaving
// the host running with no module bound. Reload can be retried.
func (co *Coordinator) Degraded() bool { return co.degraded }

// Generation returns how many module loads have succeeded.
func (co *Coordinator) Generation() int { return co.generation }

// Load performs the initial module load, directly from the source path.
func (co *Coordinator) Load(ctx context.Context) error {
	if co.module != nil {
		return fmt.Errorf("module already loaded")
	}
	mod, err := co.loader.Load(ctx, co.sourcePath)
	if err != nil {
		return fmt.Errorf("load %s: %w", co.sourcePath, err)
	}
	co.module = mod
	co.generation++
	co.br.Bind(ctx, mod.Callbacks())
	// Startup runs before the bind, so anything the module constructed
	// while declaring itself pairs now.
	if err := co.br.Reconstruct(); err != nil {
		co.log.Error("instance reconstruction incomplete", "error", err)
	}
	co.log.Info("guest module loaded",
		"path", co.sourcePath, "generation", co.generation)
	return nil
}

// Reload swaps the running module for the current artifact.
//
// The artifact is checked before anything is mutated: a missing source
// fails the reload with the old module still running. After teardown
// begins, a failure leaves the host degraded (no module bound, host
// objects intact) but retryable: the next Reload picks up from the load
// step.
func (co *Coordinator) Reload(ctx context.Context) error {
	if _, err := os.Stat(co.sourcePath); err != nil {
		return fmt.Errorf("artifact check: %w", err)
	}

	if co.module != nil {
		if err := co.br.Teardown(); err != nil {
			co.log.Warn("guest teardown reported error", "error", err)
		}
		co.br.Unbind()
		if err := co.module.Close(ctx); err != nil {
			co.log.Warn("module close reported error", "error", err)
		}
		co.module = nil
	}
	co.degraded = true

	staged, err := co.stage()
	if err != nil {
		return fmt.Errorf("stage artifact: %w", err)
	}
	mod, err := co.loader.Load(ctx, staged)
	if err != nil {
		return fmt.Errorf("load %s: %w", staged, err)
	}
	// The previous generation's copy is no longer mapped; drop it.
	if co.stagedPath != "" && co.stagedPath != staged {
		if err := os.Remove(co.stagedPath); err != nil && !os.IsNotExist(err) {
			co.log.Warn("stale staged copy not removed", "path", co.stagedPath, "error", err)
		}
	}
	co.stagedPath = staged
	co.module = mod
	co.generation++
	co.br.Bind(ctx, mod.Callbacks())
	if err := co.br.Reconstruct(); err != nil {
		co.log.Error("instance reconstruction incomplete", "error", err)
	}
	co.degraded = false
	co.log.Info("guest module reloaded",
		"path", staged, "generation", co.generation)
	return nil
}

// Shutdown tears the module down for good.
func (co *Coordinator) Shutdown(ctx context.Context) error {
	if co.module == nil {
		return nil
	}
	if err := co.br.Teardown(); err != nil {
		co.log.Warn("guest teardown reported error", "error", err)
	}
	co.br.Unbind()
	err := co.module.Close(ctx)
	co.module = nil
	if err != nil {
		return fmt.Errorf("close module: %w", err)
	}
	return nil
}

// stage copies the artifact to a per-generation path so the toolchain can
// overwrite the source while the copy stays loaded.
func (co *Coordinator) stage() (string, error) {
	data, err := os.ReadFile(co.sourcePath)
	if err != nil {
		return "", err
	}
	base := filepath.Base(co.sourcePath)
	ext := filepath.Ext(base)
	name := fmt.Sprintf("%s_hot_%d%s", base[:len(base)-len(ext)], co.generation, ext)
	staged := filepath.Join(co.stageDir, name)
	if err := os.WriteFile(staged, data, 0o644); err != nil {
		return "", err
	}
	return staged, nil
}
