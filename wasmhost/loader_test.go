package wasmhost

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VioletHelianthus/uika/bridge"
	"github.com/VioletHelianthus/uika/object"
)

func newLoader(t *testing.T) *Loader {
	t.Helper()
	return NewLoader(bridge.New(object.NewRuntime()))
}

func TestLoadMissingArtifact(t *testing.T) {
	ld := newLoader(t)
	_, err := ld.Load(context.Background(), filepath.Join(t.TempDir(), "absent.wasm"))
	if err == nil {
		t.Fatal("missing artifact accepted")
	}
	if !strings.Contains(err.Error(), "read artifact") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadRejectsInvalidModule(t *testing.T) {
	ld := newLoader(t)
	path := filepath.Join(t.TempDir(), "bad.wasm")
	if err := os.WriteFile(path, []byte("not wasm at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ld.Load(context.Background(), path); err == nil {
		t.Fatal("invalid module accepted")
	}
}

func TestLoadRejectsModuleWithoutExports(t *testing.T) {
	ld := newLoader(t)
	path := filepath.Join(t.TempDir(), "empty.wasm")
	// A minimal valid module: magic + version, no sections. It compiles
	// but exports none of the required entry points.
	if err := os.WriteFile(path, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ld.Load(context.Background(), path)
	if err == nil {
		t.Fatal("export-less module accepted")
	}
	if !strings.Contains(err.Error(), "uika_start") {
		t.Errorf("error = %v", err)
	}
}
