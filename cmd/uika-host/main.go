// Command uika-host runs a WebAssembly guest module against the host
// object runtime. It keeps the guest hot-reloadable: overwrite the wasm
// artifact and issue the reload command to swap it in place, with every
// live object keeping its identity.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/VioletHelianthus/uika/bridge"
	"github.com/VioletHelianthus/uika/object"
	"github.com/VioletHelianthus/uika/reload"
	"github.com/VioletHelianthus/uika/wasmhost"
)

func main() {
	modulePath := flag.String("module", "", "path to the guest wasm artifact")
	stageDir := flag.String("stage-dir", "", "directory for staged reload copies (default: artifact directory)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()
	if *modulePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -module <guest.wasm>\n", os.Args[0])
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(context.Background(), log, *modulePath, *stageDir); err != nil {
		log.Error("host exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, modulePath, stageDir string) error {
	rt := object.NewRuntime(object.WithLogger(log))
	br := bridge.New(rt, bridge.WithLogger(log))
	loader := wasmhost.NewLoader(br, wasmhost.WithLogger(log))

	opts := []reload.Option{reload.WithLogger(log)}
	if stageDir != "" {
		opts = append(opts, reload.WithStageDir(stageDir))
	}
	co := reload.New(br, loader, modulePath, opts...)

	if err := co.Load(ctx); err != nil {
		return err
	}
	defer co.Shutdown(ctx)

	fmt.Println("commands: reload, gc, status, quit")
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "reload":
			if err := co.Reload(ctx); err != nil {
				log.Error("reload failed", "error", err, "degraded", co.Degraded())
			}
		case "gc":
			fmt.Printf("collected %d objects\n", br.Collect())
		case "status":
			fmt.Printf("generation=%d degraded=%v\n", co.Generation(), co.Degraded())
		case "quit", "exit":
			return nil
		case "":
		default:
			fmt.Println("commands: reload, gc, status, quit")
		}
	}
	return sc.Err()
}
