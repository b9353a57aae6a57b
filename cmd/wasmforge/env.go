package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/wasmforge/wasmforge/internal/host"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// synthesizeEnv builds the `env` host module that `init` and `run` link
// every loaded module against: a `print(i32, i32)` debug function that logs
// its arguments, and a 256-page fixed-size memory (spec.md §6, `init`).
func synthesizeEnv(h *host.Host) host.ModuleAddr {
	printType := wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}}
	b := host.NewModuleBuilder("env").
		WithFunc("print", printType, func(h *host.Host, inv host.Invoker, args []wasm.Value) ([]wasm.Value, *host.Trap) {
			a, _ := args[0].I32()
			b, _ := args[1].I32()
			fmt.Printf("print(%d, %d)\n", a, b)
			log.Debugf("env.print called with (%d, %d)", a, b)
			return nil, nil
		}).
		WithMemory("memory", 256, 256, true)
	return h.Synthesize(b)
}
