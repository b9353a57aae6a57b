package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmforge/wasmforge/internal/host"
	"github.com/wasmforge/wasmforge/internal/interp"
	"github.com/wasmforge/wasmforge/internal/text"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

func newWastrunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wastrun <script.wast>",
		Short: "Run a textual assertion script and report success/failure per command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			script, err := text.ParseScript(string(src))
			if err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			ok := runScript(cmd, script)
			if !ok {
				return fmt.Errorf("one or more assertions failed")
			}
			return nil
		},
	}
}

// runScript executes every command in order against a single Host (modules
// accumulate, the most recently instantiated one is "current" and is what
// every invoke/get action resolves against, since actions name no module),
// and
// prints one "succeeded"/"failed" line per assertion. It returns whether
// every assertion in the script succeeded.
func runScript(cmd *cobra.Command, script *text.Script) bool {
	h := host.New()
	synthesizeEnv(h)
	th := interp.NewThread()
	out := cmd.OutOrStdout()

	var current host.ModuleAddr
	allOK := true

	for i, c := range script.Commands {
		switch v := c.(type) {
		case text.ModuleCommand:
			name := v.Name
			if name == "" {
				name = "current"
			}
			addr, werr := h.Instantiate(name, v.Module)
			if werr != nil {
				fmt.Fprintf(out, "command %d: module failed to instantiate: %s\n", i, werr)
				log.Warnf("instantiate failed: %s", werr)
				allOK = false
				continue
			}
			current = addr

		case text.AssertReturn:
			ok, detail := runAssertReturn(h, th, current, v)
			printResult(out, i, ok, detail)
			allOK = allOK && ok

		case text.AssertTrap:
			ok, detail := runAssertTrap(h, th, current, v)
			printResult(out, i, ok, detail)
			allOK = allOK && ok
		}
	}
	return allOK
}

func printResult(out io.Writer, i int, ok bool, detail string) {
	status := "succeeded"
	if !ok {
		status = "failed"
	}
	if detail != "" {
		fmt.Fprintf(out, "command %d: %s (%s)\n", i, status, detail)
	} else {
		fmt.Fprintf(out, "command %d: %s\n", i, status)
	}
}

func invokeAction(h *host.Host, th *interp.Thread, mod host.ModuleAddr, a text.Action) ([]wasm.Value, *host.Trap, error) {
	inst, ok := h.Module(mod)
	if !ok {
		return nil, nil, fmt.Errorf("no current module")
	}
	export, ok := inst.FindExport(a.Name)
	if !ok {
		return nil, nil, fmt.Errorf("export %q not found", a.Name)
	}
	switch a.Kind {
	case text.ActionInvoke:
		results, trap := th.Invoke(h, export.Value.Func, a.Args)
		return results, trap, nil
	default:
		return nil, nil, fmt.Errorf("get actions are not executable against a live module")
	}
}

func runAssertReturn(h *host.Host, th *interp.Thread, mod host.ModuleAddr, ar text.AssertReturn) (bool, string) {
	results, trap, err := invokeAction(h, th, mod, ar.Action)
	if err != nil {
		return false, err.Error()
	}
	if trap != nil {
		return false, fmt.Sprintf("trapped: %s", trap.Message)
	}
	if ar.Expected == nil {
		if len(results) != 0 {
			return false, fmt.Sprintf("expected no result, got %d", len(results))
		}
		return true, ""
	}
	if len(results) != 1 {
		return false, fmt.Sprintf("expected 1 result, got %d", len(results))
	}
	if !valuesEqual(results[0], *ar.Expected) {
		return false, fmt.Sprintf("expected %s, got %s", ar.Expected.String(), results[0].String())
	}
	return true, ""
}

func runAssertTrap(h *host.Host, th *interp.Thread, mod host.ModuleAddr, at text.AssertTrap) (bool, string) {
	_, trap, err := invokeAction(h, th, mod, at.Action)
	if err != nil {
		return false, err.Error()
	}
	if trap == nil {
		return false, "expected a trap, execution succeeded"
	}
	if at.Message != "" && trap.Message != at.Message {
		return false, fmt.Sprintf("expected trap %q, got %q", at.Message, trap.Message)
	}
	return true, ""
}

// valuesEqual compares two Values by tag and exact bit pattern, so NaN
// payloads must match rather than merely both being "some NaN" — the same
// rule assert_return uses for floats (spec.md §8).
func valuesEqual(a, b wasm.Value) bool {
	return a.Type() == b.Type() && a.Bits() == b.Bits()
}
