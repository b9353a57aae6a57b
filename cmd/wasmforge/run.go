package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmforge/wasmforge/internal/interp"
)

const mainExport = "_main"

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <module.wasm>",
		Short: "Instantiate a module and invoke its _main export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, addr, err := loadAndInstantiate(args[0])
			if err != nil {
				return err
			}
			inst, _ := h.Module(addr)
			export, ok := inst.FindExport(mainExport)
			if !ok {
				return fmt.Errorf("%s does not export %q", args[0], mainExport)
			}

			th := interp.NewThread()
			log.Debugf("invoking %s", mainExport)
			results, trap := th.Invoke(h, export.Value.Func, nil)
			if trap != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trap: %s\n", trap.Message)
				return fmt.Errorf("%s trapped", mainExport)
			}
			for _, r := range results {
				fmt.Fprintln(cmd.OutOrStdout(), r.String())
			}
			return nil
		},
	}
}
