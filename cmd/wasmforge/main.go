// Command wasmforge is the CLI front end for the engine (spec.md §6):
// `dump` inspects a binary module's decoded sections, `init` instantiates
// one against a synthetic `env` host module and reports its linkage,
// `run` does the same and invokes its `_main` export, and `wastrun` drives
// a textual assertion script end to end.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "wasmforge",
		Short:         "A WebAssembly v1 interpreter and textual test harness",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newDumpCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newWastrunCmd())
	return root
}
