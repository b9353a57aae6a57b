package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmforge/wasmforge/internal/binary"
	"github.com/wasmforge/wasmforge/internal/host"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <module.wasm>",
		Short: "Instantiate a module against the synthetic env module and report its linkage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, addr, err := loadAndInstantiate(args[0])
			if err != nil {
				return err
			}
			inst, _ := h.Module(addr)
			log.Debugf("instantiated %s at address 0x%08X", args[0], uint32(addr))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Exports:")
			tw := tablewriter.NewWriter(out)
			tw.SetHeader([]string{"name", "kind"})
			for _, e := range inst.Exports {
				tw.Append([]string{e.Name, e.Value.Kind.String()})
			}
			tw.Render()
			return nil
		},
	}
}

// loadAndInstantiate decodes the module at path, synthesizes the shared env
// module and links the decoded module against it.
func loadAndInstantiate(path string) (*host.Host, host.ModuleAddr, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := binary.Decode(data)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	h := host.New()
	synthesizeEnv(h)
	addr, werr := h.Instantiate("current", m)
	if werr != nil {
		return nil, 0, fmt.Errorf("instantiating %s: %w", path, werr)
	}
	return h, addr, nil
}
