package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmforge/wasmforge/internal/binary"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <module.wasm>",
		Short: "Decode a binary module and print its sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			m, err := binary.Decode(data)
			if err != nil {
				return fmt.Errorf("decoding %s: %w", args[0], err)
			}
			log.Debugf("decoded %d bytes from %s", len(data), args[0])
			dumpModule(cmd, m)
			return nil
		},
	}
}

func dumpModule(cmd *cobra.Command, m *wasm.Module) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Types:")
	tw := tablewriter.NewWriter(out)
	tw.SetHeader([]string{"#", "signature"})
	for i, t := range m.Types {
		tw.Append([]string{fmt.Sprint(i), t.String()})
	}
	tw.Render()

	fmt.Fprintln(out, "Imports:")
	tw = tablewriter.NewWriter(out)
	tw.SetHeader([]string{"module", "name", "kind"})
	for _, imp := range m.Imports {
		tw.Append([]string{imp.Module, imp.Name, imp.Kind.String()})
	}
	tw.Render()

	fmt.Fprintln(out, "Functions:")
	tw = tablewriter.NewWriter(out)
	tw.SetHeader([]string{"#", "type"})
	for i, typeIdx := range m.Funcs {
		sig := "?"
		if int(typeIdx) < len(m.Types) {
			sig = m.Types[typeIdx].String()
		}
		tw.Append([]string{fmt.Sprint(i), sig})
	}
	tw.Render()

	fmt.Fprintln(out, "Exports:")
	tw = tablewriter.NewWriter(out)
	tw.SetHeader([]string{"name", "kind", "index"})
	for _, exp := range m.Exports {
		tw.Append([]string{exp.Name, exp.Kind.String(), fmt.Sprint(exp.Index)})
	}
	tw.Render()

	if len(m.Data) > 0 {
		fmt.Fprintln(out, "Data segments:")
		tw = tablewriter.NewWriter(out)
		tw.SetHeader([]string{"memory", "bytes"})
		for _, seg := range m.Data {
			tw.Append([]string{fmt.Sprint(seg.MemIndex), fmt.Sprint(len(seg.Init))})
		}
		tw.Render()
	}
}
