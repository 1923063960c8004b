package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vonsim/vonsim-core/link"
	"github.com/vonsim/vonsim-core/vonsim"
)

func newAssembleCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "assemble [source.vonsim]",
		Short: "Assemble a source file and report its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			prog, errs := vonsim.Compile(src)
			if len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintln(os.Stderr, e.Error())
				}
				return fmt.Errorf("assemble: %d error(s)", len(errs))
			}
			fmt.Printf("assembled: %d instructions, %d code bytes, %d data bytes\n",
				len(prog.Instructions), len(prog.CodeBytes), len(prog.DataBytes))
			if outPath != "" {
				return writeImage(outPath, prog)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the raw memory image to this path")
	return cmd
}

// writeImage dumps the full 16 KiB memory image (code and data merged,
// unoccupied addresses left at zero) to path, for feeding into an
// external loader or inspecting with a hex dump tool.
func writeImage(path string, prog *link.Program) error {
	image := make([]byte, link.MemoryHigh+1)
	for addr, b := range prog.CodeBytes {
		image[addr] = b
	}
	for addr, b := range prog.DataBytes {
		image[addr] = b
	}
	return os.WriteFile(path, image, 0o644)
}
