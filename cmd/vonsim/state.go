package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vonsim/vonsim-core/event"
	"github.com/vonsim/vonsim-core/vonsim"
)

func newStateCmd(cfgPath *string, debug *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state [source.vonsim]",
		Short: "Assemble, run to completion, and print the final machine state as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*cfgPath, *debug)

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

			sim := vonsim.NewSimulator(cfg.SimulatorConfig())
			sim.LoadProgram(prog)

			events, resumer := sim.StartCPU()
			go func() {
				for ev := range events {
					if ev.Kind == event.KindConsoleReadRequest {
						resumer.Feed(0)
						resumer.Pending() // drop the read signal Feed has just answered
					}
				}
			}()
			if err := sim.Wait(); err != nil {
				return err
			}

			return printJSON(sim.GetComputerState())
		},
	}
	return cmd
}
