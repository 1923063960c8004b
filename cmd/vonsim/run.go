package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vonsim/vonsim-core/event"
	"github.com/vonsim/vonsim-core/internal/logging"
	"github.com/vonsim/vonsim-core/vonsim"
)

func newRunCmd(cfgPath *string, debug *bool) *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "run [source.vonsim]",
		Short: "Assemble and run a program headlessly to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*cfgPath, *debug)
			log := logging.Default(cfg.Debug)

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

			for ev := range events {
				if trace {
					log.Info("event", "source", ev.Source.String(), "kind", ev.Kind)
				}
				if ev.Kind == event.KindFatalError {
					log.Error("fault", "message", ev.Message)
				}
				// A headless run never gets a real keystroke; feed 0 for
				// any INT 6 read so a program that blocks on console
				// input does not hang the run forever.
				if ev.Kind == event.KindConsoleReadRequest {
					resumer.Feed(0)
					resumer.Pending() // drop the read signal Feed has just answered
				}
			}
			if err := sim.Wait(); err != nil {
				return err
			}

			state := sim.GetComputerState()
			fmt.Printf("halted=%v fault=%q\n", state.Halted, state.Fault)
			fmt.Printf("AX=%04Xh BX=%04Xh CX=%04Xh DX=%04Xh SP=%04Xh IP=%04Xh\n",
				state.Registers.AX, state.Registers.BX, state.Registers.CX,
				state.Registers.DX, state.Registers.SP, state.Registers.IP)
			if state.Devices.Screen != "" {
				fmt.Printf("screen: %s\n", state.Devices.Screen)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "log every simulator event")
	return cmd
}
