package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vonsim/vonsim-core/vonsim"
)

var (
	debugLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugBoxStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
)

func newDebugCmd(cfgPath *string, debug *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug [source.vonsim]",
		Short: "Run a program interactively, feeding raw keystrokes to INT 6 and F10",
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

			fd := int(os.Stdin.Fd())
			oldState, err := term.MakeRaw(fd)
			if err != nil {
				return fmt.Errorf("debug: stdin is not a terminal: %w", err)
			}
			defer term.Restore(fd, oldState)

			keys := make(chan byte, 16)
			go readKeys(fd, keys)

			render := func() { fmt.Print(renderDebugView(sim)) }
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case ev, ok := <-events:
					if !ok {
						render()
						term.Restore(fd, oldState)
						fmt.Println("\r\nhalted")
						return sim.Wait()
					}
					_ = ev
				case b := <-keys:
					// F10 is not a real byte; ctrl-F is the terminal-friendly
					// stand-in for F10 used to fire the button interrupt.
					if b == 0x06 {
						sim.F10.Press()
						continue
					}
					if b == 0x03 { // ctrl-C quits the session
						term.Restore(fd, oldState)
						fmt.Println("\r\nquit")
						return nil
					}
					sim.Keyboard.Feed(b)
					if resumer.Pending() {
						resumer.Feed(b)
					}
				case <-ticker.C:
					sim.Clock.Tick()
					render()
				}
			}
		},
	}
	return cmd
}

func readKeys(fd int, out chan<- byte) {
	buf := make([]byte, 1)
	for {
		n, err := os.NewFile(uintptr(fd), "stdin").Read(buf)
		if err != nil || n == 0 {
			return
		}
		out <- buf[0]
	}
}

func renderDebugView(sim *vonsim.Simulator) string {
	st := sim.GetComputerState()
	regs := fmt.Sprintf(
		"AX=%04Xh BX=%04Xh CX=%04Xh DX=%04Xh\r\nSP=%04Xh IP=%04Xh",
		st.Registers.AX, st.Registers.BX, st.Registers.CX, st.Registers.DX,
		st.Registers.SP, st.Registers.IP,
	)
	flags := fmt.Sprintf("CF=%v ZF=%v SF=%v OF=%v IF=%v",
		st.Flags.CF, st.Flags.ZF, st.Flags.SF, st.Flags.OF, st.Flags.IF)

	body := debugLabelStyle.Render("registers") + "\r\n" + regs + "\r\n\r\n" +
		debugLabelStyle.Render("flags") + "\r\n" + flags + "\r\n\r\n" +
		debugLabelStyle.Render("screen") + "\r\n" + st.Devices.Screen

	return "\033[H\033[2J" + debugBoxStyle.Render(body) + "\r\n"
}
