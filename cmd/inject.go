package cmd

import (
	"fmt"
	"time"

	"github.com/bnema/wayfold/internal/input"
	"github.com/bnema/wayfold/internal/logger"
	"github.com/spf13/cobra"
)

var (
	injectDevice string
	injectSettle time.Duration
)

var injectCmd = &cobra.Command{
	Use:   "inject <step>...",
	Short: "Feed synthetic input through uinput",
	Long: `Create a virtual pointer and keyboard with uinput and replay the given steps.
A compositor reading evdev picks the devices up like real hardware.

Steps:
  move:DX,DY                  relative motion
  press:BUTTON release:BUTTON click:BUTTON   left, right or middle
  scroll:N hscroll:N          wheel clicks
  key:NAME                    a-z, 0-9, f1-f12, enter, esc, leftctrl... or a raw code
  wait:DURATION               e.g. wait:100ms`,
	Example: `  wayfold inject move:200,100 click:left
  wayfold inject "key:h key:i" wait:50ms key:enter`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := input.ParseSteps(args)
		if err != nil {
			return err
		}

		injector, err := input.NewInjector(injectDevice)
		if err != nil {
			return fmt.Errorf("%w (is the uinput module loaded and writable?)", err)
		}
		defer injector.Close()

		// Let readers notice the new devices before the first event.
		time.Sleep(injectSettle)

		if err := injector.Run(steps); err != nil {
			return err
		}
		logger.Info("Injected input", "steps", len(steps))
		return nil
	},
}

func init() {
	injectCmd.Flags().StringVar(&injectDevice, "device", "/dev/uinput", "uinput device node")
	injectCmd.Flags().DurationVar(&injectSettle, "settle", 500*time.Millisecond, "Delay between creating the devices and the first step")
	rootCmd.AddCommand(injectCmd)
}
