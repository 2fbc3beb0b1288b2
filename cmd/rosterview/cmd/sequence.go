package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/wesm/rosterview/internal/sequence"
)

var seqDelay time.Duration

var sequenceCmd = &cobra.Command{
	Use:     "sequence [numbers...]",
	Aliases: []string{"seq"},
	Short:   "Print a list of numbers with a delay between values",
	Long: `Parse a comma-separated list of numbers and print them one at a time,
waiting the configured delay between values. The delay is clamped to
100ms-5s. Press Ctrl+C to cancel a running sequence.

Arguments are joined with commas, so both forms below work. With no
arguments on a terminal you are prompted for the list.

Examples:
  rosterview sequence "1, 2.5, -3"
  rosterview sequence 1 2.5 -3 --delay 250ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		delay := seqDelay
		if !cmd.Flags().Changed("delay") {
			delay = time.Duration(cfg.Sequence.DelayMS) * time.Millisecond
		}

		input := strings.Join(args, ",")
		if len(args) == 0 {
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				return fmt.Errorf("no numbers given")
			}
			var err error
			input, delay, err = promptSequence(ctx, delay)
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(cmd.OutOrStdout(), sequence.CancelledMarker)
				return nil
			}
			if err != nil {
				return err
			}
		}

		numbers, err := sequence.Parse(input)
		if err != nil {
			return err
		}
		seq := sequence.New(numbers, delay)
		logger.Debug("sequence started", "count", seq.Len(), "delay", seq.Delay())

		if cancelled := runSequence(ctx, cmd.OutOrStdout(), seq); cancelled {
			return ctx.Err()
		}
		return nil
	},
}

// runSequence prints each event on its own line with its progress and
// reports whether the run was cancelled.
func runSequence(ctx context.Context, w io.Writer, seq *sequence.Sequence) bool {
	for ev := range seq.Stream(ctx) {
		switch ev.Kind {
		case sequence.EventValue:
			fmt.Fprintf(w, "%s\t[%d/%d %3d%%]\n", ev, ev.Index, ev.Total, ev.Percent())
		case sequence.EventCancelled:
			fmt.Fprintln(w, ev)
			return true
		default:
			fmt.Fprintln(w, ev)
		}
	}
	return false
}

// promptSequence asks for the numbers and the delay interactively.
func promptSequence(ctx context.Context, delay time.Duration) (string, time.Duration, error) {
	var input string
	delayMS := strconv.FormatInt(sequence.ClampDelay(delay).Milliseconds(), 10)

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Numbers").
			Description("Comma-separated, e.g. 1, 2.5, -3").
			Value(&input).
			Validate(func(s string) error {
				_, err := sequence.Parse(s)
				return err
			}),
		huh.NewInput().
			Title("Delay (ms)").
			Description("Between 100 and 5000").
			Value(&delayMS).
			Validate(func(s string) error {
				if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
					return fmt.Errorf("not a whole number of milliseconds")
				}
				return nil
			}),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return "", 0, err
	}
	ms, _ := strconv.Atoi(strings.TrimSpace(delayMS))
	return input, time.Duration(ms) * time.Millisecond, nil
}

func init() {
	rootCmd.AddCommand(sequenceCmd)
	sequenceCmd.Flags().DurationVarP(&seqDelay, "delay", "d", sequence.DefaultDelay, "delay between values (default from [sequence] delay_ms)")
}
