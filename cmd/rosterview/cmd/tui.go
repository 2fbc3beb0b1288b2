package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/wesm/rosterview/internal/fileutil"
	"github.com/wesm/rosterview/internal/tui"
	"github.com/wesm/rosterview/internal/view"
)

var (
	tuiTheme    string
	tuiPageSize int
	tuiMode     string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	Long: `Open an interactive terminal UI for browsing the roster.

Navigation:
  ↑/k, ↓/j    Move up/down
  PgUp/PgDn   Scroll a screen
  ←/h, →/l    Previous/next page (paged mode)
  g, G        First/last page
  v           Switch between paged and cumulative pagination
  +, -        Grow/shrink the page size
  /           Search name, email and status
  1-6, 0      Sort by column (again to reverse), 0 for unsorted
  Space       Toggle selection
  a           Select all visible
  x           Clear selection
  r           Reload
  t           Toggle dark/light theme
  Tab         Switch to the sequence runner
  ?           Help
  q           Quit

Logs are written to rosterview.log in the home directory so they do not
disturb the screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, closeProvider, err := openProvider(cfg)
		if err != nil {
			return err
		}
		defer closeProvider()

		vopts, err := viewOptions(cfg)
		if err != nil {
			return err
		}
		if tuiPageSize > 0 {
			vopts.PageSize = tuiPageSize
		}
		if tuiMode != "" {
			m, ok := view.ParseMode(tuiMode)
			if !ok {
				return fmt.Errorf("invalid --mode %q: want paged or cumulative", tuiMode)
			}
			vopts.Mode = m
		}

		logFile, err := fileutil.AppendPrivate(cfg.LogPath())
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
		tuiLogger := newLogger(logFile, verbose)

		model := tui.New(provider, tui.Options{
			PageSize:      vopts.PageSize,
			Mode:          vopts.Mode,
			SortKey:       vopts.SortKey,
			Direction:     vopts.Direction,
			SequenceDelay: time.Duration(cfg.Sequence.DelayMS) * time.Millisecond,
			Theme:         tuiTheme,
			Version:       Version,
			Logger:        tuiLogger,
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

		if _, err := p.Run(); err != nil {
			if ctxErr := cmd.Context().Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringVar(&tuiTheme, "theme", tui.ThemeAuto, "color theme: auto, dark or light")
	tuiCmd.Flags().IntVar(&tuiPageSize, "page-size", 0, "records per page (default from [view] page_size)")
	tuiCmd.Flags().StringVar(&tuiMode, "mode", "", "pagination mode: paged or cumulative")
}
