package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/wesm/rosterview/internal/api"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/rosterfile"
	"github.com/wesm/rosterview/internal/textutil"
	"github.com/wesm/rosterview/internal/view"
)

var (
	listSearch   string
	listSort     string
	listDesc     bool
	listPage     int
	listPageSize int
	listMode     string
	listGrow     int
	listJSON     bool
	listPlain    bool
	listExport   string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one view of the roster",
	Long: `Load the roster and print the visible slice after applying search, sort
and pagination.

In cumulative mode --grow reveals that many extra pages, the way scrolling
to the end of the list does in the TUI.

Examples:
  rosterview list --search pending --sort balance --desc
  rosterview list --page 3 --page-size 20
  rosterview list --mode cumulative --grow 2 --json
  rosterview list --search active --export active.xlsx`,
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
		engine := view.NewEngine(provider, vopts)
		if err := engine.Reload(cmd.Context()); err != nil {
			return err
		}
		if err := applyListFlags(cmd, engine); err != nil {
			return err
		}
		snap := engine.Snapshot()

		if listExport != "" {
			if err := rosterfile.Write(listExport, snap.Visible); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(snap.Visible), listExport)
			return nil
		}
		if listJSON {
			return outputViewJSON(cmd.OutOrStdout(), snap)
		}

		styled := !listPlain && isatty.IsTerminal(os.Stdout.Fd())
		if len(snap.Visible) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No records found.")
			return nil
		}
		if styled {
			outputViewTable(cmd.OutOrStdout(), snap)
		} else if err := outputViewPlain(cmd.OutOrStdout(), snap); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), viewSummary(snap))
		return nil
	},
}

// applyListFlags applies the flags that were set to a loaded engine.
func applyListFlags(cmd *cobra.Command, e *view.Engine) error {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		m, ok := view.ParseMode(listMode)
		if !ok {
			return fmt.Errorf("invalid --mode %q: want paged or cumulative", listMode)
		}
		e.SetPaginationMode(m)
	}
	if flags.Changed("page-size") && !e.SetPageSize(listPageSize) {
		return fmt.Errorf("invalid --page-size %d: must be positive", listPageSize)
	}
	if listSearch != "" {
		e.SetSearchTerm(listSearch)
	}
	if flags.Changed("sort") || listDesc {
		key := e.Params().SortKey
		if flags.Changed("sort") {
			var err error
			if key, err = records.ParseField(listSort); err != nil {
				return err
			}
		}
		dir := view.Asc
		if listDesc {
			dir = view.Desc
		}
		e.SetSortDirection(key, dir)
	}
	if flags.Changed("page") {
		if e.Params().Mode != view.ModePaged {
			return fmt.Errorf("--page only applies to paged mode; use --grow in cumulative mode")
		}
		if listPage != 1 && !e.GoToPage(listPage) {
			return fmt.Errorf("page %d out of range (1-%d)", listPage, max(1, e.Snapshot().TotalPages))
		}
	}
	for range listGrow {
		if !e.GrowOnSignal() {
			break
		}
	}
	return nil
}

var listColumns = []records.Field{
	records.FieldID,
	records.FieldName,
	records.FieldBalance,
	records.FieldEmail,
	records.FieldRegisteredAt,
	records.FieldStatus,
}

func listHeaders() []string {
	out := make([]string, len(listColumns))
	for i, f := range listColumns {
		out[i] = f.Label()
	}
	return out
}

func listRow(r records.Record) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Name,
		textutil.FormatBalance(r.Balance),
		r.Email,
		textutil.FormatDate(r.RegisteredAt),
		r.Status.String(),
	}
}

// outputViewPlain writes tab-aligned columns for pipes and scripts.
func outputViewPlain(w io.Writer, snap view.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, h := range listHeaders() {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	for _, r := range snap.Visible {
		for i, c := range listRow(r) {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

var (
	listHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	listCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	listBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	listStatusColor = map[records.Status]lipgloss.Color{
		records.StatusActive:   lipgloss.Color("34"),
		records.StatusInactive: lipgloss.Color("245"),
		records.StatusPending:  lipgloss.Color("214"),
	}
)

// outputViewTable renders a bordered table for terminals.
func outputViewTable(w io.Writer, snap view.Snapshot) {
	rows := make([][]string, len(snap.Visible))
	for i, r := range snap.Visible {
		rows[i] = listRow(r)
	}
	statusCol := len(listColumns) - 1
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listBorderStyle).
		Headers(listHeaders()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle
			}
			s := listCellStyle
			if listColumns[col].Numeric() && col != 0 {
				s = s.Align(lipgloss.Right)
			}
			if col == statusCol && row >= 0 && row < len(snap.Visible) {
				if c, ok := listStatusColor[snap.Visible[row].Status]; ok {
					s = s.Foreground(c)
				}
			}
			return s
		})
	fmt.Fprintln(w, t.Render())
}

// viewSummary describes the page, total and sort of a view.
func viewSummary(snap view.Snapshot) string {
	p := snap.Params
	var where string
	if p.Mode == view.ModePaged {
		where = fmt.Sprintf("page %d of %d", p.Cursor, max(1, snap.TotalPages))
	} else {
		where = fmt.Sprintf("showing %d of %d", len(snap.Visible), snap.TotalCount)
		if snap.HasMore {
			where += ", more with --grow"
		}
	}
	s := fmt.Sprintf("%s · %d records", where, snap.TotalCount)
	if p.SortKey != records.FieldNone {
		s += fmt.Sprintf(" · sorted by %s %s", p.SortKey, p.Direction)
	}
	if p.SearchTerm != "" {
		s += fmt.Sprintf(" · search %q", p.SearchTerm)
	}
	return s
}

func outputViewJSON(w io.Writer, snap view.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewViewResponse(snap))
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "case-insensitive search over name, email and status")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort column: id, name, balance, email, registered_at, status or none")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page to show (paged mode)")
	listCmd.Flags().IntVarP(&listPageSize, "page-size", "n", view.DefaultPageSize, "records per page")
	listCmd.Flags().StringVar(&listMode, "mode", "", "pagination mode: paged or cumulative")
	listCmd.Flags().IntVar(&listGrow, "grow", 0, "pages to reveal beyond the first (cumulative mode)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output the view as JSON")
	listCmd.Flags().BoolVar(&listPlain, "plain", false, "plain columns even on a terminal")
	listCmd.Flags().StringVarP(&listExport, "export", "o", "", "write the visible records to a .csv or .xlsx file")
}
