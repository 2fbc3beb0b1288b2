package cmd

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/wesm/rosterview/internal/fileutil"
	"github.com/wesm/rosterview/internal/records"
	"github.com/wesm/rosterview/internal/rosterfile"
)

var (
	seedCount int
	seedSeed  uint64
	seedFrom  string
	seedYes   bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the SQLite roster database",
	Long: `Replace the contents of the SQLite roster database, either with generated
users or with the rows of a .csv or .xlsx roster file.

Roster files need a header row naming at least the id, name, balance,
email, registered_at and status columns. Files in legacy encodings are
converted to UTF-8.

Examples:
  rosterview seed --count 500
  rosterview seed --from roster.xlsx
  rosterview --source sqlite tui`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var recs []records.Record
		if seedFrom != "" {
			var err error
			if recs, err = rosterfile.Read(seedFrom); err != nil {
				return err
			}
		} else {
			seed := seedSeed
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			recs = records.Generate(seedCount, rand.New(rand.NewPCG(seed, seed>>1)))
		}

		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		existing, err := s.Count(cmd.Context())
		if err != nil {
			return err
		}
		if existing > 0 && !seedYes {
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				return fmt.Errorf("database already holds %d records; pass --yes to replace them", existing)
			}
			replace := false
			confirm := huh.NewConfirm().
				Title(fmt.Sprintf("Replace %d existing records with %d new ones?", existing, len(recs))).
				Value(&replace)
			if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(cmd.Context()); err != nil {
				return err
			}
			if !replace {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		if err := s.ReplaceRecords(cmd.Context(), recs); err != nil {
			return fmt.Errorf("write records: %w", err)
		}
		if err := fileutil.RestrictFile(cfg.DatabasePath()); err != nil {
			logger.Warn("could not restrict database permissions", "path", cfg.DatabasePath(), "error", err)
		}

		stats, err := s.GetStats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", cfg.DatabasePath())
		fmt.Fprintf(cmd.OutOrStdout(), "  Records: %d\n", stats.RecordCount)
		fmt.Fprintf(cmd.OutOrStdout(), "  Size:    %.2f MB\n", float64(stats.DatabaseSize)/(1024*1024))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVar(&seedCount, "count", 120, "number of users to generate")
	seedCmd.Flags().Uint64Var(&seedSeed, "seed", 0, "random seed (0 = from the clock)")
	seedCmd.Flags().StringVar(&seedFrom, "from", "", "import a .csv or .xlsx roster file instead of generating")
	seedCmd.Flags().BoolVarP(&seedYes, "yes", "y", false, "replace existing records without asking")
}
