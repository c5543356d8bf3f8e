package cmd

import (
	"fmt"
	"io"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/cube2222/octoframe/journal"
	"github.com/cube2222/octoframe/output"
	jsonoutput "github.com/cube2222/octoframe/output/json"
	"github.com/cube2222/octoframe/output/table"
	"github.com/cube2222/octoframe/serialization"
)

var historyLimit int
var historyFormat string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the flushes recorded in the journal.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		entries, err := j.Last(historyLimit)
		if err != nil {
			return fmt.Errorf("couldn't list journal: %w", err)
		}
		if len(entries) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no flushes recorded in %s\n", j.Dir())
			return nil
		}

		var out output.Output
		switch historyFormat {
		case "table":
			out = table.NewOutput(cmd.OutOrStdout(), false)
		case "json":
			out = jsonoutput.NewOutput(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unknown format '%s', expected table or json", historyFormat)
		}
		return out.WriteEntries(entries)
	},
}

var historyDiffCmd = &cobra.Command{
	Use:   "diff old_id new_id",
	Short: "Show how the graphs sent by two recorded flushes differ.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		return diffEntries(cmd.OutOrStdout(), j, args[0], args[1])
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Show at most this many of the latest entries, 0 for all.")
	historyCmd.Flags().StringVar(&historyFormat, "format", "table", "Output format: table or json.")
	historyCmd.AddCommand(historyDiffCmd)
	rootCmd.AddCommand(historyCmd)
}

func openJournal() (*journal.Journal, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.JournalDir == "" {
		return nil, fmt.Errorf("the journal is disabled, set journal_dir in the configuration")
	}
	j, err := journal.Open(cfg.JournalDir)
	if err != nil {
		return nil, fmt.Errorf("couldn't open journal: %w", err)
	}
	return j, nil
}

func diffEntries(w io.Writer, j *journal.Journal, oldID, newID string) error {
	texts := make([]string, 2)
	for i, id := range []string{oldID, newID} {
		entry, err := j.Get(id)
		if err != nil {
			return err
		}
		g, err := serialization.DecodeGraph(entry.Graph)
		if err != nil {
			return fmt.Errorf("couldn't decode graph of %s: %w", id, err)
		}
		texts[i] = g.String()
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(texts[0]),
		B:        difflib.SplitLines(texts[1]),
		FromFile: oldID,
		ToFile:   newID,
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("couldn't diff graphs: %w", err)
	}
	_, err = io.WriteString(w, diff)
	return err
}
