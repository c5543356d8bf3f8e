package cmd

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var runStats bool

var runCmd = &cobra.Command{
	Use:   "run step...",
	Short: "Build a graph from steps and print the result of every action.",
	Long: `Steps are applied in order. Lazy steps (read, select, where) are buffered,
actions (sum, count, fetch) send the buffered graph to the executor and print its response.`,
	Example: `octoframe run read:deniro.csv "select:Year Title" "where:Score > 90" sum:Year count`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (outErr error) {
		steps, err := parseSteps(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := newSession(cfg, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.Close(); err != nil && outErr == nil {
				outErr = err
			}
		}()
		log.Printf("session %s: running %d steps against %s", s.df.Session(), len(steps), cfg.ExecutorAddress)

		out := cmd.OutOrStdout()
		for i := range steps {
			res, err := steps[i].apply(cmd.Context(), s.df)
			if err != nil {
				return fmt.Errorf("couldn't run step %d: %w", i+1, err)
			}
			if res != nil {
				fmt.Fprintln(out, formatResult(res))
			}
		}
		if steps[len(steps)-1].kind.Lazy() {
			fmt.Fprintln(cmd.ErrOrStderr(), "the last steps were never sent, end the steps with an action to run them")
		}

		if runStats {
			return writeStats(out, s.registry)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runStats, "stats", false, "Print flush statistics when done.")
	rootCmd.AddCommand(runCmd)
}

// writeStats prints every gathered sample as a table row.
func writeStats(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("couldn't gather metrics: %w", err)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"metric", "labels", "value"})
	table.SetAutoFormatHeaders(false)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, pair := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%s", pair.GetName(), pair.GetValue()))
			}
			sort.Strings(labels)

			var value string
			switch {
			case m.Counter != nil:
				value = fmt.Sprint(m.GetCounter().GetValue())
			case m.Gauge != nil:
				value = fmt.Sprint(m.GetGauge().GetValue())
			case m.Histogram != nil:
				value = fmt.Sprintf("%d samples, %.6fs total", m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			default:
				continue
			}
			table.Append([]string{family.GetName(), strings.Join(labels, ","), value})
		}
	}
	table.Render()
	return nil
}
