package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"github.com/cube2222/octoframe/dataframe"
	"github.com/cube2222/octoframe/graph"
	jsonoutput "github.com/cube2222/octoframe/output/json"
	"github.com/cube2222/octoframe/output/table"
	"github.com/cube2222/octoframe/plan"
)

var explainFormat string
var explainOpen bool

var explainCmd = &cobra.Command{
	Use:   "explain step...",
	Short: "Print the graph the steps would send, without contacting the executor.",
	Long: `Lazy steps are buffered as with run. The last step may be an action,
in which case it is shown as the node that would trigger the flush.`,
	Example: `octoframe explain read:deniro.csv "select:Year Title" sum:Year --format table
octoframe explain read:deniro.csv count --open`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := parseSteps(args)
		if err != nil {
			return err
		}
		g, err := explainGraph(steps)
		if err != nil {
			return err
		}

		if explainOpen {
			return openGraph(g)
		}
		return writeExplain(cmd.OutOrStdout(), g, explainFormat)
	},
}

func init() {
	explainCmd.Flags().StringVar(&explainFormat, "format", "text", "Output format: text, dot, table or json.")
	explainCmd.Flags().BoolVar(&explainOpen, "open", false, "Render the graph to png with graphviz and open it.")
	rootCmd.AddCommand(explainCmd)
}

// explainGraph buffers steps and returns the graph the final action would flush.
func explainGraph(steps []step) (plan.Graph, error) {
	allocator := plan.NewAllocator()
	df := dataframe.New(nil, dataframe.WithAllocator(allocator))

	lazy := steps
	last := steps[len(steps)-1]
	if last.kind.Eager() {
		lazy = steps[:len(steps)-1]
	}
	for i := range lazy {
		if !lazy[i].kind.Lazy() {
			return plan.Graph{}, fmt.Errorf("step %d: only the last step may be an action", i+1)
		}
		if _, err := lazy[i].apply(context.Background(), df); err != nil {
			return plan.Graph{}, err
		}
	}
	if err := df.Err(); err != nil {
		return plan.Graph{}, err
	}

	g := df.Graph()
	if last.kind.Eager() {
		id, err := allocator.Next()
		if err != nil {
			return plan.Graph{}, fmt.Errorf("couldn't allocate node id: %w", err)
		}
		g.Append(plan.Node{ID: id, Kind: last.kind, Args: last.args()})
	}
	return g, nil
}

func writeExplain(w io.Writer, g plan.Graph, format string) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, g.String())
		return err
	case "dot":
		dot, err := graph.Show(g.Visualize())
		if err != nil {
			return fmt.Errorf("couldn't build dot graph: %w", err)
		}
		_, err = io.WriteString(w, dot.String())
		return err
	case "table":
		return table.NewOutput(w, false).WriteGraph(g)
	case "json":
		return jsonoutput.NewOutput(w).WriteGraph(g)
	default:
		return fmt.Errorf("unknown format '%s', expected text, dot, table or json", format)
	}
}

func openGraph(g plan.Graph) error {
	dot, err := graph.Show(g.Visualize())
	if err != nil {
		return fmt.Errorf("couldn't build dot graph: %w", err)
	}
	file, err := os.CreateTemp(os.TempDir(), "octoframe-explain-*.png")
	if err != nil {
		return fmt.Errorf("couldn't create temporary file: %w", err)
	}
	cmd := exec.Command("dot", "-Tpng")
	cmd.Stdin = strings.NewReader(dot.String())
	cmd.Stdout = file
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		file.Close()
		return fmt.Errorf("couldn't render graph: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("couldn't close temporary file: %w", err)
	}
	if err := open.Start(file.Name()); err != nil {
		return fmt.Errorf("couldn't open graph: %w", err)
	}
	return nil
}
