package table

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/cube2222/octoframe/journal"
	"github.com/cube2222/octoframe/output"
	"github.com/cube2222/octoframe/plan"
)

type Output struct {
	w        io.Writer
	rowLines bool
}

func NewOutput(w io.Writer, rowLines bool) output.Output {
	return &Output{
		w:        w,
		rowLines: rowLines,
	}
}

func (o *Output) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(o.w)
	table.SetRowLine(o.rowLines)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func (o *Output) WriteGraph(g plan.Graph) error {
	table := o.newTable([]string{"id", "operation", "lazy", "args"})
	for _, node := range g.Operations {
		table.Append([]string{
			fmt.Sprint(node.ID),
			node.Kind.String(),
			fmt.Sprint(node.Kind.Lazy()),
			strings.Join(node.Args, " "),
		})
	}
	table.SetFooter([]string{"", "", "checkpoint", fmt.Sprint(g.Checkpoint)})
	table.Render()
	return nil
}

func (o *Output) WriteEntries(entries []journal.Entry) error {
	table := o.newTable([]string{"time", "session", "operation", "node", "checkpoint", "response"})
	for _, entry := range entries {
		table.Append([]string{
			entry.Time.Format(time.RFC3339),
			entry.Session,
			entry.Operation,
			fmt.Sprint(entry.NodeID),
			fmt.Sprint(entry.Checkpoint),
			entry.Response,
		})
	}
	table.Render()
	return nil
}
