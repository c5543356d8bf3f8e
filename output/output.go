package output

import (
	"github.com/cube2222/octoframe/journal"
	"github.com/cube2222/octoframe/plan"
)

// Output renders what the CLI shows to the user.
type Output interface {
	WriteGraph(g plan.Graph) error
	WriteEntries(entries []journal.Entry) error
}
