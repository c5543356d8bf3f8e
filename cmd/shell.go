package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"github.com/cube2222/octoframe/dataframe"
)

const shellHelp = `read:SOURCE, select:COLUMNS, where:CONDITION   buffer an operation
sum:COLUMN, count, fetch                      send the graph and print the result
graph                                         show the buffered graph
checkpoint                                    show the last executed node id
exit`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Build a dataframe interactively, one step per line.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (outErr error) {
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

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "session %s, executor %s, %s mode\n", s.df.Session(), cfg.ExecutorAddress, s.df.Mode())
		fmt.Fprintln(out, shellHelp)
		prompt.New(
			func(line string) {
				execLine(cmd.Context(), s.df, line, out)
			},
			completeStep,
			prompt.OptionPrefix("octoframe> "),
			prompt.OptionTitle("octoframe"),
			prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
				return breakline && strings.TrimSpace(in) == "exit"
			}),
		).Run()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

var stepSuggestions = []prompt.Suggest{
	{Text: "read:", Description: "Buffer a read of a source"},
	{Text: "select:", Description: "Buffer a projection of space separated columns"},
	{Text: "where:", Description: "Buffer a filter"},
	{Text: "sum:", Description: "Send the graph and sum a column"},
	{Text: "count", Description: "Send the graph and count rows"},
	{Text: "fetch", Description: "Send the graph and fetch its content"},
	{Text: "graph", Description: "Show the buffered graph"},
	{Text: "checkpoint", Description: "Show the last executed node id"},
	{Text: "exit", Description: "Leave the shell"},
}

func completeStep(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), ":") {
		return nil
	}
	return prompt.FilterHasPrefix(stepSuggestions, d.GetWordBeforeCursor(), true)
}

// execLine runs a single shell line against df, writing results and errors to w.
func execLine(ctx context.Context, df *dataframe.Dataframe, line string, w io.Writer) {
	line = strings.TrimSpace(line)
	switch line {
	case "", "exit":
		return
	case "help":
		fmt.Fprintln(w, shellHelp)
		return
	case "graph":
		fmt.Fprint(w, df.Graph().String())
		return
	case "checkpoint":
		fmt.Fprintln(w, df.Checkpoint())
		return
	}

	s, err := parseStep(line)
	if err != nil {
		fmt.Fprintf(w, "error: %s\n", err)
		return
	}
	res, err := s.apply(ctx, df)
	if err != nil {
		fmt.Fprintf(w, "error: %s\n", err)
		return
	}
	if res != nil {
		fmt.Fprintln(w, formatResult(res))
		return
	}
	if err := df.Err(); err != nil {
		fmt.Fprintf(w, "error: %s\n", err)
	}
}
