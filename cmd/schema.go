package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cube2222/octoframe/schema"
)

var schemaTable string

var schemaCmd = &cobra.Command{
	Use:     "schema column:type...",
	Short:   "Suggest a CREATE TABLE statement for the given columns.",
	Example: `octoframe schema Title:string Year:integer Score:float --table movies`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		columns, err := parseColumns(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), schema.Suggest(schemaTable, columns))
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaTable, "table", schema.DefaultTable, "Name of the table.")
	rootCmd.AddCommand(schemaCmd)
}

func parseColumns(args []string) (map[string]string, error) {
	columns := make(map[string]string, len(args))
	for _, arg := range args {
		name, declared, ok := strings.Cut(arg, ":")
		if !ok || name == "" || declared == "" {
			return nil, fmt.Errorf("invalid column '%s', expected name:type", arg)
		}
		if _, ok := columns[name]; ok {
			return nil, fmt.Errorf("column '%s' declared twice", name)
		}
		columns[name] = declared
	}
	return columns, nil
}
