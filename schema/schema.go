// Package schema suggests SQL table definitions for declared column types.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

const DefaultTable = "user_data"

var columnTypes = map[string]string{
	"string":  "TEXT",
	"integer": "INTEGER",
	"float":   "REAL",
	"boolean": "BOOLEAN",
}

// SQLType maps a declared type to its SQL column type. Unknown types become TEXT.
func SQLType(declared string) string {
	if t, ok := columnTypes[declared]; ok {
		return t
	}
	return "TEXT"
}

// Suggest returns a CREATE TABLE statement for columns, ordered by column name.
func Suggest(table string, columns map[string]string) string {
	if table == "" {
		table = DefaultTable
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	definitions := make([]string, len(names))
	for i, name := range names {
		definitions[i] = fmt.Sprintf("%s %s", name, SQLType(columns[name]))
	}

	return fmt.Sprintf("CREATE TABLE %s (%s);", table, strings.Join(definitions, ", "))
}
