package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		columns map[string]string
		want    string
	}{
		{
			name:  "all known types",
			table: "movies",
			columns: map[string]string{
				"Title": "string",
				"Year":  "integer",
				"Score": "float",
				"Seen":  "boolean",
			},
			want: "CREATE TABLE movies (Score REAL, Seen BOOLEAN, Title TEXT, Year INTEGER);",
		},
		{
			name:    "unknown type falls back to text",
			columns: map[string]string{"released": "date"},
			want:    "CREATE TABLE user_data (released TEXT);",
		},
		{
			name: "no columns",
			want: "CREATE TABLE user_data ();",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(tt.table, tt.columns))
		})
	}
}
