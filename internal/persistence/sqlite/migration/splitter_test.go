package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "comments and blank lines are skipped",
			sql:  "-- comment\nSELECT 1;\n\nSELECT 2;\n",
			want: []string{"SELECT 1;", "SELECT 2;"},
		},
		{
			name: "multi-line statement is joined without separator",
			sql:  "CREATE TABLE t (\n  id INT,\n  name TEXT\n);\n",
			want: []string{"CREATE TABLE t (id INT,name TEXT);"},
		},
		{
			name: "surrounding whitespace is trimmed",
			sql:  "   INSERT INTO t VALUES (1);   \r\n\t-- indented comment\n",
			want: []string{"INSERT INTO t VALUES (1);"},
		},
		{
			name: "trailing statement without semicolon is dropped",
			sql:  "SELECT 1;\nSELECT 2",
			want: []string{"SELECT 1;"},
		},
		{
			name: "empty input",
			sql:  "",
			want: nil,
		},
		{
			name: "comment lines inside a statement",
			sql:  "INSERT INTO t (a)\n-- the value\nVALUES (1);",
			want: []string{"INSERT INTO t (a)VALUES (1);"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SplitStatements(tt.sql))
		})
	}
}

func TestSplitStatements_ReproducesContent(t *testing.T) {
	inputs := []string{
		"-- header\nCREATE TABLE a (id INT);\nCREATE TABLE b (\nid INT\n);\n\n-- footer\n",
		"INSERT INTO a VALUES (1);INSERT INTO a VALUES (2);\n",
		"SELECT 1;\n-- x\n\n  SELECT\n  2;\n",
	}

	for _, input := range inputs {
		var kept strings.Builder
		for _, line := range strings.Split(input, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			kept.WriteString(line)
		}

		statements := SplitStatements(input)
		for _, statement := range statements {
			require.True(t, strings.HasSuffix(statement, ";"), "statement %q must end with a semicolon", statement)
		}
		require.Equal(t, kept.String(), strings.Join(statements, ""))
	}
}
