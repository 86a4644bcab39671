package migration

import "strings"

// SplitStatements splits an SQL resource into executable statements.
//
// Lines are trimmed, blank lines and lines starting with "--" are skipped and
// the remaining lines are joined without a separator until a line ends with a
// semicolon, which completes the statement. Content after the last semicolon
// is dropped.
func SplitStatements(sqlText string) []string {
	var statements []string
	var statement strings.Builder

	for _, line := range strings.Split(sqlText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		statement.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, statement.String())
			statement.Reset()
		}
	}

	return statements
}
