// Package query builds parameterized single-table INSERT and UPDATE statements
// from field/value pairs. Values are bound by name to ":field" placeholders.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnsupportedValueType is returned for a value whose kind cannot be bound.
	ErrUnsupportedValueType = errors.New("query: unsupported value type")

	// ErrInvalidRequest is returned for a malformed table/field/value request.
	ErrInvalidRequest = errors.New("query: invalid request")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Type selects the statement to build.
type Type int

const (
	// Insert builds INSERT INTO t (f...) VALUES (:f...).
	Insert Type = iota + 1
	// Update builds UPDATE t SET f = :f, ... [WHERE ...].
	Update
)

func (t Type) String() string {
	switch t {
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Statement is the SQL text of a built query together with its named arguments,
// in field order.
type Statement struct {
	SQL  string
	Args []sql.NamedArg
}

// Arg returns the argument bound to the placeholder of field.
func (s Statement) Arg(field string) (any, bool) {
	for _, arg := range s.Args {
		if arg.Name == field {
			return arg.Value, true
		}
	}
	return nil, false
}

// args returns the arguments in the form accepted by database/sql.
func (s Statement) args() []any {
	args := make([]any, len(s.Args))
	for i, arg := range s.Args {
		args[i] = arg
	}
	return args
}

// Build constructs the statement of the given type for table. fields and values
// are parallel: values[i] is bound to ":"+fields[i]. where is appended to
// UPDATE statements only when non-empty, and is ignored for INSERT.
func Build(typ Type, table string, fields []string, values []Value, where string) (Statement, error) {
	if err := validate(table, fields, values); err != nil {
		return Statement{}, err
	}

	var sb strings.Builder
	switch typ {
	case Insert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(fields, ", "))
		sb.WriteString(") VALUES (")
		for i, field := range fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(":")
			sb.WriteString(field)
		}
		sb.WriteString(")")
	case Update:
		sb.WriteString("UPDATE ")
		sb.WriteString(table)
		sb.WriteString(" SET ")
		for i, field := range fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(field)
			sb.WriteString(" = :")
			sb.WriteString(field)
		}
		if where != "" {
			sb.WriteString(" WHERE ")
			sb.WriteString(where)
		}
	default:
		return Statement{}, fmt.Errorf("%w: unknown statement type %s", ErrInvalidRequest, typ)
	}

	args := make([]sql.NamedArg, len(fields))
	for i, field := range fields {
		value, err := values[i].arg()
		if err != nil {
			return Statement{}, fmt.Errorf("bind %q: %w", field, err)
		}
		args[i] = sql.Named(field, value)
	}

	return Statement{SQL: sb.String(), Args: args}, nil
}

func validate(table string, fields []string, values []Value) error {
	if !identifierPattern.MatchString(table) {
		return fmt.Errorf("%w: invalid table name %q", ErrInvalidRequest, table)
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidRequest)
	}
	if len(fields) != len(values) {
		return fmt.Errorf("%w: %d fields but %d values", ErrInvalidRequest, len(fields), len(values))
	}

	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if !identifierPattern.MatchString(field) {
			return fmt.Errorf("%w: invalid field name %q", ErrInvalidRequest, field)
		}
		if _, ok := seen[field]; ok {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidRequest, field)
		}
		seen[field] = struct{}{}
	}
	return nil
}

// Preparer is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Prepared is a prepared statement with its bound arguments. The caller owns
// it and must Close it.
type Prepared struct {
	Statement
	stmt *sql.Stmt
}

// Prepare prepares s on p.
func Prepare(ctx context.Context, p Preparer, s Statement) (*Prepared, error) {
	stmt, err := p.PrepareContext(ctx, s.SQL)
	if err != nil {
		return nil, fmt.Errorf("prepare %q: %w", s.SQL, err)
	}
	return &Prepared{Statement: s, stmt: stmt}, nil
}

// Exec executes the statement with its bound arguments.
func (p *Prepared) Exec(ctx context.Context) (sql.Result, error) {
	return p.stmt.ExecContext(ctx, p.args()...)
}

// Close releases the prepared statement.
func (p *Prepared) Close() error {
	return p.stmt.Close()
}

// Quote returns s as an SQL string literal, for use in WHERE clauses.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
