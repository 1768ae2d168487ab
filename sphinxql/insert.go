package sphinxql

import (
	"fmt"
	"strings"
)

// Insert accumulates rows for an INSERT INTO (or REPLACE INTO) statement
// against a real-time index. Values use the same literal rendering as
// filters; slice values render as parenthesized groups for MVA attributes.
type Insert struct {
	index   string
	columns []string
	rows    [][]any
	replace bool
}

// NewInsert builds an Insert into the given index and column list.
func NewInsert(index string, columns ...string) *Insert {
	return &Insert{index: index, columns: columns}
}

// Add appends one row of values, positionally matching the column list.
func (i *Insert) Add(values ...any) *Insert {
	i.rows = append(i.rows, values)
	return i
}

// Replace switches the statement verb to REPLACE INTO, which overwrites any
// existing document with the same id.
func (i *Insert) Replace() *Insert {
	i.replace = true
	return i
}

// ToSQL renders the accumulated rows as one statement.
func (i *Insert) ToSQL() (string, error) {
	verb := "INSERT"
	if i.replace {
		verb = "REPLACE"
	}

	columns := make([]string, len(i.columns))
	for n, column := range i.columns {
		columns[n] = QuoteIdentifier(column)
	}

	rows := make([]string, len(i.rows))
	for n, row := range i.rows {
		rendered, err := i.renderRow(row)
		if err != nil {
			return "", err
		}
		rows[n] = rendered
	}

	return fmt.Sprintf("%s INTO %s (%s) VALUES %s",
		verb, i.index, strings.Join(columns, ", "), strings.Join(rows, ", ")), nil
}

func (i *Insert) renderRow(row []any) (string, error) {
	parts := make([]string, len(row))
	for n, value := range row {
		if elems, ok := sliceElems(value); ok {
			list, err := renderList(elems)
			if err != nil {
				return "", fmt.Errorf("column %s: %w", i.columnName(n), err)
			}
			parts[n] = "(" + list + ")"
			continue
		}
		literal, err := renderScalar(value)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", i.columnName(n), err)
		}
		parts[n] = literal
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

func (i *Insert) columnName(n int) string {
	if n < len(i.columns) {
		return i.columns[n]
	}
	return fmt.Sprintf("#%d", n)
}
