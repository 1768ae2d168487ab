// Package sphinxql builds SphinxQL query strings for Sphinx and Manticore
// search servers. The builders accumulate query state through fluent calls
// and render it deterministically; they perform no I/O and no schema
// validation.
package sphinxql

import (
	"fmt"
	"strings"
)

// Default pagination applied when only one of limit/offset is set.
const (
	DefaultLimit  = 20
	DefaultOffset = 0
)

// Param is an ordered name/value pair, used for nested OPTION values and
// CALL SNIPPETS options. Go maps have no insertion order, so nested options
// are supplied as ordered pairs to keep rendering deterministic.
type Param struct {
	Name  string
	Value any
}

type condition struct {
	field   string
	value   any
	exclude bool
	all     bool
}

// Select accumulates the description of one SELECT query. The zero value is
// not ready for use; construct with NewSelect. All fluent methods mutate the
// receiver and return it for chaining. ToSQL may be called repeatedly as the
// builder keeps being mutated; each call reflects the state accumulated so
// far.
type Select struct {
	indices          []string
	values           []string
	match            string
	matchSet         bool
	conditions       []condition
	groupField       string
	groupBest        int
	having           string
	order            []string
	withinGroupOrder []string
	limit            *int
	offset           *int
	options          []Param
}

// NewSelect builds a Select over the given indices. More indices can be
// added later with From.
func NewSelect(indices ...string) *Select {
	s := &Select{}
	return s.From(indices...)
}

// From appends source indices. Duplicates are permitted and call order is
// preserved.
func (s *Select) From(indices ...string) *Select {
	s.indices = append(s.indices, indices...)
	return s
}

// Values appends select expressions. When none are set the query selects *.
func (s *Select) Values(exprs ...string) *Select {
	s.values = append(s.values, exprs...)
	return s
}

// Prepend inserts select expressions ahead of any already accumulated.
func (s *Select) Prepend(exprs ...string) *Select {
	s.values = append(append([]string{}, exprs...), s.values...)
	return s
}

// Matching sets the full-text MATCH term. The last call wins.
func (s *Select) Matching(term string) *Select {
	s.match = term
	s.matchSet = true
	return s
}

// Where adds an attribute filter that rows must match. Value may be an
// integer, boolean, string, slice, Range, time.Time or Date.
func (s *Select) Where(field string, value any) *Select {
	s.conditions = append(s.conditions, condition{field: field, value: value})
	return s
}

// WhereNot adds an attribute filter that rows must not match.
func (s *Select) WhereNot(field string, value any) *Select {
	s.conditions = append(s.conditions, condition{field: field, value: value, exclude: true})
	return s
}

// WhereAll requires the field to match every given value. Slice elements
// render as IN groups, scalars as equalities, joined by AND.
func (s *Select) WhereAll(field string, values ...any) *Select {
	s.conditions = append(s.conditions, condition{field: field, value: values, all: true})
	return s
}

// WhereNotAll requires the field to differ from at least one of the given
// values, rendered as a parenthesized OR group of inequalities.
func (s *Select) WhereNotAll(field string, values ...any) *Select {
	s.conditions = append(s.conditions, condition{field: field, value: values, exclude: true, all: true})
	return s
}

// GroupBy sets the grouping field. The last call wins.
func (s *Select) GroupBy(field string) *Select {
	s.groupField = field
	return s
}

// GroupBest caps the number of rows kept per group (GROUP n BY). It only
// renders when a group field is also set.
func (s *Select) GroupBest(n int) *Select {
	s.groupBest = n
	return s
}

// Having sets a raw HAVING expression, passed through verbatim.
func (s *Select) Having(expr string) *Select {
	s.having = expr
	return s
}

// OrderBy appends ORDER BY terms. Each term is identifier-rendered
// independently, so raw expressions like "weight() DESC" survive intact.
func (s *Select) OrderBy(terms ...string) *Select {
	s.order = append(s.order, terms...)
	return s
}

// WithinGroupOrderBy appends WITHIN GROUP ORDER BY terms.
func (s *Select) WithinGroupOrderBy(terms ...string) *Select {
	s.withinGroupOrder = append(s.withinGroupOrder, terms...)
	return s
}

// Limit sets the page size. The last call wins.
func (s *Select) Limit(n int) *Select {
	s.limit = &n
	return s
}

// Offset sets the page start. The last call wins.
func (s *Select) Offset(n int) *Select {
	s.offset = &n
	return s
}

// WithOption appends one engine option. Scalar and string values render as
// bare tokens; a []Param value renders as a nested (k=v, ...) group.
// Repeated names are not deduplicated.
func (s *Select) WithOption(name string, value any) *Select {
	s.options = append(s.options, Param{Name: name, Value: value})
	return s
}

// WithOptions appends engine options in the given order.
func (s *Select) WithOptions(opts ...Param) *Select {
	s.options = append(s.options, opts...)
	return s
}

// ToSQL renders the accumulated state as one SphinxQL statement. It is
// idempotent and leaves the builder untouched. The only failure mode is a
// filter value outside the supported literal types, reported with the
// offending field via ErrUnsupportedValue.
func (s *Select) ToSQL() (string, error) {
	values := s.values
	if len(values) == 0 {
		values = []string{"*"}
	}
	clauses := []string{
		fmt.Sprintf("SELECT %s FROM %s", strings.Join(values, ", "), strings.Join(s.indices, ", ")),
	}

	where, err := s.whereClause()
	if err != nil {
		return "", err
	}
	if where != "" {
		clauses = append(clauses, "WHERE "+where)
	}

	if s.groupField != "" {
		if s.groupBest > 0 {
			clauses = append(clauses, fmt.Sprintf("GROUP %d BY %s", s.groupBest, QuoteIdentifier(s.groupField)))
		} else {
			clauses = append(clauses, "GROUP BY "+QuoteIdentifier(s.groupField))
		}
	}

	if s.having != "" {
		clauses = append(clauses, "HAVING "+s.having)
	}

	if len(s.order) > 0 {
		clauses = append(clauses, "ORDER BY "+quoteIdentifiers(s.order))
	}

	if len(s.withinGroupOrder) > 0 {
		clauses = append(clauses, "WITHIN GROUP ORDER BY "+quoteIdentifiers(s.withinGroupOrder))
	}

	if s.limit != nil || s.offset != nil {
		offset, limit := DefaultOffset, DefaultLimit
		if s.offset != nil {
			offset = *s.offset
		}
		if s.limit != nil {
			limit = *s.limit
		}
		clauses = append(clauses, fmt.Sprintf("LIMIT %d, %d", offset, limit))
	}

	if len(s.options) > 0 {
		rendered, err := renderOptions(s.options)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "OPTION "+rendered)
	}

	return strings.Join(clauses, " "), nil
}

// whereClause joins the MATCH fragment and all surviving filter fragments
// with AND. Filters over empty slices contribute nothing; when nothing
// survives the clause is omitted entirely.
func (s *Select) whereClause() (string, error) {
	fragments := []string{}
	if s.matchSet {
		fragments = append(fragments, "MATCH('"+escapeQuotes(s.match)+"')")
	}
	for _, cond := range s.conditions {
		fragment, err := cond.render()
		if err != nil {
			return "", err
		}
		if fragment != "" {
			fragments = append(fragments, fragment)
		}
	}
	return strings.Join(fragments, " AND "), nil
}

func (c condition) render() (string, error) {
	fragment, err := c.renderValue()
	if err != nil {
		return "", fmt.Errorf("filter on %s: %w", c.field, err)
	}
	return fragment, nil
}

func (c condition) renderValue() (string, error) {
	field := QuoteIdentifier(c.field)

	if c.all {
		elems, _ := sliceElems(c.value)
		if c.exclude {
			return renderNotAll(field, elems)
		}
		return renderAll(field, elems)
	}

	if r, ok := c.value.(Range); ok {
		low, err := renderScalar(r.Low)
		if err != nil {
			return "", err
		}
		high, err := renderScalar(r.High)
		if err != nil {
			return "", err
		}
		op := "BETWEEN"
		if c.exclude {
			op = "NOT BETWEEN"
		}
		return fmt.Sprintf("%s %s %s AND %s", field, op, low, high), nil
	}

	if elems, ok := sliceElems(c.value); ok {
		if len(elems) == 0 {
			return "", nil
		}
		list, err := renderList(elems)
		if err != nil {
			return "", err
		}
		op := "IN"
		if c.exclude {
			op = "NOT IN"
		}
		return field + " " + op + " (" + list + ")", nil
	}

	literal, err := renderScalar(c.value)
	if err != nil {
		return "", err
	}
	op := "="
	if c.exclude {
		op = "<>"
	}
	return field + " " + op + " " + literal, nil
}

// renderAll joins one fragment per element with AND: nested slices become
// IN groups, scalars become equalities.
func renderAll(field string, elems []any) (string, error) {
	parts := []string{}
	for _, elem := range elems {
		if nested, ok := sliceElems(elem); ok {
			if len(nested) == 0 {
				continue
			}
			list, err := renderList(nested)
			if err != nil {
				return "", err
			}
			parts = append(parts, field+" IN ("+list+")")
			continue
		}
		literal, err := renderScalar(elem)
		if err != nil {
			return "", err
		}
		parts = append(parts, field+" = "+literal)
	}
	return strings.Join(parts, " AND "), nil
}

// renderNotAll wraps one inequality per element in a single OR group.
func renderNotAll(field string, elems []any) (string, error) {
	parts := []string{}
	for _, elem := range elems {
		if nested, ok := sliceElems(elem); ok {
			if len(nested) == 0 {
				continue
			}
			list, err := renderList(nested)
			if err != nil {
				return "", err
			}
			parts = append(parts, field+" NOT IN ("+list+")")
			continue
		}
		literal, err := renderScalar(elem)
		if err != nil {
			return "", err
		}
		parts = append(parts, field+" <> "+literal)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", nil
}

func renderOptions(options []Param) (string, error) {
	parts := make([]string, len(options))
	for i, opt := range options {
		value, err := renderOptionValue(opt.Value)
		if err != nil {
			return "", fmt.Errorf("option %s: %w", opt.Name, err)
		}
		parts[i] = opt.Name + "=" + value
	}
	return strings.Join(parts, ", "), nil
}

// renderOptionValue renders scalar option values as bare tokens and []Param
// values as nested (k=v, ...) groups.
func renderOptionValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []Param:
		parts := make([]string, len(v))
		for i, p := range v {
			nested, err := renderOptionValue(p.Value)
			if err != nil {
				return "", err
			}
			parts[i] = p.Name + "=" + nested
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	default:
		return renderScalar(value)
	}
}
