package sphinxql

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedValue is returned when a filter value has no SphinxQL
// literal form. Callers can match it with errors.Is.
var ErrUnsupportedValue = errors.New("unsupported filter value type")

// Range is a closed interval filter value, rendered as BETWEEN low AND high.
type Range struct {
	Low  any
	High any
}

// Between builds a Range filter value.
func Between(low, high any) Range {
	return Range{Low: low, High: high}
}

// Date is a calendar date with no time-of-day component. It renders as the
// Unix second count of midnight UTC on that date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// renderScalar renders a single scalar filter value as a SphinxQL literal.
// Timestamps render as UTC Unix seconds; booleans as 1/0; strings are
// single-quoted with embedded quotes backslash-escaped.
func renderScalar(value any) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case string:
		return QuoteString(v), nil
	case time.Time:
		return strconv.FormatInt(v.Unix(), 10), nil
	case Date:
		return strconv.FormatInt(v.Time().Unix(), 10), nil
	default:
		return "", fmt.Errorf("%w %T", ErrUnsupportedValue, value)
	}
}

// QuoteString quotes a SphinxQL string literal with single quotes and
// backslash-escapes any single quotes within it. No other characters are
// altered.
func QuoteString(s string) string {
	return "'" + escapeQuotes(s) + "'"
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// sliceElems normalizes any slice-kind value into []any. Strings are not
// slices for this purpose.
func sliceElems(value any) ([]any, bool) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	elems := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, true
}

// renderList renders slice elements as a comma-joined literal list.
func renderList(elems []any) (string, error) {
	parts := make([]string, len(elems))
	for i, elem := range elems {
		rendered, err := renderScalar(elem)
		if err != nil {
			return "", err
		}
		parts[i] = rendered
	}
	return strings.Join(parts, ", "), nil
}
