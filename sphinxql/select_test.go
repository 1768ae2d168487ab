package sphinxql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSQL(t *testing.T, s *Select) string {
	t.Helper()
	sql, err := s.ToSQL()
	require.NoError(t, err)
	return sql
}

func TestSelect_Basic(t *testing.T) {
	assert.Equal(t, "SELECT * FROM foo", mustSQL(t, NewSelect("foo")))
}

func TestSelect_MultipleIndicesPreserveOrderAndDuplicates(t *testing.T) {
	query := NewSelect("foo", "bar").From("foo")
	assert.Equal(t, "SELECT * FROM foo, bar, foo", mustSQL(t, query))
}

func TestSelect_ValuesAndPrepend(t *testing.T) {
	query := NewSelect("foo").Values("id", "name")
	assert.Equal(t, "SELECT id, name FROM foo", mustSQL(t, query))

	query.Prepend("weight() AS w")
	assert.Equal(t, "SELECT weight() AS w, id, name FROM foo", mustSQL(t, query))
}

func TestSelect_Matching(t *testing.T) {
	query := NewSelect("foo").Matching("bar")
	assert.Equal(t, "SELECT * FROM foo WHERE MATCH('bar')", mustSQL(t, query))
}

func TestSelect_MatchingEscapesQuotes(t *testing.T) {
	query := NewSelect("foo").Matching("it's a bar")
	assert.Equal(t, `SELECT * FROM foo WHERE MATCH('it\'s a bar')`, mustSQL(t, query))
}

func TestSelect_MatchingLastCallWins(t *testing.T) {
	query := NewSelect("foo").Matching("first").Matching("second")
	assert.Equal(t, "SELECT * FROM foo WHERE MATCH('second')", mustSQL(t, query))
}

func TestSelect_WhereInteger(t *testing.T) {
	query := NewSelect("foo").Where("bar_id", 10)
	assert.Equal(t, "SELECT * FROM foo WHERE `bar_id` = 10", mustSQL(t, query))
}

func TestSelect_WhereString(t *testing.T) {
	query := NewSelect("foo").Where("name", "it's")
	assert.Equal(t, "SELECT * FROM foo WHERE `name` = 'it\\'s'", mustSQL(t, query))
}

func TestSelect_WhereBooleans(t *testing.T) {
	query := NewSelect("foo").Where("live", true).WhereNot("deleted", false)
	assert.Equal(t, "SELECT * FROM foo WHERE `live` = 1 AND `deleted` <> 0", mustSQL(t, query))
}

func TestSelect_WhereSlice(t *testing.T) {
	query := NewSelect("foo").Where("bar_id", []int{1, 2, 3})
	assert.Equal(t, "SELECT * FROM foo WHERE `bar_id` IN (1, 2, 3)", mustSQL(t, query))
}

func TestSelect_WhereNotSlice(t *testing.T) {
	query := NewSelect("foo").WhereNot("bar_id", []int{1, 2})
	assert.Equal(t, "SELECT * FROM foo WHERE `bar_id` NOT IN (1, 2)", mustSQL(t, query))
}

func TestSelect_WhereEmptySliceContributesNothing(t *testing.T) {
	with := NewSelect("foo").Matching("bar").Where("bar_id", []int{}).Where("live", true)
	without := NewSelect("foo").Matching("bar").Where("live", true)
	assert.Equal(t, mustSQL(t, without), mustSQL(t, with))
}

func TestSelect_WhereEmptySliceOnlyConditionOmitsWhere(t *testing.T) {
	query := NewSelect("foo").WhereNot("bar_id", []int{})
	assert.Equal(t, "SELECT * FROM foo", mustSQL(t, query))
}

func TestSelect_WhereRange(t *testing.T) {
	query := NewSelect("foo").Where("bar_id", Between(5, 7))
	assert.Equal(t, "SELECT * FROM foo WHERE `bar_id` BETWEEN 5 AND 7", mustSQL(t, query))
}

func TestSelect_WhereNotRange(t *testing.T) {
	query := NewSelect("foo").WhereNot("bar_id", Between(5, 7))
	assert.Equal(t, "SELECT * FROM foo WHERE `bar_id` NOT BETWEEN 5 AND 7", mustSQL(t, query))
}

func TestSelect_WhereTimestamp(t *testing.T) {
	instant := time.Date(2013, time.November, 1, 12, 30, 0, 0, time.UTC)
	query := NewSelect("foo").Where("created_at", instant)
	assert.Equal(t, "SELECT * FROM foo WHERE `created_at` = 1383309000", mustSQL(t, query))
}

func TestSelect_WhereDateNormalizesToMidnightUTC(t *testing.T) {
	query := NewSelect("foo").Where("created_on", NewDate(2013, time.November, 1))
	assert.Equal(t, "SELECT * FROM foo WHERE `created_on` = 1383264000", mustSQL(t, query))
}

func TestSelect_WhereTimestampRange(t *testing.T) {
	low := NewDate(2013, time.November, 1)
	high := NewDate(2013, time.November, 2)
	query := NewSelect("foo").Where("created_at", Between(low, high))
	assert.Equal(t,
		"SELECT * FROM foo WHERE `created_at` BETWEEN 1383264000 AND 1383350400",
		mustSQL(t, query))
}

func TestSelect_WhereAll(t *testing.T) {
	query := NewSelect("foo").WhereAll("bar_id", []int{1, 2}, 3)
	assert.Equal(t,
		"SELECT * FROM foo WHERE `bar_id` IN (1, 2) AND `bar_id` = 3",
		mustSQL(t, query))
}

func TestSelect_WhereNotAll(t *testing.T) {
	query := NewSelect("foo").WhereNotAll("bar_id", 1, 2)
	assert.Equal(t,
		"SELECT * FROM foo WHERE (`bar_id` <> 1 OR `bar_id` <> 2)",
		mustSQL(t, query))
}

func TestSelect_WhereFragmentsKeepCallOrderAfterMatch(t *testing.T) {
	query := NewSelect("foo").
		Where("live", true).
		Matching("bar").
		WhereNot("bar_id", 7)
	assert.Equal(t,
		"SELECT * FROM foo WHERE MATCH('bar') AND `live` = 1 AND `bar_id` <> 7",
		mustSQL(t, query))
}

func TestSelect_GroupBy(t *testing.T) {
	query := NewSelect("foo").GroupBy("bar_id")
	assert.Equal(t, "SELECT * FROM foo GROUP BY `bar_id`", mustSQL(t, query))
}

func TestSelect_GroupBest(t *testing.T) {
	query := NewSelect("foo").GroupBy("bar_id").GroupBest(3)
	assert.Equal(t, "SELECT * FROM foo GROUP 3 BY `bar_id`", mustSQL(t, query))
}

func TestSelect_GroupBestWithoutGroupByIsIgnored(t *testing.T) {
	query := NewSelect("foo").GroupBest(3)
	assert.Equal(t, "SELECT * FROM foo", mustSQL(t, query))
}

func TestSelect_HavingPassesThroughVerbatim(t *testing.T) {
	query := NewSelect("foo").GroupBy("bar_id").Having("COUNT(*) > 1")
	assert.Equal(t, "SELECT * FROM foo GROUP BY `bar_id` HAVING COUNT(*) > 1", mustSQL(t, query))
}

func TestSelect_OrderByForms(t *testing.T) {
	tests := []struct {
		name     string
		term     string
		expected string
	}{
		{"bare field", "bar_id", "ORDER BY `bar_id`"},
		{"field with direction", "bar_id ASC", "ORDER BY `bar_id` ASC"},
		{"already quoted", "`bar_id` DESC", "ORDER BY `bar_id` DESC"},
		{"computed variable", "@weight DESC", "ORDER BY @weight DESC"},
		{"function call", "weight() DESC", "ORDER BY weight() DESC"},
		{"json dotted path", "attrs.priority DESC", "ORDER BY attrs.priority DESC"},
		{"json bracket path", "attrs['priority'] ASC", "ORDER BY attrs['priority'] ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := NewSelect("foo").OrderBy(tt.term)
			assert.Equal(t, "SELECT * FROM foo "+tt.expected, mustSQL(t, query))
		})
	}
}

func TestSelect_OrderByMultipleTerms(t *testing.T) {
	query := NewSelect("foo").OrderBy("@weight DESC").OrderBy("bar_id ASC")
	assert.Equal(t, "SELECT * FROM foo ORDER BY @weight DESC, `bar_id` ASC", mustSQL(t, query))
}

func TestSelect_WithinGroupOrderBy(t *testing.T) {
	query := NewSelect("foo").GroupBy("bar_id").WithinGroupOrderBy("id ASC")
	assert.Equal(t,
		"SELECT * FROM foo GROUP BY `bar_id` WITHIN GROUP ORDER BY `id` ASC",
		mustSQL(t, query))
}

func TestSelect_LimitOnly(t *testing.T) {
	query := NewSelect("foo").Limit(10)
	assert.Equal(t, "SELECT * FROM foo LIMIT 0, 10", mustSQL(t, query))
}

func TestSelect_OffsetOnlyUsesDefaultLimit(t *testing.T) {
	query := NewSelect("foo").Offset(20)
	assert.Equal(t, "SELECT * FROM foo LIMIT 20, 20", mustSQL(t, query))
}

func TestSelect_LimitAndOffset(t *testing.T) {
	query := NewSelect("foo").Limit(10).Offset(30)
	assert.Equal(t, "SELECT * FROM foo LIMIT 30, 10", mustSQL(t, query))
}

func TestSelect_NoLimitClauseWhenUnset(t *testing.T) {
	assert.NotContains(t, mustSQL(t, NewSelect("foo")), "LIMIT")
}

func TestSelect_LastScalarWins(t *testing.T) {
	query := NewSelect("foo").Limit(10).Limit(5).Offset(2).Offset(4)
	assert.Equal(t, "SELECT * FROM foo LIMIT 4, 5", mustSQL(t, query))
}

func TestSelect_ScalarOption(t *testing.T) {
	query := NewSelect("foo").WithOption("ranker", "bm25")
	assert.Equal(t, "SELECT * FROM foo OPTION ranker=bm25", mustSQL(t, query))
}

func TestSelect_IntegerOption(t *testing.T) {
	query := NewSelect("foo").WithOption("max_matches", 3000)
	assert.Equal(t, "SELECT * FROM foo OPTION max_matches=3000", mustSQL(t, query))
}

func TestSelect_NestedOption(t *testing.T) {
	query := NewSelect("foo").WithOption("weights", []Param{{Name: "foo", Value: 5}})
	assert.Equal(t, "SELECT * FROM foo OPTION weights=(foo=5)", mustSQL(t, query))
}

func TestSelect_MultipleOptionsKeepInsertionOrder(t *testing.T) {
	query := NewSelect("foo").WithOptions(
		Param{Name: "ranker", Value: "bm25"},
		Param{Name: "field_weights", Value: []Param{
			{Name: "title", Value: 10},
			{Name: "content", Value: 1},
		}},
	)
	assert.Equal(t,
		"SELECT * FROM foo OPTION ranker=bm25, field_weights=(title=10, content=1)",
		mustSQL(t, query))
}

func TestSelect_RepeatedOptionsAreNotDeduplicated(t *testing.T) {
	query := NewSelect("foo").
		WithOption("ranker", "bm25").
		WithOption("ranker", "none")
	assert.Equal(t, "SELECT * FROM foo OPTION ranker=bm25, ranker=none", mustSQL(t, query))
}

func TestSelect_UnsupportedValueReportsField(t *testing.T) {
	_, err := NewSelect("foo").Where("score", 1.5).ToSQL()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedValue)
	assert.Contains(t, err.Error(), "score")
}

func TestSelect_UnsupportedValueInsideSlice(t *testing.T) {
	_, err := NewSelect("foo").Where("score", []any{1, struct{}{}}).ToSQL()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestSelect_ToSQLIsIdempotent(t *testing.T) {
	query := NewSelect("foo").Matching("bar").Where("live", true).Limit(5)
	first := mustSQL(t, query)
	assert.Equal(t, first, mustSQL(t, query))

	// Mutating between renders is allowed; the render reflects current state.
	query.Offset(10)
	assert.Equal(t, "SELECT * FROM foo WHERE MATCH('bar') AND `live` = 1 LIMIT 10, 5", mustSQL(t, query))
}

func TestSelect_ClauseOrderKitchenSink(t *testing.T) {
	query := NewSelect("foo", "bar").
		Values("id").
		Prepend("weight() AS w").
		Matching("search term").
		Where("live", true).
		WhereNot("bar_id", []int{7, 8}).
		GroupBy("category_id").
		GroupBest(3).
		Having("COUNT(*) > 1").
		OrderBy("w DESC").
		WithinGroupOrderBy("id ASC").
		Limit(20).
		Offset(40).
		WithOption("ranker", "bm25")
	assert.Equal(t,
		"SELECT weight() AS w, id FROM foo, bar "+
			"WHERE MATCH('search term') AND `live` = 1 AND `bar_id` NOT IN (7, 8) "+
			"GROUP 3 BY `category_id` HAVING COUNT(*) > 1 "+
			"ORDER BY `w` DESC WITHIN GROUP ORDER BY `id` ASC "+
			"LIMIT 40, 20 OPTION ranker=bm25",
		mustSQL(t, query))
}
