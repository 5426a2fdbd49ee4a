package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/cell"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

func employees() []models.Row {
	return []models.Row{
		{ID: "1", Values: map[string]any{"name": "alice", "dept": "Engineering", "salary": 120000}},
		{ID: "2", Values: map[string]any{"name": "Bob", "dept": "Sales", "salary": 65000}},
		{ID: "3", Values: map[string]any{"name": "carol", "dept": "engineering", "salary": 99000.5}},
		{ID: "4", Values: map[string]any{"name": "Dave", "dept": "Support", "salary": 50000}},
		{ID: "5", Values: map[string]any{"name": "eve", "dept": "Sales", "salary": nil}},
		{ID: "6", Values: map[string]any{"name": "Frank", "dept": "Engineering", "salary": 8000}},
	}
}

func ids(rows []models.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestEvaluateEmptySpecReturnsEverything(t *testing.T) {
	rows := employees()
	res := Evaluate(rows, models.QuerySpec{Search: "   "}, Options{})
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, ids(rows), ids(res.Rows))
}

func TestSearchMatchesTermVerbatim(t *testing.T) {
	res := Evaluate(employees(), models.QuerySpec{Search: "eng"}, Options{})
	assert.Equal(t, []string{"1", "3", "6"}, ids(res.Rows))

	res = Evaluate(employees(), models.QuerySpec{Search: " eng"}, Options{})
	assert.Empty(t, res.Rows, "surrounding spaces are part of the term")
	assert.Zero(t, res.Total)
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	res := Evaluate(employees(), models.QuerySpec{Search: "ENGIN"}, Options{})
	assert.Equal(t, []string{"1", "3", "6"}, ids(res.Rows))
	assert.Equal(t, 3, res.Total)

	// Numbers are searched by their string form.
	res = Evaluate(employees(), models.QuerySpec{Search: "6500"}, Options{})
	assert.Equal(t, []string{"2"}, ids(res.Rows))
}

func TestSearchResultsContainTerm(t *testing.T) {
	for _, term := range []string{"a", "e", "sales", "000", "zz"} {
		res := Evaluate(employees(), models.QuerySpec{Search: term}, Options{})
		for _, row := range res.Rows {
			assert.True(t, MatchesSearch(row, strings.ToLower(term)), "row %s should contain %q", row.ID, term)
		}
		for _, row := range employees() {
			if !MatchesSearch(row, strings.ToLower(term)) {
				assert.NotContains(t, ids(res.Rows), row.ID)
			}
		}
	}
}

func TestFiltersUseAndSemantics(t *testing.T) {
	spec := models.QuerySpec{Filters: map[string]string{"dept": "eng", "name": "A", "salary": ""}}
	res := Evaluate(employees(), spec, Options{})
	assert.Equal(t, []string{"1", "3", "6"}, ids(res.Rows))

	spec.Filters["name"] = "ar"
	res = Evaluate(employees(), spec, Options{})
	assert.Equal(t, []string{"3"}, ids(res.Rows))
}

func TestFilterOnMissingValueExcludesRow(t *testing.T) {
	spec := models.QuerySpec{Filters: map[string]string{"salary": "0"}}
	res := Evaluate(employees(), spec, Options{})
	assert.NotContains(t, ids(res.Rows), "5")
}

func TestTotalIndependentOfSort(t *testing.T) {
	base := models.QuerySpec{Search: "e", Filters: map[string]string{"dept": "s"}}
	want := Evaluate(employees(), base, Options{}).Total

	for _, col := range []string{"name", "salary", "dept", "missing"} {
		for _, dir := range []models.Direction{models.Asc, models.Desc} {
			spec := base.Clone()
			spec.Sort = &models.SortSpec{Column: col, Direction: dir}
			assert.Equal(t, want, Evaluate(employees(), spec, Options{}).Total)
		}
	}
}

func TestSortNumericColumn(t *testing.T) {
	rows := employees()[:4]
	rows = append(rows, employees()[5])

	res := Evaluate(rows, models.QuerySpec{Sort: &models.SortSpec{Column: "salary", Direction: models.Asc}}, Options{})
	assert.Equal(t, []string{"6", "4", "2", "3", "1"}, ids(res.Rows))
	assertMonotonic(t, res.Rows, false)

	res = Evaluate(rows, models.QuerySpec{Sort: &models.SortSpec{Column: "salary", Direction: models.Desc}}, Options{})
	assert.Equal(t, []string{"1", "3", "2", "4", "6"}, ids(res.Rows))
	assertMonotonic(t, res.Rows, true)
}

func assertMonotonic(t *testing.T, rows []models.Row, desc bool) {
	t.Helper()
	for i := 1; i < len(rows); i++ {
		prev, _ := cell.Number(rows[i-1].Values["salary"])
		cur, _ := cell.Number(rows[i].Values["salary"])
		if desc {
			assert.GreaterOrEqual(t, prev, cur)
		} else {
			assert.LessOrEqual(t, prev, cur)
		}
	}
}

func TestSortStringColumnIsCaseInsensitive(t *testing.T) {
	res := Evaluate(employees(), models.QuerySpec{Sort: &models.SortSpec{Column: "name", Direction: models.Asc}}, Options{})
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids(res.Rows))

	res = Evaluate(employees(), models.QuerySpec{Sort: &models.SortSpec{Column: "name", Direction: models.Desc}}, Options{})
	assert.Equal(t, []string{"6", "5", "4", "3", "2", "1"}, ids(res.Rows))
}

func TestSortIsStable(t *testing.T) {
	res := Evaluate(employees(), models.QuerySpec{Sort: &models.SortSpec{Column: "dept", Direction: models.Asc}}, Options{})
	// Engineering rows keep their relative input order regardless of case.
	assert.Equal(t, []string{"1", "3", "6", "2", "5", "4"}, ids(res.Rows))
}

func TestNoSortPreservesFilteredOrder(t *testing.T) {
	res := Evaluate(employees(), models.QuerySpec{Filters: map[string]string{"dept": "sales"}}, Options{})
	assert.Equal(t, []string{"2", "5"}, ids(res.Rows))
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	rows := employees()
	before := ids(rows)
	Evaluate(rows, models.QuerySpec{Sort: &models.SortSpec{Column: "name", Direction: models.Desc}}, Options{})
	assert.Equal(t, before, ids(rows))
}

func TestPagination(t *testing.T) {
	spec := models.QuerySpec{Sort: &models.SortSpec{Column: "name", Direction: models.Asc}}

	res := Evaluate(employees(), spec, Options{Paginate: true, Page: 1, PageSize: 4})
	require.Equal(t, 6, res.Total, "total is counted before pagination")
	assert.Equal(t, []string{"5", "6"}, ids(res.Rows))

	res = Evaluate(employees(), spec, Options{Paginate: true, Page: 5, PageSize: 4})
	assert.Empty(t, res.Rows)
	assert.Equal(t, 6, res.Total)

	res = Evaluate(employees(), spec, Options{Paginate: false, Page: 1, PageSize: 4})
	assert.Len(t, res.Rows, 6, "virtualized evaluation returns the whole set")
}
