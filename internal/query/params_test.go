package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

func TestParamsOmitEmptyEntries(t *testing.T) {
	p := ParamsFor(models.QuerySpec{Filters: map[string]string{"dept": " "}}, 50, 0)
	v, err := p.Values()
	require.NoError(t, err)
	assert.Equal(t, url.Values{"limit": {"50"}}, v)
}

func TestParamsKeepSearchTermVerbatim(t *testing.T) {
	p := ParamsFor(models.QuerySpec{Search: " ada "}, 10, 0)
	assert.Equal(t, " ada ", p.Search)

	p = ParamsFor(models.QuerySpec{Search: "   "}, 10, 0)
	assert.Empty(t, p.Search)
}

func TestParamsEncoding(t *testing.T) {
	spec := models.QuerySpec{
		Search:  "ada lovelace",
		Filters: map[string]string{"dept": "eng"},
		Sort:    &models.SortSpec{Column: "salary", Direction: models.Desc},
	}
	v, err := ParamsFor(spec, 25, 75).Values()
	require.NoError(t, err)

	assert.Equal(t, "25", v.Get("limit"))
	assert.Equal(t, "75", v.Get("offset"))
	assert.Equal(t, "salary,desc", v.Get("sort"))
	assert.Equal(t, "ada lovelace", v.Get("search"))
	assert.JSONEq(t, `{"dept":"eng"}`, v.Get("filters"))
}

func TestParseParamsInvertsValues(t *testing.T) {
	spec := models.QuerySpec{
		Search:  "x",
		Filters: map[string]string{"a": "1", "b": "two"},
		Sort:    &models.SortSpec{Column: "a", Direction: models.Asc},
	}
	want := ParamsFor(spec, 10, 20)
	raw, err := want.Encode()
	require.NoError(t, err)

	parsed, err := url.ParseQuery(raw)
	require.NoError(t, err)
	got, err := ParseParams(parsed)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.True(t, spec.Equal(got.Spec()))
}

func TestParseParamsRejectsBadInput(t *testing.T) {
	_, err := ParseParams(url.Values{"limit": {"ten"}})
	assert.Error(t, err)

	_, err = ParseParams(url.Values{"sort": {"name,sideways"}})
	assert.Error(t, err)

	_, err = ParseParams(url.Values{"filters": {"{"}})
	assert.Error(t, err)
}
