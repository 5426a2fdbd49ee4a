package csvsource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/query"
)

const employees = "\uFEFFid,name,salary\n7,Grace,50000\n8,Heidi,9000.5\n9,Ivan,\n"

func TestRead(t *testing.T) {
	data, err := Read(strings.NewReader(employees), "id")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "salary"}, data.Headers)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "7", data.Rows[0].ID)
	assert.Equal(t, json.Number("50000"), data.Rows[0].Values["salary"])
	assert.Equal(t, "Grace", data.Rows[0].Values["name"])
	assert.Equal(t, "", data.Rows[2].Values["salary"])
}

func TestNumericFieldsSortNumerically(t *testing.T) {
	data, err := Read(strings.NewReader(employees), "id")
	require.NoError(t, err)

	res := query.Evaluate(data.Rows, models.QuerySpec{
		Filters: map[string]string{"salary": "0"},
		Sort:    &models.SortSpec{Column: "salary", Direction: models.Asc},
	}, query.Options{})
	require.Equal(t, 2, res.Total)
	assert.Equal(t, "8", res.Rows[0].ID)
	assert.Equal(t, "7", res.Rows[1].ID)
}

func TestLineNumbersAsIDs(t *testing.T) {
	data, err := Read(strings.NewReader("a,b\n1,2\n3\n"), "")
	require.NoError(t, err)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "1", data.Rows[0].ID)
	assert.Equal(t, "2", data.Rows[1].ID)
	assert.Nil(t, data.Rows[1].Values["b"], "short records pad with nil")
}

func TestDuplicateIDs(t *testing.T) {
	_, err := Read(strings.NewReader("id\n1\n1\n"), "id")
	assert.ErrorContains(t, err, `duplicate row id "1" on line 3`)
}

func TestEmptyFile(t *testing.T) {
	_, err := Read(strings.NewReader(""), "id")
	assert.EqualError(t, err, "csv has no header line")
}

func TestTyped(t *testing.T) {
	assert.Equal(t, json.Number("-1.5e3"), typed("-1.5e3"))
	assert.Equal(t, "NaN", typed("NaN"))
	assert.Equal(t, "Inf", typed("Inf"))
	assert.Equal(t, "0x1F", typed("0x1F"))
	assert.Equal(t, "1_000", typed("1_000"))
	assert.Equal(t, "abc", typed("abc"))
}

func TestLoadAndColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.csv")
	require.NoError(t, os.WriteFile(path, []byte(employees), 0644))

	data, err := Load(path, "id")
	require.NoError(t, err)
	defs := data.Columns("id")
	require.Len(t, defs, 3)
	assert.Equal(t, models.PinLeft, defs[0].Pinned)
	assert.True(t, defs[0].AlwaysVisible)
	assert.False(t, defs[0].Editable)
	assert.True(t, defs[1].Editable)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), "id")
	assert.ErrorContains(t, err, "failed to open csv")
}
