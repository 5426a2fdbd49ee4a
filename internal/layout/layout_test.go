package layout

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/storage"
)

const layoutKey = "employees.layout"

func testDefs() []models.ColumnDef {
	return []models.ColumnDef{
		{Key: "id", Title: "ID", Width: 200, Resizable: true, AlwaysVisible: true},
		{Key: "name", Title: "Name", Resizable: true},
		{Key: "dept", Title: "Department", Resizable: true},
		{Key: "salary", Title: "Salary", Resizable: true},
	}
}

func keys(entries []models.LayoutEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func placementKeys(ps []models.Placement) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Key
	}
	return out
}

func TestDefaultLayout(t *testing.T) {
	e := New(testDefs(), storage.NewMemory(), layoutKey)
	assert.Equal(t, []string{"id", "name", "dept", "salary"}, keys(e.Entries()))
	for _, entry := range e.Entries() {
		assert.True(t, entry.Visible)
		assert.Nil(t, entry.Width)
	}
	assert.False(t, e.HasCustomSettings())
}

func TestFlexColumnsShareRemainingWidth(t *testing.T) {
	e := New(testDefs(), nil, layoutKey)
	ps := e.ComputeLayout(1000)

	require.Len(t, ps, 4)
	assert.Equal(t, 200.0, ps[0].Width)
	for _, p := range ps[1:] {
		assert.InDelta(t, 266.67, p.Width, 0.01)
	}
}

func TestFlexColumnsFlooredAtMinimum(t *testing.T) {
	e := New(testDefs(), nil, layoutKey)
	ps := e.ComputeLayout(150)

	assert.Equal(t, 200.0, ps[0].Width)
	for _, p := range ps[1:] {
		assert.Equal(t, MinWidth, p.Width)
	}
}

func TestSlackSpreadAcrossAllColumnsWithoutFlex(t *testing.T) {
	defs := []models.ColumnDef{
		{Key: "a", Width: 100},
		{Key: "b", Width: 200},
	}
	e := New(defs, nil, layoutKey)
	ps := e.ComputeLayout(500)

	assert.Equal(t, 200.0, ps[0].Width)
	assert.Equal(t, 300.0, ps[1].Width)

	ps = e.ComputeLayout(250)
	assert.Equal(t, 100.0, ps[0].Width, "no shrinking when the columns overflow")
	assert.Equal(t, 200.0, ps[1].Width)
}

func TestPinnedOffsets(t *testing.T) {
	defs := []models.ColumnDef{
		{Key: "a", Width: 100},
		{Key: "b", Width: 50, Pinned: models.PinRight},
		{Key: "c", Width: 80, Pinned: models.PinLeft},
		{Key: "d", Width: 120},
		{Key: "e", Width: 70, Pinned: models.PinLeft},
		{Key: "f", Width: 60, Pinned: models.PinRight},
	}
	e := New(defs, nil, layoutKey)
	ps := e.ComputeLayout(480)

	require.Equal(t, []string{"c", "e", "a", "d", "b", "f"}, placementKeys(ps))

	require.NotNil(t, ps[0].Left)
	assert.Equal(t, 0.0, *ps[0].Left)
	require.NotNil(t, ps[1].Left)
	assert.Equal(t, 80.0, *ps[1].Left)

	assert.Nil(t, ps[2].Left)
	assert.Nil(t, ps[2].Right)

	require.NotNil(t, ps[5].Right)
	assert.Equal(t, 0.0, *ps[5].Right)
	require.NotNil(t, ps[4].Right)
	assert.Equal(t, 60.0, *ps[4].Right)
}

func TestHiddenColumnsAreNotLaidOut(t *testing.T) {
	e := New(testDefs(), nil, layoutKey)
	require.NoError(t, e.SetVisible("dept", false))

	ps := e.ComputeLayout(1000)
	assert.Equal(t, []string{"id", "name", "salary"}, placementKeys(ps))
	assert.InDelta(t, 400.0, ps[1].Width, 0.001)
}

func TestMoveUsesArrayMoveSemantics(t *testing.T) {
	e := New(testDefs(), storage.NewMemory(), layoutKey)

	require.NoError(t, e.Move("id", "dept"))
	assert.Equal(t, []string{"name", "dept", "id", "salary"}, keys(e.Entries()))

	require.NoError(t, e.Move("salary", "name"))
	assert.Equal(t, []string{"salary", "name", "dept", "id"}, keys(e.Entries()))
	assert.True(t, e.HasCustomSettings())
}

func TestMoveAcrossPinGroupsIsRejectedByDefault(t *testing.T) {
	defs := testDefs()
	defs[0].Pinned = models.PinLeft
	e := New(defs, nil, layoutKey)

	err := e.Move("name", "id")
	assert.ErrorIs(t, err, ErrMoveRejected)
	assert.Equal(t, []string{"id", "name", "dept", "salary"}, keys(e.Entries()))

	e = New(defs, nil, layoutKey, WithMovePolicy(AnyMove))
	require.NoError(t, e.Move("name", "id"))
	assert.Equal(t, []string{"name", "id", "dept", "salary"}, keys(e.Entries()))
}

func TestSetOrder(t *testing.T) {
	e := New(testDefs(), nil, layoutKey)
	require.NoError(t, e.SetOrder([]string{"salary", "name"}))
	assert.Equal(t, []string{"salary", "name", "id", "dept"}, keys(e.Entries()))

	assert.ErrorIs(t, e.SetOrder([]string{"nope"}), ErrUnknownColumn)
}

func TestWidths(t *testing.T) {
	e := New(testDefs(), storage.NewMemory(), layoutKey)

	require.NoError(t, e.SetWidth("name", 10))
	assert.Equal(t, MinWidth, *e.Entries()[1].Width, "clamped to the minimum")

	require.NoError(t, e.SetWidth("name", 5000))
	assert.Equal(t, MaxWidth, *e.Entries()[1].Width, "clamped to the maximum")
	assert.True(t, e.HasCustomSettings())

	require.NoError(t, e.ResetWidth("name"))
	assert.Nil(t, e.Entries()[1].Width)
	assert.False(t, e.HasCustomSettings())

	require.NoError(t, e.SetWidth("name", 120))
	require.NoError(t, e.SetWidth("dept", 130))
	require.NoError(t, e.ResetAllWidths())
	for _, entry := range e.Entries() {
		assert.Nil(t, entry.Width)
	}

	assert.ErrorIs(t, e.SetWidth("ghost", 100), ErrUnknownColumn)
}

func TestNominalWidthIsNotCustom(t *testing.T) {
	e := New(testDefs(), nil, layoutKey)
	require.NoError(t, e.SetWidth("id", 200))
	assert.False(t, e.HasCustomSettings())
}

func TestNonResizableColumn(t *testing.T) {
	defs := []models.ColumnDef{{Key: "a"}}
	e := New(defs, nil, layoutKey)
	assert.ErrorIs(t, e.SetWidth("a", 100), ErrNotResizable)
	_, err := e.BeginResize("a", 100)
	assert.ErrorIs(t, err, ErrNotResizable)
}

func TestAlwaysVisibleCannotBeHidden(t *testing.T) {
	e := New(testDefs(), nil, layoutKey)

	assert.ErrorIs(t, e.SetVisible("id", false), ErrAlwaysVisible)
	assert.True(t, e.IsVisible("id"))

	require.NoError(t, e.SetAllVisible(false))
	assert.True(t, e.IsVisible("id"))
	assert.False(t, e.IsVisible("name"))
	assert.False(t, e.IsVisible("dept"))
	assert.Len(t, e.VisibleColumns(), 1)

	require.NoError(t, e.SetAllVisible(true))
	assert.Len(t, e.VisibleColumns(), 4)
}

func TestOnHideFiresForNewlyHiddenColumns(t *testing.T) {
	e := New(testDefs(), nil, layoutKey)
	var hidden []string
	e.OnHide(func(key string) { hidden = append(hidden, key) })

	require.NoError(t, e.SetVisible("name", false))
	require.NoError(t, e.SetVisible("name", false))
	assert.Equal(t, []string{"name"}, hidden, "already hidden columns do not fire again")

	require.NoError(t, e.SetAllVisible(false))
	assert.Equal(t, []string{"name", "dept", "salary"}, hidden)
}

func TestPinOverride(t *testing.T) {
	e := New(testDefs(), nil, layoutKey)
	require.NoError(t, e.SetPinned("salary", models.PinLeft))
	assert.Equal(t, models.PinLeft, e.PinnedSide("salary"))
	assert.True(t, e.HasCustomSettings())

	ps := e.ComputeLayout(1000)
	assert.Equal(t, "salary", ps[0].Key)

	require.NoError(t, e.SetPinned("salary", models.PinNone))
	assert.False(t, e.HasCustomSettings())
}

func TestResetAll(t *testing.T) {
	e := New(testDefs(), storage.NewMemory(), layoutKey)
	require.NoError(t, e.Move("salary", "id"))
	require.NoError(t, e.SetWidth("name", 300))
	require.NoError(t, e.SetVisible("dept", false))
	require.True(t, e.HasCustomSettings())

	require.NoError(t, e.ResetAll())
	assert.False(t, e.HasCustomSettings())
	assert.Equal(t, []string{"id", "name", "dept", "salary"}, keys(e.Entries()))
}

func TestResizeDrag(t *testing.T) {
	e := New(testDefs(), storage.NewMemory(), layoutKey)

	r, err := e.BeginResize("name", 266.67)
	require.NoError(t, err)
	assert.Equal(t, "name", r.Key())

	w, err := e.Drag(21)
	require.NoError(t, err)
	assert.Equal(t, 290.0, w, "snapped to 5px")

	ps := e.ComputeLayout(1000)
	assert.Equal(t, 290.0, ps[1].Width, "live width applies during the drag")
	assert.Nil(t, e.Entries()[1].Width, "not persisted until commit")

	w, err = e.Drag(-1000)
	require.NoError(t, err)
	assert.Equal(t, MinWidth, w)

	_, err = e.Drag(40)
	require.NoError(t, err)
	require.NoError(t, e.CommitResize())
	assert.Equal(t, 305.0, *e.Entries()[1].Width)

	_, ok := e.Resizing()
	assert.False(t, ok)
	assert.ErrorIs(t, e.CommitResize(), ErrNoResize)
}

func TestResizeCancel(t *testing.T) {
	e := New(testDefs(), nil, layoutKey)
	_, err := e.BeginResize("name", 100)
	require.NoError(t, err)
	_, _ = e.Drag(100)
	e.CancelResize()

	assert.Nil(t, e.Entries()[1].Width)
	_, err = e.Drag(10)
	assert.ErrorIs(t, err, ErrNoResize)
}

func TestPersistRoundTrip(t *testing.T) {
	store := storage.NewMemory()
	e := New(testDefs(), store, layoutKey)
	require.NoError(t, e.Move("salary", "name"))
	require.NoError(t, e.SetWidth("dept", 175))
	require.NoError(t, e.SetVisible("name", false))
	require.NoError(t, e.SetPinned("salary", models.PinRight))

	reloaded := New(testDefs(), store, layoutKey)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, e.Entries(), reloaded.Entries())
	assert.Equal(t, e.ComputeLayout(900), reloaded.ComputeLayout(900))
}

func TestLoadReconcilesAgainstDefinitions(t *testing.T) {
	store := storage.NewMemory()
	stored := `[
		{"key":"salary","visible":true,"width":150},
		{"key":"removed","visible":true},
		{"key":"id","visible":false},
		{"key":"salary","visible":false}
	]`
	require.NoError(t, store.Write(layoutKey, []byte(stored)))

	e := New(testDefs(), store, layoutKey)
	require.NoError(t, e.Load())

	entries := e.Entries()
	assert.Equal(t, []string{"salary", "id", "name", "dept"}, keys(entries))
	assert.Equal(t, 150.0, *entries[0].Width)
	assert.True(t, entries[0].Visible, "first entry for a key wins")
	assert.True(t, entries[1].Visible, "always-visible columns are forced visible")
	assert.True(t, entries[2].Visible)
}

func TestLoadTreatsMissingVisibleAsVisible(t *testing.T) {
	store := storage.NewMemory()
	stored := `[{"key":"name"},{"key":"dept","width":120},{"key":"salary","visible":false}]`
	require.NoError(t, store.Write(layoutKey, []byte(stored)))

	e := New(testDefs(), store, layoutKey)
	require.NoError(t, e.Load())

	assert.True(t, e.IsVisible("name"))
	assert.True(t, e.IsVisible("dept"))
	assert.False(t, e.IsVisible("salary"))
	assert.Equal(t, []string{"name", "dept", "id"}, keysOf(e.VisibleColumns()))
}

func keysOf(defs []models.ColumnDef) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Key
	}
	return out
}

func TestLoadMigratesLegacyShapeOnce(t *testing.T) {
	store := storage.NewMemory()
	legacy := `{"order":["dept","id","name"],"widths":{"name":220},"hidden":["salary"]}`
	require.NoError(t, store.Write(layoutKey, []byte(legacy)))

	e := New(testDefs(), store, layoutKey)
	require.NoError(t, e.Load())

	entries := e.Entries()
	assert.Equal(t, []string{"dept", "id", "name", "salary"}, keys(entries))
	assert.Equal(t, 220.0, *entries[2].Width)
	assert.False(t, entries[3].Visible)

	data, _, err := store.Read(layoutKey)
	require.NoError(t, err)
	var rewritten []models.LayoutEntry
	require.NoError(t, json.Unmarshal(data, &rewritten), "rewritten in the current shape")
	assert.Equal(t, entries, rewritten)
}

func TestLoadDiscardsCorruptLayout(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Write(layoutKey, []byte(`[{"key":`)))

	e := New(testDefs(), store, layoutKey)
	require.NoError(t, e.Load())
	assert.False(t, e.HasCustomSettings())

	data, _, _ := store.Read(layoutKey)
	var rewritten []models.LayoutEntry
	assert.NoError(t, json.Unmarshal(data, &rewritten))
}

func TestLoadWithoutStoredLayout(t *testing.T) {
	e := New(testDefs(), storage.NewMemory(), layoutKey)
	require.NoError(t, e.Load())
	assert.False(t, e.HasCustomSettings())
}
