package edit

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/storage"
)

const editsKey = "employees.edits"

func sourceRows() []models.Row {
	return []models.Row{
		{ID: "6", Values: map[string]any{"name": "Frank", "salary": "45000"}},
		{ID: "7", Values: map[string]any{"name": "Grace", "salary": "50000"}},
		{ID: "8", Values: map[string]any{"name": "Heidi", "salary": 70000}},
	}
}

type failingStore struct{}

func (failingStore) Read(string) ([]byte, bool, error) { return nil, false, nil }
func (failingStore) Write(string, []byte) error        { return errors.New("disk full") }

func TestCommitStoresAndRevertRemoves(t *testing.T) {
	store := storage.NewMemory()
	o := New(store, editsKey)

	o.StartEdit("7", "salary", "50000")
	require.NoError(t, o.UpdateDraft("60000"))
	require.NoError(t, o.Commit())

	rec, ok := o.Record("7", "salary")
	require.True(t, ok)
	assert.Equal(t, "60000", rec.Updated)
	assert.Equal(t, "50000", rec.Original)
	_, pending := o.Pending()
	assert.False(t, pending, "commit closes the edit")

	// Editing the overlaid value back to the original deletes the record.
	o.StartEdit("7", "salary", "60000")
	require.NoError(t, o.UpdateDraft("50000"))
	require.NoError(t, o.Commit())

	assert.Equal(t, 0, o.Len())
	assert.Equal(t, sourceRows(), o.Overlay(sourceRows()))

	data, _, err := store.Read(editsKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestRepeatedEditsKeepTrueOriginal(t *testing.T) {
	o := New(nil, editsKey)

	o.StartEdit("8", "salary", 70000)
	require.NoError(t, o.UpdateDraft("71000"))
	require.NoError(t, o.Commit())

	o.StartEdit("8", "salary", "71000")
	require.NoError(t, o.UpdateDraft("72000"))
	require.NoError(t, o.Commit())

	rec, ok := o.Record("8", "salary")
	require.True(t, ok)
	assert.Equal(t, "72000", rec.Updated)
	assert.Equal(t, 70000, rec.Original)
}

func TestUnchangedCommitStoresNothing(t *testing.T) {
	o := New(nil, editsKey)
	o.StartEdit("8", "salary", 70000)
	require.NoError(t, o.Commit())
	assert.Equal(t, 0, o.Len(), "\"70000\" draft equals the numeric original")
}

func TestValidationFailureKeepsEditOpen(t *testing.T) {
	o := New(nil, editsKey, WithValidator(func(p models.PendingEdit) string {
		if _, err := strconv.Atoi(p.Draft); err != nil {
			return "must be a whole number"
		}
		return ""
	}))

	o.StartEdit("7", "salary", "50000")
	require.NoError(t, o.UpdateDraft("lots"))

	err := o.Commit()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a whole number", verr.Message)

	p, ok := o.Pending()
	require.True(t, ok)
	assert.Equal(t, "must be a whole number", p.Err)
	assert.Equal(t, "lots", p.Draft)
	assert.Equal(t, 0, o.Len())

	// Retrying after a correction succeeds.
	require.NoError(t, o.UpdateDraft("55000"))
	require.NoError(t, o.Commit())
	assert.Equal(t, 1, o.Len())
}

func TestValidateWithoutValidator(t *testing.T) {
	o := New(nil, editsKey)
	assert.Equal(t, "", o.Validate())
	o.StartEdit("7", "salary", "1")
	assert.Equal(t, "", o.Validate())
}

func TestStartEditAbandonsDraftOnly(t *testing.T) {
	o := New(nil, editsKey)

	o.StartEdit("6", "name", "Frank")
	require.NoError(t, o.UpdateDraft("Francis"))
	require.NoError(t, o.Commit())

	o.StartEdit("7", "name", "Grace")
	require.NoError(t, o.UpdateDraft("Gracie"))
	o.StartEdit("8", "name", "Heidi")

	p, ok := o.Pending()
	require.True(t, ok)
	assert.Equal(t, "8", p.RowID)
	assert.Equal(t, "Heidi", p.Draft)

	_, ok = o.Record("7", "name")
	assert.False(t, ok, "unsaved draft is dropped")
	_, ok = o.Record("6", "name")
	assert.True(t, ok, "committed edits survive")
}

func TestCancel(t *testing.T) {
	o := New(nil, editsKey)
	o.StartEdit("7", "name", "Grace")
	require.NoError(t, o.UpdateDraft("G"))
	o.Cancel()

	_, ok := o.Pending()
	assert.False(t, ok)
	assert.Equal(t, 0, o.Len())
	assert.ErrorIs(t, o.Commit(), ErrNoPendingEdit)
	assert.ErrorIs(t, o.UpdateDraft("x"), ErrNoPendingEdit)
}

func TestOverlayAppliesEditsWithoutMutatingInput(t *testing.T) {
	o := New(nil, editsKey)
	o.StartEdit("7", "salary", "50000")
	_ = o.UpdateDraft("60000")
	require.NoError(t, o.Commit())
	o.StartEdit("7", "name", "Grace")
	_ = o.UpdateDraft("Grace H.")
	require.NoError(t, o.Commit())

	rows := sourceRows()
	out := o.Overlay(rows)

	assert.Equal(t, "60000", out[1].Values["salary"])
	assert.Equal(t, "Grace H.", out[1].Values["name"])
	assert.Equal(t, rows[0], out[0], "unedited rows untouched")
	assert.Equal(t, rows[2], out[2])
	assert.Equal(t, "50000", rows[1].Values["salary"], "input not mutated")

	assert.Equal(t, out, o.Overlay(out), "overlay is idempotent")
	assert.Equal(t, out, o.Overlay(o.Overlay(rows)))
}

func TestClearAndClearAll(t *testing.T) {
	store := storage.NewMemory()
	o := New(store, editsKey)
	for _, id := range []string{"6", "7", "8"} {
		o.StartEdit(id, "name", "x")
		_ = o.UpdateDraft("y")
		require.NoError(t, o.Commit())
	}
	require.Equal(t, 3, o.Len())

	require.NoError(t, o.Clear("7", "name"))
	assert.Equal(t, 2, o.Len())
	require.NoError(t, o.Clear("7", "name"))

	o.StartEdit("6", "salary", "1")
	require.NoError(t, o.ClearAll())
	assert.Equal(t, 0, o.Len())
	_, ok := o.Pending()
	assert.False(t, ok)

	reloaded := New(store, editsKey)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 0, reloaded.Len())
}

func TestPersistAndLoad(t *testing.T) {
	store := storage.NewMemory()
	o := New(store, editsKey)
	o.StartEdit("7", "salary", "50000")
	_ = o.UpdateDraft("60000")
	require.NoError(t, o.Commit())
	o.StartEdit("6", "name", "Frank")
	_ = o.UpdateDraft("Francis")
	require.NoError(t, o.Commit())

	reloaded := New(store, editsKey)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, o.Records(), reloaded.Records())
	assert.Equal(t, o.Overlay(sourceRows()), reloaded.Overlay(sourceRows()))
}

func TestLoadDiscardsCorruptRecords(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Write(editsKey, []byte("not json")))

	o := New(store, editsKey)
	require.NoError(t, o.Load())
	assert.Equal(t, 0, o.Len())

	data, _, _ := store.Read(editsKey)
	assert.JSONEq(t, `[]`, string(data))
}

func TestSaveFailureKeepsEditActive(t *testing.T) {
	o := New(failingStore{}, editsKey)
	o.StartEdit("7", "salary", "50000")
	_ = o.UpdateDraft("60000")

	err := o.Commit()
	var serr *SaveError
	require.ErrorAs(t, err, &serr)
	assert.EqualError(t, serr.Unwrap(), "disk full")

	rec, ok := o.Record("7", "salary")
	require.True(t, ok, "not rolled back")
	assert.Equal(t, "60000", rec.Updated)
}

func TestReconcileDropsEditsTheSourceCaughtUpWith(t *testing.T) {
	o := New(nil, editsKey)
	o.StartEdit("7", "salary", "50000")
	_ = o.UpdateDraft("60000")
	require.NoError(t, o.Commit())
	o.StartEdit("6", "name", "Frank")
	_ = o.UpdateDraft("Francis")
	require.NoError(t, o.Commit())

	fresh := sourceRows()
	fresh[1].Values["salary"] = 60000

	assert.Equal(t, 1, o.Reconcile(fresh))
	_, ok := o.Record("7", "salary")
	assert.False(t, ok)
	_, ok = o.Record("6", "name")
	assert.True(t, ok, "edits the source has not seen stay")

	assert.Equal(t, 0, o.Reconcile([]models.Row{{ID: "99", Values: map[string]any{}}}))
	assert.Equal(t, 1, o.Len())
}
