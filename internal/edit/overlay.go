// Package edit tracks local cell edits: the single in-flight draft and the
// committed records overlaid on fetched rows.
package edit

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/cell"
	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/storage"
)

// ErrNoPendingEdit is returned when an operation needs an open edit
var ErrNoPendingEdit = errors.New("no edit in progress")

// ValidationError is returned by Commit when the validator rejects the draft
type ValidationError struct {
	Cell    models.CellKey
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %s/%s: %s", e.Cell.RowID, e.Cell.ColumnKey, e.Message)
}

// SaveError reports that committed edits could not be persisted. The edit
// stays applied in memory.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save edits: %v", e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Validator checks a draft before it is committed. A non-empty return value
// is the error message shown to the user.
type Validator func(p models.PendingEdit) string

// Option configures an Overlay
type Option func(*Overlay)

// WithLogger sets the overlay's logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Overlay) { o.logger = logger.OrNop(l) }
}

// WithValidator sets the validator run on Commit
func WithValidator(v Validator) Option {
	return func(o *Overlay) { o.validator = v }
}

// Overlay holds the pending draft and the committed edit records of a grid
type Overlay struct {
	records map[models.CellKey]models.EditRecord
	pending *models.PendingEdit

	store     storage.Store
	key       string
	validator Validator
	logger    *zap.Logger
}

// New creates an empty overlay. Call Load to restore persisted records. A
// nil store keeps records in memory only.
func New(store storage.Store, key string, opts ...Option) *Overlay {
	o := &Overlay{
		records: make(map[models.CellKey]models.EditRecord),
		store:   store,
		key:     key,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load restores committed records from storage. Corrupt data is discarded.
func (o *Overlay) Load() error {
	if o.store == nil {
		return nil
	}
	data, ok, err := o.store.Read(o.key)
	if err != nil {
		return fmt.Errorf("failed to read edits: %w", err)
	}
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var stored []models.EditRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		o.logger.Warn("discarding corrupt edit records", zap.String("key", o.key), zap.Error(err))
		o.records = make(map[models.CellKey]models.EditRecord)
		return o.persist()
	}

	o.records = make(map[models.CellKey]models.EditRecord, len(stored))
	for _, rec := range stored {
		if rec.RowID == "" || rec.ColumnKey == "" || cell.Equal(rec.Updated, rec.Original) {
			continue
		}
		o.records[rec.Key()] = rec
	}
	return nil
}

// StartEdit opens an edit on a cell showing current. An unsaved draft on
// another cell is abandoned; committed records are unaffected.
func (o *Overlay) StartEdit(rowID, columnKey string, current any) {
	if o.pending != nil {
		o.logger.Debug("abandoning unsaved draft",
			zap.String("row", o.pending.RowID), zap.String("column", o.pending.ColumnKey))
	}
	original := current
	if rec, ok := o.records[models.CellKey{RowID: rowID, ColumnKey: columnKey}]; ok {
		original = rec.Original
	}
	o.pending = &models.PendingEdit{
		RowID:     rowID,
		ColumnKey: columnKey,
		Original:  original,
		Draft:     cell.String(current),
	}
}

// Pending returns the open edit, if any
func (o *Overlay) Pending() (models.PendingEdit, bool) {
	if o.pending == nil {
		return models.PendingEdit{}, false
	}
	return *o.pending, true
}

// UpdateDraft replaces the draft value of the open edit
func (o *Overlay) UpdateDraft(value string) error {
	if o.pending == nil {
		return ErrNoPendingEdit
	}
	o.pending.Draft = value
	return nil
}

// Validate runs the validator against the open edit and records its message
func (o *Overlay) Validate() string {
	if o.pending == nil {
		return ""
	}
	msg := ""
	if o.validator != nil {
		msg = o.validator(*o.pending)
	}
	o.pending.Err = msg
	return msg
}

// Commit validates and stores the open edit. On validation failure the edit
// stays open with the message attached. A draft equal to the cell's original
// value removes the cell's record instead of storing a no-op edit.
func (o *Overlay) Commit() error {
	if o.pending == nil {
		return ErrNoPendingEdit
	}
	p := *o.pending
	if msg := o.Validate(); msg != "" {
		return &ValidationError{Cell: models.CellKey{RowID: p.RowID, ColumnKey: p.ColumnKey}, Message: msg}
	}

	key := models.CellKey{RowID: p.RowID, ColumnKey: p.ColumnKey}
	if cell.Equal(p.Draft, p.Original) {
		delete(o.records, key)
	} else {
		o.records[key] = models.EditRecord{
			RowID:     p.RowID,
			ColumnKey: p.ColumnKey,
			Updated:   p.Draft,
			Original:  p.Original,
		}
	}
	o.pending = nil

	if err := o.persist(); err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

// Cancel closes the open edit without saving
func (o *Overlay) Cancel() {
	o.pending = nil
}

// Clear removes the record for one cell
func (o *Overlay) Clear(rowID, columnKey string) error {
	key := models.CellKey{RowID: rowID, ColumnKey: columnKey}
	if _, ok := o.records[key]; !ok {
		return nil
	}
	delete(o.records, key)
	return o.persist()
}

// ClearAll removes every record from memory and storage. Callers confirm
// with the user first.
func (o *Overlay) ClearAll() error {
	o.records = make(map[models.CellKey]models.EditRecord)
	o.pending = nil
	return o.persist()
}

// Len returns the number of committed records
func (o *Overlay) Len() int { return len(o.records) }

// Record returns the record for a cell
func (o *Overlay) Record(rowID, columnKey string) (models.EditRecord, bool) {
	rec, ok := o.records[models.CellKey{RowID: rowID, ColumnKey: columnKey}]
	return rec, ok
}

// Records returns every committed record ordered by row then column
func (o *Overlay) Records() []models.EditRecord {
	out := make([]models.EditRecord, 0, len(o.records))
	for _, rec := range o.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RowID != out[j].RowID {
			return out[i].RowID < out[j].RowID
		}
		return out[i].ColumnKey < out[j].ColumnKey
	})
	return out
}

// Overlay returns rows with every committed edit applied. Rows without
// edits are returned as is; edited rows are copies. The input is never
// modified, and applying the overlay twice gives the same result.
func (o *Overlay) Overlay(rows []models.Row) []models.Row {
	if len(o.records) == 0 {
		return rows
	}
	byRow := make(map[string][]models.EditRecord)
	for _, rec := range o.records {
		byRow[rec.RowID] = append(byRow[rec.RowID], rec)
	}

	out := make([]models.Row, len(rows))
	for i, row := range rows {
		recs, ok := byRow[row.ID]
		if !ok {
			out[i] = row
			continue
		}
		edited := row.Clone()
		for _, rec := range recs {
			edited.Values[rec.ColumnKey] = rec.Updated
		}
		out[i] = edited
	}
	return out
}

// Reconcile drops records whose updated value now matches freshly fetched
// authoritative rows. Records for rows not in the batch are kept. It
// returns the number of records dropped.
func (o *Overlay) Reconcile(rows []models.Row) int {
	if len(o.records) == 0 {
		return 0
	}
	dropped := 0
	for _, row := range rows {
		for key, rec := range o.records {
			if key.RowID != row.ID {
				continue
			}
			if v, ok := row.Get(key.ColumnKey); ok && cell.Equal(v, rec.Updated) {
				delete(o.records, key)
				dropped++
			}
		}
	}
	if dropped > 0 {
		o.logger.Debug("reconciled edits with source", zap.Int("dropped", dropped))
		if err := o.persist(); err != nil {
			o.logger.Warn("failed to persist reconciled edits", zap.Error(err))
		}
	}
	return dropped
}

func (o *Overlay) persist() error {
	if o.store == nil {
		return nil
	}
	data, err := json.Marshal(o.Records())
	if err != nil {
		return fmt.Errorf("failed to encode edits: %w", err)
	}
	if err := o.store.Write(o.key, data); err != nil {
		o.logger.Warn("failed to persist edits", zap.String("key", o.key), zap.Error(err))
		return err
	}
	return nil
}
