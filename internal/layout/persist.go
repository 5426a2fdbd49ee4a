package layout

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// legacyLayout is the older persisted shape: separate order, width and
// hidden collections instead of one entry per column.
type legacyLayout struct {
	Order  []string           `json:"order"`
	Widths map[string]float64 `json:"widths"`
	Hidden []string           `json:"hidden"`
}

// Load restores the persisted layout and reconciles it against the current
// column definitions. Corrupt data is discarded in favor of defaults. A
// legacy layout is migrated and written back in the current shape.
func (e *Engine) Load() error {
	if e.store == nil {
		return nil
	}
	data, ok, err := e.store.Read(e.key)
	if err != nil {
		return fmt.Errorf("failed to read column layout: %w", err)
	}
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	stored, migrated, err := decode(data)
	if err != nil {
		e.logger.Warn("discarding corrupt column layout",
			zap.String("key", e.key), zap.Error(err))
		e.entries = e.defaultEntries()
		return e.persist()
	}

	e.entries = e.reconcile(stored)
	if migrated {
		e.logger.Info("migrated legacy column layout", zap.String("key", e.key))
		return e.persist()
	}
	return nil
}

func decode(data []byte) (entries []models.LayoutEntry, migrated bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '{' {
		var legacy legacyLayout
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return nil, false, err
		}
		if legacy.Order == nil && legacy.Widths == nil && legacy.Hidden == nil {
			return nil, false, fmt.Errorf("unrecognized layout object")
		}
		return migrateLegacy(legacy), true, nil
	}
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, false, err
	}
	return entries, false, nil
}

func migrateLegacy(legacy legacyLayout) []models.LayoutEntry {
	hidden := make(map[string]bool, len(legacy.Hidden))
	for _, key := range legacy.Hidden {
		hidden[key] = true
	}
	entries := make([]models.LayoutEntry, 0, len(legacy.Order))
	for _, key := range legacy.Order {
		entry := models.LayoutEntry{Key: key, Visible: !hidden[key]}
		if w, ok := legacy.Widths[key]; ok {
			entry.Width = &w
		}
		entries = append(entries, entry)
	}
	// Widths or hidden flags for columns missing from the order still
	// apply; reconcile places those columns at the end.
	for key := range legacy.Widths {
		if !containsKey(entries, key) {
			w := legacy.Widths[key]
			entries = append(entries, models.LayoutEntry{Key: key, Width: &w, Visible: !hidden[key]})
		}
	}
	for _, key := range legacy.Hidden {
		if !containsKey(entries, key) {
			entries = append(entries, models.LayoutEntry{Key: key, Visible: false})
		}
	}
	return entries
}

func containsKey(entries []models.LayoutEntry, key string) bool {
	for _, entry := range entries {
		if entry.Key == key {
			return true
		}
	}
	return false
}

// reconcile drops entries for unknown or duplicate keys and appends the
// configured columns that are missing, with defaults.
func (e *Engine) reconcile(stored []models.LayoutEntry) []models.LayoutEntry {
	seen := make(map[string]bool, len(e.defs))
	out := make([]models.LayoutEntry, 0, len(e.defs))
	for _, entry := range stored {
		def, ok := e.byKey[entry.Key]
		if !ok || seen[entry.Key] {
			continue
		}
		seen[entry.Key] = true
		if def.AlwaysVisible {
			entry.Visible = true
		}
		if entry.Width != nil {
			w := e.clamp(*entry.Width, def)
			entry.Width = &w
		}
		out = append(out, entry)
	}
	for _, def := range e.defs {
		if !seen[def.Key] {
			out = append(out, models.LayoutEntry{Key: def.Key, Visible: true})
		}
	}
	return out
}

// persist writes the whole layout. The in-memory layout is kept even when
// the write fails.
func (e *Engine) persist() error {
	if e.store == nil {
		return nil
	}
	data, err := json.Marshal(e.entries)
	if err != nil {
		return fmt.Errorf("failed to encode column layout: %w", err)
	}
	if err := e.store.Write(e.key, data); err != nil {
		e.logger.Warn("failed to persist column layout", zap.String("key", e.key), zap.Error(err))
		return fmt.Errorf("failed to save column layout: %w", err)
	}
	return nil
}
