package models

// CellKey identifies a single cell
type CellKey struct {
	RowID     string
	ColumnKey string
}

// EditRecord is a committed local override of one cell
type EditRecord struct {
	RowID     string `json:"rowId" yaml:"row_id"`
	ColumnKey string `json:"columnKey" yaml:"column_key"`
	Updated   any    `json:"updatedValue" yaml:"updated_value"`
	Original  any    `json:"originalValue" yaml:"original_value"`
}

// Key returns the cell the record applies to
func (e EditRecord) Key() CellKey {
	return CellKey{RowID: e.RowID, ColumnKey: e.ColumnKey}
}

// PendingEdit is the single in-flight cell edit
type PendingEdit struct {
	RowID     string
	ColumnKey string
	Original  any
	Draft     string
	Err       string
}
