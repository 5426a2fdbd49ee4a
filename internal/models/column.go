package models

import json "github.com/goccy/go-json"

// PinSide indicates which edge of the grid a column sticks to
type PinSide int

const (
	PinNone PinSide = iota
	PinLeft
	PinRight
)

func (p PinSide) String() string {
	switch p {
	case PinLeft:
		return "left"
	case PinRight:
		return "right"
	default:
		return "none"
	}
}

// ColumnDef is the static descriptor of a grid column
type ColumnDef struct {
	Key   string
	Title string

	// Width is the nominal width. Zero makes the column flexible.
	Width    float64
	MinWidth float64

	Sortable      bool
	Filterable    bool
	Resizable     bool
	Editable      bool
	AlwaysVisible bool

	Pinned PinSide
}

// LayoutEntry is the persisted per-column layout state
type LayoutEntry struct {
	Key     string   `json:"key"`
	Width   *float64 `json:"width,omitempty"`
	Visible bool     `json:"visible"`
	Pinned  *PinSide `json:"pinned,omitempty"`
}

// UnmarshalJSON decodes an entry. A missing visible field means visible.
func (e *LayoutEntry) UnmarshalJSON(b []byte) error {
	type entry LayoutEntry
	decoded := entry{Visible: true}
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	*e = LayoutEntry(decoded)
	return nil
}

// Placement is the computed geometry of one visible column
type Placement struct {
	Key      string
	Width    float64
	MinWidth float64
	Pinned   PinSide

	// Left is set for left-pinned columns, Right for right-pinned ones.
	Left  *float64
	Right *float64
}

// MarshalText encodes the side as "none", "left" or "right"
func (p PinSide) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes "left" and "right"; anything else is PinNone
func (p *PinSide) UnmarshalText(b []byte) error {
	*p = ParsePinSide(string(b))
	return nil
}

// ParsePinSide parses "left" or "right"; anything else is PinNone
func ParsePinSide(s string) PinSide {
	switch s {
	case "left":
		return PinLeft
	case "right":
		return PinRight
	default:
		return PinNone
	}
}
