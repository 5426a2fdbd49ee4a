package layout

import "github.com/rebeliceyang/lazygrid/internal/models"

type sized struct {
	def   models.ColumnDef
	pin   models.PinSide
	width float64
	flex  bool
}

// ComputeLayout returns the geometry of the visible columns for a container
// of the given width: left-pinned columns first, then unpinned, then
// right-pinned, each group in layout order.
//
// Columns with a custom or nominal width keep it. Flex columns share what is
// left of the container equally, never going below their minimum width.
// Without flex columns, any slack is spread equally over every column so the
// layout fills the container.
func (e *Engine) ComputeLayout(containerWidth float64) []models.Placement {
	var left, center, right []sized
	for _, entry := range e.entries {
		if !entry.Visible {
			continue
		}
		def := e.byKey[entry.Key]
		s := sized{def: def, pin: e.pinOf(entry)}
		switch {
		case e.resize != nil && e.resize.key == entry.Key:
			s.width = e.resize.width
		case entry.Width != nil:
			s.width = *entry.Width
		case def.Width > 0:
			s.width = def.Width
		default:
			s.flex = true
		}
		switch s.pin {
		case models.PinLeft:
			left = append(left, s)
		case models.PinRight:
			right = append(right, s)
		default:
			center = append(center, s)
		}
	}

	cols := make([]sized, 0, len(left)+len(center)+len(right))
	cols = append(cols, left...)
	cols = append(cols, center...)
	cols = append(cols, right...)
	if len(cols) == 0 {
		return nil
	}

	fixed, flexCount := 0.0, 0
	for _, c := range cols {
		if c.flex {
			flexCount++
		} else {
			fixed += c.width
		}
	}

	if flexCount > 0 {
		share := max(0, containerWidth-fixed) / float64(flexCount)
		for i := range cols {
			if cols[i].flex {
				cols[i].width = max(share, e.minFor(cols[i].def))
			}
		}
	} else if fixed < containerWidth {
		extra := (containerWidth - fixed) / float64(len(cols))
		for i := range cols {
			cols[i].width += extra
		}
	}

	out := make([]models.Placement, len(cols))
	for i, c := range cols {
		out[i] = models.Placement{
			Key:      c.def.Key,
			Width:    c.width,
			MinWidth: e.minFor(c.def),
			Pinned:   c.pin,
		}
	}

	offset := 0.0
	for i := range left {
		l := offset
		out[i].Left = &l
		offset += out[i].Width
	}
	offset = 0.0
	for i := len(out) - 1; i >= len(out)-len(right); i-- {
		r := offset
		out[i].Right = &r
		offset += out[i].Width
	}
	return out
}
