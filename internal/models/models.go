package models

// AppState holds the terminal front end state
type AppState struct {
	Width    int
	Height   int
	ViewMode ViewMode
}

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	SearchMode
	FilterMode
	EditMode
	ConfirmMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:    80,
		Height:   24,
		ViewMode: NormalMode,
	}
}

// Row is a single record supplied by a data source
type Row struct {
	ID     string         `json:"id" yaml:"id"`
	Values map[string]any `json:"values" yaml:"values"`
}

// Get returns the value stored under key
func (r Row) Get(key string) (any, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Clone returns a copy of the row whose value map can be modified freely
func (r Row) Clone() Row {
	values := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return Row{ID: r.ID, Values: values}
}

// Strategy selects how a query's results are materialized
type Strategy int

const (
	// Virtualized accumulates pages as the consumer scrolls.
	Virtualized Strategy = iota
	// Paginated replaces the visible rows with one discrete page at a time.
	Paginated
)

func (s Strategy) String() string {
	switch s {
	case Virtualized:
		return "virtualized"
	case Paginated:
		return "paginated"
	default:
		return "unknown"
	}
}

// ParseStrategy parses "virtualized" or "paginated"
func ParseStrategy(s string) (Strategy, bool) {
	switch s {
	case "virtualized", "":
		return Virtualized, true
	case "paginated":
		return Paginated, true
	default:
		return Virtualized, false
	}
}

// FetchMode selects where queries are evaluated
type FetchMode int

const (
	// Local runs the query pipeline against an in-memory row set.
	Local FetchMode = iota
	// Remote sends query parameters to a fetch capability.
	Remote
)

func (m FetchMode) String() string {
	if m == Remote {
		return "remote"
	}
	return "local"
}
