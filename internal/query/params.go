package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Params are the fetch parameters sent to a remote source
type Params struct {
	Limit   int
	Offset  int
	Sort    *models.SortSpec
	Search  string
	Filters map[string]string
}

// ParamsFor builds the fetch parameters for spec. Offset is a row offset.
func ParamsFor(spec models.QuerySpec, limit, offset int) Params {
	p := Params{
		Limit:  limit,
		Offset: offset,
	}
	if strings.TrimSpace(spec.Search) != "" {
		p.Search = spec.Search
	}
	if active := spec.ActiveFilters(); len(active) > 0 {
		p.Filters = active
	}
	if spec.Sort != nil && spec.Sort.Column != "" {
		s := *spec.Sort
		p.Sort = &s
	}
	return p
}

// Spec returns the query spec the parameters were built from
func (p Params) Spec() models.QuerySpec {
	spec := models.QuerySpec{Search: p.Search, Filters: p.Filters}
	if p.Sort != nil {
		s := *p.Sort
		spec.Sort = &s
	}
	return spec
}

// SortParam renders the sort as "<column>,<asc|desc>", or "" without a sort
func (p Params) SortParam() string {
	if p.Sort == nil || p.Sort.Column == "" {
		return ""
	}
	dir := p.Sort.Direction
	if dir != models.Desc {
		dir = models.Asc
	}
	return p.Sort.Column + "," + string(dir)
}

// Values encodes the parameters flat. Empty entries are omitted; filters are
// a JSON object.
func (p Params) Values() (url.Values, error) {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	if s := p.SortParam(); s != "" {
		v.Set("sort", s)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if len(p.Filters) > 0 {
		b, err := json.Marshal(p.Filters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filters: %w", err)
		}
		v.Set("filters", string(b))
	}
	return v, nil
}

// Encode returns the query-string form of the parameters
func (p Params) Encode() (string, error) {
	v, err := p.Values()
	if err != nil {
		return "", err
	}
	return v.Encode(), nil
}

// ParseParams decodes parameters produced by Values
func ParseParams(v url.Values) (Params, error) {
	var p Params
	var err error
	if s := v.Get("limit"); s != "" {
		if p.Limit, err = strconv.Atoi(s); err != nil {
			return Params{}, fmt.Errorf("invalid limit %q: %w", s, err)
		}
	}
	if s := v.Get("offset"); s != "" {
		if p.Offset, err = strconv.Atoi(s); err != nil {
			return Params{}, fmt.Errorf("invalid offset %q: %w", s, err)
		}
	}
	if s := v.Get("sort"); s != "" {
		i := strings.LastIndex(s, ",")
		if i < 0 {
			return Params{}, fmt.Errorf("invalid sort %q", s)
		}
		column, dir := s[:i], s[i+1:]
		switch models.Direction(dir) {
		case models.Asc, models.Desc:
		default:
			return Params{}, fmt.Errorf("invalid sort direction %q", dir)
		}
		p.Sort = &models.SortSpec{Column: column, Direction: models.Direction(dir)}
	}
	p.Search = v.Get("search")
	if s := v.Get("filters"); s != "" {
		if err := json.Unmarshal([]byte(s), &p.Filters); err != nil {
			return Params{}, fmt.Errorf("invalid filters: %w", err)
		}
	}
	return p, nil
}
