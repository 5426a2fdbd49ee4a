package cell

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "Ada", "Ada"},
		{"bytes", []byte("raw"), "raw"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02T03:04:05Z"},
		{"object", map[string]any{"a": 1.0}, `{"a":1}`},
		{"array", []any{"x", 2.0}, `["x",2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestNumber(t *testing.T) {
	f, ok := Number(int32(12))
	assert.True(t, ok)
	assert.Equal(t, 12.0, f)

	f, ok = Number(json.Number("3.25"))
	assert.True(t, ok)
	assert.Equal(t, 3.25, f)

	_, ok = Number("12")
	assert.False(t, ok, "strings are compared as text")

	_, ok = Number(nil)
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("50000", 50000))
	assert.True(t, Equal(nil, ""))
	assert.False(t, Equal("50000", "60000"))
}
