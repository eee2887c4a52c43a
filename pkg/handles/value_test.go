package handles

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewHandleShape(t *testing.T) {
	h := NewHandle()
	assert.True(t, strings.HasPrefix(h, HandlePrefix))
	assert.Len(t, h, len(HandlePrefix)+32)
	assert.True(t, LooksLikeHandle(h))

	assert.False(t, LooksLikeHandle("qh_short"))
	assert.False(t, LooksLikeHandle("xx_"+strings.Repeat("a", 32)))
	assert.False(t, LooksLikeHandle("qh_"+strings.Repeat("z", 32)))
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
		ok   bool
	}{
		{"nil", nil, NullValue(), true},
		{"string", "Active", StringValue("Active"), true},
		{"int", 7, IntValue(7), true},
		{"integral float", 7.0, IntValue(7), true},
		{"float", 2.5, FloatValue(2.5), true},
		{"bool", true, BoolValue(true), true},
		{"json int", json.Number("42"), IntValue(42), true},
		{"json float", json.Number("4.5"), FloatValue(4.5), true},
		{"map rejected", map[string]any{"a": 1}, Value{}, false},
		{"slice rejected", []int{1}, Value{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValueOf(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestValueJSON(t *testing.T) {
	fields := map[string]Value{
		"assignee": StringValue("ada"),
		"points":   IntValue(3),
		"blocked":  BoolValue(false),
		"none":     NullValue(),
	}
	data, err := json.Marshal(fields)
	require.NoError(t, err)

	var back map[string]Value
	require.NoError(t, json.Unmarshal(data, &back))
	for k, v := range fields {
		assert.True(t, v.Equal(back[k]), "field %s: got %v want %v", k, back[k], v)
	}

	var bad Value
	assert.Error(t, json.Unmarshal([]byte(`{"nested":true}`), &bad))
}

func TestValueYAML(t *testing.T) {
	var fields map[string]Value
	require.NoError(t, yaml.Unmarshal([]byte("area: Web\nestimate: 5\nratio: 0.25\n"), &fields))

	assert.Equal(t, "Web", fields["area"].String())
	n, ok := fields["estimate"].Int()
	assert.True(t, ok)
	assert.Equal(t, int64(5), n)
	f, ok := fields["ratio"].Float()
	assert.True(t, ok)
	assert.InDelta(t, 0.25, f, 1e-9)

	var bad map[string]Value
	assert.Error(t, yaml.Unmarshal([]byte("area: [a, b]\n"), &bad))
}

func TestValueString(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2026-01-02T03:04:05Z", TimeValue(ts).String())
	assert.Equal(t, "null", NullValue().String())
	assert.Equal(t, "2.5", FloatValue(2.5).String())
}
