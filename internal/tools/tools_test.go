package tools

import (
	"context"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbox-mcp/internal/registry"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.FixedZone("EST", -5*3600))

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	RegisterAll(r, func() time.Time { return fixedNow })
	return r
}

func call(t *testing.T, r *registry.Registry, name string, args map[string]any) (registry.Content, error) {
	t.Helper()
	tool, ok := r.Find(name)
	require.True(t, ok, "tool %q not registered", name)
	out := registry.Content{Type: "text"}
	err := tool.Handler.Call(context.Background(), args, &out)
	return out, err
}

func TestRegisterAllListing(t *testing.T) {
	r := newTestRegistry(t)

	var names []string
	for _, info := range r.List() {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"uuid", "format_time", "random_number", "add", "echo"}, names)

	tool, _ := r.Find("format_time")
	assert.Equal(t, []string{"rfc3339", "unix", "kitchen"}, tool.InputSchema.Properties["format"].Enum)
	assert.Empty(t, tool.InputSchema.Required)
}

func TestEcho(t *testing.T) {
	r := newTestRegistry(t)

	out, err := call(t, r, "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Text)

	_, err = call(t, r, "echo", nil)
	assert.EqualError(t, err, `missing argument "text"`)

	_, err = call(t, r, "echo", map[string]any{"text": 3.0})
	assert.EqualError(t, err, `argument "text" must be a string`)
}

func TestAdd(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		a, b float64
		want string
	}{
		{1, 2, "3"},
		{0.5, 0.25, "0.75"},
		{-4, 4, "0"},
	}
	for _, tt := range tests {
		out, err := call(t, r, "add", map[string]any{"a": tt.a, "b": tt.b})
		require.NoError(t, err)
		assert.Equal(t, tt.want, out.Text)
	}

	_, err := call(t, r, "add", map[string]any{"a": 1.0, "b": "2"})
	assert.Error(t, err)
}

func TestRandomNumber(t *testing.T) {
	r := newTestRegistry(t)

	for i := 0; i < 50; i++ {
		out, err := call(t, r, "random_number", map[string]any{"min": 3.0, "max": 5.0})
		require.NoError(t, err)
		n, err := strconv.Atoi(out.Text)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)
	}

	out, err := call(t, r, "random_number", map[string]any{"min": 7.0, "max": 7.0})
	require.NoError(t, err)
	assert.Equal(t, "7", out.Text)

	_, err = call(t, r, "random_number", map[string]any{"min": 9.0, "max": 1.0})
	assert.Error(t, err)
}

func TestRandomNumberOutOfRange(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"extreme span", map[string]any{"min": -9e18, "max": 9e18}, `argument "min" must be between 0 and 1000`},
		{"beyond int64", map[string]any{"min": 0.0, "max": 1e300}, `argument "max" must be between 0 and 1000`},
		{"negative min", map[string]any{"min": -1.0}, `argument "min" must be between 0 and 1000`},
		{"max above ceiling", map[string]any{"max": 1001.0}, `argument "max" must be between 0 and 1000`},
		{"not a number", map[string]any{"min": math.NaN()}, `argument "min" must be between 0 and 1000`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = call(t, r, "random_number", tt.args)
			})
			assert.EqualError(t, err, tt.want)
		})
	}

	out, err := call(t, r, "random_number", map[string]any{"min": 0.0, "max": 1000.0})
	require.NoError(t, err)
	n, err := strconv.Atoi(out.Text)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 1000)
}

func TestFormatTime(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"default", nil, "2026-03-14T15:09:26-05:00"},
		{"utc", map[string]any{"utc": true}, "2026-03-14T20:09:26Z"},
		{"unix", map[string]any{"format": "unix"}, strconv.FormatInt(fixedNow.Unix(), 10)},
		{"kitchen", map[string]any{"format": "kitchen", "utc": true}, "8:09PM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := call(t, r, "format_time", tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Text)
		})
	}

	_, err := call(t, r, "format_time", map[string]any{"format": "julian"})
	assert.EqualError(t, err, `unsupported format "julian"`)
}

func TestUUID(t *testing.T) {
	r := newTestRegistry(t)

	first, err := call(t, r, "uuid", nil)
	require.NoError(t, err)
	second, err := call(t, r, "uuid", nil)
	require.NoError(t, err)

	_, err = uuid.Parse(first.Text)
	assert.NoError(t, err)
	assert.NotEqual(t, first.Text, second.Text)
}
