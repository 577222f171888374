// Package tools contains the built-in tools the server binary registers.
package tools

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"toolbox-mcp/internal/registry"
	"toolbox-mcp/internal/schema"
)

// Time formats accepted by format_time.
var timeFormats = []string{"rfc3339", "unix", "kitchen"}

// Range accepted by random_number for both bounds.
const (
	randomFloor = 0
	randomCeil  = 1000
)

// RegisterAll adds every built-in tool to r.
func RegisterAll(r *registry.Registry, now func() time.Time) {
	if now == nil {
		now = time.Now
	}

	r.Add("echo", "Return the given text unchanged",
		schema.NewBuilder().AddStringProperty("text", "Text to echo back", true),
		registry.HandlerFunc(echo))

	r.Add("add", "Add two numbers",
		schema.NewBuilder().
			AddNumberProperty("a", "First addend", true).
			AddNumberProperty("b", "Second addend", true),
		registry.HandlerFunc(add))

	r.Add("random_number", "Pick a random integer between min and max inclusive",
		schema.NewBuilder().
			AddBoundedNumberProperty("min", "Lower bound", randomFloor, randomCeil, 0, false).
			AddBoundedNumberProperty("max", "Upper bound", randomFloor, randomCeil, 100, false),
		registry.HandlerFunc(randomNumber))

	r.Add("format_time", "Report the current server time",
		schema.NewBuilder().
			AddStringEnumProperty("format", "Output format", timeFormats, false).
			AddBooleanProperty("utc", "Use UTC instead of local time", false),
		formatTime{now: now})

	r.Add("uuid", "Generate a random UUID", schema.NewBuilder(),
		registry.HandlerFunc(newUUID))
}

func echo(_ context.Context, args map[string]any, out *registry.Content) error {
	text, err := stringArg(args, "text")
	if err != nil {
		return err
	}
	out.Text = text
	return nil
}

func add(_ context.Context, args map[string]any, out *registry.Content) error {
	a, err := numberArg(args, "a")
	if err != nil {
		return err
	}
	b, err := numberArg(args, "b")
	if err != nil {
		return err
	}
	out.Text = strconv.FormatFloat(a+b, 'f', -1, 64)
	return nil
}

func randomNumber(_ context.Context, args map[string]any, out *registry.Content) error {
	lo, err := boundArg(args, "min", 0)
	if err != nil {
		return err
	}
	hi, err := boundArg(args, "max", 100)
	if err != nil {
		return err
	}
	if lo > hi {
		return fmt.Errorf("min %d is greater than max %d", lo, hi)
	}
	out.Text = strconv.Itoa(lo + rand.Intn(hi-lo+1))
	return nil
}

// boundArg reads an optional random_number bound. Values outside the declared
// range are rejected before the int conversion.
func boundArg(args map[string]any, name string, def int) (int, error) {
	if _, ok := args[name]; !ok {
		return def, nil
	}
	v, err := numberArg(args, name)
	if err != nil {
		return 0, err
	}
	if !(v >= randomFloor && v <= randomCeil) {
		return 0, fmt.Errorf("argument %q must be between %d and %d", name, randomFloor, randomCeil)
	}
	return int(v), nil
}

type formatTime struct {
	now func() time.Time
}

func (f formatTime) Call(_ context.Context, args map[string]any, out *registry.Content) error {
	format := "rfc3339"
	if _, ok := args["format"]; ok {
		v, err := stringArg(args, "format")
		if err != nil {
			return err
		}
		format = v
	}
	t := f.now()
	if utc, _ := args["utc"].(bool); utc {
		t = t.UTC()
	}

	switch format {
	case "rfc3339":
		out.Text = t.Format(time.RFC3339)
	case "unix":
		out.Text = strconv.FormatInt(t.Unix(), 10)
	case "kitchen":
		out.Text = t.Format(time.Kitchen)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}

func newUUID(_ context.Context, _ map[string]any, out *registry.Content) error {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("generating uuid: %w", err)
	}
	out.Text = id.String()
	return nil
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", name)
	}
	return s, nil
}

func numberArg(args map[string]any, name string) (float64, error) {
	v, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("argument %q must be a number", name)
	}
	return n, nil
}
