// Package schema builds the JSON-Schema-like documents that describe a tool's
// accepted arguments.
package schema

// Schema is the finalized input schema of a tool.
type Schema struct {
	Type       string               `json:"type"`
	Properties map[string]*Property `json:"properties"`
	Required   []string             `json:"required,omitempty"`
}

// Property describes a single argument.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *int     `json:"minimum,omitempty"`
	Maximum     *int     `json:"maximum,omitempty"`
	Default     *int     `json:"default,omitempty"`
}

// Builder accumulates properties. Adding a property whose name already exists
// replaces it; required names are appended as given, without deduplication.
type Builder struct {
	properties map[string]*Property
	required   []string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{properties: make(map[string]*Property)}
}

// AddStringProperty adds a string argument.
func (b *Builder) AddStringProperty(name, description string, required bool) *Builder {
	return b.add(name, &Property{Type: "string", Description: description}, required)
}

// AddStringEnumProperty adds a string argument restricted to options, in the
// order given.
func (b *Builder) AddStringEnumProperty(name, description string, options []string, required bool) *Builder {
	enum := make([]string, len(options))
	copy(enum, options)
	return b.add(name, &Property{Type: "string", Description: description, Enum: enum}, required)
}

// AddNumberProperty adds an unbounded number argument.
func (b *Builder) AddNumberProperty(name, description string, required bool) *Builder {
	return b.add(name, &Property{Type: "number", Description: description}, required)
}

// AddBoundedNumberProperty adds a number argument with minimum, maximum and
// default. min <= max is not checked.
func (b *Builder) AddBoundedNumberProperty(name, description string, min, max, def int, required bool) *Builder {
	return b.add(name, &Property{
		Type:        "number",
		Description: description,
		Minimum:     &min,
		Maximum:     &max,
		Default:     &def,
	}, required)
}

// AddBooleanProperty adds a boolean argument.
func (b *Builder) AddBooleanProperty(name, description string, required bool) *Builder {
	return b.add(name, &Property{Type: "boolean", Description: description}, required)
}

func (b *Builder) add(name string, p *Property, required bool) *Builder {
	b.properties[name] = p
	if required {
		b.required = append(b.required, name)
	}
	return b
}

// Schema stamps the object type and returns a copy of the accumulated
// document. It does not reset the builder, so repeated calls return equal
// documents until the builder is mutated again.
func (b *Builder) Schema() Schema {
	s := Schema{
		Type:       "object",
		Properties: make(map[string]*Property, len(b.properties)),
	}
	for name, p := range b.properties {
		s.Properties[name] = p.clone()
	}
	if len(b.required) > 0 {
		s.Required = make([]string, len(b.required))
		copy(s.Required, b.required)
	}
	return s
}

func (p *Property) clone() *Property {
	c := *p
	if p.Enum != nil {
		c.Enum = make([]string, len(p.Enum))
		copy(c.Enum, p.Enum)
	}
	if p.Minimum != nil {
		v := *p.Minimum
		c.Minimum = &v
	}
	if p.Maximum != nil {
		v := *p.Maximum
		c.Maximum = &v
	}
	if p.Default != nil {
		v := *p.Default
		c.Default = &v
	}
	return &c
}
