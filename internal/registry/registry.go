// Package registry provides a read-only component catalog, typically loaded
// from YAML:
//
//	components:
//	  - name: Badge
//	    description: small inline label
//	    strict: true
//	    props:
//	      text: {type: string, required: true}
//	      tone: {type: string, enum: [info, warn]}
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/riverfjs/mdstream/internal/types"
)

var knownTypes = map[string]bool{
	"":        true,
	"any":     true,
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"object":  true,
	"array":   true,
}

type catalogFile struct {
	Components []componentSpec `yaml:"components"`
}

type componentSpec struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Strict      bool                `yaml:"strict"`
	Props       map[string]propSpec `yaml:"props"`
}

type propSpec struct {
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
	Enum     []any  `yaml:"enum"`
}

// Catalog is an immutable set of component definitions, each compiled to a
// JSON Schema for its properties. It is safe for concurrent use.
type Catalog struct {
	defs    map[string]types.Definition
	schemas map[string]*jsonschema.Schema
}

// New builds a Catalog. Names must be unique and non-empty.
func New(defs ...types.Definition) (*Catalog, error) {
	c := &Catalog{
		defs:    make(map[string]types.Definition, len(defs)),
		schemas: make(map[string]*jsonschema.Schema, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("registry: component without a name")
		}
		if _, dup := c.defs[d.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate component %q", d.Name)
		}
		for _, prop := range sortedKeys(d.Props) {
			if t := d.Props[prop].Type; !knownTypes[t] {
				return nil, fmt.Errorf("registry: %s.%s: unknown type %q", d.Name, prop, t)
			}
		}
		sch, err := compile(d)
		if err != nil {
			return nil, fmt.Errorf("registry: %s: %w", d.Name, err)
		}
		c.defs[d.Name] = d
		c.schemas[d.Name] = sch
	}
	return c, nil
}

// propsSchema describes the property object of d as a JSON Schema.
func propsSchema(d types.Definition) map[string]any {
	props := make(map[string]any, len(d.Props))
	var required []string
	for _, name := range sortedKeys(d.Props) {
		spec := d.Props[name]
		ps := map[string]any{}
		if spec.Type != "" && spec.Type != "any" {
			ps["type"] = spec.Type
		}
		if len(spec.Enum) > 0 {
			ps["enum"] = spec.Enum
		}
		props[name] = ps
		if spec.Required {
			required = append(required, name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	if d.Strict {
		schema["additionalProperties"] = false
	}
	return schema
}

func compile(d types.Definition) (*jsonschema.Schema, error) {
	data, err := json.Marshal(propsSchema(d))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	loc := "mdstream://components/" + url.PathEscape(d.Name) + ".json"
	if err := compiler.AddResource(loc, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return compiler.Compile(loc)
}

// Parse builds a Catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	defs := make([]types.Definition, 0, len(f.Components))
	for _, cs := range f.Components {
		d := types.Definition{
			Name:        cs.Name,
			Description: cs.Description,
			Strict:      cs.Strict,
			Props:       make(map[string]types.PropSpec, len(cs.Props)),
		}
		for name, ps := range cs.Props {
			d.Props[name] = types.PropSpec{Type: ps.Type, Required: ps.Required, Enum: ps.Enum}
		}
		defs = append(defs, d)
	}
	return New(defs...)
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return Parse(data)
}

// Get returns the definition of name.
func (c *Catalog) Get(name string) (types.Definition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Has reports whether name is defined.
func (c *Catalog) Has(name string) bool {
	_, ok := c.defs[name]
	return ok
}

// Names returns the defined component names in sorted order.
func (c *Catalog) Names() []string {
	return sortedKeys(c.defs)
}

// Validate checks props against the schema of name. Each error is prefixed
// with the property it concerns, if any, and the list is sorted.
func (c *Catalog) Validate(name string, props map[string]any) types.ValidationResult {
	sch, ok := c.schemas[name]
	if !ok {
		return types.ValidationResult{Errors: []string{fmt.Sprintf("unknown component %q", name)}}
	}
	doc, err := jsonValue(props)
	if err != nil {
		return types.ValidationResult{Errors: []string{err.Error()}}
	}
	err = sch.Validate(doc)
	if err == nil {
		return types.ValidationResult{Valid: true}
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return types.ValidationResult{Errors: []string{err.Error()}}
	}
	errs := leafErrors(ve, nil)
	sort.Strings(errs)
	return types.ValidationResult{Errors: errs}
}

// jsonValue converts props to the generic JSON values the validator
// expects. Props decoded by encoding/json pass through unchanged in shape.
func jsonValue(props map[string]any) (any, error) {
	if props == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("properties are not JSON: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// leafErrors flattens the cause tree into "prop: message" lines.
func leafErrors(ve *jsonschema.ValidationError, out []string) []string {
	if len(ve.Causes) == 0 {
		loc := strings.TrimPrefix(ve.InstanceLocation, "/")
		if loc == "" {
			return append(out, ve.Message)
		}
		return append(out, loc+": "+ve.Message)
	}
	for _, cause := range ve.Causes {
		out = leafErrors(cause, out)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
