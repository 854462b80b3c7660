// Package oasemitter exports every compiled parameter schema as an
// OpenAPI 3 component so that API documentation tooling can reuse them.
package oasemitter

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/apiforge/schemagen/internal/artifact"
	"github.com/apiforge/schemagen/internal/emitter"
	"github.com/apiforge/schemagen/internal/naming"
	"github.com/apiforge/schemagen/internal/notify"
	"github.com/apiforge/schemagen/internal/schema"
	"github.com/apiforge/schemagen/internal/sink"
)

const (
	OpenAPIVersion = "3.0.3"
	DefaultTitle   = "API Schemas"
	DefaultVersion = "0.0.0"
)

// Options controls the components document.
type Options struct {
	Sink sink.OutputSink
	// Path selects the output file; .yaml and .yml produce YAML, anything
	// else JSON.
	Path     string
	Title    string
	Version  string
	Notifier *notify.Notifier
}

// Emit builds the components document for tree and writes it to opts.Path.
func Emit(ctx context.Context, tree *artifact.Tree, opts Options) (*emitter.Result, error) {
	if tree == nil {
		return nil, fmt.Errorf("oasemitter: nil tree")
	}
	if strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("oasemitter: Path is required")
	}
	doc, err := Document(tree, opts.Title, opts.Version)
	if err != nil {
		return nil, err
	}
	out, err := Marshal(doc, path.Ext(opts.Path))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", opts.Path, err)
	}
	res := &emitter.Result{}
	if err := res.Write(ctx, opts.Sink, opts.Path, out); err != nil {
		return nil, err
	}
	opts.Notifier.Info("OpenAPI components (%d schemas) successfully saved.", len(doc.Components.Schemas))
	return res, nil
}

// ComponentName names the component holding one fragment.
func ComponentName(resource, action string, f artifact.Fragment) string {
	name := naming.Sanitize(resource) + naming.Sanitize(action) + f.Kind.Identifier()
	if f.Kind == artifact.Response {
		name += strconv.Itoa(f.Code)
	}
	return name
}

// Document converts every fragment of tree into a component schema.
func Document(tree *artifact.Tree, title, version string) (*openapi3.T, error) {
	if title == "" {
		title = DefaultTitle
	}
	if version == "" {
		version = DefaultVersion
	}
	comps := openapi3.Schemas{}
	for _, r := range tree.Resources() {
		for _, act := range r.Actions() {
			var err error
			act.Fragments(func(f artifact.Fragment) {
				if err != nil {
					return
				}
				name := ComponentName(r.Name, act.Name, f)
				root := schema.New(f.Content.JSON)
				c := &converter{root: root, prefix: naming.Sanitize(r.Name) + naming.Sanitize(act.Name), comps: comps, defs: map[string]string{}}
				var ref *openapi3.SchemaRef
				if ref, err = c.convert(root, 0); err != nil {
					err = fmt.Errorf("convert %s: %w", f.Content.Path, err)
					return
				}
				comps[name] = ref
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return &openapi3.T{
		OpenAPI:    OpenAPIVersion,
		Info:       &openapi3.Info{Title: title, Version: version},
		Paths:      openapi3.Paths{},
		Components: &openapi3.Components{Schemas: comps},
	}, nil
}

// Marshal encodes doc as YAML for a .yaml or .yml extension, JSON otherwise.
func Marshal(doc *openapi3.T, ext string) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, err
		}
		blockStyle(&node)
		return yaml.Marshal(&node)
	default:
		return append(data, '\n'), nil
	}
}

// blockStyle drops the flow style yaml.v3 keeps for JSON input.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// maxDepth bounds recursion through self-referencing definitions.
const maxDepth = 64

type converter struct {
	root   *schema.Schema
	prefix string
	comps  openapi3.Schemas
	defs   map[string]string
}

func (c *converter) convert(s *schema.Schema, depth int) (*openapi3.SchemaRef, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("schema nested deeper than %d levels", maxDepth)
	}
	if b, ok := s.Bool(); ok {
		if b {
			return openapi3.NewSchemaRef("", &openapi3.Schema{}), nil
		}
		return openapi3.NewSchemaRef("", &openapi3.Schema{Not: openapi3.NewSchemaRef("", &openapi3.Schema{})}), nil
	}
	if ref := s.Ref(); ref != "" {
		return c.definition(ref, depth)
	}

	out := &openapi3.Schema{
		Title:       s.Title(),
		Description: s.Description(),
		Format:      s.Format(),
		Pattern:     s.Pattern(),
	}
	if v, ok := s.Default(); ok {
		out.Default = plain(v)
	}
	if v, ok := s.Const(); ok {
		out.Enum = []any{plain(v)}
	}
	if values, ok := s.Enum(); ok {
		for _, v := range values {
			out.Enum = append(out.Enum, plain(v))
		}
	}
	c.bounds(s, out)

	var types []string
	for _, t := range s.Types() {
		if t == "null" {
			out.Nullable = true
			continue
		}
		types = append(types, t)
	}
	switch len(types) {
	case 0:
	case 1:
		out.Type = types[0]
	default:
		for _, t := range types {
			out.OneOf = append(out.OneOf, openapi3.NewSchemaRef("", &openapi3.Schema{Type: t}))
		}
	}

	if s.HasProperties() {
		out.Properties = openapi3.Schemas{}
		for _, p := range s.Properties() {
			ref, err := c.convert(p.Schema, depth+1)
			if err != nil {
				return nil, err
			}
			out.Properties[p.Name] = ref
		}
	}
	out.Required = s.RequiredList()

	if ap, ok := s.AdditionalProperties(); ok {
		if b, isBool := ap.Bool(); isBool {
			out.AdditionalProperties = openapi3.AdditionalProperties{Has: &b}
		} else {
			ref, err := c.convert(ap, depth+1)
			if err != nil {
				return nil, err
			}
			out.AdditionalProperties = openapi3.AdditionalProperties{Schema: ref}
		}
	}

	if items, tuple, ok := s.Items(); ok {
		if tuple {
			alt := &openapi3.Schema{}
			for _, item := range items {
				ref, err := c.convert(item, depth+1)
				if err != nil {
					return nil, err
				}
				alt.OneOf = append(alt.OneOf, ref)
			}
			out.Items = openapi3.NewSchemaRef("", alt)
		} else {
			ref, err := c.convert(items[0], depth+1)
			if err != nil {
				return nil, err
			}
			out.Items = ref
		}
	}

	for _, group := range []struct {
		src []*schema.Schema
		dst *openapi3.SchemaRefs
	}{
		{s.AnyOf(), &out.AnyOf},
		{s.OneOf(), &out.OneOf},
		{s.AllOf(), &out.AllOf},
	} {
		for _, g := range group.src {
			ref, err := c.convert(g, depth+1)
			if err != nil {
				return nil, err
			}
			*group.dst = append(*group.dst, ref)
		}
	}
	return openapi3.NewSchemaRef("", out), nil
}

// definition registers a local definition as its own component and
// returns a reference to it.
func (c *converter) definition(ref string, depth int) (*openapi3.SchemaRef, error) {
	if name, ok := c.defs[ref]; ok {
		return openapi3.NewSchemaRef("#/components/schemas/"+name, nil), nil
	}
	def, ok := c.root.Definitions(ref)
	if !ok {
		return nil, fmt.Errorf("unsupported $ref %q", ref)
	}
	name := c.prefix + naming.TypeName(ref[strings.LastIndex(ref, "/")+1:])
	c.defs[ref] = name
	conv, err := c.convert(def, depth+1)
	if err != nil {
		return nil, err
	}
	c.comps[name] = conv
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil), nil
}

func (c *converter) bounds(s *schema.Schema, out *openapi3.Schema) {
	if n, ok := s.Number("minimum"); ok {
		if f, err := n.Float64(); err == nil {
			out.Min = &f
		}
	}
	if n, ok := s.Number("maximum"); ok {
		if f, err := n.Float64(); err == nil {
			out.Max = &f
		}
	}
	if n, ok := s.Number("minLength"); ok {
		if i, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			out.MinLength = i
		}
	}
	if n, ok := s.Number("maxLength"); ok {
		if i, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			out.MaxLength = &i
		}
	}
	if n, ok := s.Number("minItems"); ok {
		if i, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			out.MinItems = i
		}
	}
	if n, ok := s.Number("maxItems"); ok {
		if i, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			out.MaxItems = &i
		}
	}
}

// plain converts a decoded document value into the map and float64 form
// kin-openapi expects for enum and default values.
func plain(v any) any {
	switch t := v.(type) {
	case *schema.Object:
		m := make(map[string]any, t.Len())
		for _, mem := range t.Members() {
			m[mem.Key] = plain(mem.Value)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
