// Package compiler translates draft-07 JSON Schema documents into TypeScript
// declaration fragments.
package compiler

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/apiforge/schemagen/internal/naming"
	"github.com/apiforge/schemagen/internal/schema"
)

// Options controls the translation.
type Options struct {
	// AdditionalProperties is assumed when a schema does not set the
	// keyword. The default, false, yields closed object types.
	AdditionalProperties bool
	// StripComments drops JSDoc generated from descriptions.
	StripComments bool
}

// Unit is one compiled parameter schema.
type Unit struct {
	File         *schema.File
	Declarations string
}

// TypeScript compiles schemas into bare declarations: no banner and no
// export qualifiers, ready to be nested inside a namespace.
type TypeScript struct {
	opts Options
}

// New returns a compiler with the given options.
func New(opts Options) *TypeScript {
	return &TypeScript{opts: opts}
}

// CompileFile loads name from fsys and compiles it under the name derived
// from its file name.
func (c *TypeScript) CompileFile(fsys fs.FS, name string) (*Unit, error) {
	f, err := schema.Load(fsys, name)
	if err != nil {
		return nil, err
	}
	decls, err := c.Compile(RootName(name), f.Schema)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &Unit{File: f, Declarations: decls}, nil
}

// RootName derives the root declaration name from a schema file path:
// "response.201.schema.json" becomes "Response201".
func RootName(name string) string {
	base := strings.TrimSuffix(path.Base(name), ".json")
	base = strings.TrimSuffix(base, ".schema")
	return naming.TypeName(base)
}

// Compile translates root into a declaration called name followed by one
// declaration per referenced local definition.
func (c *TypeScript) Compile(name string, root *schema.Schema) (string, error) {
	u := &unit{opts: c.opts, root: root, rootName: name, names: map[string]string{}}
	if err := u.declare(name, root); err != nil {
		return "", err
	}
	for len(u.queue) > 0 {
		next := u.queue[0]
		u.queue = u.queue[1:]
		if err := u.declare(next.name, next.schema); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(strings.Join(u.decls, "\n")), nil
}

type pending struct {
	name   string
	schema *schema.Schema
}

type unit struct {
	opts     Options
	root     *schema.Schema
	rootName string
	names    map[string]string
	queue    []pending
	decls    []string
}

func (u *unit) declare(name string, s *schema.Schema) error {
	var b strings.Builder
	b.WriteString(u.comment(s))
	if isPlainObject(s) {
		body, err := u.object(s)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "interface %s %s\n", name, body)
	} else {
		expr, err := u.expr(s)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "type %s = %s;\n", name, expr)
	}
	u.decls = append(u.decls, b.String())
	return nil
}

func (u *unit) comment(s *schema.Schema) string {
	desc := strings.TrimSpace(s.Description())
	if u.opts.StripComments || desc == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("/**\n")
	for _, line := range strings.Split(desc, "\n") {
		line = strings.ReplaceAll(strings.TrimRight(line, " \t"), "*/", "*\\/")
		if line == "" {
			b.WriteString(" *\n")
			continue
		}
		b.WriteString(" * " + line + "\n")
	}
	b.WriteString(" */\n")
	return b.String()
}

// isPlainObject reports whether s can be declared as an interface.
func isPlainObject(s *schema.Schema) bool {
	if _, ok := s.Bool(); ok {
		return false
	}
	if s.Ref() != "" || len(s.AnyOf()) > 0 || len(s.OneOf()) > 0 || len(s.AllOf()) > 0 {
		return false
	}
	if _, ok := s.Enum(); ok {
		return false
	}
	if _, ok := s.Const(); ok {
		return false
	}
	types := s.Types()
	if len(types) == 0 {
		return s.HasProperties()
	}
	return len(types) == 1 && types[0] == "object"
}

func (u *unit) expr(s *schema.Schema) (string, error) {
	if b, ok := s.Bool(); ok {
		if b {
			return "unknown", nil
		}
		return "never", nil
	}
	if s.Value() == nil {
		return "unknown", nil
	}
	if ref := s.Ref(); ref != "" {
		return u.ref(ref)
	}
	if v, ok := s.Const(); ok {
		return literal(v)
	}
	if values, ok := s.Enum(); ok {
		parts := make([]string, 0, len(values))
		for _, v := range values {
			lit, err := literal(v)
			if err != nil {
				return "", err
			}
			parts = append(parts, lit)
		}
		if len(parts) == 0 {
			return "never", nil
		}
		return strings.Join(parts, " | "), nil
	}

	var parts []string
	if base, ok, err := u.structural(s); err != nil {
		return "", err
	} else if ok {
		parts = append(parts, base)
	}
	for _, group := range [][]*schema.Schema{s.AnyOf(), s.OneOf()} {
		if len(group) == 0 {
			continue
		}
		union, err := u.join(group, " | ")
		if err != nil {
			return "", err
		}
		parts = append(parts, wrap(union))
	}
	if all := s.AllOf(); len(all) > 0 {
		inter, err := u.join(all, " & ")
		if err != nil {
			return "", err
		}
		parts = append(parts, wrap(inter))
	}
	switch len(parts) {
	case 0:
		return "unknown", nil
	case 1:
		return unwrap(parts[0]), nil
	default:
		return strings.Join(parts, " & "), nil
	}
}

// structural translates the type keyword, or infers object and array types
// from properties and items.
func (u *unit) structural(s *schema.Schema) (string, bool, error) {
	types := s.Types()
	if len(types) == 0 {
		switch {
		case s.HasProperties():
			types = []string{"object"}
		default:
			if _, _, ok := s.Items(); ok {
				types = []string{"array"}
			}
		}
	}
	if len(types) == 0 {
		return "", false, nil
	}
	parts := make([]string, 0, len(types))
	for _, t := range types {
		var (
			expr string
			err  error
		)
		switch t {
		case "string":
			expr = "string"
		case "number", "integer":
			expr = "number"
		case "boolean":
			expr = "boolean"
		case "null":
			expr = "null"
		case "array":
			expr, err = u.array(s)
		case "object":
			expr, err = u.object(s)
		default:
			expr = "unknown"
		}
		if err != nil {
			return "", false, err
		}
		parts = append(parts, expr)
	}
	if len(parts) == 1 {
		return parts[0], true, nil
	}
	return wrap(strings.Join(parts, " | ")), true, nil
}

func (u *unit) join(group []*schema.Schema, sep string) (string, error) {
	parts := make([]string, 0, len(group))
	for _, g := range group {
		expr, err := u.expr(g)
		if err != nil {
			return "", err
		}
		if sep == " & " {
			expr = wrap(expr)
		}
		parts = append(parts, expr)
	}
	return strings.Join(parts, sep), nil
}

func (u *unit) array(s *schema.Schema) (string, error) {
	items, tuple, ok := s.Items()
	if !ok {
		return "unknown[]", nil
	}
	if tuple {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			expr, err := u.expr(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, expr)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	}
	expr, err := u.expr(items[0])
	if err != nil {
		return "", err
	}
	return wrap(expr) + "[]", nil
}

func (u *unit) object(s *schema.Schema) (string, error) {
	props := s.Properties()
	required := s.Required()
	index, err := u.indexSignature(s)
	if err != nil {
		return "", err
	}
	if len(props) == 0 && index == "" {
		return "{}", nil
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, p := range props {
		expr, err := u.expr(p.Schema)
		if err != nil {
			return "", err
		}
		name := p.Name
		if naming.NeedsQuoting(name) {
			lit, _ := literal(name)
			name = lit
		}
		if !required[p.Name] {
			name += "?"
		}
		b.WriteString(u.comment(p.Schema))
		fmt.Fprintf(&b, "%s: %s;\n", name, expr)
	}
	if index != "" {
		b.WriteString(index)
	}
	b.WriteString("}")
	return b.String(), nil
}

func (u *unit) indexSignature(s *schema.Schema) (string, error) {
	ap, ok := s.AdditionalProperties()
	if !ok {
		if u.opts.AdditionalProperties {
			return "[k: string]: unknown;\n", nil
		}
		return "", nil
	}
	if b, isBool := ap.Bool(); isBool {
		if b {
			return "[k: string]: unknown;\n", nil
		}
		return "", nil
	}
	expr, err := u.expr(ap)
	if err != nil {
		return "", err
	}
	return "[k: string]: " + expr + ";\n", nil
}

func (u *unit) ref(ref string) (string, error) {
	if ref == "#" {
		return u.rootName, nil
	}
	if name, ok := u.names[ref]; ok {
		return name, nil
	}
	def, ok := u.root.Definitions(ref)
	if !ok {
		return "", fmt.Errorf("unsupported $ref %q: only local definitions are resolved", ref)
	}
	name := naming.TypeName(ref[strings.LastIndex(ref, "/")+1:])
	if name == u.rootName {
		name += "Definition"
	}
	u.names[ref] = name
	u.queue = append(u.queue, pending{name: name, schema: def})
	return name, nil
}

func literal(v any) (string, error) {
	out, err := schema.MarshalIndent(v, "")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// wrap parenthesises union and intersection expressions.
func wrap(expr string) string {
	if topLevel(expr, '|') || topLevel(expr, '&') {
		return "(" + expr + ")"
	}
	return expr
}

func unwrap(expr string) string {
	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") && balanced(expr[1:len(expr)-1]) {
		return expr[1 : len(expr)-1]
	}
	return expr
}

// topLevel reports whether op appears outside brackets and string literals.
func topLevel(expr string, op byte) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		default:
			if ch == op && depth == 0 {
				return true
			}
		}
	}
	return false
}

func balanced(expr string) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
