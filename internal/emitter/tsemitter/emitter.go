// Package tsemitter writes the ambient TypeScript declaration file that nests
// every compiled fragment under one namespace per resource and action.
package tsemitter

import (
	"context"
	"fmt"
	"strings"

	"github.com/apiforge/schemagen/internal/artifact"
	"github.com/apiforge/schemagen/internal/emitter"
	"github.com/apiforge/schemagen/internal/format"
	"github.com/apiforge/schemagen/internal/naming"
	"github.com/apiforge/schemagen/internal/notify"
	"github.com/apiforge/schemagen/internal/sink"
	"github.com/apiforge/schemagen/internal/templates"
)

const (
	DefaultPath      = "src/types/schemas.d.ts"
	DefaultNamespace = "Api.Schemas"
)

// Options controls where and how the declaration file is written.
type Options struct {
	Sink      sink.OutputSink
	Templates *templates.Set
	// Path is the output file relative to the project directory.
	Path string
	// Namespace qualifies the Request field types. It must match the
	// namespaces opened by the typescript template.
	Namespace string
	Notifier  *notify.Notifier
}

// Emit renders tree into the typescript template and writes the formatted
// result to opts.Path.
func Emit(ctx context.Context, tree *artifact.Tree, opts Options) (*emitter.Result, error) {
	if tree == nil {
		return nil, fmt.Errorf("tsemitter: nil tree")
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Templates == nil {
		opts.Templates = templates.Default()
	}

	src := templates.Fill(opts.Templates.TypeScript, templates.Children, Render(tree, opts.Namespace))
	out, err := format.TypeScript(src)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", opts.Path, err)
	}

	res := &emitter.Result{}
	if err := res.Write(ctx, opts.Sink, opts.Path, []byte(out)); err != nil {
		return nil, err
	}
	opts.Notifier.Info("TypeScript definition successfully saved.")
	return res, nil
}

// Render returns the namespace blocks for every resource and action, in
// tree order and unformatted.
func Render(tree *artifact.Tree, namespace string) string {
	var b strings.Builder
	for _, res := range tree.Resources() {
		r := naming.Sanitize(res.Name)
		fmt.Fprintf(&b, "namespace %s {\n", r)
		for _, act := range res.Actions() {
			fmt.Fprintf(&b, "namespace %s {\n", naming.Sanitize(act.Name))
			var fragments []string
			act.Fragments(func(f artifact.Fragment) {
				fragments = append(fragments, f.Content.TypeScript)
			})
			b.WriteString(strings.Join(fragments, "\n"))
			b.WriteString("\n")
			if req := Request(namespace, res.Name, act); req != "" {
				b.WriteString(req + "\n")
			}
			b.WriteString("}\n")
		}
		b.WriteString("}\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Request returns the Request alias for act, with one field per request
// kind present, or "" when the action has only responses.
func Request(namespace, resource string, act *artifact.Action) string {
	kinds := act.RequestKinds()
	if len(kinds) == 0 {
		return ""
	}
	prefix := namespace + "." + naming.Sanitize(resource) + "." + naming.Sanitize(act.Name)
	fields := make([]string, 0, len(kinds))
	for _, k := range kinds {
		fields = append(fields, fmt.Sprintf("%s: %s.%s", k.Identifier(), prefix, k.Identifier()))
	}
	return "type Request = { " + strings.Join(fields, "; ") + " };"
}
