// Package barrelemitter writes the index.ts files that expose composite
// schema documents to application code: one exporter per action and one
// entry per resource re-exporting its actions.
package barrelemitter

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/apiforge/schemagen/internal/artifact"
	"github.com/apiforge/schemagen/internal/emitter"
	"github.com/apiforge/schemagen/internal/format"
	"github.com/apiforge/schemagen/internal/naming"
	"github.com/apiforge/schemagen/internal/notify"
	"github.com/apiforge/schemagen/internal/sink"
	"github.com/apiforge/schemagen/internal/templates"
)

// IndexFile is the barrel file name.
const IndexFile = "index.ts"

type Options struct {
	Sink      sink.OutputSink
	Templates *templates.Set
	Notifier  *notify.Notifier
}

func (o *Options) defaults() {
	if o.Templates == nil {
		o.Templates = templates.Default()
	}
}

// EmitExporters writes <action dir>/index.ts for every action.
func EmitExporters(ctx context.Context, tree *artifact.Tree, opts Options) (*emitter.Result, error) {
	opts.defaults()
	res := &emitter.Result{}
	for _, r := range tree.Resources() {
		for _, act := range r.Actions() {
			rel := path.Join(act.Dir, IndexFile)
			out, err := format.TypeScript(Exporter(opts.Templates, act))
			if err != nil {
				return nil, fmt.Errorf("format %s: %w", rel, err)
			}
			if err := res.Write(ctx, opts.Sink, rel, []byte(out)); err != nil {
				return nil, err
			}
			opts.Notifier.Info("Exporter for '%s/%s' successfully saved.", r.Name, act.Name)
		}
	}
	return res, nil
}

// EmitEntries writes <resource schemas dir>/index.ts for every resource.
func EmitEntries(ctx context.Context, tree *artifact.Tree, opts Options) (*emitter.Result, error) {
	opts.defaults()
	res := &emitter.Result{}
	for _, r := range tree.Resources() {
		rel := path.Join(r.Dir, IndexFile)
		out, err := format.TypeScript(Entry(opts.Templates, r))
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", rel, err)
		}
		if err := res.Write(ctx, opts.Sink, rel, []byte(out)); err != nil {
			return nil, err
		}
		opts.Notifier.Info("Entry for '%s' successfully saved.", r.Name)
	}
	return res, nil
}

// Exporter fills the exporter template for act.
func Exporter(set *templates.Set, act *artifact.Action) string {
	return templates.Fill(set.Exporter, templates.Action, naming.Variable(act.Name))
}

// Entry fills the entry template with one re-export per action of r.
func Entry(set *templates.Set, r *artifact.Resource) string {
	var b strings.Builder
	for _, act := range r.Actions() {
		fmt.Fprintf(&b, "export * from \"./%s/index.js\";\n", actionPath(r, act))
	}
	return templates.Fill(set.Entry, templates.Children, strings.TrimSuffix(b.String(), "\n"))
}

// actionPath is the action directory relative to the resource's schemas
// directory.
func actionPath(r *artifact.Resource, act *artifact.Action) string {
	if rel, ok := strings.CutPrefix(act.Dir, r.Dir+"/"); ok {
		return rel
	}
	return act.Name
}
