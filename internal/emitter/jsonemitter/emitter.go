// Package jsonemitter merges parameter schemas into the composite route
// schema document that sits next to each action's schema files.
package jsonemitter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"

	"github.com/apiforge/schemagen/internal/artifact"
	"github.com/apiforge/schemagen/internal/emitter"
	"github.com/apiforge/schemagen/internal/format"
	"github.com/apiforge/schemagen/internal/notify"
	"github.com/apiforge/schemagen/internal/schema"
	"github.com/apiforge/schemagen/internal/sink"
	"github.com/apiforge/schemagen/internal/templates"
)

// DefaultFileName is the composite document written in every action directory.
const DefaultFileName = "schema.json"

// SchemaKey holds the route schema inside a composite document.
const SchemaKey = "schema"

// DocumentError reports a composite document that cannot be merged into.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("composite schema %s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Options controls where composite documents are read from and written to.
type Options struct {
	// FS reads the existing documents, rooted at the project directory.
	FS        fs.FS
	Sink      sink.OutputSink
	Templates *templates.Set
	FileName  string
	Notifier  *notify.Notifier
}

// Emit rewrites the composite document of every action. Missing documents
// are seeded from the schema template first.
func Emit(ctx context.Context, tree *artifact.Tree, opts Options) (*emitter.Result, error) {
	if tree == nil {
		return nil, fmt.Errorf("jsonemitter: nil tree")
	}
	if opts.FS == nil {
		return nil, fmt.Errorf("jsonemitter: FS is required")
	}
	if opts.FileName == "" {
		opts.FileName = DefaultFileName
	}
	if opts.Templates == nil {
		opts.Templates = templates.Default()
	}

	res := &emitter.Result{}
	for _, r := range tree.Resources() {
		for _, act := range r.Actions() {
			rel := path.Join(act.Dir, opts.FileName)
			label := r.Name + "/" + act.Name

			data, err := fs.ReadFile(opts.FS, rel)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				opts.Notifier.Warn("Missing %s for '%s'. Creating an empty schema file for you.", opts.FileName, label)
				data = []byte(opts.Templates.Schema)
				if err := res.Write(ctx, opts.Sink, rel, data); err != nil {
					return nil, err
				}
				opts.Notifier.Info("Schema for '%s' successfully created.", label)
			case err != nil:
				return nil, fmt.Errorf("read %s: %w", rel, err)
			}

			out, err := Merge(rel, data, act)
			if err != nil {
				return nil, err
			}
			if err := res.Write(ctx, opts.Sink, rel, out); err != nil {
				return nil, err
			}
			opts.Notifier.Info("Schema for '%s' successfully saved.", label)
		}
	}
	return res, nil
}

// Merge replaces the parameter keys of the route schema in data with the
// schemas held by act and returns the formatted document. Every other key
// keeps its value and position.
func Merge(rel string, data []byte, act *artifact.Action) ([]byte, error) {
	doc, err := schema.Decode(data)
	if err != nil {
		return nil, &DocumentError{Path: rel, Err: err}
	}
	root, ok := doc.(*schema.Object)
	if !ok {
		return nil, &DocumentError{Path: rel, Err: errors.New("document is not a JSON object")}
	}
	route := schema.NewObject()
	if v, ok := root.Get(SchemaKey); ok {
		if route, ok = v.(*schema.Object); !ok {
			return nil, &DocumentError{Path: rel, Err: fmt.Errorf("%q is not a JSON object", SchemaKey)}
		}
	} else {
		root.Set(SchemaKey, route)
	}

	for _, k := range artifact.Kinds {
		route.Delete(string(k))
	}
	for _, p := range act.Parameters() {
		if p.Kind == artifact.Response {
			codes := schema.NewObject()
			for _, s := range p.Responses() {
				codes.Set(strconv.Itoa(s.Code), s.Content.JSON)
			}
			route.Set(string(artifact.Response), codes)
			continue
		}
		if c := p.Content(); c != nil {
			route.Set(string(p.Kind), c.JSON)
		}
	}

	out, err := format.JSONValue(root)
	if err != nil {
		return nil, &DocumentError{Path: rel, Err: err}
	}
	return out, nil
}
