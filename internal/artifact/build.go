// Package artifact discovers parameter schema files and groups them into an
// ordered resource/action/parameter tree.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/apiforge/schemagen/internal/compiler"
)

const (
	DefaultRoot       = "src/resources"
	DefaultSchemasDir = "schemas"
	DefaultPattern    = "**/schemas/**/{headers,params,querystring,body,response,response.*}.schema.json"
)

// ErrNoSchemas is returned when the pattern matches no files.
var ErrNoSchemas = errors.New("no schema files found")

// Compiler turns one schema file into parsed JSON and TypeScript text.
type Compiler interface {
	CompileFile(fsys fs.FS, name string) (*compiler.Unit, error)
}

// Options configures Build.
type Options struct {
	// Root is the directory holding one directory per resource. Its base
	// name marks where the resource segment starts in a path.
	Root string
	// Pattern is matched below Root.
	Pattern string
	// SchemasDir is the per-resource directory name holding the actions.
	SchemasDir string
	Compiler   Compiler
	// OnFile, when set, is called for every classified file before it is
	// compiled.
	OnFile func(Location)
}

func (o *Options) defaults() {
	if o.Root == "" {
		o.Root = DefaultRoot
	}
	if o.Pattern == "" {
		o.Pattern = DefaultPattern
	}
	if o.SchemasDir == "" {
		o.SchemasDir = DefaultSchemasDir
	}
	if o.Compiler == nil {
		o.Compiler = compiler.New(compiler.Options{})
	}
}

// Glob returns the schema files below root matching pattern, sorted.
func Glob(fsys fs.FS, root, pattern string) ([]string, error) {
	full := path.Join(root, pattern)
	if !doublestar.ValidatePattern(full) {
		return nil, fmt.Errorf("invalid pattern %q", full)
	}
	matches, err := doublestar.Glob(fsys, full)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", full, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Build discovers, classifies, loads and compiles every schema file and
// returns them as a tree. Files are processed one at a time in lexical order.
func Build(ctx context.Context, fsys fs.FS, opts Options) (*Tree, error) {
	opts.defaults()

	matches, err := Glob(fsys, opts.Root, opts.Pattern)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w matching %s", ErrNoSchemas, path.Join(opts.Root, opts.Pattern))
	}

	marker := path.Base(opts.Root)
	tree := NewTree()
	for _, p := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loc, err := Classify(p, marker)
		if err != nil {
			return nil, err
		}
		if opts.OnFile != nil {
			opts.OnFile(loc)
		}
		unit, err := opts.Compiler.CompileFile(fsys, p)
		if err != nil {
			return nil, err
		}
		tree.Insert(loc, opts.SchemasDir, &Content{
			Path:       p,
			JSON:       unit.File.Document,
			TypeScript: unit.Declarations,
		})
	}
	return tree, nil
}
