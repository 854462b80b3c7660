package artifact

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiforge/schemagen/internal/compiler"
	"github.com/apiforge/schemagen/internal/schema"
)

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

func TestBuild(t *testing.T) {
	fsys := fstest.MapFS{
		"src/resources/users/schemas/create/body.schema.json":         file(`{"type":"object","properties":{"name":{"type":"string"}}}`),
		"src/resources/users/schemas/create/response.201.schema.json": file(`{"type":"object"}`),
		"src/resources/users/schemas/create/response.schema.json":     file(`{"type":"string"}`),
		"src/resources/users/schemas/create/schema.json":              file(`{"schema":{}}`),
		"src/resources/users/schemas/list/querystring.schema.json":    file(`{"type":"object"}`),
		"src/resources/orders/schemas/get/params.schema.json":         file(`{"type":"object"}`),
		"src/resources/orders/handler.ts":                             file(`export {}`),
	}

	var seen []string
	tree, err := Build(context.Background(), fsys, Options{
		OnFile: func(l Location) { seen = append(seen, l.String()) },
	})
	require.NoError(t, err)

	assert.Len(t, seen, 5)
	require.Len(t, tree.Resources(), 2)
	// lexical discovery order
	assert.Equal(t, "orders", tree.Resources()[0].Name)
	assert.Equal(t, "users", tree.Resources()[1].Name)

	users := tree.Resources()[1]
	assert.Equal(t, "src/resources/users/schemas", users.Dir)
	create, ok := users.Action("create")
	require.True(t, ok)
	assert.Equal(t, "src/resources/users/schemas/create", create.Dir)

	resp, ok := create.Parameter(Response)
	require.True(t, ok)
	codes := []int{}
	for _, s := range resp.Responses() {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []int{200, 201}, codes)

	body, _ := create.Parameter(Body)
	assert.Contains(t, body.Content().TypeScript, "interface Body")
	_, isObj := body.Content().JSON.(*schema.Object)
	assert.True(t, isObj)
}

func TestBuildNoSchemas(t *testing.T) {
	_, err := Build(context.Background(), fstest.MapFS{"src/resources/.keep": file("")}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSchemas))
	assert.Contains(t, err.Error(), DefaultPattern)
}

func TestBuildStopsOnLoadError(t *testing.T) {
	fsys := fstest.MapFS{
		"src/resources/users/schemas/create/body.schema.json": file(`{"type":`),
	}
	_, err := Build(context.Background(), fsys, Options{})
	var le *schema.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, schema.ParseError, le.Code)
}

func TestBuildCustomRoot(t *testing.T) {
	fsys := fstest.MapFS{
		"api/modules/users/schemas/create/body.schema.json": file(`{"type":"object"}`),
	}
	tree, err := Build(context.Background(), fsys, Options{Root: "api/modules"})
	require.NoError(t, err)
	assert.Equal(t, "api/modules/users/schemas", tree.Resources()[0].Dir)
}

type countingCompiler struct {
	calls int
	inner *compiler.TypeScript
}

func (c *countingCompiler) CompileFile(fsys fs.FS, name string) (*compiler.Unit, error) {
	c.calls++
	return c.inner.CompileFile(fsys, name)
}

func TestBuildCancelled(t *testing.T) {
	fsys := fstest.MapFS{
		"src/resources/users/schemas/create/body.schema.json": file(`{"type":"object"}`),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cc := &countingCompiler{inner: compiler.New(compiler.Options{})}
	_, err := Build(ctx, fsys, Options{Compiler: cc})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, cc.calls)
}
