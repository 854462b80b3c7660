package tsemitter

import (
	"context"
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiforge/schemagen/internal/artifact"
	"github.com/apiforge/schemagen/internal/sink"
	"github.com/apiforge/schemagen/internal/templates"
)

func insert(t *testing.T, tree *artifact.Tree, p, ts string) {
	t.Helper()
	loc, err := artifact.Classify(p, "resources")
	require.NoError(t, err)
	tree.Insert(loc, "schemas", &artifact.Content{Path: p, TypeScript: ts})
}

func TestRequestHasOnlyPresentRequestKinds(t *testing.T) {
	tree := artifact.NewTree()
	insert(t, tree, "src/resources/users/schemas/list/querystring.schema.json", "interface Querystring {}")
	insert(t, tree, "src/resources/users/schemas/list/response.200.schema.json", "type Response200 = string;")
	insert(t, tree, "src/resources/users/schemas/list/body.schema.json", "interface Body {}")

	act, _ := tree.Resources()[0].Action("list")
	got := Request(DefaultNamespace, "users", act)
	assert.Equal(t, "type Request = { Querystring: Api.Schemas.Users.List.Querystring; Body: Api.Schemas.Users.List.Body };", got)
	assert.NotContains(t, got, "Response")
}

func TestRequestOmittedForResponseOnlyAction(t *testing.T) {
	tree := artifact.NewTree()
	insert(t, tree, "src/resources/core/schemas/root/response.204.schema.json", "type Response204 = null;")
	act, _ := tree.Resources()[0].Action("root")
	assert.Empty(t, Request(DefaultNamespace, "core", act))
}

func TestEmit(t *testing.T) {
	tree := artifact.NewTree()
	insert(t, tree, "src/resources/core/schemas/root/response.204.schema.json", "/**\n * No Content.\n */\ntype Response204 = null;")
	insert(t, tree, "src/resources/users/schemas/create/response.409.schema.json", "interface Response409 {\nmessage?: string;\n}")
	insert(t, tree, "src/resources/users/schemas/create/body.schema.json", "interface Body {\nemail: string;\n}")
	insert(t, tree, "src/resources/users/schemas/create/response.201.schema.json", "interface Response201 {\nid?: string;\n}")

	mem := sink.NewMemorySink()
	tpl := &templates.Set{TypeScript: "declare namespace Api {\nnamespace Schemas {\n{{ children }}\n}\n}\n"}
	res, err := Emit(context.Background(), tree, Options{Sink: mem, Templates: tpl})
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultPath}, res.Paths())

	want := dedent.Dedent(`
		declare namespace Api {
		  namespace Schemas {
		    namespace Core {
		      namespace Root {
		        /**
		         * No Content.
		         */
		        type Response204 = null;
		      }
		    }
		    namespace Users {
		      namespace Create {
		        interface Response201 {
		          id?: string;
		        }
		        interface Response409 {
		          message?: string;
		        }
		        interface Body {
		          email: string;
		        }
		        type Request = { Body: Api.Schemas.Users.Create.Body };
		      }
		    }
		  }
		}
		`)[1:]
	assert.Equal(t, want, string(mem.Get(DefaultPath)))
}

func TestEmitWithDefaultTemplateIsStable(t *testing.T) {
	tree := artifact.NewTree()
	insert(t, tree, "src/resources/users/schemas/create/body.schema.json", "interface Body {\nemail: string;\n}")

	first := sink.NewMemorySink()
	_, err := Emit(context.Background(), tree, Options{Sink: first, Path: "types/api.d.ts"})
	require.NoError(t, err)
	second := sink.NewMemorySink()
	_, err = Emit(context.Background(), tree, Options{Sink: second, Path: "types/api.d.ts"})
	require.NoError(t, err)

	out := string(first.Get("types/api.d.ts"))
	assert.Equal(t, out, string(second.Get("types/api.d.ts")))
	assert.True(t, strings.HasPrefix(out, "/**\n * The contents of this file"))
	assert.Contains(t, out, "        interface Body {\n")
}
