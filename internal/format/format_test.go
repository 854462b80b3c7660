package format

import (
	"errors"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeScriptReindents(t *testing.T) {
	src := `
declare namespace Api {
namespace Schemas {


namespace Users {
    namespace Create {
/**
* Payload.
*/
interface Body {
name: string;
tags?: {
id: number;
}[];
}


type Request = { Body: Api.Schemas.Users.Create.Body; };

}
}
}
}
`
	want := dedent.Dedent(`
		declare namespace Api {
		  namespace Schemas {
		    namespace Users {
		      namespace Create {
		        /**
		         * Payload.
		         */
		        interface Body {
		          name: string;
		          tags?: {
		            id: number;
		          }[];
		        }

		        type Request = { Body: Api.Schemas.Users.Create.Body; };
		      }
		    }
		  }
		}
		`)[1:]

	got, err := TypeScript(src)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := TypeScript(got)
	require.NoError(t, err)
	assert.Equal(t, got, again, "formatting must be idempotent")
}

func TestTypeScriptIgnoresBracketsInStringsAndComments(t *testing.T) {
	src := "type A = {\nkind: \"{\" | '(';\n// }\n/* ] */ b: `[`;\n}\n"
	got, err := TypeScript(src)
	require.NoError(t, err)
	assert.Equal(t, "type A = {\n  kind: \"{\" | '(';\n  // }\n  /* ] */ b: `[`;\n}\n", got)
}

func TestTypeScriptUnbalanced(t *testing.T) {
	_, err := TypeScript("namespace A {\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnbalanced))

	_, err = TypeScript("}\n")
	assert.True(t, errors.Is(err, ErrUnbalanced))
}

func TestJSON(t *testing.T) {
	got, err := JSON([]byte(`{"schema":{"z":1,"a":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"schema\": {\n    \"z\": 1,\n    \"a\": []\n  }\n}\n", string(got))

	_, err = JSON([]byte(`{`))
	require.Error(t, err)
}
