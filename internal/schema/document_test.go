package schema

import (
	"encoding/json"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePreservesKeyOrder(t *testing.T) {
	v, err := Decode([]byte(`{"z": 1, "a": {"y": true, "b": null}, "m": [1, "x"]}`))
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())

	inner, _ := obj.Get("a")
	assert.Equal(t, []string{"y", "b"}, inner.(*Object).Keys())

	n, _ := obj.Get("z")
	assert.Equal(t, json.Number("1"), n)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	_, err := Decode([]byte(`{} {}`))
	require.Error(t, err)

	_, err = Decode([]byte(`{"a": `))
	require.Error(t, err)
}

func TestObjectSetDelete(t *testing.T) {
	o := NewObject()
	o.Set("a", "1")
	o.Set("b", "2")
	o.Set("c", "3")
	o.Set("a", "replaced")

	assert.Equal(t, []string{"a", "b", "c"}, o.Keys())
	v, _ := o.Get("a")
	assert.Equal(t, "replaced", v)

	assert.True(t, o.Delete("b"))
	assert.False(t, o.Delete("missing"))
	o.Set("b", "again")
	assert.Equal(t, []string{"a", "c", "b"}, o.Keys())
}

func TestMarshalIndent(t *testing.T) {
	src := `{"schema":{"tags":["users","admin"],"body":{"type":"object","properties":{}},"summary":"<create>","required":[]}}`
	v, err := Decode([]byte(src))
	require.NoError(t, err)

	out, err := MarshalIndent(v, "  ")
	require.NoError(t, err)

	want := dedent.Dedent(`
		{
		  "schema": {
		    "tags": ["users", "admin"],
		    "body": {
		      "type": "object",
		      "properties": {}
		    },
		    "summary": "<create>",
		    "required": []
		  }
		}`)[1:]
	assert.Equal(t, want, string(out))
}

func TestMarshalCompactRoundTrip(t *testing.T) {
	src := `{"b":[{"x":1.50},2],"a":"é"}`
	v, err := Decode([]byte(src))
	require.NoError(t, err)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"b":[{"x":1.50},2],"a":"é"}`, string(out))
}

func TestMarshalLongScalarArrayBreaks(t *testing.T) {
	arr := []any{}
	for i := 0; i < 12; i++ {
		arr = append(arr, "value-number")
	}
	out, err := MarshalIndent(arr, "  ")
	require.NoError(t, err)
	assert.Contains(t, string(out), "[\n  \"value-number\",")
}
