package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []map[string]any
	}{
		{
			name: "nil",
			raw:  nil,
			want: []map[string]any{},
		},
		{
			name: "falsy scalar",
			raw:  false,
			want: []map[string]any{},
		},
		{
			name: "single record coerced",
			raw:  map[string]any{"name": "Ada"},
			want: []map[string]any{{"name": "Ada"}},
		},
		{
			name: "non-mapping elements dropped",
			raw:  []any{"text", int64(3), map[string]any{"name": "Ada"}, nil},
			want: []map[string]any{{"name": "Ada"}},
		},
		{
			name: "whitespace collapsed and trimmed",
			raw:  []any{map[string]any{"name": "  Ada \n\t Lovelace  "}},
			want: []map[string]any{{"name": "Ada Lovelace"}},
		},
		{
			name: "unsafe characters stripped",
			raw:  []any{map[string]any{"email": "<b>ada@example.com</b>;", "note": "a\x00b"}},
			want: []map[string]any{{"email": "bada@example.comb", "note": "ab"}},
		},
		{
			name: "non-string values pass through",
			raw:  []any{map[string]any{"n": int64(3), "tags": []any{"<x>"}, "ok": true}},
			want: []map[string]any{{"n": int64(3), "tags": []any{"<x>"}, "ok": true}},
		},
		{
			name: "all-empty records dropped",
			raw: []any{
				map[string]any{"a": "   ", "b": nil},
				map[string]any{"a": "", "n": int64(0), "f": 0.0, "ok": false, "l": []any{}, "m": map[string]any{}},
				map[string]any{"a": "<>"},
				map[string]any{},
			},
			want: []map[string]any{},
		},
		{
			name: "order preserved",
			raw: []any{
				map[string]any{"i": "one"},
				map[string]any{"i": " "},
				map[string]any{"i": "two"},
				map[string]any{"i": "three"},
			},
			want: []map[string]any{{"i": "one"}, {"i": "two"}, {"i": "three"}},
		},
		{
			name: "string keyed maps of other types",
			raw:  []map[string]string{{"name": " Grace "}},
			want: []map[string]any{{"name": "Grace"}},
		},
		{
			name: "unicode whitespace collapsed",
			raw:  []any{map[string]any{"name": "Call\u00a0us\u2009now\u3000\u00a0today"}},
			want: []map[string]any{{"name": "Call us now today"}},
		},
		{
			name: "unicode letters kept",
			raw:  []any{map[string]any{"city": "São Paulo | Brasil"}},
			want: []map[string]any{{"city": "São Paulo Brasil"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.raw))
		})
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	record := map[string]any{"name": "  <Ada>  "}
	raw := []any{record}

	Validate(raw)

	assert.Equal(t, "  <Ada>  ", record["name"])
	assert.Len(t, raw, 1)
}

func TestValidateProperties(t *testing.T) {
	inputs := []any{
		nil,
		"loose string",
		map[string]any{"a": " x "},
		[]any{
			map[string]any{"a": "\t\n", "b": "<>"},
			map[string]any{"a": "x  y", "b": "!!z!!"},
			map[string]any{"n": 0.0, "s": " - "},
			"not a record",
			map[string]any{"nested": map[string]any{"k": ""}},
		},
		[]any{map[string]any{"phones": []any{}, "title": "  No  title  found "}},
	}

	for _, in := range inputs {
		once := Validate(in)
		for _, record := range once {
			assert.False(t, allEmpty(record), "record with every field empty: %v", record)
		}
		assert.Equal(t, once, Validate(once), "not idempotent for %v", in)
	}
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, []any{}, Coerce(nil))
	assert.Equal(t, []any{}, Coerce(""))
	assert.Equal(t, []any{}, Coerce(int64(0)))
	assert.Equal(t, []any{"x"}, Coerce("x"))
	assert.Equal(t, []any{map[string]any{}}, Coerce(map[string]any{}))
	assert.Equal(t, []any{"a", "b"}, Coerce([]string{"a", "b"}))
}

func TestIsEmpty(t *testing.T) {
	for _, v := range []any{nil, "", false, 0, int64(0), 0.0, []any{}, map[string]any{}} {
		assert.True(t, IsEmpty(v), "%#v", v)
	}
	for _, v := range []any{" ", true, 1, -2.5, []any{nil}, map[string]any{"k": nil}} {
		assert.False(t, IsEmpty(v), "%#v", v)
	}
}
