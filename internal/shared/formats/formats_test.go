package formats

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []map[string]any{
	{"name": "Ada", "email": "ada@example.com"},
	{"name": "Grace", "phones": []any{"9876543210", "+919876543210"}, "total": int64(2)},
	{"name": "Linus, Jr.", "active": true, "score": 1.5, "note": nil},
}

func TestParse(t *testing.T) {
	tests := map[string]Format{
		"json": JSON, "": JSON, "CSV": CSV, "yaml": YAML, "yml": YAML, " toml ": TOML,
	}
	for in, want := range tests {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := Parse("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "scraped_data.csv", CSV.Filename())
	assert.Equal(t, "text/csv; charset=utf-8", CSV.ContentType())
	assert.Equal(t, "application/json; charset=utf-8", JSON.ContentType())
}

func TestColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"email", "name", "phones", "total", "active", "note", "score"},
		Columns(sample))
	assert.Empty(t, Columns(nil))
}

func TestRenderCSV(t *testing.T) {
	out, err := RenderCSV(sample)
	require.NoError(t, err)

	want := "email,name,phones,total,active,note,score\n" +
		"ada@example.com,Ada,,,,,\n" +
		`,Grace,"[""9876543210"",""+919876543210""]",2,,,` + "\n" +
		`,"Linus, Jr.",,,true,,1.5` + "\n"
	assert.Equal(t, want, string(out))

	empty, err := RenderCSV(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRenderJSON(t *testing.T) {
	out, err := Render(JSON, sample[:1])
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"email\": \"ada@example.com\",\n    \"name\": \"Ada\"\n  }\n]", string(out))

	empty, err := Render(JSON, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))

	var back []map[string]any
	out, err = Render(JSON, sample)
	require.NoError(t, err)
	require.NoError(t, sonic.Unmarshal(out, &back))
	assert.Len(t, back, 3)
}

func TestRenderYAML(t *testing.T) {
	out, err := Render(YAML, []map[string]any{{"name": "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, "- name: Ada\n", string(out))

	var back []map[string]any
	out, err = Render(YAML, sample)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "Grace", back[1]["name"])
}

func TestRenderTOML(t *testing.T) {
	out, err := Render(TOML, sample)
	require.NoError(t, err)
	assert.Contains(t, string(out), "[[records]]")

	var back struct {
		Records []map[string]any `toml:"records"`
	}
	require.NoError(t, toml.Unmarshal(out, &back))
	require.Len(t, back.Records, 3)
	assert.Equal(t, "Linus, Jr.", back.Records[2]["name"])
	assert.NotContains(t, back.Records[2], "note")
}

func TestRenderUnknown(t *testing.T) {
	_, err := Render(Format("xml"), sample)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{false, "false"},
		{3, "3"},
		{int64(-4), "-4"},
		{2.0, "2"},
		{0.25, "0.25"},
		{map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{[]any{}, "[]"},
	}
	for _, tt := range tests {
		got, err := Cell(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
