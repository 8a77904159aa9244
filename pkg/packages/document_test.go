package packages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument_EnableDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"absent", `{"env":[]}`, true},
		{"false", `{"enable": false}`, false},
		{"true", `{"enable": true}`, true},
		{"not a bool", `{"enable": "no"}`, true},
		{"not an object", `[1,2,3]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := ParseDocument([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Enabled())
		})
	}
}

func TestParseDocument_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := ParseDocument([]byte(`{"env": [`))
	assert.Error(t, err)
}

func TestParseDocument_EnvEntries(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{
		"env": [
			{"B": "two", "A": 1},
			"skipped",
			{"C": true, "D": null, "E": 2.5}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, doc.Env, 2)

	assert.Equal(t, EnvEntry{
		{Key: "B", Kind: KindString, Text: "two"},
		{Key: "A", Kind: KindNumber, Text: "1"},
	}, doc.Env[0])
	assert.Equal(t, EnvEntry{
		{Key: "C", Kind: KindOther},
		{Key: "D", Kind: KindOther},
		{Key: "E", Kind: KindNumber, Text: "2.5"},
	}, doc.Env[1])
}

func TestParseDocument_EnvNotArray(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"env": {"A": "x"}}`))
	require.NoError(t, err)
	assert.Empty(t, doc.Env)
}

func TestCanonicalNumber(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"12":                   "12",
		"-3":                   "-3",
		"1.5":                  "1.5",
		"2.0":                  "2.0",
		"1e3":                  "1000.0",
		"18446744073709551615": "18446744073709551615",
	}
	for in, want := range cases {
		assert.Equal(t, want, canonicalNumber(json.Number(in)), "input %s", in)
	}
}

func TestSetEnable_PreservesUnknownFields(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"load_package_once": true, "env": [{"A": "x"}], "custom": {"nested": [1, 2]}}`))
	require.NoError(t, err)
	require.NoError(t, doc.SetEnable(false))

	out, err := doc.MarshalIndent()
	require.NoError(t, err)

	keys := make([]string, 0)
	for _, f := range doc.Fields() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"load_package_once", "env", "custom", "enable"}, keys)

	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, false, back["enable"])
	assert.Equal(t, true, back["load_package_once"])
	assert.Equal(t, map[string]any{"nested": []any{1.0, 2.0}}, back["custom"])
	assert.Contains(t, string(out), "\n  \"env\"")
}

func TestSetEnable_ReplacesInPlace(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"enable": true, "env": []}`))
	require.NoError(t, err)
	require.NoError(t, doc.SetEnable(false))

	assert.Equal(t, "enable", doc.Fields()[0].Key)
	assert.False(t, doc.Enabled())
}

func TestSetEnable_NotObject(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`"just a string"`))
	require.NoError(t, err)
	assert.ErrorIs(t, doc.SetEnable(true), ErrNotObject)
}

func TestParseDocument_DuplicateKeysKeepLastValue(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"enable": true, "other": 1, "enable": false}`))
	require.NoError(t, err)
	assert.False(t, doc.Enabled())
	assert.Len(t, doc.Fields(), 2)
}
