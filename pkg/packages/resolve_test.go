package packages

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, v any) *Document {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	doc, err := ParseDocument(data)
	require.NoError(t, err)
	return doc
}

func TestEnvMap_LaterEntriesWin(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"env":[{"A":"first","N":7},{"A":"second","X":[1]}]}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"A": "second", "N": "7"}, EnvMap(doc))
}

func TestEnvMap_NoEnv(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"enable": true}`))
	require.NoError(t, err)
	assert.Empty(t, EnvMap(doc))
	assert.Empty(t, EnvMap(nil))
}

func TestResolvePath_Substitution(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"env":[{"hpath":"$ROOT/x"},{"ROOT":"C:/h"}]}`))
	require.NoError(t, err)

	got := PathValues(doc, "/cfg")
	assert.Equal(t, []string{"C:/h/x"}, got)
}

func TestResolvePath_ConfigRoot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/cfg/otls", ResolvePath("$CONFIG_ROOT_PATH/otls", nil, "/cfg"))

	env := map[string]string{"CONFIG_ROOT_PATH": "/elsewhere"}
	assert.Equal(t, "/cfg/otls", ResolvePath("$CONFIG_ROOT_PATH/otls", env, "/cfg"))
}

func TestResolvePath_EnvValueUsesConfigRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib", "otls"), 0755))

	doc, err := ParseDocument([]byte(`{"env":[{"LIB":"$CONFIG_ROOT_PATH/lib"},{"hpath":"$LIB/otls"}]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "lib", "otls")}, filepathAll(PathValues(doc, root)))
	assert.False(t, HasMissingPaths(doc, root))
}

func TestResolvePath_PrefixKeys(t *testing.T) {
	t.Parallel()

	env := map[string]string{"ROOT": "/a", "ROOT2": "/b", "CONFIG_ROOT": "/c"}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "/b/x:/a/y", ResolvePath("$ROOT2/x:$ROOT/y", env, "/cfg"))
		assert.Equal(t, "/cfg|/c", ResolvePath("$CONFIG_ROOT_PATH|$CONFIG_ROOT", env, "/cfg"))
	}
}

func TestResolvePath_NoPlaceholders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/plain/path", ResolvePath("/plain/path", map[string]string{"plain": "x"}, "/cfg"))
	assert.Equal(t, "$UNKNOWN/x", ResolvePath("$UNKNOWN/x", nil, "/cfg"))
}

func TestHasMissingPaths(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	existing := filepath.Join(root, "otls")
	require.NoError(t, os.MkdirAll(existing, 0755))

	present := mustParse(t, map[string]any{
		"env": []any{
			map[string]any{"TOOLS": root},
			map[string]any{"hpath": "$TOOLS/otls"},
			map[string]any{"path": "$CONFIG_ROOT_PATH/otls"},
		},
	})
	assert.False(t, HasMissingPaths(present, root))
	assert.Empty(t, MissingPaths(present, root))

	missing := mustParse(t, map[string]any{
		"env": []any{
			map[string]any{"hpath": "$CONFIG_ROOT_PATH/otls"},
			map[string]any{"hpath": "$CONFIG_ROOT_PATH/nope"},
		},
	})
	assert.True(t, HasMissingPaths(missing, root))
	assert.Equal(t, []string{filepath.Join(root, "nope")}, filepathAll(MissingPaths(missing, root)))

	noEnv := mustParse(t, map[string]any{"enable": true})
	assert.False(t, HasMissingPaths(noEnv, root))
}

func TestHasMissingPaths_NonStringPath(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, map[string]any{"env": []any{map[string]any{"hpath": 5}}})
	assert.True(t, HasMissingPaths(doc, t.TempDir()))
}

func TestHasMissingPaths_NotObject(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`42`))
	require.NoError(t, err)
	assert.False(t, HasMissingPaths(doc, t.TempDir()))
}

func filepathAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Clean(p)
	}
	return out
}
