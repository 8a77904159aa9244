package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devports/hlaunch/pkg/models"
)

func TestLoadJSON_MissingAndMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var v map[string]any
	assert.False(t, LoadJSON(filepath.Join(dir, "missing.json"), &v))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	assert.False(t, LoadJSON(bad, &v))
	assert.Nil(t, v)
}

func TestSaveJSON_CreatesParentAndIndents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config", "doc.json")
	require.NoError(t, SaveJSON(path, map[string]int{"a": 1}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(content))

	var back map[string]int
	require.True(t, LoadJSON(path, &back))
	assert.Equal(t, 1, back["a"])
}

func TestTextStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewTextStore(filepath.Join(t.TempDir(), "dir", "config_root.txt"))
	_, ok := store.Load()
	assert.False(t, ok)

	require.NoError(t, store.Save("  /studio/houdini\n"))
	value, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "/studio/houdini", value)

	require.NoError(t, store.Save("   "))
	_, ok = store.Load()
	assert.False(t, ok, "blank file reads as absent")
}

func TestPresetStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewPresetStore(filepath.Join(t.TempDir(), "config", "launcher_presets.json"))
	presets, def := store.Load()
	assert.Empty(t, presets)
	assert.Nil(t, def)

	lighting := models.Preset{Name: "lighting", Packages: []string{"redshift", "qLib"}, Houdini: "Houdini 20.5.332"}
	fx := models.Preset{Name: "fx", Packages: []string{"axiom"}, Houdini: "Houdini 20.5.332", Avatar: "F"}
	name := "lighting"
	require.NoError(t, store.Save([]models.Preset{lighting, fx}, &name))

	presets, def = store.Load()
	require.NotNil(t, def)
	assert.Equal(t, "lighting", *def)
	assert.Equal(t, []models.Preset{fx, lighting}, presets, "presets are sorted by name")
}

func TestPresetStore_UpsertDeleteDefault(t *testing.T) {
	t.Parallel()

	store := NewPresetStore(filepath.Join(t.TempDir(), "launcher_presets.json"))
	require.NoError(t, store.Upsert(models.Preset{Name: "fx", Packages: []string{"axiom"}, Houdini: "Houdini 20.0"}))
	require.NoError(t, store.Upsert(models.Preset{Name: "fx", Houdini: "Houdini 20.5"}))

	p, ok := store.Get("fx")
	require.True(t, ok)
	assert.Equal(t, "Houdini 20.5", p.Houdini)
	assert.Equal(t, []string{}, p.Packages)

	_, ok = store.Default()
	assert.False(t, ok)
	require.NoError(t, store.SetDefault("fx"))
	p, ok = store.Default()
	require.True(t, ok)
	assert.Equal(t, "fx", p.Name)

	assert.Error(t, store.SetDefault("nope"))
	assert.Error(t, store.Delete("nope"))

	require.NoError(t, store.Delete("fx"))
	presets, def := store.Load()
	assert.Empty(t, presets)
	assert.Nil(t, def, "deleting the default preset clears it")
}

func TestPresetStore_MalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "launcher_presets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"presets": [1,2]}`), 0644))

	presets, def := NewPresetStore(path).Load()
	assert.Empty(t, presets)
	assert.Nil(t, def)
}

func TestPresetStore_MalformedFileNotOverwritten(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "launcher_presets.json")
	broken := []byte(`{"default": "fx", "presets": {"fx": {"packages": ["mops"],}}}`)
	require.NoError(t, os.WriteFile(path, broken, 0644))
	store := NewPresetStore(path)

	assert.ErrorIs(t, store.Upsert(models.Preset{Name: "lighting"}), ErrMalformedFile)
	assert.ErrorIs(t, store.Delete("fx"), ErrMalformedFile)
	assert.ErrorIs(t, store.SetDefault(""), ErrMalformedFile)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, broken, content)
}

func TestFavoritesStore_MalformedFileNotOverwritten(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "launcher_favorites.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"favorites": "qLib"}`), 0644))

	_, err := NewFavoritesStore(path).Toggle("axiom")
	assert.ErrorIs(t, err, ErrMalformedFile)
}

func TestFavoritesStore_Toggle(t *testing.T) {
	t.Parallel()

	store := NewFavoritesStore(filepath.Join(t.TempDir(), "launcher_favorites.json"))
	assert.Equal(t, []string{}, store.Load())

	fav, err := store.Toggle("qLib")
	require.NoError(t, err)
	assert.True(t, fav)
	fav, err = store.Toggle("axiom")
	require.NoError(t, err)
	assert.True(t, fav)
	assert.Equal(t, []string{"qLib", "axiom"}, store.Load())

	fav, err = store.Toggle("qLib")
	require.NoError(t, err)
	assert.False(t, fav)
	assert.Equal(t, []string{"axiom"}, store.Load())
}

func TestSettings_DeadlineMonitor(t *testing.T) {
	t.Parallel()

	paths := models.UserPathsAt(t.TempDir())
	settings := NewSettings(paths)
	assert.False(t, settings.DeadlineMonitorEnabled())

	require.NoError(t, settings.SetDeadlineMonitorEnabled(true))
	assert.True(t, settings.DeadlineMonitorEnabled())
	content, err := os.ReadFile(paths.DeadlineMonitorFile)
	require.NoError(t, err)
	assert.Equal(t, "1", string(content))

	require.NoError(t, os.WriteFile(paths.DeadlineMonitorFile, []byte(" TRUE \n"), 0644))
	assert.True(t, settings.DeadlineMonitorEnabled())

	require.NoError(t, settings.SetDeadlineMonitorEnabled(false))
	assert.False(t, settings.DeadlineMonitorEnabled())
}

func TestSettings_PointerFiles(t *testing.T) {
	t.Parallel()

	paths := models.UserPathsAt(t.TempDir())
	settings := NewSettings(paths)
	require.NoError(t, settings.ConfigRoot.Save("/studio/config"))

	content, err := os.ReadFile(paths.ConfigRootFile)
	require.NoError(t, err)
	assert.Equal(t, "/studio/config", string(content))
}
