package packages

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devports/hlaunch/pkg/models"
)

func newTestLoader(t *testing.T) (*Loader, models.ConfigPaths) {
	t.Helper()
	paths := models.NewConfigPaths(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.PackagesDir, 0755))
	return NewLoader(paths, log.New(io.Discard)), paths
}

func writePackage(t *testing.T, paths models.ConfigPaths, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(paths.PackagesDir, file), []byte(content), 0644))
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	loader, paths := newTestLoader(t)
	writePackage(t, paths, "redshift.json", `{"enable": false, "env": []}`)
	writePackage(t, paths, "Axiom.json", `{"env": [{"AXIOM": "/opt/axiom"}]}`)
	writePackage(t, paths, "broken.json", `{"env": [`)
	writePackage(t, paths, "notes.txt", `{}`)
	require.NoError(t, os.MkdirAll(filepath.Join(paths.PackagesDir, "nested.json"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(paths.PackagesDir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(paths.PackagesDir, "sub", "deep.json"), []byte(`{}`), 0644))

	pkgs := loader.Load()
	require.Len(t, pkgs, 2)

	assert.Equal(t, "Axiom", pkgs[0].Name)
	assert.True(t, pkgs[0].Enabled)
	assert.Equal(t, paths.Root, pkgs[0].ConfigRoot)
	assert.Equal(t, map[string]string{"AXIOM": "/opt/axiom"}, pkgs[0].EnvMap())

	assert.Equal(t, "redshift", pkgs[1].Name)
	assert.False(t, pkgs[1].Enabled)
}

func TestLoader_Load_MissingDir(t *testing.T) {
	t.Parallel()

	loader := NewLoader(models.NewConfigPaths(filepath.Join(t.TempDir(), "absent")), log.New(io.Discard))
	pkgs := loader.Load()
	assert.NotNil(t, pkgs)
	assert.Empty(t, pkgs)
}

func TestLoader_SetEnabled(t *testing.T) {
	t.Parallel()

	loader, paths := newTestLoader(t)
	writePackage(t, paths, "mops.json", `{"hpath": "$MOPS", "env": [{"MOPS": "/tools/mops"}]}`)

	require.NoError(t, loader.SetEnabled("mops", false))
	pkg, err := loader.Get("mops")
	require.NoError(t, err)
	assert.False(t, pkg.Enabled)
	raw, ok := pkg.Doc.Get("hpath")
	require.True(t, ok)
	assert.JSONEq(t, `"$MOPS"`, string(raw))

	require.NoError(t, loader.SetEnabled("mops", true))
	pkg, err = loader.Get("mops")
	require.NoError(t, err)
	assert.True(t, pkg.Enabled)
}

func TestLoader_SetEnabled_Errors(t *testing.T) {
	t.Parallel()

	loader, paths := newTestLoader(t)
	writePackage(t, paths, "broken.json", `not json`)
	writePackage(t, paths, "list.json", `[1, 2]`)

	assert.ErrorIs(t, loader.SetEnabled("ghost", true), ErrPackageNotFound)
	assert.ErrorContains(t, loader.SetEnabled("broken", true), "failed to parse package JSON")
	assert.ErrorIs(t, loader.SetEnabled("list", true), ErrNotObject)
	assert.ErrorContains(t, loader.SetEnabled("../escape", true), "invalid package name")
}
