package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeInstall(t *testing.T, root, name string, withBin bool) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if withBin {
		dir = filepath.Join(dir, "bin")
	}
	require.NoError(t, os.MkdirAll(dir, 0755))
	return filepath.Join(root, name)
}

func TestListVersionsFromRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makeInstall(t, root, "Houdini 19.5.805", true)
	newest := makeInstall(t, root, "Houdini 20.5.332", true)
	makeInstall(t, root, "Houdini 18.0", false)
	makeInstall(t, root, "Engine", true)
	require.NoError(t, os.WriteFile(filepath.Join(root, "Houdini.txt"), nil, 0644))

	versions := ListVersionsFromRoot(root)
	require.Len(t, versions, 2)
	assert.Equal(t, "Houdini 20.5.332", versions[0].Name)
	assert.Equal(t, newest, versions[0].Path)
	assert.Equal(t, filepath.Join(newest, "bin"), versions[0].BinPath)
	assert.Equal(t, "Houdini 19.5.805", versions[1].Name)

	assert.Empty(t, ListVersionsFromRoot(filepath.Join(root, "missing")))
}

func TestVersionFinder_FirstNonEmptyRootWins(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	preferred := t.TempDir()
	configRoot := t.TempDir()
	makeInstall(t, preferred, "Houdini 20.0.590", true)
	makeInstall(t, configRoot, "Houdini 19.0", true)

	vf := &VersionFinder{Roots: []string{empty, preferred}}
	versions := vf.List(configRoot)
	require.Len(t, versions, 1)
	assert.Equal(t, "Houdini 20.0.590", versions[0].Name)

	vf = &VersionFinder{Roots: []string{empty}}
	versions = vf.List(configRoot)
	require.Len(t, versions, 1)
	assert.Equal(t, "Houdini 19.0", versions[0].Name)

	v, ok := vf.Find(configRoot, "Houdini 19.0")
	assert.True(t, ok)
	assert.Equal(t, "Houdini 19.0", v.Name)
	_, ok = vf.Find(configRoot, "Houdini 1.0")
	assert.False(t, ok)
}

func TestNewVersionFinder_PreferredFirst(t *testing.T) {
	t.Parallel()

	vf := NewVersionFinder("", "/custom/sidefx")
	require.NotEmpty(t, vf.Roots)
	assert.Equal(t, "/custom/sidefx", vf.Roots[0])
	assert.Len(t, vf.Roots, len(WellKnownRoots)+1)
}

func TestExePath(t *testing.T) {
	t.Parallel()

	version := makeInstall(t, t.TempDir(), "Houdini 20.5", true)
	bin := filepath.Join(version, "bin")

	assert.Equal(t, filepath.Join(bin, DefaultExeName()), ExePath(version, ""))

	fallback := filepath.Join(bin, fallbackExeName())
	require.NoError(t, os.WriteFile(fallback, nil, 0755))
	assert.Equal(t, fallback, ExePath(version, ""))

	preferred := filepath.Join(bin, DefaultExeName())
	require.NoError(t, os.WriteFile(preferred, nil, 0755))
	assert.Equal(t, preferred, ExePath(version, ""))

	custom := filepath.Join(bin, "hython")
	require.NoError(t, os.WriteFile(custom, nil, 0755))
	assert.Equal(t, custom, ExePath(version, "hython"))
}
