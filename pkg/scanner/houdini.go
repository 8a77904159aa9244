package scanner

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/devports/hlaunch/pkg/models"
)

// WellKnownRoots are the install roots searched for Houdini versions
var WellKnownRoots = []string{
	`C:\Program Files\Side Effects Software`,
	`C:\Program Files\SideFX`,
	"/Applications/Houdini",
}

// ListVersionsFromRoot returns child directories named Houdini* that contain
// a bin directory, newest name first.
func ListVersionsFromRoot(installRoot string) []models.HoudiniVersion {
	entries, err := os.ReadDir(installRoot)
	if err != nil {
		return nil
	}

	var versions []models.HoudiniVersion
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "Houdini") {
			continue
		}
		path := filepath.Join(installRoot, name)
		if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
			continue
		}
		binPath := filepath.Join(path, "bin")
		if fi, err := os.Stat(binPath); err != nil || !fi.IsDir() {
			continue
		}
		versions = append(versions, models.HoudiniVersion{
			Name:    name,
			Path:    path,
			BinPath: binPath,
		})
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Name > versions[j].Name
	})
	return versions
}

// VersionFinder searches install roots for Houdini versions
type VersionFinder struct {
	Roots []string
}

// NewVersionFinder searches preferred roots (such as a saved Houdini root)
// before the well-known ones.
func NewVersionFinder(preferred ...string) *VersionFinder {
	roots := make([]string, 0, len(preferred)+len(WellKnownRoots))
	for _, r := range preferred {
		if strings.TrimSpace(r) != "" {
			roots = append(roots, r)
		}
	}
	roots = append(roots, WellKnownRoots...)
	return &VersionFinder{Roots: roots}
}

// List returns the versions of the first root that has any, falling back to the config root
func (vf *VersionFinder) List(configRoot string) []models.HoudiniVersion {
	for _, root := range vf.Roots {
		if versions := ListVersionsFromRoot(root); len(versions) > 0 {
			return versions
		}
	}
	if configRoot != "" {
		if versions := ListVersionsFromRoot(configRoot); len(versions) > 0 {
			return versions
		}
	}
	return []models.HoudiniVersion{}
}

// Find returns the version with the given name
func (vf *VersionFinder) Find(configRoot, name string) (models.HoudiniVersion, bool) {
	for _, v := range vf.List(configRoot) {
		if v.Name == name {
			return v, true
		}
	}
	return models.HoudiniVersion{}, false
}

// DefaultExeName is the preferred Houdini executable for this platform
func DefaultExeName() string {
	if runtime.GOOS == "windows" {
		return "houdinifx.exe"
	}
	return "houdinifx"
}

func fallbackExeName() string {
	if runtime.GOOS == "windows" {
		return "houdini.exe"
	}
	return "houdini"
}

// ExePath picks bin/<exeName> if present, then bin/houdini, otherwise
// returns the bin/<exeName> path even though it does not exist.
func ExePath(versionPath, exeName string) string {
	if exeName == "" {
		exeName = DefaultExeName()
	}
	exe := filepath.Join(versionPath, "bin", exeName)
	fallback := filepath.Join(versionPath, "bin", fallbackExeName())

	if _, err := os.Stat(exe); err == nil {
		return exe
	}
	if _, err := os.Stat(fallback); err == nil {
		return fallback
	}
	return exe
}
