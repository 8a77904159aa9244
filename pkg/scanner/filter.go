package scanner

import (
	"strings"

	"github.com/devports/hlaunch/pkg/packages"
)

// PackageFilter narrows a package list for display
type PackageFilter struct {
	Query         string
	Favorites     map[string]bool
	FavoritesOnly bool
	EnabledOnly   bool
	MissingOnly   bool
}

// FavoriteSet turns a favorites list into a lookup set
func FavoriteSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// MatchesPackage checks a package against the filter
func (f PackageFilter) MatchesPackage(pkg *packages.Package) bool {
	if pkg == nil {
		return false
	}
	if f.FavoritesOnly && !f.Favorites[pkg.Name] {
		return false
	}
	if f.EnabledOnly && !pkg.Enabled {
		return false
	}
	if f.MissingOnly && !pkg.HasMissingPaths() {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(pkg.Name), q) {
		return true
	}
	for _, p := range pkg.Paths() {
		if strings.Contains(strings.ToLower(p), q) {
			return true
		}
	}
	return false
}

// FilterPackages keeps the packages matching the filter, preserving order
func FilterPackages(pkgs []*packages.Package, f PackageFilter) []*packages.Package {
	filtered := make([]*packages.Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		if f.MatchesPackage(pkg) {
			filtered = append(filtered, pkg)
		}
	}
	return filtered
}
