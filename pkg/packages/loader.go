package packages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/devports/hlaunch/pkg/models"
)

// ErrPackageNotFound is returned when no file exists for a package name
var ErrPackageNotFound = errors.New("package not found")

// Package is one package file from the packages directory
type Package struct {
	Name       string    `json:"name"`
	FilePath   string    `json:"file_path"`
	Doc        *Document `json:"-"`
	Enabled    bool      `json:"enabled"`
	ConfigRoot string    `json:"config_root"`
}

// NewPackage builds a package from a parsed document
func NewPackage(name, filePath string, doc *Document, configRoot string) *Package {
	return &Package{
		Name:       name,
		FilePath:   filePath,
		Doc:        doc,
		Enabled:    doc.Enabled(),
		ConfigRoot: configRoot,
	}
}

// EnvMap returns the package's substitution map
func (p *Package) EnvMap() map[string]string {
	return EnvMap(p.Doc)
}

// ResolvePath substitutes placeholders in raw against this package
func (p *Package) ResolvePath(raw string) string {
	return ResolvePath(raw, p.EnvMap(), p.ConfigRoot)
}

// Paths returns the resolved hpath/path entries
func (p *Package) Paths() []string {
	return PathValues(p.Doc, p.ConfigRoot)
}

// HasMissingPaths reports whether any hpath/path entry is missing on disk
func (p *Package) HasMissingPaths() bool {
	return HasMissingPaths(p.Doc, p.ConfigRoot)
}

// MissingPaths lists the hpath/path entries missing on disk
func (p *Package) MissingPaths() []string {
	return MissingPaths(p.Doc, p.ConfigRoot)
}

// Loader reads package files from a config root's packages directory
type Loader struct {
	paths  models.ConfigPaths
	logger *log.Logger
}

// NewLoader creates a loader for the given config root layout
func NewLoader(paths models.ConfigPaths, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{paths: paths, logger: logger}
}

// Dir returns the packages directory
func (l *Loader) Dir() string {
	return l.paths.PackagesDir
}

// Load reads every *.json file directly inside the packages directory.
// Unreadable or unparseable files are logged and skipped; a missing
// directory yields an empty list.
func (l *Loader) Load() []*Package {
	entries, err := os.ReadDir(l.paths.PackagesDir)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("failed to read packages directory", "dir", l.paths.PackagesDir, "err", err)
		}
		return []*Package{}
	}

	pkgs := make([]*Package, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(l.paths.PackagesDir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("failed to read package", "path", path, "err", err)
			continue
		}
		doc, err := ParseDocument(content)
		if err != nil {
			l.logger.Warn("failed to parse package", "path", path, "err", err)
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		pkgs = append(pkgs, NewPackage(name, path, doc, l.paths.Root))
	}

	sort.SliceStable(pkgs, func(i, j int) bool {
		return strings.ToLower(pkgs[i].Name) < strings.ToLower(pkgs[j].Name)
	})
	l.logger.Debug("loaded packages", "dir", l.paths.PackagesDir, "count", len(pkgs))
	return pkgs
}

// Get loads a single package by name
func (l *Loader) Get(name string) (*Package, error) {
	path, err := l.packagePath(name)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, path)
		}
		return nil, fmt.Errorf("failed to read package: %w", err)
	}
	doc, err := ParseDocument(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse package JSON: %w", err)
	}
	return NewPackage(name, path, doc, l.paths.Root), nil
}

// SetEnabled rewrites a package file with its enable field set.
// Every failure is returned; there is no fallback.
func (l *Loader) SetEnabled(name string, enabled bool) error {
	pkg, err := l.Get(name)
	if err != nil {
		return err
	}
	if err := pkg.Doc.SetEnable(enabled); err != nil {
		return fmt.Errorf("failed to update package %q: %w", name, err)
	}
	content, err := pkg.Doc.MarshalIndent()
	if err != nil {
		return fmt.Errorf("failed to serialize package: %w", err)
	}
	if err := os.WriteFile(pkg.FilePath, content, 0644); err != nil {
		return fmt.Errorf("failed to write package: %w", err)
	}
	return nil
}

func (l *Loader) packagePath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid package name %q", name)
	}
	return filepath.Join(l.paths.PackagesDir, name+".json"), nil
}
