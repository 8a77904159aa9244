package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/devports/hlaunch/pkg/models"
)

// ConfigStore holds the config root saved by an explicit user choice
type ConfigStore interface {
	Load() (string, bool)
	Save(value string) error
}

// RootResolver finds the config root by walking candidate directories upward
type RootResolver struct {
	store ConfigStore

	// Overridable for tests.
	LookupEnv func(string) (string, bool)
	Getwd     func() (string, error)
	HomeDir   func() (string, error)
}

// NewRootResolver creates a resolver backed by store. A nil store means no saved root.
func NewRootResolver(store ConfigStore) *RootResolver {
	return &RootResolver{
		store:     store,
		LookupEnv: os.LookupEnv,
		Getwd:     os.Getwd,
		HomeDir:   homedir.Dir,
	}
}

// LooksLikeConfigRoot reports whether path directly contains a packages directory
func LooksLikeConfigRoot(path string) bool {
	fi, err := os.Stat(filepath.Join(path, "packages"))
	return err == nil && fi.IsDir()
}

// Candidates returns the starting points in priority order:
// explicit, saved root, environment override, working directory.
// The list is never empty.
func (rr *RootResolver) Candidates(explicit string) []string {
	var candidates []string

	if explicit = strings.TrimSpace(explicit); explicit != "" {
		candidates = append(candidates, rr.expandHome(explicit))
	}

	if rr.store != nil {
		if saved, ok := rr.store.Load(); ok && saved != "" {
			candidates = append(candidates, rr.expandHome(saved))
		}
	}

	if v, ok := rr.LookupEnv(models.EnvConfigRootOverride); ok {
		if v = strings.TrimSpace(v); v != "" {
			candidates = append(candidates, rr.expandHome(v))
		}
	}

	cwd, err := rr.Getwd()
	if err != nil || cwd == "" {
		cwd = "."
	}
	return append(candidates, cwd)
}

// Resolve returns the nearest ancestor-or-self of the first candidate that
// looks like a config root. Paths already checked for an earlier candidate
// are not checked again. With no match it returns the first candidate.
func (rr *RootResolver) Resolve(explicit string) string {
	candidates := rr.Candidates(explicit)

	seen := make(map[string]struct{})
	for _, start := range candidates {
		current := start
		for {
			if _, ok := seen[current]; ok {
				break
			}
			seen[current] = struct{}{}

			if LooksLikeConfigRoot(current) {
				return current
			}

			parent, ok := parentOf(current)
			if !ok {
				break
			}
			current = parent
		}
	}

	return candidates[0]
}

// Save persists root as the saved config root
func (rr *RootResolver) Save(root string) error {
	if rr.store == nil {
		return nil
	}
	return rr.store.Save(strings.TrimSpace(root))
}

func (rr *RootResolver) expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := rr.HomeDir()
	if err != nil || home == "" {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}

// parentOf returns the parent directory. A relative path ends its walk at ".",
// the working directory.
func parentOf(p string) (string, bool) {
	parent := filepath.Dir(p)
	if parent == p {
		return "", false
	}
	return parent, true
}
