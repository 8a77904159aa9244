package registry

import (
	"fmt"

	"github.com/devports/hlaunch/pkg/models"
)

// FavoritesStore manages config/launcher_favorites.json
type FavoritesStore struct {
	filePath string
}

// NewFavoritesStore creates a favorites store backed by filePath
func NewFavoritesStore(filePath string) *FavoritesStore {
	return &FavoritesStore{filePath: filePath}
}

// Load returns the favorite package names in file order
func (s *FavoritesStore) Load() []string {
	var file models.FavoritesFile
	if !LoadJSON(s.filePath, &file) || file.Favorites == nil {
		return []string{}
	}
	return file.Favorites
}

// Save replaces the favorites list
func (s *FavoritesStore) Save(favorites []string) error {
	if favorites == nil {
		favorites = []string{}
	}
	if err := SaveJSON(s.filePath, models.FavoritesFile{Favorites: favorites}); err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	return nil
}

// Toggle adds or removes name and reports whether it is now a favorite
func (s *FavoritesStore) Toggle(name string) (bool, error) {
	if err := checkParses(s.filePath, &models.FavoritesFile{}); err != nil {
		return false, err
	}
	current := s.Load()
	next := make([]string, 0, len(current)+1)
	removed := false
	for _, f := range current {
		if f == name {
			removed = true
			continue
		}
		next = append(next, f)
	}
	if !removed {
		next = append(next, name)
	}
	if err := s.Save(next); err != nil {
		return false, err
	}
	return !removed, nil
}
