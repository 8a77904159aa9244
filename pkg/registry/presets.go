package registry

import (
	"fmt"
	"sort"

	"github.com/devports/hlaunch/pkg/models"
)

// PresetStore manages config/launcher_presets.json
type PresetStore struct {
	filePath string
}

// NewPresetStore creates a preset store backed by filePath
func NewPresetStore(filePath string) *PresetStore {
	return &PresetStore{filePath: filePath}
}

// Load returns presets sorted by name and the default preset name.
// A missing or malformed file yields no presets and no default.
func (s *PresetStore) Load() ([]models.Preset, *string) {
	var file models.PresetsFile
	if !LoadJSON(s.filePath, &file) {
		return []models.Preset{}, nil
	}

	presets := make([]models.Preset, 0, len(file.Presets))
	for name, entry := range file.Presets {
		p := models.Preset{
			Name:     name,
			Packages: entry.Packages,
			Houdini:  entry.Houdini,
		}
		if p.Packages == nil {
			p.Packages = []string{}
		}
		if entry.Avatar != nil {
			p.Avatar = *entry.Avatar
		}
		if entry.AvatarPath != nil {
			p.AvatarPath = *entry.AvatarPath
		}
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets, file.Default
}

// Save replaces the presets file
func (s *PresetStore) Save(presets []models.Preset, defaultPreset *string) error {
	file := models.PresetsFile{
		Default: defaultPreset,
		Presets: make(map[string]models.PresetEntry, len(presets)),
	}
	for _, p := range presets {
		entry := models.PresetEntry{
			Packages: p.Packages,
			Houdini:  p.Houdini,
		}
		if entry.Packages == nil {
			entry.Packages = []string{}
		}
		if p.Avatar != "" {
			avatar := p.Avatar
			entry.Avatar = &avatar
		}
		if p.AvatarPath != "" {
			avatarPath := p.AvatarPath
			entry.AvatarPath = &avatarPath
		}
		file.Presets[p.Name] = entry
	}
	if err := SaveJSON(s.filePath, file); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	return nil
}

// loadForUpdate is Load for read-modify-write callers; a malformed file is an error
func (s *PresetStore) loadForUpdate() ([]models.Preset, *string, error) {
	if err := checkParses(s.filePath, &models.PresetsFile{}); err != nil {
		return nil, nil, err
	}
	presets, def := s.Load()
	return presets, def, nil
}

// Get returns a preset by name
func (s *PresetStore) Get(name string) (models.Preset, bool) {
	presets, _ := s.Load()
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return models.Preset{}, false
}

// Default returns the default preset, if one is set and still exists
func (s *PresetStore) Default() (models.Preset, bool) {
	_, def := s.Load()
	if def == nil {
		return models.Preset{}, false
	}
	return s.Get(*def)
}

// Upsert adds or replaces a preset by name
func (s *PresetStore) Upsert(preset models.Preset) error {
	presets, def, err := s.loadForUpdate()
	if err != nil {
		return err
	}
	replaced := false
	for i := range presets {
		if presets[i].Name == preset.Name {
			presets[i] = preset
			replaced = true
		}
	}
	if !replaced {
		presets = append(presets, preset)
	}
	return s.Save(presets, def)
}

// Delete removes a preset and clears the default if it pointed at it
func (s *PresetStore) Delete(name string) error {
	presets, def, err := s.loadForUpdate()
	if err != nil {
		return err
	}
	kept := presets[:0]
	found := false
	for _, p := range presets {
		if p.Name == name {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("preset %q not found", name)
	}
	if def != nil && *def == name {
		def = nil
	}
	return s.Save(kept, def)
}

// SetDefault marks an existing preset as the default. An empty name clears it.
func (s *PresetStore) SetDefault(name string) error {
	presets, _, err := s.loadForUpdate()
	if err != nil {
		return err
	}
	if name == "" {
		return s.Save(presets, nil)
	}
	for _, p := range presets {
		if p.Name == name {
			return s.Save(presets, &name)
		}
	}
	return fmt.Errorf("preset %q not found", name)
}
