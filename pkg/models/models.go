package models

import "strings"

// Environment variables handed to Houdini on launch
const (
	EnvPackageDir = "HOUDINI_PACKAGE_DIR"
	EnvConfigRoot = "CONFIG_ROOT_PATH"
)

// EnvConfigRootOverride supplies a config root at discovery time
const EnvConfigRootOverride = "HOUDINI_CONFIG_ROOT"

// Preset is a named selection of packages for a Houdini version
type Preset struct {
	Name       string   `json:"name"`
	Packages   []string `json:"packages"`
	Houdini    string   `json:"houdini"`
	Avatar     string   `json:"avatar,omitempty"`
	AvatarPath string   `json:"avatar_path,omitempty"`
}

// PresetEntry is the on-disk form of a preset, keyed by name in PresetsFile
type PresetEntry struct {
	Packages   []string `json:"packages"`
	Houdini    string   `json:"houdini"`
	Avatar     *string  `json:"avatar,omitempty"`
	AvatarPath *string  `json:"avatar_path,omitempty"`
}

// PresetsFile is the document stored at config/launcher_presets.json
type PresetsFile struct {
	Default *string                `json:"default"`
	Presets map[string]PresetEntry `json:"presets"`
}

// FavoritesFile is the document stored at config/launcher_favorites.json
type FavoritesFile struct {
	Favorites []string `json:"favorites"`
}

// HoudiniVersion is an installed Houdini found under an install root
type HoudiniVersion struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	BinPath string `json:"bin_path"`
}

// EnvPair is a single environment override
type EnvPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// String renders the pair in KEY=VALUE form
func (p EnvPair) String() string {
	return p.Key + "=" + p.Value
}

// ParseEnvPair splits KEY=VALUE. The value may itself contain '='.
func ParseEnvPair(s string) (EnvPair, bool) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return EnvPair{}, false
	}
	return EnvPair{Key: key, Value: value}, true
}

// LaunchRequest describes a single Houdini launch
type LaunchRequest struct {
	ExePath    string
	PackageDir string
	ConfigRoot string
	Env        []EnvPair
	Args       []string
}
