package models

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// AppDirName is the per-user configuration directory name under the home directory
const AppDirName = "houdini-launcher"

// ConfigPaths provides the files and directories that live under a config root.
// Every field is derived from Root; build it with NewConfigPaths.
type ConfigPaths struct {
	Root            string `json:"root"`
	PackagesDir     string `json:"packages_dir"`
	GlobalVarsFile  string `json:"global_vars_file"`
	PresetsFile     string `json:"presets_file"`
	FavoritesFile   string `json:"favorites_file"`
	HoudiniRootFile string `json:"houdini_root_file"`
	HoudiniExeFile  string `json:"houdini_exe_file"`
}

// NewConfigPaths derives the config root layout from root
func NewConfigPaths(root string) ConfigPaths {
	if root == "" {
		root = "."
	}
	return ConfigPaths{
		Root:            root,
		PackagesDir:     filepath.Join(root, "packages"),
		GlobalVarsFile:  filepath.Join(root, "scripts", "global_vars.json"),
		PresetsFile:     filepath.Join(root, "config", "launcher_presets.json"),
		FavoritesFile:   filepath.Join(root, "config", "launcher_favorites.json"),
		HoudiniRootFile: filepath.Join(root, "config", "houdini_root.txt"),
		HoudiniExeFile:  filepath.Join(root, "config", "houdini_exe.txt"),
	}
}

// UserPaths provides paths inside the per-user configuration directory
type UserPaths struct {
	ConfigDir           string
	ConfigRootFile      string
	HoudiniRootFile     string
	HoudiniExeFile      string
	DeadlineMonitorFile string
	LogsDir             string
}

// GetUserPaths returns the per-user paths rooted at <home>/houdini-launcher
func GetUserPaths() (UserPaths, error) {
	home, err := homedir.Dir()
	if err != nil {
		return UserPaths{}, err
	}
	return UserPathsAt(filepath.Join(home, AppDirName)), nil
}

// UserPathsAt lays out the per-user files under configDir
func UserPathsAt(configDir string) UserPaths {
	return UserPaths{
		ConfigDir:           configDir,
		ConfigRootFile:      filepath.Join(configDir, "config_root.txt"),
		HoudiniRootFile:     filepath.Join(configDir, "houdini_root.txt"),
		HoudiniExeFile:      filepath.Join(configDir, "houdini_exe.txt"),
		DeadlineMonitorFile: filepath.Join(configDir, "deadline_monitor_enabled.txt"),
		LogsDir:             filepath.Join(configDir, "logs"),
	}
}

// EnsureDirs creates the per-user directories
func (up UserPaths) EnsureDirs() error {
	dirs := []string{up.ConfigDir, up.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
