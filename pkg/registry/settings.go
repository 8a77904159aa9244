package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/devports/hlaunch/pkg/models"
)

// Settings exposes the per-user pointer files
type Settings struct {
	paths models.UserPaths

	ConfigRoot  *TextStore
	HoudiniRoot *TextStore
	HoudiniExe  *TextStore
}

// NewSettings creates settings backed by the per-user configuration directory
func NewSettings(paths models.UserPaths) *Settings {
	return &Settings{
		paths:       paths,
		ConfigRoot:  NewTextStore(paths.ConfigRootFile),
		HoudiniRoot: NewTextStore(paths.HoudiniRootFile),
		HoudiniExe:  NewTextStore(paths.HoudiniExeFile),
	}
}

// DeadlineMonitorEnabled reads the deadline monitor toggle ("1" or "true", any case)
func (s *Settings) DeadlineMonitorEnabled() bool {
	content, err := os.ReadFile(s.paths.DeadlineMonitorFile)
	if err != nil {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(string(content)))
	return v == "1" || v == "true"
}

// SetDeadlineMonitorEnabled writes the deadline monitor toggle
func (s *Settings) SetDeadlineMonitorEnabled(enabled bool) error {
	content := "0"
	if enabled {
		content = "1"
	}
	if err := writeFile(s.paths.DeadlineMonitorFile, []byte(content)); err != nil {
		return fmt.Errorf("failed to write deadline monitor setting: %w", err)
	}
	return nil
}
