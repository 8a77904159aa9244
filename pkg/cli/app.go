package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/devports/hlaunch/pkg/health"
	"github.com/devports/hlaunch/pkg/models"
	"github.com/devports/hlaunch/pkg/packages"
	"github.com/devports/hlaunch/pkg/process"
	"github.com/devports/hlaunch/pkg/registry"
	"github.com/devports/hlaunch/pkg/scanner"
)

// EnvLogLevel overrides the default log level (debug, info, warn, error)
const EnvLogLevel = "HLAUNCH_LOG_LEVEL"

var warnStalePresetsOnce sync.Once

// Options are the global flags shared by every subcommand
type Options struct {
	ConfigRoot string
	Verbose    bool
}

// App is the main application handler
type App struct {
	userPaths      models.UserPaths
	paths          models.ConfigPaths
	logger         *log.Logger
	settings       *registry.Settings
	resolver       *scanner.RootResolver
	loader         *packages.Loader
	presets        *registry.PresetStore
	favorites      *registry.FavoritesStore
	processManager *process.Manager
	healthChecker  *health.Checker

	out    io.Writer
	errOut io.Writer
}

// NewApp creates and initializes the application
func NewApp(opts Options) (*App, error) {
	userPaths, err := models.GetUserPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	if err := userPaths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to create config directories: %w", err)
	}

	logger := newLogger(opts.Verbose, os.Stderr)
	a := newApp(userPaths, opts, logger, os.Stdout, os.Stderr)

	warnStalePresetsOnce.Do(func() {
		presets, _ := a.presets.Load()
		warnStalePresets(presets, a.loader.Load(), os.Stderr)
	})
	return a, nil
}

func newApp(userPaths models.UserPaths, opts Options, logger *log.Logger, out, errOut io.Writer) *App {
	settings := registry.NewSettings(userPaths)
	resolver := scanner.NewRootResolver(settings.ConfigRoot)

	root := resolver.Resolve(opts.ConfigRoot)
	if !scanner.LooksLikeConfigRoot(root) {
		logger.Warn("config root has no packages directory", "root", root)
	}
	logger.Debug("using config root", "root", root)
	paths := models.NewConfigPaths(root)

	return &App{
		userPaths:      userPaths,
		paths:          paths,
		logger:         logger,
		settings:       settings,
		resolver:       resolver,
		loader:         packages.NewLoader(paths, logger),
		presets:        registry.NewPresetStore(paths.PresetsFile),
		favorites:      registry.NewFavoritesStore(paths.FavoritesFile),
		processManager: process.NewManager(userPaths.LogsDir, logger),
		healthChecker:  health.NewChecker(0),
		out:            out,
		errOut:         errOut,
	}
}

func newLogger(verbose bool, w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "hlaunch",
	})
	level := log.WarnLevel
	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		if parsed, err := log.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}

// Paths returns the active config root layout
func (a *App) Paths() models.ConfigPaths {
	return a.paths
}

// houdiniRoot returns the saved install root, preferring the per-user pointer
func (a *App) houdiniRoot() string {
	if v, ok := a.settings.HoudiniRoot.Load(); ok {
		return v
	}
	if v, ok := registry.NewTextStore(a.paths.HoudiniRootFile).Load(); ok {
		return v
	}
	return ""
}

// savedExe returns the saved executable path, preferring the per-user pointer
func (a *App) savedExe() string {
	if v, ok := a.settings.HoudiniExe.Load(); ok {
		return v
	}
	if v, ok := registry.NewTextStore(a.paths.HoudiniExeFile).Load(); ok {
		return v
	}
	return ""
}

func (a *App) versionFinder() *scanner.VersionFinder {
	return scanner.NewVersionFinder(a.houdiniRoot())
}

// resolveExe picks the executable to launch: explicit path, named version,
// saved pointer, then the newest discovered version.
func (a *App) resolveExe(explicit, version string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	finder := a.versionFinder()
	if version = strings.TrimSpace(version); version != "" {
		v, ok := finder.Find(a.paths.Root, version)
		if !ok {
			return "", fmt.Errorf("houdini version %q not found", version)
		}
		return scanner.ExePath(v.Path, ""), nil
	}
	if saved := a.savedExe(); saved != "" {
		return saved, nil
	}
	if versions := finder.List(a.paths.Root); len(versions) > 0 {
		return scanner.ExePath(versions[0].Path, ""), nil
	}
	return "", process.ErrExecutableNotFound
}

// globalVars reads scripts/global_vars.json as launch env pairs, sorted by key
func (a *App) globalVars() []models.EnvPair {
	var vars map[string]string
	if !registry.LoadJSON(a.paths.GlobalVarsFile, &vars) {
		return nil
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]models.EnvPair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, models.EnvPair{Key: k, Value: vars[k]})
	}
	return pairs
}

// applyPreset enables exactly the preset's packages
func (a *App) applyPreset(preset models.Preset) error {
	want := make(map[string]bool, len(preset.Packages))
	for _, name := range preset.Packages {
		want[name] = true
	}
	for _, pkg := range a.loader.Load() {
		if pkg.Enabled == want[pkg.Name] {
			continue
		}
		if err := a.loader.SetEnabled(pkg.Name, want[pkg.Name]); err != nil {
			return fmt.Errorf("failed to apply preset %q: %w", preset.Name, err)
		}
	}
	return nil
}

func (a *App) getFailureReport(name string, lines int) (string, []string) {
	if lines <= 0 {
		lines = 12
	}
	logLines, err := a.processManager.Tail(name, lines)
	if err != nil {
		return "No logs captured for last launch", nil
	}
	reason := inferFailureReason(logLines)
	if reason == "" {
		reason = "Houdini exited unexpectedly (no explicit error line detected)"
	}
	return reason, logLines
}

func inferFailureReason(lines []string) string {
	keywords := []string{
		"fatal",
		"error",
		"exception",
		"traceback",
		"no licenses",
		"license",
		"segmentation fault",
		"crash",
		"killed",
	}

	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return line
			}
		}
	}

	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			return line
		}
	}

	return ""
}

func warnStalePresets(presets []models.Preset, pkgs []*packages.Package, out io.Writer) {
	if out == nil || len(presets) == 0 {
		return
	}
	known := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		if pkg != nil {
			known[pkg.Name] = true
		}
	}

	var warnings []string
	for _, p := range presets {
		var missing []string
		for _, name := range p.Packages {
			if !known[name] {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			warnings = append(warnings, fmt.Sprintf("  - %s (missing: %s)", p.Name, strings.Join(missing, ", ")))
		}
	}
	if len(warnings) == 0 {
		return
	}
	sort.Strings(warnings)
	fmt.Fprintln(out, "Warning: presets reference packages that are not in the packages directory.")
	fmt.Fprintln(out, "Applying these presets will leave those packages out.")
	for _, w := range warnings {
		fmt.Fprintln(out, w)
	}
}
