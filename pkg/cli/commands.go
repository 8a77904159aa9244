package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/devports/hlaunch/pkg/health"
	"github.com/devports/hlaunch/pkg/models"
	"github.com/devports/hlaunch/pkg/packages"
	"github.com/devports/hlaunch/pkg/process"
	"github.com/devports/hlaunch/pkg/scanner"
)

// LaunchOptions are the inputs of the 'launch' command
type LaunchOptions struct {
	ExePath string
	Version string
	Preset  string
	Args    string
	Env     []string
}

// RootCmd prints the active config root, or saves one
func (a *App) RootCmd(path string, save bool) error {
	if !save {
		status := "ok"
		if !scanner.LooksLikeConfigRoot(a.paths.Root) {
			status = "no packages directory"
		}
		fmt.Fprintf(a.out, "%s (%s)\n", a.paths.Root, status)
		return nil
	}

	if strings.TrimSpace(path) == "" {
		path = a.paths.Root
	}
	if !scanner.LooksLikeConfigRoot(path) {
		fmt.Fprintf(a.errOut, "Warning: %s has no packages directory\n", path)
	}
	if err := a.resolver.Save(path); err != nil {
		return fmt.Errorf("failed to save config root: %w", err)
	}
	fmt.Fprintf(a.out, "Config root saved: %s\n", strings.TrimSpace(path))
	return nil
}

// PathsCmd prints every path derived from the config root
func (a *App) PathsCmd() error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Root", a.paths.Root},
		{"Packages", a.paths.PackagesDir},
		{"Global vars", a.paths.GlobalVarsFile},
		{"Presets", a.paths.PresetsFile},
		{"Favorites", a.paths.FavoritesFile},
		{"Houdini root", a.paths.HoudiniRootFile},
		{"Houdini exe", a.paths.HoudiniExeFile},
		{"User config", a.userPaths.ConfigDir},
		{"Logs", a.userPaths.LogsDir},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r[0], r[1])
	}
	return w.Flush()
}

// ListCmd handles the 'ls' command
func (a *App) ListCmd(detailed, missingOnly bool) error {
	pkgs := scanner.FilterPackages(a.loader.Load(), scanner.PackageFilter{
		Favorites:   scanner.FavoriteSet(a.favorites.Load()),
		MissingOnly: missingOnly,
	})
	if len(pkgs) == 0 {
		fmt.Fprintf(a.out, "No packages found in %s\n", a.loader.Dir())
		return nil
	}
	return a.printPackageTable(pkgs, detailed)
}

// printPackageTable prints packages in tabular format
func (a *App) printPackageTable(pkgs []*packages.Package, detailed bool) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	favs := scanner.FavoriteSet(a.favorites.Load())

	if detailed {
		fmt.Fprintln(w, "Name\tEnabled\tFav\tHealth\tFile\tMissing")
	} else {
		fmt.Fprintln(w, "Name\tEnabled\tFav\tHealth")
	}
	for _, pkg := range pkgs {
		fmt.Fprintln(w, a.formatPackageRow(pkg, favs[pkg.Name], detailed))
	}

	return w.Flush()
}

// formatPackageRow formats a package as a table row
func (a *App) formatPackageRow(pkg *packages.Package, fav, detailed bool) string {
	enabled := "no"
	if pkg.Enabled {
		enabled = "yes"
	}
	star := "-"
	if fav {
		star = "*"
	}
	check := a.healthChecker.Check(pkg)
	status := fmt.Sprintf("%s %s", health.StatusIcon(check.Status), check.Status)

	if detailed {
		missing := "-"
		if len(check.Missing) > 0 {
			missing = strings.Join(check.Missing, ", ")
		}
		return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s", pkg.Name, enabled, star, status, pkg.FilePath, missing)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s", pkg.Name, enabled, star, status)
}

// EnableCmd enables or disables a package
func (a *App) EnableCmd(name string, enabled bool) error {
	if err := a.loader.SetEnabled(name, enabled); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(a.out, "Package %q %s\n", name, state)
	return nil
}

// FavCmd toggles a package in the favorites list
func (a *App) FavCmd(name string) error {
	if _, err := a.loader.Get(name); err != nil {
		return err
	}
	fav, err := a.favorites.Toggle(name)
	if err != nil {
		return err
	}
	if fav {
		fmt.Fprintf(a.out, "Package %q added to favorites\n", name)
	} else {
		fmt.Fprintf(a.out, "Package %q removed from favorites\n", name)
	}
	return nil
}

// FavsCmd lists favorite packages
func (a *App) FavsCmd() error {
	favs := a.favorites.Load()
	if len(favs) == 0 {
		fmt.Fprintln(a.out, "No favorites yet")
		return nil
	}
	for _, f := range favs {
		fmt.Fprintln(a.out, f)
	}
	return nil
}

// PresetsCmd lists presets
func (a *App) PresetsCmd() error {
	presets, def := a.presets.Load()
	if len(presets) == 0 {
		fmt.Fprintln(a.out, "No presets yet")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Name\tHoudini\tPackages\tDefault")
	for _, p := range presets {
		mark := "-"
		if def != nil && *def == p.Name {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, orDash(p.Houdini), orDash(strings.Join(p.Packages, ", ")), mark)
	}
	return w.Flush()
}

// PresetSaveCmd saves a preset. With no packages given, the currently
// enabled packages are used.
func (a *App) PresetSaveCmd(name, houdini string, pkgs []string) error {
	preset, err := a.savePreset(name, houdini, pkgs)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Preset %q saved (%d packages)\n", name, len(preset.Packages))
	return nil
}

func (a *App) savePreset(name, houdini string, pkgs []string) (models.Preset, error) {
	if err := validateName("preset", name); err != nil {
		return models.Preset{}, err
	}
	if len(pkgs) == 0 {
		for _, pkg := range a.loader.Load() {
			if pkg.Enabled {
				pkgs = append(pkgs, pkg.Name)
			}
		}
	}
	if houdini == "" {
		if versions := a.versionFinder().List(a.paths.Root); len(versions) > 0 {
			houdini = versions[0].Name
		}
	}

	preset := models.Preset{Name: name, Packages: pkgs, Houdini: houdini}
	if existing, ok := a.presets.Get(name); ok {
		preset.Avatar = existing.Avatar
		preset.AvatarPath = existing.AvatarPath
	}
	if err := a.presets.Upsert(preset); err != nil {
		return models.Preset{}, err
	}
	return preset, nil
}

// PresetRemoveCmd deletes a preset
func (a *App) PresetRemoveCmd(name string) error {
	if err := a.presets.Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Preset %q removed\n", name)
	return nil
}

// PresetDefaultCmd marks a preset as the default
func (a *App) PresetDefaultCmd(name string) error {
	if err := a.presets.SetDefault(name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Default preset: %s\n", name)
	return nil
}

// PresetApplyCmd enables exactly the packages of a preset
func (a *App) PresetApplyCmd(name string) error {
	preset, ok := a.presets.Get(name)
	if !ok {
		return fmt.Errorf("preset %q not found", name)
	}
	if err := a.applyPreset(preset); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Preset %q applied\n", name)
	return nil
}

// VersionsCmd lists discovered Houdini versions
func (a *App) VersionsCmd() error {
	versions := a.versionFinder().List(a.paths.Root)
	if len(versions) == 0 {
		fmt.Fprintln(a.out, "No Houdini installations found")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Name\tPath\tExecutable")
	for _, v := range versions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, v.Path, scanner.ExePath(v.Path, ""))
	}
	return w.Flush()
}

// ExeCmd prints the executable that would be launched, or saves one
func (a *App) ExeCmd(save, version string) error {
	if save != "" || version != "" {
		exe, err := a.resolveExe(save, version)
		if err != nil {
			return err
		}
		if err := a.settings.HoudiniExe.Save(exe); err != nil {
			return fmt.Errorf("failed to save houdini executable: %w", err)
		}
		fmt.Fprintf(a.out, "Houdini executable saved: %s\n", exe)
		return nil
	}

	exe, err := a.resolveExe("", "")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, exe)
	return nil
}

// LaunchCmd launches Houdini and waits for it to exit
func (a *App) LaunchCmd(ctx context.Context, opts LaunchOptions) error {
	req, err := a.buildLaunchRequest(opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Launching %s...\n", req.ExePath)
	res, err := a.processManager.Launch(ctx, req)
	if err != nil {
		if res != nil && ctx.Err() != nil {
			fmt.Fprintf(a.out, "Stopped waiting; Houdini is still running (pid %d, log: %s)\n", res.PID, res.LogPath)
			return nil
		}
		return err
	}
	if res.ExitCode != 0 {
		reason, _ := a.getFailureReport(process.LogName(req.ExePath), 40)
		return fmt.Errorf("houdini exited with code %d: %s", res.ExitCode, reason)
	}
	fmt.Fprintf(a.out, "Houdini exited after %s (log: %s)\n", res.Duration.Round(time.Second), res.LogPath)
	return nil
}

func (a *App) buildLaunchRequest(opts LaunchOptions) (models.LaunchRequest, error) {
	overrides, err := parseEnvOverrides(opts.Env)
	if err != nil {
		return models.LaunchRequest{}, err
	}
	args, err := process.ParseArgs(opts.Args)
	if err != nil {
		return models.LaunchRequest{}, fmt.Errorf("invalid houdini arguments: %w", err)
	}

	version := opts.Version
	var preset *models.Preset
	if opts.Preset != "" {
		p, ok := a.presets.Get(opts.Preset)
		if !ok {
			return models.LaunchRequest{}, fmt.Errorf("preset %q not found", opts.Preset)
		}
		preset = &p
		if version == "" && opts.ExePath == "" {
			version = p.Houdini
		}
	}

	exe, err := a.resolveExe(opts.ExePath, version)
	if err != nil {
		return models.LaunchRequest{}, err
	}
	// Package files are only touched once the launch can go ahead.
	if fi, err := os.Stat(exe); err != nil || fi.IsDir() {
		return models.LaunchRequest{}, fmt.Errorf("%w: %s", process.ErrExecutableNotFound, exe)
	}
	if preset != nil {
		if err := a.applyPreset(*preset); err != nil {
			return models.LaunchRequest{}, err
		}
	}

	env := append(a.globalVars(), overrides...)
	return models.LaunchRequest{
		ExePath:    exe,
		PackageDir: a.paths.PackagesDir,
		ConfigRoot: a.paths.Root,
		Env:        env,
		Args:       args,
	}, nil
}

// LogsCmd displays the most recent launch log
func (a *App) LogsCmd(name string, lines int) error {
	if name == "" {
		if exe, err := a.resolveExe("", ""); err == nil {
			name = process.LogName(exe)
		}
	}
	if name == "" {
		names, err := a.processManager.LogNames()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return process.ErrNoLogs
		}
		name = names[0]
	}

	logLines, err := a.processManager.Tail(name, lines)
	if err != nil {
		if errors.Is(err, process.ErrNoLogs) {
			return fmt.Errorf("no launch logs for %q yet", name)
		}
		return err
	}

	fmt.Fprintf(a.out, "Logs for %q:\n", name)
	for _, line := range logLines {
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// DeadlineCmd shows or sets the deadline monitor toggle
func (a *App) DeadlineCmd(state string) error {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "":
		if a.settings.DeadlineMonitorEnabled() {
			fmt.Fprintln(a.out, "Deadline monitor: on")
		} else {
			fmt.Fprintln(a.out, "Deadline monitor: off")
		}
		return nil
	case "on", "1", "true":
		if err := a.settings.SetDeadlineMonitorEnabled(true); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Deadline monitor: on")
		return nil
	case "off", "0", "false":
		if err := a.settings.SetDeadlineMonitorEnabled(false); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Deadline monitor: off")
		return nil
	default:
		return fmt.Errorf("invalid deadline state %q (use on or off)", state)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
