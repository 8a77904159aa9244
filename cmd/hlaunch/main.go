package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"github.com/devports/hlaunch/pkg/cli"
)

const version = "0.1.0"

func main() {
	global := pflag.NewFlagSet("hlaunch", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.Usage = printUsage
	root := global.String("root", "", "Config root to use instead of discovery")
	verbose := global.BoolP("verbose", "v", false, "Enable debug logging")
	showVersion := global.BoolP("version", "V", false, "Print version information")
	showHelp := global.BoolP("help", "h", false, "Show this help message")

	if err := global.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("hlaunch version %s\n", version)
		return
	}

	args := global.Args()
	if len(args) > 0 && args[0] == "help" {
		printUsage()
		return
	}

	app, err := cli.NewApp(cli.Options{ConfigRoot: *root, Verbose: *verbose})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(args) == 0 {
		if err := app.TopCmd(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	command, rest := args[0], args[1:]
	switch command {
	case "root":
		err = handleRoot(app, rest)
	case "paths":
		err = app.PathsCmd()
	case "ls":
		err = handleLS(app, rest)
	case "enable":
		err = handleEnable(app, rest, true)
	case "disable":
		err = handleEnable(app, rest, false)
	case "fav":
		err = handleFav(app, rest)
	case "favs":
		err = app.FavsCmd()
	case "presets":
		err = app.PresetsCmd()
	case "preset":
		err = handlePreset(app, rest)
	case "versions":
		err = app.VersionsCmd()
	case "exe":
		err = handleExe(app, rest)
	case "launch":
		err = handleLaunch(app, rest)
	case "logs":
		err = handleLogs(app, rest)
	case "deadline":
		err = handleDeadline(app, rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hlaunch %s\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

func handleRoot(app *cli.App, args []string) error {
	fs := newFlagSet("root", "root [--save [PATH]]")
	save := fs.Bool("save", false, "Persist PATH (or the active root) as the config root")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := strings.Join(fs.Args(), " ")
	if path != "" && !*save {
		return fmt.Errorf("use --save to set the config root")
	}
	return app.RootCmd(path, *save)
}

func handleLS(app *cli.App, args []string) error {
	fs := newFlagSet("ls", "ls [--details] [--missing]")
	detailed := fs.BoolP("details", "d", false, "Show package files and missing paths")
	missing := fs.BoolP("missing", "m", false, "Only show packages with missing paths")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return app.ListCmd(*detailed, *missing)
}

func handleEnable(app *cli.App, args []string, enabled bool) error {
	verb := "disable"
	if enabled {
		verb = "enable"
	}
	if len(args) < 1 {
		fmt.Printf("Usage: hlaunch %s <package>...\n", verb)
		return fmt.Errorf("package name required")
	}
	for _, name := range args {
		if err := app.EnableCmd(name, enabled); err != nil {
			return err
		}
	}
	return nil
}

func handleFav(app *cli.App, args []string) error {
	if len(args) != 1 {
		fmt.Println("Usage: hlaunch fav <package>")
		return fmt.Errorf("package name required")
	}
	return app.FavCmd(args[0])
}

func handlePreset(app *cli.App, args []string) error {
	if len(args) < 2 {
		fmt.Println("Usage: hlaunch preset <save|apply|rm|default> <name>")
		return fmt.Errorf("preset action and name required")
	}
	action, rest := args[0], args[1:]
	switch action {
	case "save":
		fs := newFlagSet("preset save", "preset save <name> [--houdini VERSION] [--package NAME...]")
		houdini := fs.String("houdini", "", "Houdini version stored with the preset (default: newest found)")
		pkgs := fs.StringArrayP("package", "p", nil, "Package to include (default: currently enabled packages)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("exactly one preset name required")
		}
		return app.PresetSaveCmd(fs.Arg(0), *houdini, *pkgs)
	case "apply":
		return app.PresetApplyCmd(rest[0])
	case "rm", "remove":
		return app.PresetRemoveCmd(rest[0])
	case "default":
		return app.PresetDefaultCmd(rest[0])
	default:
		return fmt.Errorf("unknown preset action %q", action)
	}
}

func handleExe(app *cli.App, args []string) error {
	fs := newFlagSet("exe", "exe [--save PATH | --version NAME]")
	save := fs.String("save", "", "Persist PATH as the Houdini executable")
	ver := fs.String("version", "", "Persist the executable of an installed version")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return app.ExeCmd(*save, *ver)
}

func handleLaunch(app *cli.App, args []string) error {
	fs := newFlagSet("launch", "launch [--preset NAME] [--version NAME | --exe PATH] [-e KEY=VALUE...] [--args \"...\"]")
	opts := cli.LaunchOptions{}
	fs.StringVar(&opts.ExePath, "exe", "", "Houdini executable to run")
	fs.StringVar(&opts.Version, "version", "", "Installed Houdini version to run")
	fs.StringVarP(&opts.Preset, "preset", "p", "", "Apply a preset before launching")
	fs.StringVar(&opts.Args, "args", "", "Extra arguments passed to Houdini")
	fs.StringArrayVarP(&opts.Env, "env", "e", nil, "Environment override KEY=VALUE (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Ctrl-C stops hlaunch waiting; Houdini has its own process group.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return app.LaunchCmd(ctx, opts)
}

func handleLogs(app *cli.App, args []string) error {
	fs := newFlagSet("logs", "logs [name] [--lines N]")
	lines := fs.IntP("lines", "n", 50, "Number of log lines to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return app.LogsCmd(fs.Arg(0), *lines)
}

func handleDeadline(app *cli.App, args []string) error {
	state := ""
	if len(args) > 0 {
		state = args[0]
	}
	return app.DeadlineCmd(state)
}

func printUsage() {
	usage := `Houdini Launcher

Default:
  hlaunch                           Open interactive package browser

Packages:
  hlaunch ls [--details] [--missing]
  hlaunch enable <package>...
  hlaunch disable <package>...
  hlaunch fav <package>
  hlaunch favs

Presets:
  hlaunch presets
  hlaunch preset save <name> [--houdini VERSION] [-p PACKAGE...]
  hlaunch preset apply <name>
  hlaunch preset rm <name>
  hlaunch preset default <name>

Houdini:
  hlaunch versions
  hlaunch exe [--save PATH | --version NAME]
  hlaunch launch [--preset NAME] [--version NAME | --exe PATH] [-e KEY=VALUE...] [--args "..."]
  hlaunch logs [name] [--lines N]

Settings:
  hlaunch root [--save [PATH]]
  hlaunch paths
  hlaunch deadline [on|off]

Meta:
  hlaunch help
  hlaunch --version

Global options:
  --root PATH     Use PATH as the config root
  -v, --verbose   Enable debug logging (or set HLAUNCH_LOG_LEVEL)

Quick start:
  hlaunch ls
  hlaunch enable redshift
  hlaunch preset save lighting
  hlaunch launch --preset lighting -e JOB=/shows/abc

Browser tips:
  space toggle, f favorite, / filter, enter launch, : command, ? help
`
	fmt.Print(usage)
}
