package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/devports/hlaunch/pkg/health"
	"github.com/devports/hlaunch/pkg/models"
	"github.com/devports/hlaunch/pkg/packages"
	"github.com/devports/hlaunch/pkg/process"
	"github.com/devports/hlaunch/pkg/scanner"
	"github.com/devports/hlaunch/pkg/watch"
)

// TopCmd starts the interactive package browser
func (a *App) TopCmd() error {
	// Log lines would tear the alt screen; send them to a file instead.
	if logFile, err := os.OpenFile(filepath.Join(a.userPaths.LogsDir, "hlaunch-ui.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
		defer logFile.Close()
		a.logger.SetOutput(logFile)
	}

	model := newTopModel(a)
	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.startWatcher(ctx, func(changed []string) {
		p.Send(reloadMsg{files: changed})
	})

	_, err := p.Run()
	return err
}

// startWatcher reloads on package and preset file changes until ctx is done
func (a *App) startWatcher(ctx context.Context, notify func([]string)) {
	w, err := watch.New(watch.Config{
		Dirs:   []string{a.paths.PackagesDir, filepath.Dir(a.paths.PresetsFile)},
		Logger: a.logger,
		OnChange: func(_ context.Context, changed []string) {
			notify(changed)
		},
	})
	if err != nil {
		a.logger.Debug("file watcher disabled", "err", err)
		return
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			a.logger.Warn("file watcher stopped", "err", err)
		}
	}()
}

type viewMode int
type sortMode int
type confirmKind int

const (
	viewModeTable viewMode = iota
	viewModeLogs
	viewModeCommand
	viewModeSearch
	viewModeHelp
	viewModeConfirm
)

const (
	sortName sortMode = iota
	sortFavorites
	sortHealth
	sortModeCount
)

const (
	confirmRemovePreset confirmKind = iota
	confirmLaunchMissing
)

type confirmState struct {
	kind   confirmKind
	prompt string
	name   string
	launch LaunchOptions
}

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Favorite    key.Binding
	FavsOnly    key.Binding
	MissingOnly key.Binding
	Search      key.Binding
	ClearFilter key.Binding
	Sort        key.Binding
	Launch      key.Binding
	Logs        key.Binding
	Health      key.Binding
	Reload      key.Binding
	Command     key.Binding
	Help        key.Binding
	Back        key.Binding
	Quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:      key.NewBinding(key.WithKeys(" ", "e"), key.WithHelp("space", "enable/disable")),
		Favorite:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		FavsOnly:    key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "favorites only")),
		MissingOnly: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "missing only")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		ClearFilter: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("^L", "clear filter")),
		Sort:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Launch:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "launch")),
		Logs:        key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
		Health:      key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "health detail")),
		Reload:      key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "reload")),
		Command:     key.NewBinding(key.WithKeys(":", "c"), key.WithHelp(":", "command")),
		Help:        key.NewBinding(key.WithKeys("?", "f1"), key.WithHelp("?", "help")),
		Back:        key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Favorite, k.Launch, k.Search, k.Command, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Favorite},
		{k.Search, k.ClearFilter, k.FavsOnly, k.MissingOnly, k.Sort},
		{k.Launch, k.Logs, k.Health, k.Reload},
		{k.Command, k.Help, k.Back, k.Quit},
	}
}

// topModel represents the TUI state.
type topModel struct {
	app        *App
	pkgs       []*packages.Package
	favorites  []string
	presets    []models.Preset
	defPreset  string
	width      int
	height     int
	lastUpdate time.Time
	err        error

	selected      int
	mode          viewMode
	sortBy        sortMode
	favoritesOnly bool
	missingOnly   bool

	search  textinput.Model
	command textinput.Model
	keys    keyMap
	help    help.Model

	logLines []string
	logErr   error
	logName  string

	cmdStatus string

	health           map[string]*health.HealthCheck
	showHealthDetail bool

	launching bool
	confirm   *confirmState
}

func newBaseModel() topModel {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "name or path"
	search.CharLimit = 120

	command := textinput.New()
	command.Prompt = ":"
	command.Placeholder = "preset save NAME | launch KEY=VALUE... | help"
	command.CharLimit = 256

	return topModel{
		lastUpdate: time.Now(),
		mode:       viewModeTable,
		sortBy:     sortName,
		search:     search,
		command:    command,
		keys:       newKeyMap(),
		help:       help.New(),
		health:     make(map[string]*health.HealthCheck),
	}
}

func newTopModel(app *App) topModel {
	m := newBaseModel()
	m.app = app
	m.reload()
	return m
}

func (m topModel) Init() tea.Cmd {
	return m.healthCmd()
}

func (m topModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case reloadMsg:
		m.reload()
		if len(msg.files) > 0 {
			m.cmdStatus = fmt.Sprintf("Reloaded (%d file(s) changed)", len(msg.files))
		}
		return m, m.healthCmd()
	case healthMsg:
		m.health = msg.checks
		return m, nil
	case logMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		return m, nil
	case launchMsg:
		m.launching = false
		m.cmdStatus = msg.status()
		return m, nil
	}
	return m, nil
}

func (m topModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case viewModeCommand:
		switch msg.String() {
		case "esc":
			m.mode = viewModeTable
			m.command.Reset()
			m.command.Blur()
			return m, nil
		case "enter":
			input := strings.TrimSpace(m.command.Value())
			m.command.Reset()
			m.command.Blur()
			m.mode = viewModeTable
			return m.runCommand(input)
		}
		var cmd tea.Cmd
		m.command, cmd = m.command.Update(msg)
		return m, cmd

	case viewModeSearch:
		switch msg.String() {
		case "esc":
			m.mode = viewModeTable
			m.search.Reset()
			m.search.Blur()
			m.selected = 0
			return m, nil
		case "enter":
			m.mode = viewModeTable
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.selected = 0
		return m, cmd

	case viewModeConfirm:
		switch msg.String() {
		case "y", "Y", "enter":
			return m.executeConfirm(true)
		case "n", "N", "esc":
			return m.executeConfirm(false)
		}
		return m, nil

	case viewModeHelp:
		if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Back, m.keys.Help, m.keys.Quit) {
			m.mode = viewModeTable
		}
		return m, nil

	case viewModeLogs:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.mode = viewModeTable
			m.logLines = nil
			m.logErr = nil
			return m, nil
		case key.Matches(msg, m.keys.Reload):
			return m, m.tailLogsCmd()
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.visiblePackages())-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Toggle):
		m.cmdStatus = m.toggleSelected()
		m.reload()
		return m, m.healthCmd()
	case key.Matches(msg, m.keys.Favorite):
		m.cmdStatus = m.favoriteSelected()
		m.reload()
	case key.Matches(msg, m.keys.FavsOnly):
		m.favoritesOnly = !m.favoritesOnly
		m.selected = 0
	case key.Matches(msg, m.keys.MissingOnly):
		m.missingOnly = !m.missingOnly
		m.selected = 0
	case key.Matches(msg, m.keys.Search):
		m.mode = viewModeSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.ClearFilter):
		m.search.Reset()
		m.favoritesOnly = false
		m.missingOnly = false
		m.cmdStatus = "Filter cleared"
	case key.Matches(msg, m.keys.Sort):
		m.sortBy = (m.sortBy + 1) % sortModeCount
	case key.Matches(msg, m.keys.Health):
		m.showHealthDetail = !m.showHealthDetail
	case key.Matches(msg, m.keys.Reload):
		m.reload()
		m.cmdStatus = "Reloaded"
		return m, m.healthCmd()
	case key.Matches(msg, m.keys.Command):
		m.mode = viewModeCommand
		return m, m.command.Focus()
	case key.Matches(msg, m.keys.Help):
		m.mode = viewModeHelp
	case key.Matches(msg, m.keys.Logs):
		m.mode = viewModeLogs
		m.logName = m.currentLogName()
		return m, m.tailLogsCmd()
	case key.Matches(msg, m.keys.Launch):
		return m.prepareLaunch(LaunchOptions{})
	}
	return m, nil
}

func (m *topModel) reload() {
	if m.app == nil {
		return
	}
	m.pkgs = m.app.loader.Load()
	m.favorites = m.app.favorites.Load()
	presets, def := m.app.presets.Load()
	m.presets = presets
	m.defPreset = ""
	if def != nil {
		m.defPreset = *def
	}
	m.lastUpdate = time.Now()
	if visible := m.visiblePackages(); m.selected >= len(visible) {
		m.selected = max(len(visible)-1, 0)
	}
}

func (m topModel) selectedPackage() *packages.Package {
	visible := m.visiblePackages()
	if m.selected < 0 || m.selected >= len(visible) {
		return nil
	}
	return visible[m.selected]
}

func (m topModel) toggleSelected() string {
	pkg := m.selectedPackage()
	if pkg == nil {
		return "No package selected"
	}
	if err := m.app.loader.SetEnabled(pkg.Name, !pkg.Enabled); err != nil {
		return err.Error()
	}
	if pkg.Enabled {
		return fmt.Sprintf("Disabled %q", pkg.Name)
	}
	return fmt.Sprintf("Enabled %q", pkg.Name)
}

func (m topModel) favoriteSelected() string {
	pkg := m.selectedPackage()
	if pkg == nil {
		return "No package selected"
	}
	fav, err := m.app.favorites.Toggle(pkg.Name)
	if err != nil {
		return err.Error()
	}
	if fav {
		return fmt.Sprintf("Added %q to favorites", pkg.Name)
	}
	return fmt.Sprintf("Removed %q from favorites", pkg.Name)
}

func (m topModel) filter() scanner.PackageFilter {
	return scanner.PackageFilter{
		Query:         m.search.Value(),
		Favorites:     scanner.FavoriteSet(m.favorites),
		FavoritesOnly: m.favoritesOnly,
		MissingOnly:   m.missingOnly,
	}
}

func (m topModel) visiblePackages() []*packages.Package {
	visible := scanner.FilterPackages(m.pkgs, m.filter())
	m.sortPackages(visible)
	return visible
}

func (m topModel) sortPackages(pkgs []*packages.Package) {
	favs := scanner.FavoriteSet(m.favorites)
	switch m.sortBy {
	case sortFavorites:
		sort.SliceStable(pkgs, func(i, j int) bool {
			return favs[pkgs[i].Name] && !favs[pkgs[j].Name]
		})
	case sortHealth:
		sort.SliceStable(pkgs, func(i, j int) bool {
			return healthRank(m.health[pkgs[i].Name]) < healthRank(m.health[pkgs[j].Name])
		})
	}
}

func healthRank(c *health.HealthCheck) int {
	if c == nil {
		return 3
	}
	switch c.Status {
	case health.HealthMissing, health.HealthTimeout:
		return 0
	case health.HealthSlow:
		return 1
	case health.HealthOK:
		return 2
	default:
		return 3
	}
}

func (m topModel) prepareLaunch(opts LaunchOptions) (tea.Model, tea.Cmd) {
	if m.launching {
		m.cmdStatus = "Houdini is already running from this session"
		return m, nil
	}
	var broken []string
	for _, pkg := range m.pkgs {
		if c := m.health[pkg.Name]; c != nil && c.Status == health.HealthMissing {
			broken = append(broken, pkg.Name)
		}
	}
	if len(broken) > 0 {
		m.confirm = &confirmState{
			kind:   confirmLaunchMissing,
			prompt: fmt.Sprintf("%d enabled package(s) have missing paths (%s). Launch anyway?", len(broken), strings.Join(broken, ", ")),
			launch: opts,
		}
		m.mode = viewModeConfirm
		return m, nil
	}
	return m.startLaunch(opts)
}

func (m topModel) startLaunch(opts LaunchOptions) (tea.Model, tea.Cmd) {
	req, err := m.app.buildLaunchRequest(opts)
	if err != nil {
		m.cmdStatus = err.Error()
		return m, nil
	}
	m.launching = true
	m.cmdStatus = fmt.Sprintf("Houdini running: %s", req.ExePath)
	return m, m.launchCmd(req)
}

func (m topModel) executeConfirm(yes bool) (tea.Model, tea.Cmd) {
	if m.confirm == nil {
		m.mode = viewModeTable
		return m, nil
	}
	c := *m.confirm
	m.confirm = nil
	m.mode = viewModeTable
	if !yes {
		m.cmdStatus = "Cancelled"
		return m, nil
	}
	switch c.kind {
	case confirmRemovePreset:
		if err := m.app.presets.Delete(c.name); err != nil {
			m.cmdStatus = err.Error()
		} else {
			m.cmdStatus = fmt.Sprintf("Removed preset %q", c.name)
		}
		m.reload()
	case confirmLaunchMissing:
		return m.startLaunch(c.launch)
	}
	return m, nil
}

func (m topModel) runCommand(input string) (tea.Model, tea.Cmd) {
	if input == "" {
		return m, nil
	}
	args, err := process.ParseArgs(input)
	if err != nil || len(args) == 0 {
		m.cmdStatus = "Invalid command"
		return m, nil
	}
	switch args[0] {
	case "help":
		m.mode = viewModeHelp
	case "reload":
		m.reload()
		m.cmdStatus = "Reloaded"
		return m, m.healthCmd()
	case "launch":
		opts := LaunchOptions{}
		for _, a := range args[1:] {
			if strings.Contains(a, "=") {
				opts.Env = append(opts.Env, a)
			} else {
				opts.Preset = a
			}
		}
		return m.prepareLaunch(opts)
	case "presets":
		if len(m.presets) == 0 {
			m.cmdStatus = "No presets"
			break
		}
		names := make([]string, 0, len(m.presets))
		for _, p := range m.presets {
			name := p.Name
			if name == m.defPreset {
				name += " (default)"
			}
			names = append(names, name)
		}
		m.cmdStatus = "Presets: " + strings.Join(names, ", ")
	case "preset":
		m.cmdStatus = m.runPresetCommand(args[1:])
	case "deadline":
		if len(args) < 2 {
			m.cmdStatus = fmt.Sprintf("Deadline monitor enabled: %t", m.app.settings.DeadlineMonitorEnabled())
			break
		}
		on := args[1] == "on"
		if !on && args[1] != "off" {
			m.cmdStatus = "Usage: deadline [on|off]"
			break
		}
		if err := m.app.settings.SetDeadlineMonitorEnabled(on); err != nil {
			m.cmdStatus = err.Error()
		} else {
			m.cmdStatus = fmt.Sprintf("Deadline monitor enabled: %t", on)
		}
	default:
		m.cmdStatus = "Unknown command (type :help)"
	}
	if m.confirm != nil {
		m.mode = viewModeConfirm
	}
	m.reload()
	return m, nil
}

func (m *topModel) runPresetCommand(args []string) string {
	if len(args) < 2 {
		return "Usage: preset save|apply|rm|default NAME"
	}
	verb, name := args[0], args[1]
	switch verb {
	case "save":
		houdini := ""
		if len(args) > 2 {
			houdini = strings.Join(args[2:], " ")
		}
		preset, err := m.app.savePreset(name, houdini, nil)
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("Saved preset %q (%d packages)", name, len(preset.Packages))
	case "apply":
		preset, ok := m.app.presets.Get(name)
		if !ok {
			return fmt.Sprintf("preset %q not found", name)
		}
		if err := m.app.applyPreset(preset); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("Applied preset %q", name)
	case "rm", "remove":
		if _, ok := m.app.presets.Get(name); !ok {
			return fmt.Sprintf("preset %q not found", name)
		}
		m.confirm = &confirmState{kind: confirmRemovePreset, prompt: fmt.Sprintf("Remove preset %q?", name), name: name}
		return fmt.Sprintf("Confirm removal of %q", name)
	case "default":
		if err := m.app.presets.SetDefault(name); err != nil {
			return err.Error()
		}
		return fmt.Sprintf("Default preset: %s", name)
	default:
		return "Usage: preset save|apply|rm|default NAME"
	}
}

func (m topModel) currentLogName() string {
	if exe, err := m.app.resolveExe("", ""); err == nil {
		return process.LogName(exe)
	}
	if names, err := m.app.processManager.LogNames(); err == nil && len(names) > 0 {
		return names[0]
	}
	return ""
}

func (m topModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\nPress 'q' to quit\n", m.err)
	}

	width := m.width
	if width <= 0 {
		width = 120
	}

	var b strings.Builder
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	b.WriteString("\n")
	if m.mode == viewModeLogs {
		b.WriteString(headerStyle.Render(fmt.Sprintf("Launch log: %s (b back, r refresh)", orDash(m.logName))))
	} else {
		b.WriteString(headerStyle.Render("Houdini Launcher (q quit)"))
	}
	b.WriteString("\n\n")

	if m.mode != viewModeLogs && m.mode != viewModeHelp {
		root := "-"
		if m.app != nil {
			root = m.app.paths.Root
		}
		filter := m.search.Value()
		if strings.TrimSpace(filter) == "" {
			filter = "none"
		}
		if m.favoritesOnly {
			filter += " +favorites"
		}
		if m.missingOnly {
			filter += " +missing"
		}
		preset := orDash(m.defPreset)
		ctx := fmt.Sprintf("Root: %s | Sort: %s | Filter: %s | Default preset: %s", root, sortModeLabel(m.sortBy), filter, preset)
		for _, line := range wrapWords(ctx, width) {
			b.WriteString(dimStyle.Render(fitLine(line, width)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	switch m.mode {
	case viewModeHelp:
		b.WriteString(m.renderHelp(width))
		b.WriteString("\n")
	case viewModeLogs:
		b.WriteString(m.renderLogs(width))
	default:
		rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
		b.WriteString(rowStyle.Render(m.renderTable(width)))
		b.WriteString("\n")
	}

	if m.mode == viewModeCommand {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.command.View()))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fitLine("Esc to go back", width)))
		b.WriteString("\n")
	}
	if m.mode == viewModeSearch {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.search.View()))
		b.WriteString("\n")
	}
	if m.mode == viewModeConfirm && m.confirm != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true).Render(fitLine(m.confirm.prompt+" [y/N]", width)))
		b.WriteString("\n")
	}
	if m.cmdStatus != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fitLine(m.cmdStatus, width)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := fmt.Sprintf("Last updated: %s | Packages: %d/%d", m.lastUpdate.Format("15:04:05"), len(m.visiblePackages()), len(m.pkgs))
	footerStyle := dimStyle.Italic(true)
	b.WriteString(footerStyle.Render(fitLine(footer, width)))
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	b.WriteString("\n")
	return b.String()
}

func (m topModel) renderTable(width int) string {
	visible := m.visiblePackages()
	if len(visible) == 0 {
		if m.search.Value() != "" || m.favoritesOnly || m.missingOnly {
			return fitLine("(no matching packages for filter)", width)
		}
		dir := "packages directory"
		if m.app != nil {
			dir = m.app.loader.Dir()
		}
		return fitLine(fmt.Sprintf("(no packages in %s)", dir), width)
	}

	favs := scanner.FavoriteSet(m.favorites)
	nameW, onW, favW, healthW := 24, 4, 4, 10
	sep := 2
	used := nameW + sep + onW + sep + favW + sep + healthW + sep
	pathW := width - used
	if pathW < 12 {
		pathW = 12
	}

	var lines []string
	header := fmt.Sprintf("%s%s%s%s%s%s%s%s%s",
		fixedCell("Package", nameW), strings.Repeat(" ", sep),
		fixedCell("On", onW), strings.Repeat(" ", sep),
		fixedCell("Fav", favW), strings.Repeat(" ", sep),
		fixedCell("Health", healthW), strings.Repeat(" ", sep),
		fixedCell("Paths", pathW),
	)
	divider := fmt.Sprintf("%s%s%s%s%s%s%s%s%s",
		fixedCell(strings.Repeat("─", nameW), nameW), strings.Repeat(" ", sep),
		fixedCell(strings.Repeat("─", onW), onW), strings.Repeat(" ", sep),
		fixedCell(strings.Repeat("─", favW), favW), strings.Repeat(" ", sep),
		fixedCell(strings.Repeat("─", healthW), healthW), strings.Repeat(" ", sep),
		fixedCell(strings.Repeat("─", pathW), pathW),
	)
	lines = append(lines, fitLine(header, width))
	lines = append(lines, fitLine(divider, width))

	rowFirstLineIdx := make([]int, len(visible))
	for i, pkg := range visible {
		on := "off"
		if pkg.Enabled {
			on = "on"
		}
		fav := ""
		if favs[pkg.Name] {
			fav = "★"
		}
		icon := "…"
		if c := m.health[pkg.Name]; c != nil {
			icon = health.StatusIcon(c.Status) + " " + string(c.Status)
		}
		paths := strings.Join(pkg.Paths(), "; ")
		if paths == "" {
			paths = "-"
		}

		pathLines := wrapRunes(paths, pathW)
		rowFirstLineIdx[i] = len(lines)
		for j, p := range pathLines {
			if j == 0 {
				line := fmt.Sprintf("%s%s%s%s%s%s%s%s%s",
					fixedCell(pkg.Name, nameW), strings.Repeat(" ", sep),
					fixedCell(on, onW), strings.Repeat(" ", sep),
					fixedCell(fav, favW), strings.Repeat(" ", sep),
					fixedCell(icon, healthW), strings.Repeat(" ", sep),
					fixedCell(p, pathW),
				)
				lines = append(lines, fitLine(line, width))
			} else {
				line := fmt.Sprintf("%s%s",
					strings.Repeat(" ", used),
					fixedCell(p, pathW),
				)
				lines = append(lines, fitLine(line, width))
			}
		}
	}

	if m.selected >= 0 && m.selected < len(rowFirstLineIdx) {
		selectedLine := rowFirstLineIdx[m.selected]
		lines[selectedLine] = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("15")).Render(lines[selectedLine])
	}

	out := strings.Join(lines, "\n")
	if m.showHealthDetail {
		if pkg := m.selectedPackage(); pkg != nil {
			if d := m.health[pkg.Name]; d != nil {
				out += "\n" + fitLine(fmt.Sprintf("Health detail: %s %dms %s", health.StatusIcon(d.Status), d.ResponseMs, d.Message), width)
				for _, p := range d.Missing {
					out += "\n" + fitLine("  missing: "+p, width)
				}
			}
		}
	}
	return out
}

func (m topModel) renderLogs(width int) string {
	if m.logErr != nil {
		if errors.Is(m.logErr, process.ErrNoLogs) {
			return "No launch logs yet.\nLogs are captured when Houdini is launched from hlaunch.\n"
		}
		return fmt.Sprintf("Error: %v\n", m.logErr)
	}
	if len(m.logLines) == 0 {
		return "(no logs yet)\n"
	}
	var b strings.Builder
	for _, line := range m.logLines {
		b.WriteString(fitLine(line, width))
		b.WriteString("\n")
	}
	return b.String()
}

func (m topModel) renderHelp(width int) string {
	lines := []string{
		"Keymap",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		"Commands",
		"launch [PRESET] [KEY=VALUE...]   launch Houdini, optionally applying a preset",
		"preset save NAME [VERSION]       save enabled packages as a preset",
		"preset apply|rm|default NAME     manage presets",
		"presets, deadline [on|off], reload, help",
	}
	var out []string
	for _, l := range lines {
		out = append(out, fitLine(l, width))
	}
	return strings.Join(out, "\n")
}

func (m topModel) tailLogsCmd() tea.Cmd {
	name := m.logName
	app := m.app
	return func() tea.Msg {
		if name == "" {
			return logMsg{err: process.ErrNoLogs}
		}
		lines, err := app.processManager.Tail(name, 200)
		return logMsg{lines: lines, err: err}
	}
}

func (m topModel) healthCmd() tea.Cmd {
	if m.app == nil {
		return nil
	}
	pkgs := m.pkgs
	checker := m.app.healthChecker
	return func() tea.Msg {
		return healthMsg{checks: checker.CheckAll(pkgs)}
	}
}

func (m topModel) launchCmd(req models.LaunchRequest) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		res, err := app.processManager.Launch(context.Background(), req)
		msg := launchMsg{exe: req.ExePath, res: res, err: err}
		if err == nil && res.ExitCode != 0 {
			msg.reason, _ = app.getFailureReport(process.LogName(req.ExePath), 40)
		}
		return msg
	}
}

type reloadMsg struct {
	files []string
}
type logMsg struct {
	lines []string
	err   error
}
type healthMsg struct {
	checks map[string]*health.HealthCheck
}
type launchMsg struct {
	exe    string
	res    *process.Result
	err    error
	reason string
}

func (l launchMsg) status() string {
	if l.err != nil {
		return fmt.Sprintf("Launch failed: %v", l.err)
	}
	if l.res.ExitCode != 0 {
		return fmt.Sprintf("Houdini exited with code %d: %s", l.res.ExitCode, l.reason)
	}
	return fmt.Sprintf("Houdini exited after %s", l.res.Duration.Round(time.Second))
}

func fixedCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}

func wrapRunes(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	if s == "" {
		return []string{""}
	}
	var out []string
	rest := s
	for runewidth.StringWidth(rest) > width {
		chunk := runewidth.Truncate(rest, width, "")
		if chunk == "" {
			break
		}
		out = append(out, chunk)
		rest = strings.TrimPrefix(rest, chunk)
	}
	if rest != "" {
		out = append(out, rest)
	}
	return out
}

func wrapWords(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	lines := make([]string, 0, 4)
	cur := words[0]
	for _, w := range words[1:] {
		candidate := cur + " " + w
		if runewidth.StringWidth(candidate) <= width {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		// A single word longer than width falls back to rune wrapping.
		if runewidth.StringWidth(w) > width {
			chunks := wrapRunes(w, width)
			if len(chunks) > 0 {
				lines = append(lines, chunks[:len(chunks)-1]...)
				cur = chunks[len(chunks)-1]
			} else {
				cur = w
			}
		} else {
			cur = w
		}
	}
	lines = append(lines, cur)
	return lines
}

func fitLine(line string, width int) string {
	if width <= 0 {
		return line
	}
	lineWidth := runewidth.StringWidth(line)
	if lineWidth >= width {
		return line
	}
	return line + strings.Repeat(" ", width-lineWidth)
}

func sortModeLabel(s sortMode) string {
	switch s {
	case sortFavorites:
		return "favorites"
	case sortHealth:
		return "health"
	default:
		return "name"
	}
}
