package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/devports/hlaunch/pkg/models"
)

var ErrNoLogs = errors.New("no logs available")
var ErrExecutableNotFound = errors.New("houdini executable not found")

// Manager launches Houdini and keeps a log of each run
type Manager struct {
	logsDir string
	logger  *log.Logger
}

// Result describes a finished launch
type Result struct {
	PID      int
	ExitCode int
	LogPath  string
	Duration time.Duration
}

// NewManager creates a new launch manager writing logs under logsDir
func NewManager(logsDir string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		logsDir: logsDir,
		logger:  logger,
	}
}

// LogsDir returns the root of the launch logs
func (m *Manager) LogsDir() string {
	return m.logsDir
}

// BuildEnv returns base followed by the package dir, the config root and the
// request's overrides. Later entries win for duplicate keys.
func BuildEnv(base []string, req models.LaunchRequest) []string {
	env := make([]string, 0, len(base)+2+len(req.Env))
	env = append(env, base...)
	env = append(env,
		models.EnvPair{Key: models.EnvPackageDir, Value: req.PackageDir}.String(),
		models.EnvPair{Key: models.EnvConfigRoot, Value: req.ConfigRoot}.String(),
	)
	for _, p := range req.Env {
		env = append(env, p.String())
	}
	return env
}

// Launch starts Houdini and waits for it to exit. A missing executable
// returns ErrExecutableNotFound without spawning anything; a non-zero exit
// is reported in Result.ExitCode. Cancelling ctx only stops the wait:
// Houdini runs in its own process group and keeps running.
func (m *Manager) Launch(ctx context.Context, req models.LaunchRequest) (*Result, error) {
	if fi, err := os.Stat(req.ExePath); err != nil || fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrExecutableNotFound, req.ExePath)
	}

	name := LogName(req.ExePath)
	logFile, err := m.createLogFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(req.ExePath, req.Args...)
	cmd.Dir = req.ConfigRoot
	cmd.Env = BuildEnv(os.Environ(), req)
	cmd.SysProcAttr = sysProcAttr()

	// Redirect output to log file
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start houdini: %w", err)
	}

	result := &Result{
		PID:     cmd.Process.Pid,
		LogPath: logFile.Name(),
	}
	m.logger.Info("launched houdini", "exe", req.ExePath, "pid", result.PID, "log", result.LogPath)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		result.Duration = time.Since(start)
		m.logger.Info("stopped waiting for houdini", "pid", result.PID)
		return result, fmt.Errorf("launch detached: %w", ctx.Err())
	}

	result.Duration = time.Since(start)
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("failed to wait for houdini: %w", waitErr)
		}
	}
	m.logger.Debug("houdini exited", "pid", result.PID, "code", result.ExitCode, "duration", result.Duration)
	return result, nil
}

// LogName is the log directory name used for an executable
func LogName(exePath string) string {
	base := filepath.Base(exePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// createLogFile creates a new log file for an executable
func (m *Manager) createLogFile(name string) (*os.File, error) {
	logDir := filepath.Join(m.logsDir, name)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	// Create timestamped log file
	timestamp := time.Now().Format("2006-01-02T15-04-05.000")
	logPath := filepath.Join(logDir, timestamp+".log")

	return os.Create(logPath)
}

// LogNames lists executables that have launch logs
func (m *Manager) LogNames() ([]string, error) {
	entries, err := os.ReadDir(m.logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LatestLogPath returns the most recent log file path for an executable.
func (m *Manager) LatestLogPath(name string) (string, error) {
	logDir := filepath.Join(m.logsDir, name)
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoLogs
		}
		return "", fmt.Errorf("failed to read log directory: %w", err)
	}
	logs := entries[:0]
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".log" {
			logs = append(logs, e)
		}
	}
	if len(logs) == 0 {
		return "", ErrNoLogs
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Name() < logs[j].Name()
	})
	latestLog := logs[len(logs)-1]
	return filepath.Join(logDir, latestLog.Name()), nil
}

// Tail returns the last N lines from the most recent log file.
func (m *Manager) Tail(name string, lines int) ([]string, error) {
	if lines <= 0 {
		return []string{}, nil
	}

	logPath, err := m.LatestLogPath(name)
	if err != nil {
		return nil, err
	}

	out, err := tailFile(logPath, lines)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	return out, nil
}

func tailFile(path string, lines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	linesBuf := make([]string, 0, lines)
	for scanner.Scan() {
		if len(linesBuf) < lines {
			linesBuf = append(linesBuf, scanner.Text())
		} else {
			copy(linesBuf, linesBuf[1:])
			linesBuf[len(linesBuf)-1] = scanner.Text()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return linesBuf, nil
}

// ParseArgs splits extra Houdini arguments, honouring quotes and backslash
// escapes. Backslashes inside single quotes are literal, so Windows paths can
// be passed as '\\server\show\shot.hip'.
func ParseArgs(input string) ([]string, error) {
	var args []string
	var buf strings.Builder
	inQuotes := false
	var quote rune
	escaped := false

	for _, r := range input {
		if escaped {
			buf.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inQuotes && quote == '\'' {
				buf.WriteRune(r)
			} else {
				escaped = true
			}
		case '"', '\'':
			if inQuotes && r == quote {
				inQuotes = false
				quote = 0
			} else if !inQuotes {
				inQuotes = true
				quote = r
			} else {
				buf.WriteRune(r)
			}
		case ' ', '\t':
			if inQuotes {
				buf.WriteRune(r)
			} else if buf.Len() > 0 {
				args = append(args, buf.String())
				buf.Reset()
			}
		default:
			buf.WriteRune(r)
		}
	}
	if escaped || inQuotes {
		return nil, fmt.Errorf("unterminated escape or quote")
	}
	if buf.Len() > 0 {
		args = append(args, buf.String())
	}
	return args, nil
}
