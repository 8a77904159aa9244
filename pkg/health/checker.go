package health

import (
	"fmt"
	"time"

	"github.com/devports/hlaunch/pkg/packages"
)

// Health status levels
type HealthStatus string

const (
	HealthOK       HealthStatus = "ok"
	HealthSlow     HealthStatus = "slow"
	HealthTimeout  HealthStatus = "timeout"
	HealthMissing  HealthStatus = "missing"
	HealthDisabled HealthStatus = "disabled"
	HealthUnknown  HealthStatus = "unknown"
)

// slowThreshold marks path checks that took long enough to suggest a slow share
const slowThreshold = 2 * time.Second

// HealthCheck represents the result of checking one package
type HealthCheck struct {
	Name       string
	Status     HealthStatus
	Missing    []string
	ResponseMs int
	Message    string
	LastCheck  time.Time
}

// Checker verifies that a package's resolved paths exist
type Checker struct {
	timeout time.Duration
}

// NewChecker creates a new health checker
func NewChecker(timeout time.Duration) *Checker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Checker{timeout: timeout}
}

// Check reports the health of a package. Disabled packages are not stat'ed.
func (c *Checker) Check(pkg *packages.Package) *HealthCheck {
	result := &HealthCheck{LastCheck: time.Now()}
	if pkg == nil {
		result.Status = HealthUnknown
		result.Message = "no package"
		return result
	}
	result.Name = pkg.Name

	if !pkg.Enabled {
		result.Status = HealthDisabled
		result.Message = "Package disabled"
		return result
	}

	missing, ms, ok := c.missingPaths(pkg)
	result.ResponseMs = ms
	if !ok {
		result.Status = HealthTimeout
		result.Message = fmt.Sprintf("Path check timed out after %s", c.timeout)
		return result
	}
	if len(missing) > 0 {
		result.Status = HealthMissing
		result.Missing = missing
		result.Message = fmt.Sprintf("%d missing path(s)", len(missing))
		return result
	}

	result.Status = categorizeResponse(ms)
	result.Message = fmt.Sprintf("Paths checked in %dms", ms)
	return result
}

// CheckAll checks every package, keyed by name
func (c *Checker) CheckAll(pkgs []*packages.Package) map[string]*HealthCheck {
	out := make(map[string]*HealthCheck, len(pkgs))
	for _, pkg := range pkgs {
		if pkg == nil {
			continue
		}
		out[pkg.Name] = c.Check(pkg)
	}
	return out
}

// missingPaths stats the package paths, giving up after the checker timeout.
// The stat goroutine is left to finish on its own when it times out.
func (c *Checker) missingPaths(pkg *packages.Package) ([]string, int, bool) {
	done := make(chan []string, 1)
	start := time.Now()
	go func() {
		done <- pkg.MissingPaths()
	}()

	select {
	case missing := <-done:
		return missing, int(time.Since(start).Milliseconds()), true
	case <-time.After(c.timeout):
		return nil, int(time.Since(start).Milliseconds()), false
	}
}

// categorizeResponse categorizes check time into status
func categorizeResponse(ms int) HealthStatus {
	if ms > int(slowThreshold.Milliseconds()) {
		return HealthSlow
	}
	return HealthOK
}

// StatusIcon returns an emoji for the health status
func StatusIcon(status HealthStatus) string {
	switch status {
	case HealthOK:
		return "✅"
	case HealthSlow:
		return "⚠️"
	case HealthTimeout:
		return "🐢"
	case HealthMissing:
		return "❌"
	case HealthDisabled:
		return "⏸"
	default:
		return "❓"
	}
}
