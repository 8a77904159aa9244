package cli

import (
	"fmt"
	"strings"

	"github.com/devports/hlaunch/pkg/models"
)

var blockedNameChars = []string{
	"/", "\\", ":", "*", "?", "\"", "<", ">", "|",
}

func firstBlockedNameChar(name string) (string, bool) {
	for _, c := range blockedNameChars {
		if strings.Contains(name, c) {
			return c, true
		}
	}
	return "", false
}

// validateName checks a preset or package name is usable as a file or map key
func validateName(kind, name string) error {
	n := strings.TrimSpace(name)
	if n == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}
	if n != name {
		return fmt.Errorf("%s name %q has leading or trailing spaces", kind, name)
	}
	if n == "." || n == ".." {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	if c, ok := firstBlockedNameChar(n); ok {
		return fmt.Errorf("%s name contains disallowed character %q", kind, c)
	}
	return nil
}

// parseEnvOverrides turns KEY=VALUE arguments into launch env pairs
func parseEnvOverrides(raw []string) ([]models.EnvPair, error) {
	pairs := make([]models.EnvPair, 0, len(raw))
	for _, r := range raw {
		pair, ok := models.ParseEnvPair(r)
		if !ok {
			return nil, fmt.Errorf("invalid env override %q; use KEY=VALUE", r)
		}
		if strings.ContainsAny(pair.Key, " \t") {
			return nil, fmt.Errorf("env override key %q cannot contain whitespace", pair.Key)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
