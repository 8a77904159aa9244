package packages

import (
	"os"
	"sort"
	"strings"
)

// ConfigRootKey is the placeholder always bound to the config root
const ConfigRootKey = "CONFIG_ROOT_PATH"

// EnvMap collects the string and number values of every env entry.
// Later entries overwrite earlier ones with the same key.
func EnvMap(doc *Document) map[string]string {
	env := make(map[string]string)
	if doc == nil {
		return env
	}
	for _, entry := range doc.Env {
		for _, v := range entry {
			switch v.Kind {
			case KindString, KindNumber:
				env[v.Key] = v.Text
			}
		}
	}
	return env
}

// ResolvePath substitutes $KEY placeholders in raw. Env keys are replaced
// longest first so that $ROOT never eats the front of $ROOT2, and
// $CONFIG_ROOT_PATH is replaced last so env values may refer to it. It is
// always the config root, even when env defines that key.
func ResolvePath(raw string, env map[string]string, configRoot string) string {
	if !strings.Contains(raw, "$") {
		return raw
	}

	vars := make(map[string]string, len(env))
	for k, v := range env {
		if k != "" && k != ConfigRootKey {
			vars[k] = v
		}
	}

	token := "$" + ConfigRootKey
	for _, k := range substitutionOrder(vars) {
		raw = replaceOutside(raw, "$"+k, vars[k], token)
	}
	return strings.ReplaceAll(raw, token, configRoot)
}

// replaceOutside replaces old with repl everywhere except inside occurrences of keep
func replaceOutside(s, old, repl, keep string) string {
	parts := strings.Split(s, keep)
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(part, old, repl)
	}
	return strings.Join(parts, keep)
}

func substitutionOrder(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// isPathKey reports whether an env key names a filesystem path
func isPathKey(key string) bool {
	return key == "hpath" || key == "path"
}

// PathValues returns the resolved value of every hpath/path key, in document order.
// Non-string values resolve to the empty path.
func PathValues(doc *Document, configRoot string) []string {
	if doc == nil {
		return nil
	}
	env := EnvMap(doc)
	var out []string
	for _, entry := range doc.Env {
		for _, v := range entry {
			if !isPathKey(v.Key) {
				continue
			}
			raw := ""
			if v.Kind == KindString {
				raw = v.Text
			}
			out = append(out, ResolvePath(raw, env, configRoot))
		}
	}
	return out
}

// HasMissingPaths reports whether any hpath/path entry resolves to a path that does not exist
func HasMissingPaths(doc *Document, configRoot string) bool {
	for _, p := range PathValues(doc, configRoot) {
		if !pathExists(p) {
			return true
		}
	}
	return false
}

// MissingPaths returns every resolved hpath/path entry that does not exist
func MissingPaths(doc *Document, configRoot string) []string {
	var missing []string
	for _, p := range PathValues(doc, configRoot) {
		if !pathExists(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

func pathExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
