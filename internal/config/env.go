package config

import (
	"os"
	"strings"
)

func parseEnviron(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if ok {
			out[key] = value
		}
	}

	return out
}

// prefixed collects variables named <prefix><NAME> from the process environment and environ,
// keyed by lower-case NAME. Variables starting with exclude are skipped.
func prefixed(environ []string, prefix string, exclude string) map[string]string {
	out := map[string]string{}

	collect := func(vars map[string]string) {
		for key, value := range vars {
			if exclude != "" && strings.HasPrefix(key, exclude) {
				continue
			}

			name, ok := strings.CutPrefix(key, prefix)
			if !ok || name == "" || value == "" {
				continue
			}
			out[strings.ToLower(name)] = value
		}
	}

	collect(parseEnviron(os.Environ()))
	collect(parseEnviron(environ))

	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
