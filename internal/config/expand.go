package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/stationctl/stationctl/pkg/errors"
)

// Paths may reference each other through ${locations.NAME}; the depth
// bound turns reference cycles into a config error instead of a hang.
const maxExpandDepth = 8

// Expand resolves ~, $VAR, ${VAR}, and ${locations.NAME} in a path,
// repeatedly until it reaches a fixed point.
func Expand(value string, locations map[string]string) (string, error) {
	out := value
	for depth := 0; depth < maxExpandDepth; depth++ {
		next := expandOnce(out, locations)
		if next == out {
			return next, nil
		}
		out = next
	}
	return "", errors.NewInvalidConfigError(value, "path expansion does not terminate (location cycle?)")
}

func expandOnce(value string, locations map[string]string) string {
	expanded := os.Expand(value, func(name string) string {
		if loc, ok := strings.CutPrefix(name, "locations."); ok {
			return locations[loc]
		}
		return os.Getenv(name)
	})

	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			if expanded == "~" {
				expanded = home
			} else {
				expanded = filepath.Join(home, expanded[2:])
			}
		}
	}
	return expanded
}
