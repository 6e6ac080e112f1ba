package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/stationctl/stationctl/internal/logger"
	"github.com/stationctl/stationctl/pkg/errors"
)

var knownTopLevelKeys = map[string]struct{}{
	"locations": {}, "packages": {}, "preferences": {}, "symlinks": {},
	"services": {}, "handlers": {}, "dock": {}, "extensions": {},
	"privilege_allowlist": {},
}

// DefaultPath resolves the station document under the user's XDG
// config directory.
func DefaultPath() string {
	path, err := xdg.ConfigFile("stationctl/station.yaml")
	if err != nil {
		return "station.yaml"
	}
	return path
}

// Load reads, decodes, and validates the station document. Unknown
// top-level keys warn; structural problems are fatal.
func Load(path string, log *logger.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInvalidConfigError(path, "file not found")
		}
		return nil, errors.NewInvalidConfigError(path, err.Error())
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewInvalidConfigError(path, err.Error())
	}

	warnUnknownKeys(data, log)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// warnUnknownKeys decodes the document a second time as a loose map so
// misspelled sections do not silently vanish.
func warnUnknownKeys(data []byte, log *logger.Logger) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return
	}
	for key := range raw {
		if _, ok := knownTopLevelKeys[key]; !ok {
			log.Warn(fmt.Sprintf("ignoring unknown configuration key %q", key))
		}
	}
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
		first := verrs[0]
		where := strings.TrimPrefix(first.Namespace(), "Config.")
		switch first.Tag() {
		case "required":
			return errors.NewInvalidConfigError(where, "field is required")
		case "oneof":
			return errors.NewInvalidConfigError(where,
				fmt.Sprintf("must be one of: %s", first.Param()))
		default:
			return errors.NewInvalidConfigError(where,
				fmt.Sprintf("failed %s validation", first.Tag()))
		}
	}
	return errors.NewInvalidConfigError("", err.Error())
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
