package config

import (
	"fmt"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/internal/resource"
	"github.com/stationctl/stationctl/pkg/errors"
)

// BuildResources turns the document into the ordered resource list:
// packages, preferences, symlinks, handlers, dock tiles, extensions.
// Services are not part of the regular list; they restart as
// post-actions, or explicitly via the service target.
func BuildResources(cfg *Config, runner executil.Runner) ([]resource.Resource, error) {
	var resources []resource.Resource
	seen := make(map[string]struct{})

	add := func(r resource.Resource) error {
		key := string(r.Kind()) + "\x00" + r.ID()
		if _, dup := seen[key]; dup {
			return errors.NewInvalidConfigError(
				fmt.Sprintf("%s %s", r.Kind(), r.ID()), "declared more than once")
		}
		seen[key] = struct{}{}
		resources = append(resources, r)
		return nil
	}

	for _, spec := range cfg.Packages {
		r, err := buildPackage(spec, runner)
		if err != nil {
			return nil, err
		}
		if err := add(r); err != nil {
			return nil, err
		}
	}

	for _, spec := range cfg.Preferences {
		value, err := prefValue(spec)
		if err != nil {
			return nil, err
		}
		if err := add(resource.NewPreference(spec.Domain, spec.Key, value, runner)); err != nil {
			return nil, err
		}
	}

	for _, spec := range cfg.Symlinks {
		source, err := Expand(spec.Source, cfg.Locations)
		if err != nil {
			return nil, err
		}
		target, err := Expand(spec.Target, cfg.Locations)
		if err != nil {
			return nil, err
		}
		if err := add(resource.NewSymlink(source, target, spec.Force)); err != nil {
			return nil, err
		}
	}

	for _, spec := range cfg.Handlers {
		if err := add(resource.NewFileHandler(spec.Extension, spec.App, runner)); err != nil {
			return nil, err
		}
	}

	for _, path := range cfg.Dock.Apps {
		expanded, err := Expand(path, cfg.Locations)
		if err != nil {
			return nil, err
		}
		if err := add(resource.NewDockApp(expanded, runner)); err != nil {
			return nil, err
		}
	}
	for _, spec := range cfg.Dock.Folders {
		expanded, err := Expand(spec.Path, cfg.Locations)
		if err != nil {
			return nil, err
		}
		options := resource.FolderOptions{
			View:    spec.View,
			Display: spec.Display,
			Sort:    spec.Sort,
		}
		if err := add(resource.NewDockFolder(expanded, options, runner)); err != nil {
			return nil, err
		}
	}

	for _, id := range cfg.Extensions.Editor {
		if err := add(resource.NewEditorExtension(id, runner)); err != nil {
			return nil, err
		}
	}
	for _, name := range cfg.Extensions.CLI {
		if err := add(resource.NewCLIExtension(name, runner)); err != nil {
			return nil, err
		}
	}

	return resources, nil
}

// PrivilegedPackages merges the allowlist with per-entry privileged
// flags into the package names the classifier elevates.
func (c *Config) PrivilegedPackages() []string {
	names := append([]string(nil), c.Privilege.Packages...)
	for _, spec := range c.Packages {
		if spec.Privileged {
			names = append(names, spec.Name)
		}
	}
	return names
}

// PrivilegedPreferences merges the allowlist with per-entry privileged
// flags. Flagged entries contribute their domain-qualified key.
func (c *Config) PrivilegedPreferences() []string {
	entries := append([]string(nil), c.Privilege.Preferences...)
	for _, spec := range c.Preferences {
		if spec.Privileged {
			entries = append(entries, spec.Domain+"."+spec.Key)
		}
	}
	return entries
}

// ServiceResources builds explicit restart resources for the services
// section. Only the service target pulls these into a plan; restarts
// are otherwise post-actions.
func ServiceResources(cfg *Config, runner executil.Runner) []resource.Resource {
	services := make([]resource.Resource, 0, len(cfg.Services))
	for _, name := range cfg.Services {
		services = append(services, resource.NewService(name, runner))
	}
	return services
}

func buildPackage(spec PackageSpec, runner executil.Runner) (resource.Resource, error) {
	kind := spec.Kind
	if kind == "" {
		kind = "formula"
	}
	switch kind {
	case "formula":
		return resource.NewFormula(spec.Name, runner), nil
	case "cask":
		return resource.NewCask(spec.Name, runner), nil
	case "tap":
		return resource.NewTap(spec.Name, runner), nil
	case "store-app":
		if spec.ID == "" {
			return nil, errors.NewInvalidConfigError(
				"packages."+spec.Name, "store-app requires the numeric id field")
		}
		return resource.NewStoreApp(spec.ID, spec.Name, runner), nil
	case "node-global":
		return resource.NewNodeGlobal(spec.Name, runner), nil
	default:
		return nil, errors.NewInvalidConfigError("packages."+spec.Name, "unknown kind "+kind)
	}
}

// prefValue coerces the YAML scalar to the declared type. YAML decodes
// numbers as int or float64 depending on their spelling, so both are
// accepted where they losslessly fit.
func prefValue(spec PreferenceSpec) (resource.PrefValue, error) {
	where := fmt.Sprintf("preferences.%s.%s", spec.Domain, spec.Key)
	switch spec.Type {
	case "bool":
		b, ok := spec.Value.(bool)
		if !ok {
			return resource.PrefValue{}, errors.NewInvalidConfigError(where, "value is not a bool")
		}
		return resource.BoolValue(b), nil
	case "int":
		switch v := spec.Value.(type) {
		case int:
			return resource.IntValue(int64(v)), nil
		case int64:
			return resource.IntValue(v), nil
		}
		return resource.PrefValue{}, errors.NewInvalidConfigError(where, "value is not an int")
	case "float":
		switch v := spec.Value.(type) {
		case float64:
			return resource.FloatValue(v), nil
		case int:
			return resource.FloatValue(float64(v)), nil
		case int64:
			return resource.FloatValue(float64(v)), nil
		}
		return resource.PrefValue{}, errors.NewInvalidConfigError(where, "value is not a float")
	case "string":
		s, ok := spec.Value.(string)
		if !ok {
			return resource.PrefValue{}, errors.NewInvalidConfigError(where, "value is not a string")
		}
		return resource.StringValue(s), nil
	default:
		return resource.PrefValue{}, errors.NewInvalidConfigError(where, "unknown type "+spec.Type)
	}
}
