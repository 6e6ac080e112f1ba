// Package config loads the station document, validates it, expands
// paths, and builds the ordered resource list.
package config

// Config is the root of the station YAML document.
type Config struct {
	Locations   map[string]string  `yaml:"locations"`
	Packages    []PackageSpec      `yaml:"packages"`
	Preferences []PreferenceSpec   `yaml:"preferences"`
	Symlinks    []SymlinkSpec      `yaml:"symlinks"`
	Services    []string           `yaml:"services"`
	Handlers    []HandlerSpec      `yaml:"handlers"`
	Dock        DockSpec           `yaml:"dock"`
	Extensions  ExtensionsSpec     `yaml:"extensions"`
	Privilege   PrivilegeAllowlist `yaml:"privilege_allowlist"`
}

// PackageSpec declares one package. Kind defaults to formula. A
// privileged entry runs in the elevated batch as if allowlisted.
type PackageSpec struct {
	Kind       string `yaml:"kind" validate:"omitempty,oneof=formula cask tap store-app node-global"`
	Name       string `yaml:"name" validate:"required"`
	ID         string `yaml:"id"`
	Privileged bool   `yaml:"privileged"`
}

// PreferenceSpec declares one defaults key. Value is coerced to Type
// when resources are built. A privileged entry writes through sudo.
type PreferenceSpec struct {
	Domain     string `yaml:"domain" validate:"required"`
	Key        string `yaml:"key" validate:"required"`
	Type       string `yaml:"type" validate:"required,oneof=bool int float string"`
	Value      any    `yaml:"value"`
	Privileged bool   `yaml:"privileged"`
}

// SymlinkSpec declares one symlink from target back to source.
type SymlinkSpec struct {
	Source string `yaml:"source" validate:"required"`
	Target string `yaml:"target" validate:"required"`
	Force  bool   `yaml:"force"`
}

// HandlerSpec binds a file extension to an application bundle.
type HandlerSpec struct {
	Extension string `yaml:"extension" validate:"required"`
	App       string `yaml:"app" validate:"required"`
}

// DockSpec declares the pinned dock tiles.
type DockSpec struct {
	Apps    []string         `yaml:"apps"`
	Folders []DockFolderSpec `yaml:"folders"`
}

// DockFolderSpec declares one folder tile and how it presents.
type DockFolderSpec struct {
	Path    string `yaml:"path" validate:"required"`
	View    string `yaml:"view" validate:"omitempty,oneof=auto fan grid list"`
	Display string `yaml:"display" validate:"omitempty,oneof=folder stack"`
	Sort    string `yaml:"sort" validate:"omitempty,oneof=name dateadded datemodified datecreated kind"`
}

// ExtensionsSpec declares editor and gh CLI extensions.
type ExtensionsSpec struct {
	Editor []string `yaml:"editor"`
	CLI    []string `yaml:"cli"`
}

// PrivilegeAllowlist names what runs in the privileged batch: package
// names and preference domains (or domain-qualified keys).
type PrivilegeAllowlist struct {
	Packages    []string `yaml:"packages"`
	Preferences []string `yaml:"preferences"`
}
