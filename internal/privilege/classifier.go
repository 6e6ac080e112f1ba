// Package privilege decides which resources need elevation and owns
// the sudo session that the privileged batch runs under.
package privilege

import (
	"github.com/stationctl/stationctl/internal/resource"
)

// Classifier maps resources onto the privileged or unprivileged batch
// from configuration. Resources carry no privilege knowledge of their
// own beyond a static hint; the allowlist is the operator's call.
type Classifier struct {
	packages    map[string]struct{}
	preferences map[string]struct{}
}

// NewClassifier builds a classifier from the configured allowlists:
// package names whose installers need elevation and preference domains
// that live in system-owned plists.
func NewClassifier(packages, preferenceDomains []string) *Classifier {
	c := &Classifier{
		packages:    make(map[string]struct{}, len(packages)),
		preferences: make(map[string]struct{}, len(preferenceDomains)),
	}
	for _, name := range packages {
		c.packages[name] = struct{}{}
	}
	for _, domain := range preferenceDomains {
		c.preferences[domain] = struct{}{}
	}
	return c
}

// RequiresPrivilege reports whether the resource must run in the
// privileged batch. The resource's own hint wins; otherwise package
// names and preference domains are checked against the allowlists.
func (c *Classifier) RequiresPrivilege(r resource.Resource) bool {
	if r.PrivilegeHint().Required {
		return true
	}
	if c == nil {
		return false
	}

	if r.Kind().IsPackage() {
		_, ok := c.packages[r.ID()]
		return ok
	}
	if pref, ok := r.(*resource.Preference); ok {
		// Entries may name a whole domain or one domain-qualified key.
		if _, listed := c.preferences[pref.Domain()]; listed {
			return true
		}
		_, listed := c.preferences[pref.ID()]
		return listed
	}
	return false
}
