package engine

import (
	"strings"

	"github.com/stationctl/stationctl/internal/privilege"
	"github.com/stationctl/stationctl/internal/resource"
	"github.com/stationctl/stationctl/pkg/errors"
)

// Plan partitions the resource list into the two execution batches
// plus the process restarts that follow a successful run. Every
// resource lands in exactly one batch; batch order follows the
// original list order.
type Plan struct {
	Unprivileged []resource.Resource
	Privileged   []resource.Resource
	PostActions  []string
}

// Resources returns both batches in execution order.
func (p Plan) Resources() []resource.Resource {
	all := make([]resource.Resource, 0, len(p.Unprivileged)+len(p.Privileged))
	all = append(all, p.Unprivileged...)
	all = append(all, p.Privileged...)
	return all
}

// Empty reports whether the plan has no resources at all.
func (p Plan) Empty() bool {
	return len(p.Unprivileged) == 0 && len(p.Privileged) == 0
}

// BuildPlan partitions resources by the classifier and derives post
// actions: a preference domain or dock entry whose owning process is
// listed under restartable gets that process restarted once after the
// batches, in first-contribution order.
func BuildPlan(resources []resource.Resource, classifier *privilege.Classifier, restartable []string) Plan {
	var plan Plan
	seen := make(map[string]struct{})

	for _, r := range resources {
		if classifier.RequiresPrivilege(r) {
			plan.Privileged = append(plan.Privileged, r)
		} else {
			plan.Unprivileged = append(plan.Unprivileged, r)
		}

		if proc, ok := owningProcess(r); ok {
			for _, name := range restartable {
				if strings.EqualFold(name, proc) {
					if _, dup := seen[name]; !dup {
						seen[name] = struct{}{}
						plan.PostActions = append(plan.PostActions, name)
					}
				}
			}
		}
	}
	return plan
}

// owningProcess names the process that must reread state after the
// resource changes: the last domain segment for preferences, the Dock
// for dock tiles.
func owningProcess(r resource.Resource) (string, bool) {
	switch r.Kind() {
	case resource.KindDockApp, resource.KindDockFolder:
		return "Dock", true
	case resource.KindPreference:
		pref, ok := r.(*resource.Preference)
		if !ok {
			return "", false
		}
		domain := pref.Domain()
		if i := strings.LastIndex(domain, "."); i >= 0 {
			return domain[i+1:], true
		}
		return domain, true
	}
	return "", false
}

// targetAliases maps the plural section names users type to the kinds
// they cover.
var targetAliases = map[string][]resource.Kind{
	"packages": {
		resource.KindFormula, resource.KindCask, resource.KindTap,
		resource.KindStoreApp, resource.KindEditorExtension,
		resource.KindCLIExtension, resource.KindNodeGlobal,
	},
	"defaults":   {resource.KindPreference},
	"symlinks":   {resource.KindSymlink},
	"services":   {resource.KindService},
	"handlers":   {resource.KindFileHandler},
	"dock":       {resource.KindDockApp, resource.KindDockFolder},
	"extensions": {resource.KindEditorExtension, resource.KindCLIExtension},
}

// FilterTarget narrows resources to a target of the form "kind" or
// "kind.fragment", where kind is a resource kind or a section alias
// and the fragment substring-matches resource identifiers. Order is
// preserved and filtering is idempotent. An unrecognized kind is a
// configuration error.
func FilterTarget(resources []resource.Resource, target string) ([]resource.Resource, error) {
	if target == "" {
		return resources, nil
	}

	kindPart := target
	fragment := ""
	if i := strings.Index(target, "."); i >= 0 {
		kindPart = target[:i]
		fragment = target[i+1:]
	}

	kinds, ok := targetAliases[strings.ToLower(kindPart)]
	if !ok {
		k := resource.Kind(strings.ToLower(kindPart))
		if !knownKind(k) {
			return nil, errors.NewInvalidConfigError("target",
				"unknown resource kind "+kindPart)
		}
		kinds = []resource.Kind{k}
	}

	wanted := make(map[resource.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		wanted[k] = struct{}{}
	}

	var filtered []resource.Resource
	for _, r := range resources {
		if _, ok := wanted[r.Kind()]; !ok {
			continue
		}
		if fragment != "" && !strings.Contains(strings.ToLower(r.ID()), strings.ToLower(fragment)) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

func knownKind(k resource.Kind) bool {
	switch k {
	case resource.KindFormula, resource.KindCask, resource.KindTap,
		resource.KindStoreApp, resource.KindEditorExtension,
		resource.KindCLIExtension, resource.KindNodeGlobal,
		resource.KindPreference, resource.KindSymlink,
		resource.KindService, resource.KindFileHandler,
		resource.KindDockApp, resource.KindDockFolder:
		return true
	}
	return false
}
