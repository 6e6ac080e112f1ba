package resource

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/pkg/errors"
)

// PrefType is the declared type of a preference value. It selects the
// defaults(1) write flag and how observed values are canonicalized.
type PrefType string

const (
	PrefBool   PrefType = "bool"
	PrefInt    PrefType = "int"
	PrefFloat  PrefType = "float"
	PrefString PrefType = "string"
)

// PrefValue is a typed preference value with a canonical string form.
// Two values compare equal exactly when their canonical forms match.
type PrefValue struct {
	Type PrefType
	Raw  string
}

// BoolValue builds a boolean preference value.
func BoolValue(b bool) PrefValue {
	return PrefValue{Type: PrefBool, Raw: strconv.FormatBool(b)}
}

// IntValue builds an integer preference value.
func IntValue(i int64) PrefValue {
	return PrefValue{Type: PrefInt, Raw: strconv.FormatInt(i, 10)}
}

// FloatValue builds a float preference value.
func FloatValue(f float64) PrefValue {
	return PrefValue{Type: PrefFloat, Raw: strconv.FormatFloat(f, 'g', -1, 64)}
}

// StringValue builds a string preference value.
func StringValue(s string) PrefValue {
	return PrefValue{Type: PrefString, Raw: s}
}

func (v PrefValue) flag() string {
	return "-" + string(v.Type)
}

// canonicalize maps an observed defaults read output into the value's
// canonical form. ok is false when the observed text does not parse as
// the declared type.
func (v PrefValue) canonicalize(observed string) (string, bool) {
	observed = strings.TrimSpace(observed)
	switch v.Type {
	case PrefBool:
		switch strings.ToLower(observed) {
		case "1", "true", "yes":
			return "true", true
		case "0", "false", "no":
			return "false", true
		}
		return "", false
	case PrefInt:
		i, err := strconv.ParseInt(observed, 10, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatInt(i, 10), true
	case PrefFloat:
		f, err := strconv.ParseFloat(observed, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true
	default:
		return observed, true
	}
}

// Preference converges one defaults(1) key in a domain to a typed
// value. A key holding an unparseable value is treated as absent and
// overwritten.
type Preference struct {
	domain string
	key    string
	value  PrefValue
	runner executil.Runner
}

// NewPreference builds a preference resource.
func NewPreference(domain, key string, value PrefValue, runner executil.Runner) *Preference {
	return &Preference{domain: domain, key: key, value: value, runner: runner}
}

// ID is the domain-qualified key.
func (p *Preference) ID() string { return p.domain + "." + p.key }

// Kind tags the variant.
func (p *Preference) Kind() Kind { return KindPreference }

// Description renders a one-line summary.
func (p *Preference) Description() string {
	return fmt.Sprintf("preference %s %s = %s", p.domain, p.key, p.value.Raw)
}

// Domain returns the defaults domain. The planner uses it to derive
// post-apply restarts.
func (p *Preference) Domain() string { return p.domain }

// DesiredState is presence at the canonical value.
func (p *Preference) DesiredState() State { return Present(p.value.Raw) }

// PrivilegeHint defers to the classifier.
func (p *Preference) PrivilegeHint() PrivilegeHint { return NoPrivilege }

// ParallelSafe: each domain is an independent plist.
func (p *Preference) ParallelSafe() bool { return true }

// CurrentState reads the key. A missing key reads as absent; a value
// at the declared type reads as present or drifted.
func (p *Preference) CurrentState(ctx context.Context) (State, error) {
	out, err := p.runner.Run(ctx, "defaults", "read", p.domain, p.key)
	if err != nil {
		return Unknown(), errors.NewInspectionFailedError(string(KindPreference), err)
	}
	if !out.Success {
		// defaults read exits non-zero when the key or domain does
		// not exist.
		return Absent(), nil
	}

	canonical, ok := p.value.canonicalize(out.Stdout)
	if !ok {
		return Absent(), nil
	}
	if canonical == p.value.Raw {
		return Present(canonical), nil
	}
	return Modified(canonical, p.value.Raw), nil
}

// Apply writes the value with the declared type flag.
func (p *Preference) Apply(ctx context.Context, ac *ApplyContext) (Outcome, error) {
	current, err := p.CurrentState(ctx)
	if err != nil {
		return Failed(err), err
	}
	if current.Equal(p.DesiredState()) {
		return NoChange(), nil
	}
	if ac.DryRun {
		return Skipped("dry-run"), nil
	}

	args := []string{"write", p.domain, p.key, p.value.flag(), p.value.Raw}

	var out executil.Output
	if ac.Privileged != nil {
		out, err = ac.Privileged.Run(ctx, "defaults", args...)
	} else {
		out, err = p.runner.Run(ctx, "defaults", args...)
	}
	if err != nil {
		return Failed(err), err
	}
	if !out.Success {
		err = errors.NewCommandFailedError(
			executil.CommandLine("defaults", args...), out.Stderr)
		return Failed(err), err
	}

	if current.IsAbsent() {
		return Created(), nil
	}
	return ModifiedOutcome(), nil
}

var _ Resource = (*Preference)(nil)
