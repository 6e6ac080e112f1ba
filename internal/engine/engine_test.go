package engine

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stationctl/stationctl/internal/executil"
	"github.com/stationctl/stationctl/internal/privilege"
	"github.com/stationctl/stationctl/internal/resource"
	stationerrors "github.com/stationctl/stationctl/pkg/errors"
)

// callOrder records apply order across resources.
type callOrder struct {
	mu  sync.Mutex
	ids []string
}

func (c *callOrder) record(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
}

func (c *callOrder) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...)
}

// fakeResource is a scripted resource whose current state converges on
// a successful apply.
type fakeResource struct {
	id         string
	kind       resource.Kind
	unsafe     bool
	inspectErr error
	applyErr   error
	panics     bool
	order      *callOrder

	mu            sync.Mutex
	current       resource.State
	applies       int
	sawPrivileged bool
}

func newFakeResource(id string) *fakeResource {
	return &fakeResource{id: id, kind: resource.KindFormula, current: resource.Absent()}
}

func (f *fakeResource) ID() string                            { return f.id }
func (f *fakeResource) Kind() resource.Kind                   { return f.kind }
func (f *fakeResource) Description() string                   { return f.id }
func (f *fakeResource) DesiredState() resource.State          { return resource.Present("v1") }
func (f *fakeResource) PrivilegeHint() resource.PrivilegeHint { return resource.NoPrivilege }
func (f *fakeResource) ParallelSafe() bool                    { return !f.unsafe }

func (f *fakeResource) CurrentState(context.Context) (resource.State, error) {
	if f.inspectErr != nil {
		return resource.Unknown(), f.inspectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakeResource) Apply(_ context.Context, ac *resource.ApplyContext) (resource.Outcome, error) {
	if f.panics {
		panic("boom")
	}
	f.mu.Lock()
	f.applies++
	f.sawPrivileged = ac.Privileged != nil
	f.mu.Unlock()
	if f.order != nil {
		f.order.record(f.id)
	}
	if f.applyErr != nil {
		return resource.Failed(f.applyErr), f.applyErr
	}
	f.mu.Lock()
	f.current = resource.Present("v1")
	f.mu.Unlock()
	return resource.Created(), nil
}

func (f *fakeResource) applyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applies
}

// scriptConfirm answers prompts from a fixed script.
type scriptConfirm struct {
	mu      sync.Mutex
	answers []bool
	prompts []string
}

func (s *scriptConfirm) Confirm(prompt string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return false, nil
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func openClassifier() *privilege.Classifier {
	return privilege.NewClassifier(nil, nil)
}

func acquirableContext() *privilege.Context {
	return privilege.NewContext(executil.NewFake()).
		WithPrompt(func(context.Context) error { return nil })
}

func TestComputeDiffsSkipsConvergedAndKeepsOrder(t *testing.T) {
	t.Parallel()

	converged := newFakeResource("converged")
	converged.current = resource.Present("v1")
	pending := newFakeResource("pending")
	broken := newFakeResource("broken")
	broken.inspectErr = stderrors.New("tool exploded")

	diffs := ComputeDiffs(context.Background(),
		[]resource.Resource{converged, pending, broken}, openClassifier())

	require.Len(t, diffs, 2)
	require.Equal(t, "pending", diffs[0].ResourceID)
	require.Equal(t, "broken", diffs[1].ResourceID)
	require.Equal(t, resource.Unknown(), diffs[1].Current)
	require.Error(t, diffs[1].Err)
}

func TestSummarizeCountsDirections(t *testing.T) {
	t.Parallel()

	diffs := []Diff{
		{Current: resource.Absent(), Desired: resource.Present("")},
		{Current: resource.Modified("a", "b"), Desired: resource.Present("b"), Privileged: true},
		{Current: resource.Unknown(), Desired: resource.Present(""), Err: stderrors.New("x")},
	}

	s := Summarize(diffs)
	require.Equal(t, 1, s.Additions)
	require.Equal(t, 1, s.Modifications)
	require.Equal(t, 1, s.InspectionFailures)
	require.Equal(t, 1, s.PrivilegeRequired)
	require.Equal(t, 3, s.Total())
}

func TestBuildPlanPartitionIsTotal(t *testing.T) {
	t.Parallel()

	resources := []resource.Resource{
		newFakeResource("a"), newFakeResource("b"), newFakeResource("c"),
	}
	classifier := privilege.NewClassifier([]string{"b"}, nil)

	plan := BuildPlan(resources, classifier, nil)

	require.Len(t, plan.Unprivileged, 2)
	require.Len(t, plan.Privileged, 1)
	require.Equal(t, "a", plan.Unprivileged[0].ID())
	require.Equal(t, "c", plan.Unprivileged[1].ID())
	require.Equal(t, "b", plan.Privileged[0].ID())

	seen := map[string]int{}
	for _, r := range plan.Resources() {
		seen[r.ID()]++
	}
	require.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)
}

func TestBuildPlanPostActionsOrderedUnique(t *testing.T) {
	t.Parallel()

	runner := executil.NewFake()
	resources := []resource.Resource{
		resource.NewPreference("com.apple.dock", "tilesize", resource.IntValue(48), runner),
		resource.NewPreference("com.apple.dock", "autohide", resource.BoolValue(true), runner),
		resource.NewPreference("com.apple.finder", "ShowPathbar", resource.BoolValue(true), runner),
		resource.NewDockApp("/Applications/Safari.app", runner),
	}

	plan := BuildPlan(resources, openClassifier(), []string{"Dock", "Finder"})
	require.Equal(t, []string{"Dock", "Finder"}, plan.PostActions)
}

func TestBuildPlanPostActionsRequireListedService(t *testing.T) {
	t.Parallel()

	runner := executil.NewFake()
	resources := []resource.Resource{
		resource.NewPreference("com.apple.dock", "tilesize", resource.IntValue(48), runner),
	}

	plan := BuildPlan(resources, openClassifier(), []string{"Finder"})
	require.Empty(t, plan.PostActions)
}

func TestFilterTarget(t *testing.T) {
	t.Parallel()

	runner := executil.NewFake()
	resources := []resource.Resource{
		resource.NewFormula("ripgrep", runner),
		resource.NewCask("kitty", runner),
		resource.NewPreference("com.apple.dock", "tilesize", resource.IntValue(48), runner),
		resource.NewSymlink("/src", "/dst", false),
	}

	packages, err := FilterTarget(resources, "packages")
	require.NoError(t, err)
	require.Len(t, packages, 2)

	prefs, err := FilterTarget(resources, "defaults")
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	require.Equal(t, resource.KindPreference, prefs[0].Kind())

	one, err := FilterTarget(resources, "formula.rip")
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, "ripgrep", one[0].ID())

	_, err = FilterTarget(resources, "gizmos")
	require.Error(t, err)
	var invalid *stationerrors.InvalidConfigError
	require.ErrorAs(t, err, &invalid)
}

func TestFilterTargetIsIdempotent(t *testing.T) {
	t.Parallel()

	runner := executil.NewFake()
	resources := []resource.Resource{
		resource.NewFormula("ripgrep", runner),
		resource.NewSymlink("/src", "/dst", false),
	}

	once, err := FilterTarget(resources, "symlinks")
	require.NoError(t, err)
	twice, err := FilterTarget(once, "symlinks")
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestExecuteAllConvergedShortCircuits(t *testing.T) {
	t.Parallel()

	a := newFakeResource("a")
	a.current = resource.Present("v1")
	b := newFakeResource("b")
	b.current = resource.Present("v1")

	exec := &Executor{Confirm: AutoDecline{}, Runner: executil.NewFake()}
	plan := Plan{Unprivileged: []resource.Resource{a, b}}

	summary, err := exec.Execute(context.Background(), plan, Options{})
	require.NoError(t, err)
	require.Equal(t, resource.Summary{NoChange: 2}, summary)
	require.Zero(t, a.applyCount())
}

func TestExecuteDeclinedSkipsEverything(t *testing.T) {
	t.Parallel()

	a := newFakeResource("a")
	b := newFakeResource("b")

	exec := &Executor{Confirm: AutoDecline{}, Runner: executil.NewFake()}
	plan := Plan{Unprivileged: []resource.Resource{a, b}}

	summary, err := exec.Execute(context.Background(), plan, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Skipped)
	require.Zero(t, a.applyCount())
	require.Zero(t, b.applyCount())
}

func TestExecuteDryRunAppliesNothing(t *testing.T) {
	t.Parallel()

	a := newFakeResource("a")
	exec := &Executor{Runner: executil.NewFake()}
	plan := Plan{Unprivileged: []resource.Resource{a}}

	summary, err := exec.Execute(context.Background(), plan, Options{DryRun: true})
	require.NoError(t, err)
	require.Equal(t, resource.Summary{}, summary)
	require.Zero(t, a.applyCount())
}

func TestExecuteDryRunSummaryIsEmptyDespiteInspectionFailures(t *testing.T) {
	t.Parallel()

	pending := newFakeResource("pending")
	broken := newFakeResource("broken")
	broken.inspectErr = stderrors.New("tool exploded")

	exec := &Executor{Runner: executil.NewFake()}
	plan := Plan{Unprivileged: []resource.Resource{pending, broken}}

	summary, err := exec.Execute(context.Background(), plan, Options{DryRun: true})
	require.NoError(t, err)
	require.Equal(t, resource.Summary{}, summary)
	require.True(t, summary.Success())
	require.Zero(t, pending.applyCount())
}

func TestExecuteContinuesPastFailures(t *testing.T) {
	t.Parallel()

	a := newFakeResource("a")
	bad := newFakeResource("bad")
	bad.applyErr = stderrors.New("install exploded")
	c := newFakeResource("c")

	exec := &Executor{Runner: executil.NewFake()}
	plan := Plan{Unprivileged: []resource.Resource{a, bad, c}}

	summary, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true, Parallelism: 1})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Created)
	require.Equal(t, 1, summary.Failed)
	require.False(t, summary.Success())
	require.Equal(t, 1, c.applyCount())
}

func TestExecuteRecoversPanicsIntoFailures(t *testing.T) {
	t.Parallel()

	bomb := newFakeResource("bomb")
	bomb.panics = true
	ok := newFakeResource("ok")

	exec := &Executor{Runner: executil.NewFake()}
	plan := Plan{Unprivileged: []resource.Resource{bomb, ok}}

	summary, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true, Parallelism: 2})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 1, summary.Created)
}

func TestExecuteInspectionFailureSurfacesWithoutApply(t *testing.T) {
	t.Parallel()

	broken := newFakeResource("broken")
	broken.inspectErr = stationerrors.NewInspectionFailedError("formula", stderrors.New("no brew"))

	exec := &Executor{Runner: executil.NewFake()}
	plan := Plan{Unprivileged: []resource.Resource{broken}}

	summary, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	require.Zero(t, broken.applyCount())
}

func TestExecutePrivilegedRunsAfterUnprivileged(t *testing.T) {
	t.Parallel()

	order := &callOrder{}
	u1 := newFakeResource("u1")
	u1.order = order
	u2 := newFakeResource("u2")
	u2.order = order
	p1 := newFakeResource("p1")
	p1.order = order

	exec := &Executor{
		Runner:    executil.NewFake(),
		Privilege: acquirableContext(),
	}
	plan := Plan{
		Unprivileged: []resource.Resource{u1, u2},
		Privileged:   []resource.Resource{p1},
	}

	summary, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true, Parallelism: 4})
	require.NoError(t, err)
	require.Equal(t, 3, summary.Created)

	ids := order.list()
	require.Len(t, ids, 3)
	require.Equal(t, "p1", ids[2])
	require.True(t, p1.sawPrivileged)
	require.False(t, u1.sawPrivileged)
}

func TestExecutePrivilegedAcquireFailureFailsBatchOnly(t *testing.T) {
	t.Parallel()

	u := newFakeResource("u")
	p := newFakeResource("p")

	denied := privilege.NewContext(executil.NewFake()).
		WithPrompt(func(context.Context) error { return stderrors.New("declined") })

	exec := &Executor{Runner: executil.NewFake(), Privilege: denied}
	plan := Plan{
		Unprivileged: []resource.Resource{u},
		Privileged:   []resource.Resource{p},
	}

	summary, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true})
	require.Error(t, err)
	var deniedErr *stationerrors.PrivilegeDeniedError
	require.ErrorAs(t, err, &deniedErr)

	require.Equal(t, 1, summary.Created)
	require.Equal(t, 1, summary.Failed)
	require.Zero(t, p.applyCount())
}

func TestExecuteReleasesPrivilegeEvenOnPanic(t *testing.T) {
	t.Parallel()

	bomb := newFakeResource("bomb")
	bomb.panics = true

	sudoFake := executil.NewFake()
	pc := privilege.NewContext(sudoFake).
		WithPrompt(func(context.Context) error { return nil })

	exec := &Executor{Runner: executil.NewFake(), Privilege: pc}
	plan := Plan{Privileged: []resource.Resource{bomb}}

	summary, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)
	require.False(t, pc.Active())

	released := false
	for _, c := range sudoFake.Calls() {
		if c.Name == "sudo" && len(c.Args) == 1 && c.Args[0] == "-k" {
			released = true
		}
	}
	require.True(t, released)
}

func TestExecuteSecondConfirmationGuardsPrivilegedBatch(t *testing.T) {
	t.Parallel()

	u := newFakeResource("u")
	p := newFakeResource("p")

	confirm := &scriptConfirm{answers: []bool{true, false}}
	exec := &Executor{
		Runner:    executil.NewFake(),
		Confirm:   confirm,
		Privilege: acquirableContext(),
	}
	plan := Plan{
		Unprivileged: []resource.Resource{u},
		Privileged:   []resource.Resource{p},
	}

	summary, err := exec.Execute(context.Background(), plan, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Created)
	require.Equal(t, 1, summary.Skipped)
	require.Zero(t, p.applyCount())
	require.Len(t, confirm.prompts, 2)
	require.Contains(t, confirm.prompts[1], "administrator")
}

func TestExecuteSerializesParallelUnsafeResources(t *testing.T) {
	t.Parallel()

	order := &callOrder{}
	safe := newFakeResource("safe")
	safe.order = order
	dockish := newFakeResource("dockish")
	dockish.unsafe = true
	dockish.order = order

	exec := &Executor{Runner: executil.NewFake()}
	plan := Plan{Unprivileged: []resource.Resource{dockish, safe}}

	summary, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true, Parallelism: 4})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Created)

	// Unsafe resources run after the pool drains.
	ids := order.list()
	require.Equal(t, []string{"safe", "dockish"}, ids)
}

func TestExecuteRunsPostActionsAndIgnoresTheirFailures(t *testing.T) {
	t.Parallel()

	a := newFakeResource("a")
	runner := executil.NewFake().
		Respond("killall", "Dock", executil.Output{Stderr: "No matching processes", Success: false})

	exec := &Executor{Runner: runner}
	plan := Plan{
		Unprivileged: []resource.Resource{a},
		PostActions:  []string{"Dock"},
	}

	summary, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true})
	require.NoError(t, err)
	require.True(t, summary.Success())
	require.Equal(t, 1, summary.Created)

	restarted := false
	for _, c := range runner.Calls() {
		if c.Name == "killall" {
			restarted = true
		}
	}
	require.True(t, restarted)
}

func TestExecuteSkipsPostActionsWhenNothingChanged(t *testing.T) {
	t.Parallel()

	a := newFakeResource("a")
	a.current = resource.Present("v1")
	runner := executil.NewFake()

	exec := &Executor{Runner: runner}
	plan := Plan{
		Unprivileged: []resource.Resource{a},
		PostActions:  []string{"Dock"},
	}

	_, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true})
	require.NoError(t, err)
	require.Empty(t, runner.Calls())
}

func TestExecuteIsIdempotent(t *testing.T) {
	t.Parallel()

	a := newFakeResource("a")
	exec := &Executor{Runner: executil.NewFake()}
	plan := Plan{Unprivileged: []resource.Resource{a}}

	first, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true})
	require.NoError(t, err)
	require.Equal(t, 1, first.Created)

	second, err := exec.Execute(context.Background(), plan, Options{AssumeYes: true})
	require.NoError(t, err)
	require.Equal(t, resource.Summary{NoChange: 1}, second)
	require.Equal(t, 1, a.applyCount())
}
