package resource

import "fmt"

// OutcomeKind is the variant tag of an Outcome.
type OutcomeKind string

const (
	OutcomeNoChange OutcomeKind = "no-change"
	OutcomeCreated  OutcomeKind = "created"
	OutcomeModified OutcomeKind = "modified"
	OutcomeRemoved  OutcomeKind = "removed"
	OutcomeFailed   OutcomeKind = "failed"
	OutcomeSkipped  OutcomeKind = "skipped"
)

// Outcome is the result of a single apply.
type Outcome struct {
	Kind   OutcomeKind
	Err    error
	Reason string
}

// NoChange reports the resource was already converged.
func NoChange() Outcome {
	return Outcome{Kind: OutcomeNoChange}
}

// Created reports the resource was brought into existence.
func Created() Outcome {
	return Outcome{Kind: OutcomeCreated}
}

// ModifiedOutcome reports the resource was changed in place.
func ModifiedOutcome() Outcome {
	return Outcome{Kind: OutcomeModified}
}

// Removed reports the resource was removed.
func Removed() Outcome {
	return Outcome{Kind: OutcomeRemoved}
}

// Failed reports an apply failure.
func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}

// Skipped reports the apply was deliberately not performed.
func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Success reports whether the outcome is anything but a failure.
func (o Outcome) Success() bool {
	return o.Kind != OutcomeFailed
}

// Changed reports whether the outcome mutated the machine.
func (o Outcome) Changed() bool {
	switch o.Kind {
	case OutcomeCreated, OutcomeModified, OutcomeRemoved:
		return true
	}
	return false
}

// String renders the outcome for progress lines.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeFailed:
		return fmt.Sprintf("failed: %v", o.Err)
	case OutcomeSkipped:
		if o.Reason != "" {
			return fmt.Sprintf("skipped: %s", o.Reason)
		}
		return "skipped"
	default:
		return string(o.Kind)
	}
}

// Summary aggregates outcomes across an execution.
type Summary struct {
	Created  int
	Modified int
	Removed  int
	Skipped  int
	Failed   int
	NoChange int
}

// Add folds a single outcome into the summary.
func (s *Summary) Add(o Outcome) {
	switch o.Kind {
	case OutcomeCreated:
		s.Created++
	case OutcomeModified:
		s.Modified++
	case OutcomeRemoved:
		s.Removed++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	case OutcomeNoChange:
		s.NoChange++
	}
}

// Merge folds another summary into this one.
func (s *Summary) Merge(other Summary) {
	s.Created += other.Created
	s.Modified += other.Modified
	s.Removed += other.Removed
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.NoChange += other.NoChange
}

// Success reports whether no resource failed.
func (s Summary) Success() bool {
	return s.Failed == 0
}

// TotalChanges counts the outcomes that mutated the machine.
func (s Summary) TotalChanges() int {
	return s.Created + s.Modified + s.Removed
}

// Total counts every recorded outcome.
func (s Summary) Total() int {
	return s.Created + s.Modified + s.Removed + s.Skipped + s.Failed + s.NoChange
}
