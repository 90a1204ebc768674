package datasource

import (
	"fmt"
	"strings"
)

// CycleOutcomeKind says how a refresh cycle ended.
type CycleOutcomeKind int

const (
	// CycleSkipped means no environment or cluster was configured, so nothing was fetched.
	CycleSkipped CycleOutcomeKind = iota
	// CycleAllSucceeded means both fetches succeeded and both results were merged.
	CycleAllSucceeded
	// CyclePartialFailure means at least one fetch failed. Whatever did succeed was still merged.
	CyclePartialFailure
)

func (k CycleOutcomeKind) String() string {
	switch k {
	case CycleSkipped:
		return "skipped"
	case CycleAllSucceeded:
		return "all succeeded"
	case CyclePartialFailure:
		return "partial failure"
	default:
		return "unknown"
	}
}

// FetchCategory is a bit set naming the fetches that failed in a cycle.
type FetchCategory int

const (
	// FlagsCategory is the flags fetch.
	FlagsCategory FetchCategory = 1 << iota
	// SegmentsCategory is the segments fetch.
	SegmentsCategory
)

// Has returns true if c includes all bits of other.
func (c FetchCategory) Has(other FetchCategory) bool {
	return c&other == other
}

func (c FetchCategory) String() string {
	var names []string
	if c.Has(FlagsCategory) {
		names = append(names, "flags")
	}
	if c.Has(SegmentsCategory) {
		names = append(names, "segments")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// CycleOutcome is the result of one refresh cycle. It is never persisted.
type CycleOutcome struct {
	Kind CycleOutcomeKind

	// FlagsCount and SegmentsCount are the numbers of items merged. A failed category counts zero.
	FlagsCount    int
	SegmentsCount int

	// Failed and Cause are only set for CyclePartialFailure. When both fetches failed, Cause holds both
	// errors.
	Failed FetchCategory
	Cause  error

	flagsErr, segmentsErr error
}

// Message describes a failed cycle for an operator: which fetch failed, and why. It is empty for
// any other outcome.
func (o CycleOutcome) Message() string {
	if o.Kind != CyclePartialFailure {
		return ""
	}
	var parts []string
	if o.Failed.Has(FlagsCategory) {
		parts = append(parts, fmt.Sprintf("flags fetch failed: %s", o.flagsErr))
	}
	if o.Failed.Has(SegmentsCategory) {
		parts = append(parts, fmt.Sprintf("segments fetch failed: %s", o.segmentsErr))
	}
	return strings.Join(parts, "; ")
}

func (o CycleOutcome) String() string {
	switch o.Kind {
	case CycleAllSucceeded:
		return fmt.Sprintf("%s (%d flags, %d segments)", o.Kind, o.FlagsCount, o.SegmentsCount)
	case CyclePartialFailure:
		return fmt.Sprintf("%s (%s)", o.Kind, o.Message())
	default:
		return o.Kind.String()
	}
}
