package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"golang.org/x/sync/errgroup"

	"github.com/ffsync/go-server-sdk/ffmodel"
	"github.com/ffsync/go-server-sdk/subsystems"
)

// FetchCoordinator performs one refresh cycle: it fetches flags and segments concurrently from a
// RemoteSource and merges whatever succeeded into a CacheSink.
type FetchCoordinator struct {
	source  subsystems.RemoteSource
	sink    subsystems.CacheSink
	loggers ldlog.Loggers
}

// NewFetchCoordinator creates a FetchCoordinator.
func NewFetchCoordinator(
	source subsystems.RemoteSource,
	sink subsystems.CacheSink,
	loggers ldlog.Loggers,
) *FetchCoordinator {
	return &FetchCoordinator{source: source, sink: sink, loggers: loggers}
}

// RunCycle runs one refresh cycle. It never returns an error or panics because of a fetch; all
// failure information is in the outcome.
//
// If environment and cluster are both blank, it does not call the source at all and returns a
// CycleSkipped outcome. Otherwise the two fetches run in parallel and RunCycle returns once both
// have finished. Each category is merged as soon as its own fetch succeeds, so a failure of one
// category never holds back fresh data for the other.
func (fc *FetchCoordinator) RunCycle(ctx context.Context, environment, cluster string) CycleOutcome {
	if isBlank(environment) && isBlank(cluster) {
		return CycleOutcome{Kind: CycleSkipped}
	}

	var outcome CycleOutcome
	var g errgroup.Group
	g.Go(func() error {
		outcome.FlagsCount, outcome.flagsErr = fc.retrieveFlags(ctx, environment, cluster)
		return outcome.flagsErr
	})
	g.Go(func() error {
		outcome.SegmentsCount, outcome.segmentsErr = fc.retrieveSegments(ctx, environment, cluster)
		return outcome.segmentsErr
	})
	_ = g.Wait() // both errors are kept in outcome; Wait only reports the first

	var errs *multierror.Error
	if outcome.flagsErr != nil {
		outcome.Failed |= FlagsCategory
		errs = multierror.Append(errs, outcome.flagsErr)
	}
	if outcome.segmentsErr != nil {
		outcome.Failed |= SegmentsCategory
		errs = multierror.Append(errs, outcome.segmentsErr)
	}
	if errs == nil {
		outcome.Kind = CycleAllSucceeded
		return outcome
	}
	errs.ErrorFormat = joinErrors
	outcome.Kind = CyclePartialFailure
	outcome.Cause = errs.ErrorOrNil()
	return outcome
}

func (fc *FetchCoordinator) retrieveFlags(ctx context.Context, environment, cluster string) (n int, err error) {
	defer recoverFetchPanic("flags", &err)
	if fc.loggers.IsDebugEnabled() {
		fc.loggers.Debug("Fetching flags started")
	}
	flags, err := fc.source.FetchFlags(ctx, environment, cluster)
	if err != nil {
		if fc.loggers.IsDebugEnabled() {
			fc.loggers.Debugf("Fetching flags failed: %s", err)
		}
		return 0, err
	}
	if fc.loggers.IsDebugEnabled() {
		fc.loggers.Debugf("Fetching flags finished (%d flags)", len(flags))
	}
	mergeFlags(fc.sink, flags)
	return len(flags), nil
}

func (fc *FetchCoordinator) retrieveSegments(ctx context.Context, environment, cluster string) (n int, err error) {
	defer recoverFetchPanic("segments", &err)
	if fc.loggers.IsDebugEnabled() {
		fc.loggers.Debug("Fetching segments started")
	}
	segments, err := fc.source.FetchSegments(ctx, environment, cluster)
	if err != nil {
		if fc.loggers.IsDebugEnabled() {
			fc.loggers.Debugf("Fetching segments failed: %s", err)
		}
		return 0, err
	}
	if fc.loggers.IsDebugEnabled() {
		fc.loggers.Debugf("Fetching segments finished (%d segments)", len(segments))
	}
	mergeSegments(fc.sink, segments)
	return len(segments), nil
}

func mergeFlags(sink subsystems.CacheSink, flags []ffmodel.FeatureConfig) {
	for _, f := range flags {
		sink.SetFlag(f.Feature, f)
	}
}

func mergeSegments(sink subsystems.CacheSink, segments []ffmodel.Segment) {
	for _, s := range segments {
		sink.SetSegment(s.Identifier, s)
	}
}

func recoverFetchPanic(category string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("unexpected panic while fetching %s: %v", category, r)
	}
}

func joinErrors(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
