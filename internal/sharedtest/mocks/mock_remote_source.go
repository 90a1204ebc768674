package mocks

import (
	"context"
	"sync"

	"github.com/ffsync/go-server-sdk/ffmodel"
)

// FlagsResponse is a canned result for MockRemoteSource.FetchFlags.
type FlagsResponse struct {
	Flags []ffmodel.FeatureConfig
	Err   error
}

// SegmentsResponse is a canned result for MockRemoteSource.FetchSegments.
type SegmentsResponse struct {
	Segments []ffmodel.Segment
	Err      error
}

// FetchCall records the parameters of one fetch.
type FetchCall struct {
	Environment string
	Cluster     string
}

// MockRemoteSource is a channel-driven RemoteSource. Each fetch is recorded on the corresponding
// calls channel and then blocks until a response is pushed onto the response channel, the context
// is cancelled, or the mock is closed.
type MockRemoteSource struct {
	FlagsRespCh    chan FlagsResponse
	SegmentsRespCh chan SegmentsResponse
	FlagCallsCh    chan FetchCall
	SegmentCallsCh chan FetchCall
	closerCh       chan struct{}
	closeOnce      sync.Once

	lock              sync.Mutex
	active            int
	maxActive         int
	activeFlags       int
	maxActiveFlags    int
	activeSegments    int
	maxActiveSegments int
}

// NewMockRemoteSource creates a MockRemoteSource.
func NewMockRemoteSource() *MockRemoteSource {
	return &MockRemoteSource{
		FlagsRespCh:    make(chan FlagsResponse, 100),
		SegmentsRespCh: make(chan SegmentsResponse, 100),
		FlagCallsCh:    make(chan FetchCall, 100),
		SegmentCallsCh: make(chan FetchCall, 100),
		closerCh:       make(chan struct{}),
	}
}

// Close unblocks any pending fetches, which then return no data and no error.
func (m *MockRemoteSource) Close() {
	m.closeOnce.Do(func() { close(m.closerCh) })
}

// Respond queues one response for each category.
func (m *MockRemoteSource) Respond(flags FlagsResponse, segments SegmentsResponse) {
	m.FlagsRespCh <- flags
	m.SegmentsRespCh <- segments
}

func (m *MockRemoteSource) FetchFlags( //nolint:revive
	ctx context.Context,
	environment, cluster string,
) ([]ffmodel.FeatureConfig, error) {
	m.enter(&m.activeFlags, &m.maxActiveFlags)
	defer m.exit(&m.activeFlags)
	m.FlagCallsCh <- FetchCall{Environment: environment, Cluster: cluster}
	select {
	case resp := <-m.FlagsRespCh:
		return resp.Flags, resp.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closerCh:
		return nil, nil
	}
}

func (m *MockRemoteSource) FetchSegments( //nolint:revive
	ctx context.Context,
	environment, cluster string,
) ([]ffmodel.Segment, error) {
	m.enter(&m.activeSegments, &m.maxActiveSegments)
	defer m.exit(&m.activeSegments)
	m.SegmentCallsCh <- FetchCall{Environment: environment, Cluster: cluster}
	select {
	case resp := <-m.SegmentsRespCh:
		return resp.Segments, resp.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closerCh:
		return nil, nil
	}
}

// MaxConcurrentFetches returns the largest number of fetches of any kind that were in progress at
// the same time.
func (m *MockRemoteSource) MaxConcurrentFetches() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.maxActive
}

// MaxConcurrentFlagFetches returns the largest number of flag fetches that were in progress at the
// same time. More than one means two cycles overlapped.
func (m *MockRemoteSource) MaxConcurrentFlagFetches() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.maxActiveFlags
}

// MaxConcurrentSegmentFetches is the segment counterpart of MaxConcurrentFlagFetches.
func (m *MockRemoteSource) MaxConcurrentSegmentFetches() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.maxActiveSegments
}

func (m *MockRemoteSource) enter(kindActive, kindMax *int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	*kindActive++
	if *kindActive > *kindMax {
		*kindMax = *kindActive
	}
}

func (m *MockRemoteSource) exit(kindActive *int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.active--
	*kindActive--
}

// RemoteSourceFuncs is a RemoteSource built from two functions, for tests that don't need to control
// timing. A nil function returns no data.
type RemoteSourceFuncs struct {
	Flags    func(environment, cluster string) ([]ffmodel.FeatureConfig, error)
	Segments func(environment, cluster string) ([]ffmodel.Segment, error)
}

func (r RemoteSourceFuncs) FetchFlags( //nolint:revive
	_ context.Context,
	environment, cluster string,
) ([]ffmodel.FeatureConfig, error) {
	if r.Flags == nil {
		return nil, nil
	}
	return r.Flags(environment, cluster)
}

func (r RemoteSourceFuncs) FetchSegments( //nolint:revive
	_ context.Context,
	environment, cluster string,
) ([]ffmodel.Segment, error) {
	if r.Segments == nil {
		return nil, nil
	}
	return r.Segments(environment, cluster)
}
