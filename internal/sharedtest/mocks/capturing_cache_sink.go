package mocks

import (
	"sync"

	"github.com/ffsync/go-server-sdk/ffmodel"
)

// CapturingCacheSink is a CacheSink that keeps everything written to it and counts the writes.
type CapturingCacheSink struct {
	flags         map[string]ffmodel.FeatureConfig
	segments      map[string]ffmodel.Segment
	flagWrites    int
	segmentWrites int
	lock          sync.Mutex
}

// NewCapturingCacheSink creates a CapturingCacheSink.
func NewCapturingCacheSink() *CapturingCacheSink {
	return &CapturingCacheSink{
		flags:    make(map[string]ffmodel.FeatureConfig),
		segments: make(map[string]ffmodel.Segment),
	}
}

func (s *CapturingCacheSink) SetFlag(identifier string, flag ffmodel.FeatureConfig) { //nolint:revive
	s.lock.Lock()
	defer s.lock.Unlock()
	s.flags[identifier] = flag
	s.flagWrites++
}

func (s *CapturingCacheSink) SetSegment(identifier string, segment ffmodel.Segment) { //nolint:revive
	s.lock.Lock()
	defer s.lock.Unlock()
	s.segments[identifier] = segment
	s.segmentWrites++
}

// FlagKeys returns the identifiers of all flags written so far.
func (s *CapturingCacheSink) FlagKeys() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	ret := make([]string, 0, len(s.flags))
	for k := range s.flags {
		ret = append(ret, k)
	}
	return ret
}

// SegmentKeys returns the identifiers of all segments written so far.
func (s *CapturingCacheSink) SegmentKeys() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	ret := make([]string, 0, len(s.segments))
	for k := range s.segments {
		ret = append(ret, k)
	}
	return ret
}

// Writes returns the total number of SetFlag and SetSegment calls.
func (s *CapturingCacheSink) Writes() (flagWrites, segmentWrites int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.flagWrites, s.segmentWrites
}
