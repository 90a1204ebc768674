package datastore

import (
	"sync"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/exp/slices"

	"github.com/ffsync/go-server-sdk/ffmodel"
	"github.com/ffsync/go-server-sdk/subsystems"
)

// DefaultSegmentIndexTTL is how long a FindFlagsBySegment result may be reused when no flag has
// changed in the meantime.
const DefaultSegmentIndexTTL = 5 * time.Minute

// inMemoryRepository is a memory based Repository implementation.
//
// Implementation notes:
//
// As in the rest of the SDK's hot read paths, the lock is not managed with defer: each method has a
// single return point and nothing between Lock and Unlock can panic.
//
// FindFlagsBySegment has to scan every flag, so its results are memoized in segmentIndex. Any write
// to a flag flushes the whole memo, since one flag can change the answer for any number of segments.
// Segment writes don't affect it.
type inMemoryRepository struct {
	flags        map[string]ffmodel.FeatureConfig
	segments     map[string]ffmodel.Segment
	segmentIndex *cache.Cache
	lock         sync.RWMutex
	loggers      ldlog.Loggers
}

// NewInMemoryRepository creates an instance of the in-memory repository. A non-positive indexTTL
// selects DefaultSegmentIndexTTL.
func NewInMemoryRepository(loggers ldlog.Loggers, indexTTL time.Duration) subsystems.Repository {
	if indexTTL <= 0 {
		indexTTL = DefaultSegmentIndexTTL
	}
	return &inMemoryRepository{
		flags:        make(map[string]ffmodel.FeatureConfig),
		segments:     make(map[string]ffmodel.Segment),
		segmentIndex: cache.New(indexTTL, 2*indexTTL),
		loggers:      loggers,
	}
}

func (r *inMemoryRepository) SetFlag(identifier string, flag ffmodel.FeatureConfig) {
	r.lock.Lock()
	r.flags[identifier] = flag
	r.segmentIndex.Flush()
	r.lock.Unlock()
}

func (r *inMemoryRepository) SetSegment(identifier string, segment ffmodel.Segment) {
	r.lock.Lock()
	r.segments[identifier] = segment
	r.lock.Unlock()
}

func (r *inMemoryRepository) GetFlag(identifier string) (ffmodel.FeatureConfig, bool) {
	r.lock.RLock()
	flag, ok := r.flags[identifier]
	r.lock.RUnlock()

	if !ok && r.loggers.IsDebugEnabled() {
		r.loggers.Debugf(`Flag "%s" not found`, identifier)
	}
	return flag, ok
}

func (r *inMemoryRepository) GetSegment(identifier string) (ffmodel.Segment, bool) {
	r.lock.RLock()
	segment, ok := r.segments[identifier]
	r.lock.RUnlock()

	if !ok && r.loggers.IsDebugEnabled() {
		r.loggers.Debugf(`Segment "%s" not found`, identifier)
	}
	return segment, ok
}

func (r *inMemoryRepository) FindFlagsBySegment(identifier string) []string {
	// The read lock is held across the memo lookup and the scan, so that a concurrent SetFlag can't
	// flush the memo between our scan and our Set and leave a stale entry behind.
	r.lock.RLock()

	var ret []string
	if cached, ok := r.segmentIndex.Get(identifier); ok {
		ret = cached.([]string)
	} else {
		for id, flag := range r.flags {
			if flag.ReferencesSegment(identifier) {
				ret = append(ret, id)
			}
		}
		slices.Sort(ret)
		r.segmentIndex.SetDefault(identifier, ret)
	}

	r.lock.RUnlock()

	return slices.Clone(ret)
}

func (r *inMemoryRepository) Close() error {
	r.lock.Lock()
	r.flags = make(map[string]ffmodel.FeatureConfig)
	r.segments = make(map[string]ffmodel.Segment)
	r.segmentIndex.Flush()
	r.lock.Unlock()
	return nil
}
