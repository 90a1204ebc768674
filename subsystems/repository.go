package subsystems

import "github.com/ffsync/go-server-sdk/ffmodel"

// CacheSink is the write side of the flag cache. Every call replaces at most one entry and must be
// atomic for that entry, since readers may query the cache while a refresh is being merged.
type CacheSink interface {
	SetFlag(identifier string, flag ffmodel.FeatureConfig)
	SetSegment(identifier string, segment ffmodel.Segment)
}

// Query is the read side of the flag cache, used by evaluators. A missing identifier is reported
// with a false return value or an empty list, never an error.
type Query interface {
	GetFlag(identifier string) (ffmodel.FeatureConfig, bool)
	GetSegment(identifier string) (ffmodel.Segment, bool)

	// FindFlagsBySegment returns the identifiers of all cached flags that refer to the segment, in
	// sorted order.
	FindFlagsBySegment(identifier string) []string
}

// Repository is the complete flag cache. Entries are only ever added or replaced; Close discards
// everything.
type Repository interface {
	CacheSink
	Query
	Close() error
}
