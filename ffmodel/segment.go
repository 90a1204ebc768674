package ffmodel

import "github.com/launchdarkly/go-sdk-common/v3/ldvalue"

const identifierProperty = "identifier"

// Segment is a named group of targets, defined by explicit include/exclude lists and rules.
type Segment struct {
	// Identifier is the unique segment identifier.
	Identifier string
	// Version is the segment version reported by the service, or zero if it did not report one.
	Version int64
	// Payload is the complete segment object as received.
	Payload ldvalue.Value
}

// NewSegment builds a Segment from a parsed JSON object.
func NewSegment(payload ldvalue.Value) Segment {
	return Segment{
		Identifier: payload.GetByKey(identifierProperty).StringValue(),
		Version:    int64(payload.GetByKey(versionProperty).Float64Value()),
		Payload:    payload,
	}
}
