package sharedtest

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/ffsync/go-server-sdk/ffmodel"
)

// MakeFlag creates a flag with the given identifier and version. Each segment identifier is referenced
// through a segmentMatch rule clause.
func MakeFlag(identifier string, version int, segments ...string) ffmodel.FeatureConfig {
	b := ldvalue.ObjectBuild().
		Set("feature", ldvalue.String(identifier)).
		Set("version", ldvalue.Int(version)).
		Set("state", ldvalue.String("on")).
		Set("kind", ldvalue.String("boolean"))
	if len(segments) > 0 {
		values := ldvalue.ArrayBuild()
		for _, s := range segments {
			values.Add(ldvalue.String(s))
		}
		clause := ldvalue.ObjectBuild().
			Set("attribute", ldvalue.String("")).
			Set("op", ldvalue.String("segmentMatch")).
			Set("values", values.Build()).
			Build()
		rule := ldvalue.ObjectBuild().
			Set("ruleId", ldvalue.String(identifier+"-rule")).
			Set("clauses", ldvalue.ArrayOf(clause)).
			Build()
		b.Set("rules", ldvalue.ArrayOf(rule))
	}
	return ffmodel.NewFeatureConfig(b.Build())
}

// MakeSegment creates a segment with the given identifier and version.
func MakeSegment(identifier string, version int) ffmodel.Segment {
	return ffmodel.NewSegment(ldvalue.ObjectBuild().
		Set("identifier", ldvalue.String(identifier)).
		Set("name", ldvalue.String(identifier)).
		Set("version", ldvalue.Int(version)).
		Build())
}

// MakeFlags creates count flags named prefix-0, prefix-1, etc.
func MakeFlags(prefix string, count int) []ffmodel.FeatureConfig {
	ret := make([]ffmodel.FeatureConfig, 0, count)
	for i := 0; i < count; i++ {
		ret = append(ret, MakeFlag(fmt.Sprintf("%s-%d", prefix, i), 1))
	}
	return ret
}

// MakeSegments creates count segments named prefix-0, prefix-1, etc.
func MakeSegments(prefix string, count int) []ffmodel.Segment {
	ret := make([]ffmodel.Segment, 0, count)
	for i := 0; i < count; i++ {
		ret = append(ret, MakeSegment(fmt.Sprintf("%s-%d", prefix, i), 1))
	}
	return ret
}

// FlagsJSON renders flags as the JSON array that the remote service returns.
func FlagsJSON(flags ...ffmodel.FeatureConfig) []byte {
	values := ldvalue.ArrayBuild()
	for _, f := range flags {
		values.Add(f.Payload)
	}
	return []byte(values.Build().JSONString())
}

// SegmentsJSON renders segments as the JSON array that the remote service returns.
func SegmentsJSON(segments ...ffmodel.Segment) []byte {
	values := ldvalue.ArrayBuild()
	for _, s := range segments {
		values.Add(s.Payload)
	}
	return []byte(values.Build().JSONString())
}
