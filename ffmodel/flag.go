package ffmodel

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"golang.org/x/exp/slices"
)

const (
	segmentMatchOperator = "segmentMatch"

	featureProperty              = "feature"
	versionProperty              = "version"
	rulesProperty                = "rules"
	clausesProperty              = "clauses"
	opProperty                   = "op"
	valuesProperty               = "values"
	variationToTargetMapProperty = "variationToTargetMap"
	targetSegmentsProperty       = "targetSegments"
)

// FeatureConfig is the configuration of a single feature flag.
type FeatureConfig struct {
	// Feature is the flag identifier. It is unique within an environment and cluster.
	Feature string
	// Version is the flag version reported by the service, or zero if it did not report one.
	Version int64
	// Payload is the complete flag object as received.
	Payload ldvalue.Value
}

// NewFeatureConfig builds a FeatureConfig from a parsed JSON object. The identifier and version are
// taken from the "feature" and "version" properties.
func NewFeatureConfig(payload ldvalue.Value) FeatureConfig {
	return FeatureConfig{
		Feature: payload.GetByKey(featureProperty).StringValue(),
		Version: int64(payload.GetByKey(versionProperty).Float64Value()),
		Payload: payload,
	}
}

// SegmentReferences returns the identifiers of all segments this flag refers to, either through a
// rule clause using the segmentMatch operator or through the targetSegments of a variation target
// map. The result is sorted and has no duplicates.
func (f FeatureConfig) SegmentReferences() []string {
	seen := make(map[string]struct{})

	rules := f.Payload.GetByKey(rulesProperty)
	for i := 0; i < rules.Count(); i++ {
		clauses := rules.GetByIndex(i).GetByKey(clausesProperty)
		for j := 0; j < clauses.Count(); j++ {
			clause := clauses.GetByIndex(j)
			if clause.GetByKey(opProperty).StringValue() != segmentMatchOperator {
				continue
			}
			addStrings(seen, clause.GetByKey(valuesProperty))
		}
	}

	targetMaps := f.Payload.GetByKey(variationToTargetMapProperty)
	for i := 0; i < targetMaps.Count(); i++ {
		addStrings(seen, targetMaps.GetByIndex(i).GetByKey(targetSegmentsProperty))
	}

	if len(seen) == 0 {
		return nil
	}
	ret := make([]string, 0, len(seen))
	for id := range seen {
		ret = append(ret, id)
	}
	slices.Sort(ret)
	return ret
}

// ReferencesSegment returns true if SegmentReferences would include the given identifier.
func (f FeatureConfig) ReferencesSegment(identifier string) bool {
	_, found := slices.BinarySearch(f.SegmentReferences(), identifier)
	return found
}

func addStrings(into map[string]struct{}, values ldvalue.Value) {
	for i := 0; i < values.Count(); i++ {
		v := values.GetByIndex(i)
		if v.Type() == ldvalue.StringType && v.StringValue() != "" {
			into[v.StringValue()] = struct{}{}
		}
	}
}
