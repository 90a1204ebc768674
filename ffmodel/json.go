package ffmodel

import (
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// ReadFeatureConfigs parses a JSON array of flag objects. A null value is treated as an empty list.
// Array elements that are not objects, or that have no "feature" identifier, are skipped. If the JSON
// is malformed, the error is available from r.Error() and the returned slice should be ignored.
func ReadFeatureConfigs(r *jreader.Reader) []FeatureConfig {
	var ret []FeatureConfig
	for _, payload := range readObjectArray(r) {
		flag := NewFeatureConfig(payload)
		if flag.Feature == "" {
			continue
		}
		ret = append(ret, flag)
	}
	return ret
}

// ReadSegments parses a JSON array of segment objects, with the same rules as ReadFeatureConfigs.
func ReadSegments(r *jreader.Reader) []Segment {
	var ret []Segment
	for _, payload := range readObjectArray(r) {
		segment := NewSegment(payload)
		if segment.Identifier == "" {
			continue
		}
		ret = append(ret, segment)
	}
	return ret
}

// ParseFeatureConfigs is a shortcut for calling ReadFeatureConfigs on a byte slice.
func ParseFeatureConfigs(data []byte) ([]FeatureConfig, error) {
	r := jreader.NewReader(data)
	ret := ReadFeatureConfigs(&r)
	if err := r.Error(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ParseSegments is a shortcut for calling ReadSegments on a byte slice.
func ParseSegments(data []byte) ([]Segment, error) {
	r := jreader.NewReader(data)
	ret := ReadSegments(&r)
	if err := r.Error(); err != nil {
		return nil, err
	}
	return ret, nil
}

func readObjectArray(r *jreader.Reader) []ldvalue.Value {
	var ret []ldvalue.Value
	for arr := r.ArrayOrNull(); arr.Next(); {
		var v ldvalue.Value
		v.ReadFromJSONReader(r)
		if r.Error() != nil {
			return nil
		}
		if v.Type() == ldvalue.ObjectType {
			ret = append(ret, v)
		}
	}
	return ret
}
