package ffmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeatureConfigs(t *testing.T) {
	flags, err := ParseFeatureConfigs([]byte(`[
		{"feature": "a", "version": 1},
		{"feature": "b", "version": 2},
		{"version": 3},
		"not-an-object"
	]`))
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, "a", flags[0].Feature)
	assert.Equal(t, "b", flags[1].Feature)
	assert.Equal(t, int64(2), flags[1].Version)
}

func TestParseFeatureConfigsNull(t *testing.T) {
	flags, err := ParseFeatureConfigs([]byte(`null`))
	require.NoError(t, err)
	assert.Len(t, flags, 0)
}

func TestParseFeatureConfigsMalformed(t *testing.T) {
	_, err := ParseFeatureConfigs([]byte(`[{"feature": "a"`))
	assert.Error(t, err)

	_, err = ParseFeatureConfigs([]byte(`{"feature": "a"}`))
	assert.Error(t, err)
}

func TestParseSegments(t *testing.T) {
	segments, err := ParseSegments([]byte(`[
		{"identifier": "beta", "name": "Beta users", "version": 4, "included": [{"identifier": "u1"}]},
		{"name": "no identifier"}
	]`))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "beta", segments[0].Identifier)
	assert.Equal(t, int64(4), segments[0].Version)
	assert.Equal(t, "Beta users", segments[0].Payload.GetByKey("name").StringValue())
}
