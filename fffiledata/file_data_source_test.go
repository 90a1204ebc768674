package fffiledata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"

	"github.com/ffsync/go-server-sdk/ffmodel"
	"github.com/ffsync/go-server-sdk/subsystems"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlData = `
---
flags:
  - feature: my-flag
    version: 2
    state: "on"
    rules:
      - ruleId: r1
        clauses:
          - op: segmentMatch
            values: [my-segment]
segments:
  - identifier: my-segment
    version: 3
`

const jsonData = `{
  "flags": [{"feature": "json-flag", "version": 1}],
  "segments": [{"identifier": "json-segment", "version": 1}],
  "comment": "ignored"
}`

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func createSource(t *testing.T, builder *DataSourceBuilder) (subsystems.RemoteSource, *ldlogtest.MockLog) {
	mockLog := ldlogtest.NewMockLog()
	source, err := builder.CreateRemoteSource(mockLog.Loggers)
	require.NoError(t, err)
	t.Cleanup(func() { _ = source.(*fileDataSource).Close() })
	return source, mockLog
}

func fetchAll(t *testing.T, source subsystems.RemoteSource) ([]ffmodel.FeatureConfig, []ffmodel.Segment) {
	flags, err := source.FetchFlags(context.Background(), "any-env", "any-cluster")
	require.NoError(t, err)
	segments, err := source.FetchSegments(context.Background(), "any-env", "any-cluster")
	require.NoError(t, err)
	return flags, segments
}

func TestFileDataSourceYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "flags.yaml", yamlData)
	source, _ := createSource(t, DataSource().FilePaths(path))

	flags, segments := fetchAll(t, source)
	require.Len(t, flags, 1)
	assert.Equal(t, "my-flag", flags[0].Feature)
	assert.Equal(t, int64(2), flags[0].Version)
	assert.Equal(t, []string{"my-segment"}, flags[0].SegmentReferences())
	require.Len(t, segments, 1)
	assert.Equal(t, "my-segment", segments[0].Identifier)
	assert.Equal(t, int64(3), segments[0].Version)
}

func TestFileDataSourceJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "flags.json", jsonData)
	source, _ := createSource(t, DataSource().FilePaths(path))

	flags, segments := fetchAll(t, source)
	require.Len(t, flags, 1)
	assert.Equal(t, "json-flag", flags[0].Feature)
	require.Len(t, segments, 1)
	assert.Equal(t, "json-segment", segments[0].Identifier)
}

func TestFileDataSourceCombinesMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	path1 := writeFile(t, dir, "a.yaml", yamlData)
	path2 := writeFile(t, dir, "b.json", jsonData)
	source, _ := createSource(t, DataSource().FilePaths(path1, path2))

	flags, segments := fetchAll(t, source)
	assert.Len(t, flags, 2)
	assert.Len(t, segments, 2)
}

func TestFileDataSourceDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	path1 := writeFile(t, dir, "a.json", `{"flags": [{"feature": "f", "version": 1}]}`)
	path2 := writeFile(t, dir, "b.json", `{"flags": [{"feature": "f", "version": 2}]}`)

	t.Run("fail by default", func(t *testing.T) {
		source, mockLog := createSource(t, DataSource().FilePaths(path1, path2))
		_, err := source.FetchFlags(context.Background(), "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flag 'f' is specified by multiple files")
		assert.Len(t, mockLog.GetOutput(ldlog.Error), 1)
	})

	t.Run("ignore all but first", func(t *testing.T) {
		source, _ := createSource(t, DataSource().FilePaths(path1, path2).
			DuplicateKeysHandling(DuplicateKeysIgnoreAllButFirst))
		flags, err := source.FetchFlags(context.Background(), "", "")
		require.NoError(t, err)
		require.Len(t, flags, 1)
		assert.Equal(t, int64(1), flags[0].Version)
	})
}

func TestFileDataSourceMissingFileIsFetchError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	source, _ := createSource(t, DataSource().FilePaths(path))

	_, err := source.FetchSegments(context.Background(), "", "")
	var fe *subsystems.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "unable to load flag data files", fe.Message)
	assert.Contains(t, err.Error(), "unable to read file")
}

func TestFileDataSourceMalformedData(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"bad.json": `{"flags": [`,
		"bad.yaml": "flags: [\n  - feature: x\n   bad indent",
	} {
		t.Run(name, func(t *testing.T) {
			source, _ := createSource(t, DataSource().FilePaths(writeFile(t, dir, name, content)))
			_, err := source.FetchFlags(context.Background(), "", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "error parsing file")
		})
	}
}

func TestFileDataSourceRereadsFilesWithoutReloader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flags.json", `{"flags": [{"feature": "f", "version": 1}]}`)
	source, _ := createSource(t, DataSource().FilePaths(path))

	flags, _ := fetchAll(t, source)
	assert.Equal(t, int64(1), flags[0].Version)

	writeFile(t, dir, "flags.json", `{"flags": [{"feature": "f", "version": 2}]}`)
	flags, _ = fetchAll(t, source)
	assert.Equal(t, int64(2), flags[0].Version)
}

func TestFileDataSourceUsesOneSnapshotPerCycle(t *testing.T) {
	dir := t.TempDir()
	write := func(version int) {
		writeFile(t, dir, "flags.yaml", fmt.Sprintf(
			"flags:\n  - feature: f\n    version: %d\nsegments:\n  - identifier: s\n    version: %d\n", version, version))
	}
	write(1)
	source, _ := createSource(t, DataSource().FilePaths(filepath.Join(dir, "flags.yaml")))
	ctx := context.Background()

	flags, err := source.FetchFlags(ctx, "", "")
	require.NoError(t, err)
	write(2)
	segments, err := source.FetchSegments(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), flags[0].Version)
	assert.Equal(t, int64(1), segments[0].Version, "segments should come from the same read as flags")

	segments, err = source.FetchSegments(ctx, "", "")
	require.NoError(t, err)
	flags, err = source.FetchFlags(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), segments[0].Version)
	assert.Equal(t, int64(2), flags[0].Version)
}

func TestFileDataSourceReadsFilesOncePerCycle(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flags.json", jsonData)
	source, _ := createSource(t, DataSource().FilePaths(path))

	_, err := source.FetchFlags(context.Background(), "", "")
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	segments, err := source.FetchSegments(context.Background(), "", "")
	require.NoError(t, err, "second half of the cycle should not read the file again")
	assert.Len(t, segments, 1)

	_, err = source.FetchFlags(context.Background(), "", "")
	assert.Error(t, err, "next cycle should read the file again")
}

func TestFileDataSourceCachesDataUntilReloaderSignals(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flags.json", `{"flags": [{"feature": "f", "version": 1}]}`)

	var filesChanged func([]string)
	var closeCh <-chan struct{}
	reloader := func(paths []string, loggers ldlog.Loggers, changed func([]string), ch <-chan struct{}) error {
		assert.Equal(t, []string{path}, paths)
		filesChanged, closeCh = changed, ch
		return nil
	}
	source, mockLog := createSource(t, DataSource().FilePaths(path).Reloader(reloader))
	require.NotNil(t, filesChanged)

	flags, _ := fetchAll(t, source)
	assert.Equal(t, int64(1), flags[0].Version)

	writeFile(t, dir, "flags.json", `{"flags": [{"feature": "f", "version": 2}]}`)
	flags, _ = fetchAll(t, source)
	assert.Equal(t, int64(1), flags[0].Version)

	filesChanged([]string{path})
	mockLog.AssertMessageMatch(t, true, ldlog.Info, "Data files changed")
	flags, _ = fetchAll(t, source)
	assert.Equal(t, int64(2), flags[0].Version)

	require.NoError(t, source.(*fileDataSource).Close())
	select {
	case <-closeCh:
	default:
		assert.Fail(t, "reloader close channel should be closed")
	}
}

func TestFileDataSourceFallsBackWhenReloaderFails(t *testing.T) {
	path := writeFile(t, t.TempDir(), "flags.json", jsonData)
	reloader := func([]string, ldlog.Loggers, func([]string), <-chan struct{}) error {
		return errors.New("sorry")
	}
	source, mockLog := createSource(t, DataSource().FilePaths(path).Reloader(reloader))

	assert.False(t, source.(*fileDataSource).watching)
	mockLog.AssertMessageMatch(t, true, ldlog.Error, "Unable to start reloader")
	flags, _ := fetchAll(t, source)
	assert.Len(t, flags, 1)
}

func TestFileDataSourceRequiresPaths(t *testing.T) {
	_, err := DataSource().CreateRemoteSource(ldlog.NewDisabledLoggers())
	assert.Error(t, err)
}

func TestDetectJSON(t *testing.T) {
	assert.True(t, detectJSON([]byte(" \n{}")))
	assert.False(t, detectJSON([]byte("---\nflags: []")))
}
