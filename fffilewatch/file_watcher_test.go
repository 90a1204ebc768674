package fffilewatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	th "github.com/launchdarkly/go-test-helpers/v3"

	"github.com/ffsync/go-server-sdk/fffiledata"
	"github.com/ffsync/go-server-sdk/subsystems"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 3 * time.Second

func replaceFileContents(t *testing.T, filename string, text string) {
	require.NoError(t, os.WriteFile(filename, []byte(text), 0600))
}

func flagVersion(source subsystems.RemoteSource, key string) int64 {
	flags, err := source.FetchFlags(context.Background(), "", "")
	if err != nil {
		return -1
	}
	for _, f := range flags {
		if f.Feature == key {
			return f.Version
		}
	}
	return 0
}

func createWatchedSource(t *testing.T, filename string) subsystems.RemoteSource {
	source, err := fffiledata.DataSource().
		FilePaths(filename).
		Reloader(WatchFiles).
		CreateRemoteSource(ldlogtest.NewMockLog().Loggers)
	require.NoError(t, err)
	t.Cleanup(func() {
		if c, ok := source.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	})
	return source
}

// Starts a watcher whose reports go to the returned channel. The watcher is stopped at cleanup.
func watch(t *testing.T, paths ...string) <-chan []string {
	changes := make(chan []string, 10)
	closeCh := make(chan struct{})
	require.NoError(t, WatchFiles(paths, ldlog.NewDisabledLoggers(), func(p []string) { changes <- p }, closeCh))
	t.Cleanup(func() { close(closeCh) })
	return changes
}

func TestWatchedSourceRereadsModifiedFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "flags.yaml")
	replaceFileContents(t, filename, "flags:\n  - feature: my-flag\n    version: 1\n")

	source := createWatchedSource(t, filename)
	assert.Equal(t, int64(1), flagVersion(source, "my-flag"))

	replaceFileContents(t, filename, "flags:\n  - feature: my-flag\n    version: 2\n")
	require.Eventually(t, func() bool { return flagVersion(source, "my-flag") == 2 }, testTimeout, 50*time.Millisecond)
}

func TestWatchedSourceFileMayBeCreatedLater(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "flags.yaml")

	source := createWatchedSource(t, filename)
	assert.Equal(t, int64(-1), flagVersion(source, "my-flag"))

	replaceFileContents(t, filename, "flags:\n  - feature: my-flag\n    version: 5\n")
	require.Eventually(t, func() bool { return flagVersion(source, "my-flag") == 5 }, testTimeout, 50*time.Millisecond)
}

func TestWatchFilesReportsBurstOnce(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "flags.yaml")
	replaceFileContents(t, filename, "flags: []\n")
	changes := watch(t, filename)

	for i := 0; i < 5; i++ {
		replaceFileContents(t, filename, "flags: []\n# edit\n")
	}

	assert.Equal(t, []string{filename}, th.RequireValue(t, changes, testTimeout))
	th.AssertNoMoreValues(t, changes, 3*settleDelay)
}

func TestWatchFilesReportsOnlyChangedDataFiles(t *testing.T) {
	dir := t.TempDir()
	file1 := filepath.Join(dir, "a.yaml")
	file2 := filepath.Join(dir, "b.yaml")
	replaceFileContents(t, file1, "flags: []\n")
	replaceFileContents(t, file2, "flags: []\n")
	changes := watch(t, file1, file2)

	replaceFileContents(t, filepath.Join(dir, "unrelated.txt"), "x")
	th.AssertNoMoreValues(t, changes, 3*settleDelay)

	replaceFileContents(t, file2, "segments: []\n")
	assert.Equal(t, []string{file2}, th.RequireValue(t, changes, testTimeout))
}

func TestWatchFilesWaitsForMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "later")
	filename := filepath.Join(dir, "flags.yaml")
	changes := watch(t, filename)

	require.NoError(t, os.Mkdir(dir, 0700))
	replaceFileContents(t, filename, "flags: []\n")

	assert.Equal(t, []string{filename}, th.RequireValue(t, changes, testTimeout))
}

func TestWatchFilesStopsWhenClosed(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "flags.yaml")
	replaceFileContents(t, filename, "flags: []\n")

	changes := make(chan []string, 10)
	closeCh := make(chan struct{})
	require.NoError(t, WatchFiles([]string{filename}, ldlog.NewDisabledLoggers(), func(p []string) { changes <- p }, closeCh))
	close(closeCh)
	time.Sleep(50 * time.Millisecond)

	replaceFileContents(t, filename, "flags: [{feature: x}]\n")
	th.AssertNoMoreValues(t, changes, 3*settleDelay)
}
