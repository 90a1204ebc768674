package fffiledata

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/ffsync/go-server-sdk/subsystems"
)

// ReloaderFactory is a function type used with DataSourceBuilder.Reloader, to specify a mechanism for
// detecting when data files should be reloaded. Its standard implementation is in the fffilewatch
// package.
//
// The factory receives the absolute paths of the data files. It should call filesChanged with the
// paths that may have changed, and stop when closeCh is closed. An error means the reloader could not
// be started; the source then reads the files on every poll.
type ReloaderFactory func(
	paths []string,
	loggers ldlog.Loggers,
	filesChanged func(paths []string),
	closeCh <-chan struct{},
) error

// DuplicateKeysHandling is a parameter type used with DataSourceBuilder.DuplicateKeysHandling.
type DuplicateKeysHandling string

const (
	// DuplicateKeysFail means that loading fails if an identifier appears in more than one file. This
	// is the default behavior.
	DuplicateKeysFail DuplicateKeysHandling = "fail"

	// DuplicateKeysIgnoreAllButFirst means that the first file to define an identifier wins.
	DuplicateKeysIgnoreAllButFirst DuplicateKeysHandling = "ignore"
)

// DataSourceBuilder is a builder for configuring the file-based remote source.
//
// Builder calls can be chained, for example:
//
//	config.RemoteSource = fffiledata.DataSource().FilePaths("file1").FilePaths("file2")
type DataSourceBuilder struct {
	filePaths             []string
	duplicateKeysHandling DuplicateKeysHandling
	reloaderFactory       ReloaderFactory
}

// DataSource returns a configurable builder for a file-based remote source.
func DataSource() *DataSourceBuilder {
	return &DataSourceBuilder{duplicateKeysHandling: DuplicateKeysFail}
}

// DuplicateKeysHandling specifies how to handle identifiers that are duplicated across files. An
// unrecognized value means DuplicateKeysFail.
func (b *DataSourceBuilder) DuplicateKeysHandling(duplicateKeysHandling DuplicateKeysHandling) *DataSourceBuilder {
	b.duplicateKeysHandling = duplicateKeysHandling
	return b
}

// FilePaths specifies the input data files. The paths may be any number of absolute or relative file
// paths.
func (b *DataSourceBuilder) FilePaths(paths ...string) *DataSourceBuilder {
	b.filePaths = append(b.filePaths, paths...)
	return b
}

// Reloader specifies a mechanism for reloading data files, normally fffilewatch.WatchFiles.
func (b *DataSourceBuilder) Reloader(reloaderFactory ReloaderFactory) *DataSourceBuilder {
	b.reloaderFactory = reloaderFactory
	return b
}

// CreateRemoteSource is called by the engine to create the source instance.
func (b *DataSourceBuilder) CreateRemoteSource(loggers ldlog.Loggers) (subsystems.RemoteSource, error) {
	fs, err := newFileDataSource(loggers, b.filePaths, b.duplicateKeysHandling, b.reloaderFactory)
	if err != nil {
		return nil, err
	}
	return fs, nil
}
