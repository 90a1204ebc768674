// Package fffilewatch lets the file-based remote source in fffiledata reread its files only when
// they change, instead of on every poll.
//
// It is a separate package so that the fsnotify dependency is only needed by applications that
// use it.
//
//	config.RemoteSource = fffiledata.DataSource().
//	    FilePaths("./testdata/flags.yaml").
//	    Reloader(fffilewatch.WatchFiles)
package fffilewatch
