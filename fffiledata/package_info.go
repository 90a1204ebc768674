// Package fffiledata provides a RemoteSource that reads flags and segments from local files instead
// of the configuration service. It is meant for tests, demos and offline operation.
//
// To use it, set the configuration's RemoteSource field:
//
//	config := ffclient.Config{
//	    RemoteSource: fffiledata.DataSource().FilePaths("./testdata/flags.yaml"),
//	}
//
// Files may contain either JSON or YAML; if the first non-whitespace character is '{', the file is
// parsed as JSON, otherwise it is parsed as YAML. Each file is an object with up to two properties,
// "flags" and "segments", each holding an array in the same format the configuration service
// returns:
//
//	flags:
//	  - feature: dark-mode
//	    version: 1
//	    state: "on"
//	segments:
//	  - identifier: beta-users
//	    version: 1
//
// The environment and cluster passed to the fetch methods are ignored; every scope sees the same data.
//
// By default, the files are read again on every poll. With a reloader such as fffilewatch.WatchFiles,
// they are read once and then only when one of them changes.
package fffiledata
