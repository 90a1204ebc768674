// Package subsystems contains interfaces for the components that the polling engine is built from:
// the remote source that supplies flags and segments, and the repository that caches them.
//
// Applications normally use the built-in implementations. These interfaces are exported so that a
// custom source or repository can be supplied in Config, for instance in tests.
package subsystems
