// Package datasource is an internal package containing the polling engine: the fetch coordinator
// that runs one refresh cycle, the scheduler that drives cycles and tracks readiness, and the HTTP
// implementation of the remote source. These types are not visible from outside of the SDK.
//
// The file-based remote source is in the fffiledata package.
package datasource
