// Package internal contains engine implementation details shared between packages: the HTTP client
// setup and the generic status broadcaster. The datasource subpackage holds the polling engine itself
// and datastore holds the in-memory repository.
package internal
