// Package ffmodel contains the data model for feature flags and target segments as they are
// delivered by the remote configuration service.
//
// The engine treats both types as opaque payloads: it only needs an identifier (to key the cache)
// and, for flags, the identifiers of the segments a flag refers to. Everything else is kept in the
// Payload value exactly as received so that an evaluator can interpret it later.
package ffmodel
