// Package datastore is an internal package containing the in-memory flag and segment repository
// that the polling engine writes into and evaluators read from. These types are not visible from
// outside of the SDK.
package datastore
