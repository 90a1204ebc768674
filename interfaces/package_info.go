// Package interfaces contains types that are part of the public API of the synchronization engine,
// but are not needed for basic use.
//
// Most applications only implement Notifier, to learn when the flag cache becomes ready and when a
// refresh fails. The state and status types are used by health checks and status listeners.
package interfaces
