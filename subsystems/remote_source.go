package subsystems

import (
	"context"
	"fmt"

	"github.com/ffsync/go-server-sdk/ffmodel"
)

// RemoteSource supplies the current flags and segments for an environment and cluster.
//
// Each call is independent; the engine calls FetchFlags and FetchSegments concurrently. Any timeout
// belongs to the implementation. The context is cancelled when the engine is closed, and an
// implementation should give up at its next opportunity when that happens.
type RemoteSource interface {
	FetchFlags(ctx context.Context, environment, cluster string) ([]ffmodel.FeatureConfig, error)
	FetchSegments(ctx context.Context, environment, cluster string) ([]ffmodel.Segment, error)
}

// FetchError is the error type returned by the built-in RemoteSource implementations.
type FetchError struct {
	// Message describes the failure.
	Message string
	// StatusCode is the HTTP status of the response, or zero if there was no response.
	StatusCode int
	// Err is the underlying error, if any.
	Err error
}

// Error returns the message, followed by the underlying error if there is one.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}
