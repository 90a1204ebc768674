package subsystems

import "github.com/launchdarkly/go-sdk-common/v3/ldlog"

// RemoteSourceFactory creates a RemoteSource when the engine is constructed.
//
// If the RemoteSource it returns also implements io.Closer, the engine closes it when the engine is
// closed.
type RemoteSourceFactory interface {
	CreateRemoteSource(loggers ldlog.Loggers) (RemoteSource, error)
}
