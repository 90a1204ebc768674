package ffclient

import (
	"io"
	"sync"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/ffsync/go-server-sdk/interfaces"
	"github.com/ffsync/go-server-sdk/internal"
	"github.com/ffsync/go-server-sdk/internal/datasource"
	"github.com/ffsync/go-server-sdk/internal/datastore"
	"github.com/ffsync/go-server-sdk/subsystems"
)

// Engine keeps a local cache of flags and segments synchronized with the configuration service.
//
// An Engine does nothing until Start is called. It is safe for concurrent use, except that Close must
// not be called from within a Notifier callback.
type Engine struct {
	processor      *datasource.PollingProcessor
	repository     subsystems.Repository
	ownsRepository bool
	source         subsystems.RemoteSource
	loggers        ldlog.Loggers
	closeOnce      sync.Once
	closeErr       error
}

// New creates an Engine. The notifier receives the engine's readiness and error callbacks; it may be
// nil.
//
// New returns an error only if the configuration is invalid, for instance if BaseURI is not an
// absolute URI or the proxy settings cannot be used.
func New(config Config, notifier interfaces.Notifier) (*Engine, error) {
	loggers := config.loggers()

	var source subsystems.RemoteSource
	if config.RemoteSource != nil {
		s, err := config.RemoteSource.CreateRemoteSource(loggers)
		if err != nil {
			return nil, err
		}
		source = s
	} else {
		s, err := newHTTPSource(config, loggers)
		if err != nil {
			return nil, err
		}
		source = s
	}

	e := &Engine{
		repository: config.Repository,
		source:     source,
		loggers:    loggers,
	}
	if e.repository == nil {
		e.repository = datastore.NewInMemoryRepository(loggers, datastore.DefaultSegmentIndexTTL)
		e.ownsRepository = true
	}

	pollInterval := config.pollInterval(loggers)
	e.processor = datasource.NewPollingProcessor(
		source,
		e.repository,
		notifier,
		datasource.PollingConfig{
			PollInterval: pollInterval,
			Environment:  config.Environment,
			Cluster:      config.Cluster,
		},
		loggers,
	)
	loggers.Infof("Engine created with poll interval %s", pollInterval)
	return e, nil
}

func newHTTPSource(config Config, loggers ldlog.Loggers) (*datasource.HTTPRemoteSource, error) {
	baseURI, err := config.baseURI()
	if err != nil {
		return nil, err
	}
	opts := internal.HTTPOptions{
		Timeout:  config.HTTP.Timeout,
		ProxyURL: config.HTTP.ProxyURL,
	}
	if n := config.HTTP.NTLM; n != nil {
		opts.NTLMUsername = n.Username
		opts.NTLMPassword = n.Password
		opts.NTLMDomain = n.Domain
	}
	client, err := internal.NewHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	return datasource.NewHTTPRemoteSource(client, baseURI, config.Headers, config.HTTPCacheSize, loggers), nil
}

// Start begins refreshing. The first refresh starts immediately. Calling Start more than once, or after
// Stop or Close, has no effect.
func (e *Engine) Start() {
	e.processor.Start()
}

// Stop ends refreshing. It does not wait for a refresh in progress to finish; the state becomes
// Stopped once it has. Stop may be called from a Notifier callback.
func (e *Engine) Stop() {
	e.processor.Stop()
}

// Close stops the engine, abandons any refresh in progress, waits for the polling goroutine to exit,
// and releases the engine's resources. Cached data is discarded unless the repository was provided
// through Config.Repository.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		_ = e.processor.Close()
		if c, ok := e.source.(io.Closer); ok {
			if err := c.Close(); err != nil {
				e.closeErr = err
			}
		}
		if e.ownsRepository {
			if err := e.repository.Close(); err != nil && e.closeErr == nil {
				e.closeErr = err
			}
		}
		e.loggers.Info("Engine closed")
	})
	return e.closeErr
}

// State returns the current engine state.
func (e *Engine) State() interfaces.EngineState {
	return e.processor.State()
}

// GetStatus returns the current engine state along with the most recent error.
func (e *Engine) GetStatus() interfaces.EngineStatus {
	return e.processor.GetStatus()
}

// IsReady returns true once a refresh has fetched both flags and segments successfully.
func (e *Engine) IsReady() bool {
	return e.processor.IsInitialized()
}

// WaitForReady blocks until the engine is ready, it stops, or the timeout expires, and returns
// IsReady(). A timeout of zero or less waits indefinitely.
func (e *Engine) WaitForReady(timeout time.Duration) bool {
	return e.processor.WaitForReady(timeout)
}

// SetEnvironment changes the environment used from the next refresh on.
func (e *Engine) SetEnvironment(environment string) {
	e.processor.SetEnvironment(environment)
}

// SetCluster changes the cluster used from the next refresh on.
func (e *Engine) SetCluster(cluster string) {
	e.processor.SetCluster(cluster)
}

// Query returns read access to the cached flags and segments.
func (e *Engine) Query() subsystems.Query {
	return e.repository
}

// AddStatusListener returns a channel that receives the engine status whenever it changes or a refresh
// fails. The channel has a small buffer; a listener that falls behind misses updates.
func (e *Engine) AddStatusListener() <-chan interfaces.EngineStatus {
	return e.processor.AddStatusListener()
}

// RemoveStatusListener unregisters a channel returned by AddStatusListener.
func (e *Engine) RemoveStatusListener(ch <-chan interfaces.EngineStatus) {
	e.processor.RemoveStatusListener(ch)
}

// PollInterval returns the effective poll interval.
func (e *Engine) PollInterval() time.Duration {
	return e.processor.GetPollInterval()
}
