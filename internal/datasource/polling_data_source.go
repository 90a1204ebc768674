package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/ffsync/go-server-sdk/interfaces"
	"github.com/ffsync/go-server-sdk/internal"
	"github.com/ffsync/go-server-sdk/subsystems"
)

const (
	pollingErrorContext     = "on polling request"
	pollingWillRetryMessage = "will retry at next scheduled poll interval"
)

// ErrSchedulingFault is wrapped by the error returned from PollingProcessor.Fault when the scheduling
// loop itself failed. No further refreshes happen after a scheduling fault.
var ErrSchedulingFault = errors.New("polling scheduler failed")

// PollingConfig describes the configuration for a polling processor.
type PollingConfig struct {
	// PollInterval is the delay between the end of one refresh cycle and the start of the next.
	PollInterval time.Duration
	// Environment and Cluster are the initial scope; either can be changed later.
	Environment string
	Cluster     string
}

// PollingProcessor drives refresh cycles on a fixed-delay schedule and tracks the engine state.
//
// The first cycle runs as soon as Start is called. After each cycle the processor waits
// PollInterval before starting the next one, so cycles never overlap: a cycle that takes longer than
// the interval just pushes the next one back.
type PollingProcessor struct {
	coordinator  *FetchCoordinator
	notifier     interfaces.Notifier
	pollInterval time.Duration
	loggers      ldlog.Loggers
	newTimer     func(time.Duration) *time.Timer

	scopeLock   sync.RWMutex
	environment string
	cluster     string

	stateLock     sync.Mutex
	status        interfaces.EngineStatus
	fault         error
	isInitialized atomic.Bool
	readyCh       chan struct{}

	broadcaster *internal.Broadcaster[interfaces.EngineStatus]
	ctx         context.Context
	cancel      context.CancelFunc
	quit        chan struct{}
	done        chan struct{}
	quitOnce    sync.Once
	doneOnce    sync.Once
}

// NewPollingProcessor creates a PollingProcessor. A nil notifier is replaced with one that does
// nothing.
func NewPollingProcessor(
	source subsystems.RemoteSource,
	sink subsystems.CacheSink,
	notifier interfaces.Notifier,
	cfg PollingConfig,
	loggers ldlog.Loggers,
) *PollingProcessor {
	if notifier == nil {
		notifier = interfaces.NoopNotifier{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PollingProcessor{
		coordinator:  NewFetchCoordinator(source, sink, loggers),
		notifier:     notifier,
		pollInterval: cfg.PollInterval,
		loggers:      loggers,
		newTimer:     time.NewTimer,
		environment:  cfg.Environment,
		cluster:      cfg.Cluster,
		status: interfaces.EngineStatus{
			State:      interfaces.EngineStateNotStarted,
			StateSince: time.Now(),
		},
		readyCh:     make(chan struct{}),
		broadcaster: internal.NewBroadcaster[interfaces.EngineStatus](),
		ctx:         ctx,
		cancel:      cancel,
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins polling. Calling it more than once, or after Stop, has no effect.
func (pp *PollingProcessor) Start() {
	pp.stateLock.Lock()
	state := pp.status.State
	if state != interfaces.EngineStateNotStarted {
		pp.stateLock.Unlock()
		pp.loggers.Warnf("Ignoring Start because the polling processor is already %s", state)
		return
	}
	status := pp.setStateLocked(interfaces.EngineStateRunningNotReady)
	pp.stateLock.Unlock()
	pp.broadcaster.Broadcast(status)

	pp.loggers.Infof("Starting polling with interval: %+v", pp.pollInterval)
	go pp.run()
}

// Stop asks the processor to stop polling. It does not wait: a cycle that is already running is
// allowed to finish, after which the state becomes Stopped and Done is closed. No cycle starts
// after Stop has been called. Calling Stop before Start moves straight to Stopped.
//
// Stop may safely be called from a Notifier callback.
func (pp *PollingProcessor) Stop() {
	pp.stateLock.Lock()
	neverStarted := pp.status.State == interfaces.EngineStateNotStarted
	var status interfaces.EngineStatus
	if neverStarted {
		status = pp.setStateLocked(interfaces.EngineStateStopped)
	}
	pp.stateLock.Unlock()

	pp.quitOnce.Do(func() {
		pp.loggers.Info("Stopping polling")
		close(pp.quit)
	})
	if neverStarted {
		pp.broadcaster.Broadcast(status)
		pp.closeDone()
	}
}

// Close stops the processor, abandons any fetch in progress, and waits for the scheduling goroutine
// to exit. It must not be called from a Notifier callback.
func (pp *PollingProcessor) Close() error {
	pp.Stop()
	pp.cancel()
	<-pp.done
	pp.broadcaster.Close()
	pp.loggers.Info("Closed polling processor")
	return nil
}

// Done returns a channel that is closed once the processor has reached the Stopped state.
func (pp *PollingProcessor) Done() <-chan struct{} {
	return pp.done
}

// State returns the current lifecycle state.
func (pp *PollingProcessor) State() interfaces.EngineState {
	pp.stateLock.Lock()
	defer pp.stateLock.Unlock()
	return pp.status.State
}

// GetStatus returns the current status.
func (pp *PollingProcessor) GetStatus() interfaces.EngineStatus {
	pp.stateLock.Lock()
	defer pp.stateLock.Unlock()
	return pp.status
}

// IsInitialized returns true once a cycle has fetched both flags and segments successfully. It stays
// true for the rest of the processor's lifetime, even after Stop.
func (pp *PollingProcessor) IsInitialized() bool {
	return pp.isInitialized.Load()
}

// WaitForReady blocks until the processor is initialized, the processor stops, or the timeout
// expires, and returns IsInitialized. A timeout of zero or less means no timeout.
func (pp *PollingProcessor) WaitForReady(timeout time.Duration) bool {
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case <-pp.readyCh:
	case <-pp.done:
	case <-timeoutCh:
	}
	return pp.IsInitialized()
}

// Fault returns the error that stopped the scheduling loop, or nil. Any non-nil value wraps
// ErrSchedulingFault.
func (pp *PollingProcessor) Fault() error {
	pp.stateLock.Lock()
	defer pp.stateLock.Unlock()
	return pp.fault
}

// AddStatusListener subscribes to status changes.
func (pp *PollingProcessor) AddStatusListener() <-chan interfaces.EngineStatus {
	return pp.broadcaster.AddListener()
}

// RemoveStatusListener unsubscribes a channel returned by AddStatusListener.
func (pp *PollingProcessor) RemoveStatusListener(ch <-chan interfaces.EngineStatus) {
	pp.broadcaster.RemoveListener(ch)
}

// SetEnvironment changes the environment used by subsequent cycles.
func (pp *PollingProcessor) SetEnvironment(environment string) {
	pp.scopeLock.Lock()
	pp.environment = environment
	pp.scopeLock.Unlock()
}

// SetCluster changes the cluster used by subsequent cycles.
func (pp *PollingProcessor) SetCluster(cluster string) {
	pp.scopeLock.Lock()
	pp.cluster = cluster
	pp.scopeLock.Unlock()
}

// GetPollInterval returns the configured polling interval, for testing.
func (pp *PollingProcessor) GetPollInterval() time.Duration {
	return pp.pollInterval
}

func (pp *PollingProcessor) scope() (environment, cluster string) {
	pp.scopeLock.RLock()
	defer pp.scopeLock.RUnlock()
	return pp.environment, pp.cluster
}

func (pp *PollingProcessor) run() {
	defer pp.finish()
	defer pp.recoverSchedulingFault()

	for {
		select {
		case <-pp.quit:
			return
		default:
		}

		pp.poll()

		timer := pp.newTimer(pp.pollInterval)
		select {
		case <-pp.quit:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (pp *PollingProcessor) poll() {
	environment, cluster := pp.scope()
	if pp.loggers.IsDebugEnabled() {
		pp.loggers.Debugf("Running poll iteration for environment %q, cluster %q", environment, cluster)
	}

	outcome := pp.coordinator.RunCycle(pp.ctx, environment, cluster)

	switch outcome.Kind {
	case CycleSkipped:
		pp.loggers.Warn("Environment and cluster are both missing; skipping this poll")

	case CycleAllSucceeded:
		if pp.loggers.IsDebugEnabled() {
			pp.loggers.Debugf("Poll finished: %s", outcome)
		}
		if pp.markReady() {
			pp.loggers.Info("First polling request successful")
			pp.notify(pp.notifier.OnReady)
		}

	case CyclePartialFailure:
		if pp.ctx.Err() != nil {
			pp.loggers.Debug("Poll abandoned because the processor was closed")
			return
		}
		message := outcome.Message()
		logCycleFailure(pp.loggers, message, outcome.Cause, pollingWillRetryMessage)
		pp.recordError(message, false)
		pp.notify(func() { pp.notifier.OnError(message) })
	}
}

func (pp *PollingProcessor) markReady() bool {
	pp.stateLock.Lock()
	if pp.status.State != interfaces.EngineStateRunningNotReady || !pp.isInitialized.CompareAndSwap(false, true) {
		pp.stateLock.Unlock()
		return false
	}
	status := pp.setStateLocked(interfaces.EngineStateRunningReady)
	close(pp.readyCh)
	pp.stateLock.Unlock()
	pp.broadcaster.Broadcast(status)
	return true
}

func (pp *PollingProcessor) recordError(message string, fatal bool) {
	pp.stateLock.Lock()
	pp.status.LastError = interfaces.EngineErrorInfo{Message: message, Fatal: fatal, Time: time.Now()}
	status := pp.status
	pp.stateLock.Unlock()
	pp.broadcaster.Broadcast(status)
}

// Runs a Notifier callback. A panicking callback must not take the scheduling loop down with it.
func (pp *PollingProcessor) notify(callback func()) {
	defer func() {
		if r := recover(); r != nil {
			pp.loggers.Errorf("Unexpected panic in notifier callback: %v", r)
		}
	}()
	callback()
}

func (pp *PollingProcessor) recoverSchedulingFault() {
	r := recover()
	if r == nil {
		return
	}
	err := fmt.Errorf("%w: %v", ErrSchedulingFault, r)
	pp.loggers.Errorf("Polling has stopped permanently and the flag cache will no longer be refreshed: %s", err)
	pp.stateLock.Lock()
	pp.fault = err
	pp.stateLock.Unlock()
	pp.recordError(err.Error(), true)
	pp.notify(func() { pp.notifier.OnError(err.Error()) })
}

func (pp *PollingProcessor) finish() {
	pp.stateLock.Lock()
	status := pp.setStateLocked(interfaces.EngineStateStopped)
	pp.stateLock.Unlock()
	pp.broadcaster.Broadcast(status)
	pp.loggers.Info("Polling stopped")
	pp.closeDone()
}

func (pp *PollingProcessor) closeDone() {
	pp.doneOnce.Do(func() { close(pp.done) })
}

// Must be called with stateLock held. Returns the new status so that it can be broadcast after the
// lock is released.
func (pp *PollingProcessor) setStateLocked(state interfaces.EngineState) interfaces.EngineStatus {
	if pp.status.State != state {
		pp.status.State = state
		pp.status.StateSince = time.Now()
	}
	return pp.status
}
