package datasource

import (
	"testing"
	"time"

	th "github.com/launchdarkly/go-test-helpers/v3"

	"github.com/ffsync/go-server-sdk/interfaces"
	"github.com/ffsync/go-server-sdk/internal/sharedtest"
	"github.com/ffsync/go-server-sdk/internal/sharedtest/mocks"
)

const (
	testEnvironment = "env-1"
	testCluster     = "1"
	testTimeout     = time.Second
)

func withMockSource(action func(*mocks.MockRemoteSource)) {
	source := mocks.NewMockRemoteSource()
	defer source.Close()
	action(source)
}

func newTestProcessor(
	source *mocks.MockRemoteSource,
	sink *mocks.CapturingCacheSink,
	notifier interfaces.Notifier,
	interval time.Duration,
) *PollingProcessor {
	return NewPollingProcessor(source, sink, notifier, PollingConfig{
		PollInterval: interval,
		Environment:  testEnvironment,
		Cluster:      testCluster,
	}, sharedtest.NewTestLoggers())
}

func requireReady(t *testing.T, notifier *mocks.CapturingNotifier) {
	th.RequireValue(t, notifier.ReadyCh, testTimeout, "timed out waiting for OnReady")
}

func requireError(t *testing.T, notifier *mocks.CapturingNotifier) string {
	return th.RequireValue(t, notifier.ErrorCh, testTimeout, "timed out waiting for OnError")
}
