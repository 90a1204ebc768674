package interfaces

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEngineStatusTypes(t *testing.T) {
	t.Run("status string representation", func(t *testing.T) {
		now := time.Now()

		s1 := EngineStatus{State: EngineStateRunningReady, StateSince: now}
		assert.Equal(t, "Status(RUNNING_READY,"+now.Format(time.RFC3339)+")", s1.String())

		e := EngineErrorInfo{Message: "flags fetch failed: boom", Time: now}
		s2 := EngineStatus{State: EngineStateRunningNotReady, StateSince: now, LastError: e}
		assert.Equal(t, "Status(RUNNING_NOT_READY,"+now.Format(time.RFC3339)+","+e.String()+")", s2.String())
	})

	t.Run("error string representation", func(t *testing.T) {
		now := time.Now()

		e1 := EngineErrorInfo{Message: "nope", Time: now}
		assert.Equal(t, "FETCH_FAILURE(nope)@"+now.Format(time.RFC3339), e1.String())

		e2 := EngineErrorInfo{Message: "timer died", Fatal: true, Time: now}
		assert.Equal(t, "SCHEDULING_FAULT(timer died)@"+now.Format(time.RFC3339), e2.String())
	})

	t.Run("state names", func(t *testing.T) {
		assert.Equal(t, "NOT_STARTED", EngineStateNotStarted.String())
		assert.Equal(t, "STOPPED", EngineStateStopped.String())
		assert.Equal(t, "UNKNOWN", EngineState(99).String())
		assert.True(t, EngineStateRunningReady.IsRunning())
		assert.False(t, EngineStateStopped.IsRunning())
	})
}

func TestNotifierFuncs(t *testing.T) {
	var ready bool
	var messages []string
	n := NotifierFuncs{
		Ready: func() { ready = true },
		Error: func(message string) { messages = append(messages, message) },
	}
	n.OnReady()
	n.OnError("a")
	assert.True(t, ready)
	assert.Equal(t, []string{"a"}, messages)

	assert.NotPanics(t, func() {
		NotifierFuncs{}.OnReady()
		NotifierFuncs{}.OnError("ignored")
		NoopNotifier{}.OnReady()
	})
}
