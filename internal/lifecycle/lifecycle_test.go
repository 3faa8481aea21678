package lifecycle

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/laserdata/laser-api/pkg/logger"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

// fakeSignals replaces signal.Notify so tests can deliver signals directly.
type fakeSignals struct {
	mu         sync.Mutex
	ch         chan<- os.Signal
	registered []os.Signal
	ready      chan struct{}
}

func newFakeSignals() *fakeSignals { return &fakeSignals{ready: make(chan struct{})} }

func (f *fakeSignals) notify(c chan<- os.Signal, sig ...os.Signal) {
	f.mu.Lock()
	f.ch, f.registered = c, sig
	f.mu.Unlock()
	close(f.ready)
}

func (f *fakeSignals) send(sig os.Signal) {
	<-f.ready
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch <- sig
}

// exitRecord captures the exit code and what the sink held at exit time.
type exitRecord struct {
	code    int
	flushed string
}

func newTestHandler(t *testing.T, out *lockedBuffer, sigs *fakeSignals) (*Handler, chan exitRecord) {
	t.Helper()
	// buffered so records only reach out on Flush
	log, err := logger.New(logger.Config{Level: "info", FlushInterval: time.Hour, Output: out})
	require.NoError(t, err)
	t.Cleanup(log.Close)

	h := New(log, SignalsFor(true), time.Second)
	h.notify = sigs.notify
	h.stop = func(chan<- os.Signal) {}
	exits := make(chan exitRecord, 1)
	h.exit = func(code int) {
		exits <- exitRecord{code: code, flushed: out.String()}
	}
	return h, exits
}

func TestSignalsFor(t *testing.T) {
	require.Equal(t, []os.Signal{syscall.SIGTERM}, SignalsFor(true))
	require.Equal(t, []os.Signal{os.Interrupt}, SignalsFor(false))
}

func TestRun_SignalFlushesAndExitsZero(t *testing.T) {
	out := &lockedBuffer{}
	sigs := newFakeSignals()
	h, exits := newTestHandler(t, out, sigs)

	var order []string
	var bounded bool
	h.OnShutdown("http", func(ctx context.Context) error {
		order = append(order, "http")
		_, bounded = ctx.Deadline()
		return nil
	})
	h.OnShutdown("mongo", func(ctx context.Context) error {
		order = append(order, "mongo")
		return errors.New("already closed")
	})
	require.Equal(t, Running, h.State())

	done := make(chan error, 1)
	go func() { done <- h.Run(context.Background()) }()
	sigs.send(syscall.SIGTERM)

	select {
	case rec := <-exits:
		require.Equal(t, 0, rec.code)
		require.Contains(t, rec.flushed, "Caught Signal SIGTERM", "logger must be flushed before exit")
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit")
	}
	require.NoError(t, <-done)
	require.Equal(t, Terminated, h.State())
	require.Equal(t, []os.Signal{syscall.SIGTERM}, sigs.registered)
	require.Equal(t, []string{"http", "mongo"}, order)
	require.True(t, bounded, "hooks get a bounded context")
	require.Contains(t, out.String(), `"severity":"INFO"`)
	require.Contains(t, out.String(), "shutdown hook failed")
}

func TestRun_ContextCancelled(t *testing.T) {
	out := &lockedBuffer{}
	h, exits := newTestHandler(t, out, newFakeSignals())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, h.Run(ctx), context.Canceled)
	require.Equal(t, Running, h.State())
	require.Empty(t, exits)
}

func TestShutdown_OnlyOnce(t *testing.T) {
	out := &lockedBuffer{}
	h, exits := newTestHandler(t, out, newFakeSignals())

	h.shutdown(syscall.SIGTERM)
	h.shutdown(syscall.SIGTERM)
	require.Len(t, exits, 1)
	require.Equal(t, 1, strings.Count(out.String(), "Caught Signal"))
}

func TestSignalName(t *testing.T) {
	require.Equal(t, "SIGTERM", SignalName(syscall.SIGTERM))
	require.Equal(t, "SIGINT", SignalName(os.Interrupt))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "running", Running.String())
	require.Equal(t, "shutting_down", ShuttingDown.String())
	require.Equal(t, "terminated", Terminated.String())
}
