package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/laserdata/laser-api/pkg/logger"
)

// State is the process lifecycle state.
type State int32

const (
	Running State = iota
	ShuttingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting_down"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// SignalsFor returns the shutdown signal for the execution context: SIGTERM under
// a container runtime, interrupt (Ctrl-C) otherwise. Never both.
func SignalsFor(container bool) []os.Signal {
	if container {
		return []os.Signal{syscall.SIGTERM}
	}
	return []os.Signal{os.Interrupt}
}

// SignalName returns the symbolic name of sig, such as SIGTERM.
func SignalName(sig os.Signal) string {
	switch sig {
	case syscall.SIGTERM:
		return "SIGTERM"
	case os.Interrupt:
		return "SIGINT"
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	}
	return sig.String()
}

// Hook releases a resource during shutdown.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler waits for a shutdown signal, runs hooks, flushes the logger and exits
// with status 0.
type Handler struct {
	log     *logger.Logger
	signals []os.Signal
	timeout time.Duration

	mu    sync.Mutex
	hooks []namedHook
	state atomic.Int32

	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
	exit   func(code int)
}

// New returns a Handler listening for signals. Hooks get at most timeout in total.
func New(log *logger.Logger, signals []os.Signal, timeout time.Duration) *Handler {
	return &Handler{
		log:     log,
		signals: signals,
		timeout: timeout,
		notify:  signal.Notify,
		stop:    signal.Stop,
		exit:    os.Exit,
	}
}

// OnShutdown registers a hook. Hooks run in registration order.
func (h *Handler) OnShutdown(name string, fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, namedHook{name: name, fn: fn})
}

// State returns the current lifecycle state.
func (h *Handler) State() State { return State(h.state.Load()) }

// Run blocks until a registered signal arrives, then shuts down and exits the
// process with status 0. If ctx is done first Run returns ctx.Err() and the
// process keeps running.
func (h *Handler) Run(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	h.notify(ch, h.signals...)
	defer h.stop(ch)

	select {
	case sig := <-ch:
		h.shutdown(sig)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) shutdown(sig os.Signal) {
	if !h.state.CompareAndSwap(int32(Running), int32(ShuttingDown)) {
		return
	}
	name := SignalName(sig)
	h.log.Info("Caught Signal "+name, logger.Fields{"signal": name})

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.mu.Lock()
	hooks := append([]namedHook(nil), h.hooks...)
	h.mu.Unlock()
	for _, hk := range hooks {
		if err := hk.fn(ctx); err != nil {
			h.log.Warn("shutdown hook failed", logger.Fields{"hook": hk.name, "error": err.Error()})
		}
	}

	h.log.Flush()
	h.state.Store(int32(Terminated))
	h.exit(0)
}
