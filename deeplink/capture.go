package deeplink

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/linesmerrill/drynks-api/logging"
)

// Source delivers the URLs the OS opens the app with: the launch URL once, and
// further URLs while the process runs.
type Source interface {
	InitialURL(ctx context.Context) (string, error)
	// Subscribe calls handler for every URL opened after the call. The returned
	// function stops delivery; handler is not called after it returns.
	Subscribe(handler func(url string)) (unsubscribe func(), err error)
}

// Capture persists invite payloads from a Source so they survive sign in. The
// most recent invite wins; nothing is queued.
type Capture struct {
	source Source
	store  KeyValueStore
	log    *zap.SugaredLogger

	mu   sync.Mutex
	stop func()
}

// NewCapture wires a capture. A nil logger uses the global one.
func NewCapture(source Source, store KeyValueStore, log *zap.SugaredLogger) *Capture {
	return &Capture{source: source, store: store, log: logging.Or(log)}
}

// Start reads the launch URL and subscribes to runtime URLs. Failures are logged,
// never returned. The returned function unsubscribes; it is safe to call more
// than once. Calling Start again before stopping returns the same function.
func (c *Capture) Start(ctx context.Context) (stop func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return c.stop
	}

	c.readInitial(ctx)

	// runtime links arrive long after Start returns
	eventCtx := context.WithoutCancel(ctx)
	unsubscribe := c.subscribe(func(raw string) {
		c.capture(eventCtx, raw, "runtime")
	})

	var once sync.Once
	c.stop = func() {
		once.Do(func() {
			unsubscribe()
			c.mu.Lock()
			c.stop = nil
			c.mu.Unlock()
		})
	}
	return c.stop
}

func (c *Capture) readInitial(ctx context.Context) {
	defer c.recover("initial")
	raw, err := c.source.InitialURL(ctx)
	if err != nil {
		c.log.Warnw("failed to read initial url", "error", err)
		return
	}
	if raw != "" {
		c.capture(ctx, raw, "initial")
	}
}

func (c *Capture) subscribe(handler func(string)) (unsubscribe func()) {
	defer c.recover("subscribe")
	unsubscribe = func() {}
	unsub, err := c.source.Subscribe(handler)
	if err != nil {
		c.log.Warnw("failed to subscribe to url events", "error", err)
		return unsubscribe
	}
	if unsub != nil {
		unsubscribe = unsub
	}
	return unsubscribe
}

func (c *Capture) capture(ctx context.Context, raw, origin string) {
	defer c.recover(origin)
	p, ok := Parse(raw)
	if !ok {
		c.log.Debugw("ignoring non-invite url", "origin", origin)
		return
	}
	if err := SavePending(ctx, c.store, p); err != nil {
		c.log.Warnw("failed to persist pending invite", "origin", origin, "error", err)
		return
	}
	c.log.Infow("captured pending invite", "origin", origin, "resourceId", p.ResourceID)
}

func (c *Capture) recover(origin string) {
	if r := recover(); r != nil {
		c.log.Errorw("deep link capture panicked", "origin", origin, "panic", r)
	}
}

// ChannelSource is a Source fed by the host platform bridge: the launch URL plus
// a channel of URLs opened at runtime.
type ChannelSource struct {
	initial string
	events  <-chan string
}

// NewChannelSource returns a Source for initial and events.
func NewChannelSource(initial string, events <-chan string) *ChannelSource {
	return &ChannelSource{initial: initial, events: events}
}

func (s *ChannelSource) InitialURL(context.Context) (string, error) {
	return s.initial, nil
}

func (s *ChannelSource) Subscribe(handler func(string)) (func(), error) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case raw, ok := <-s.events:
				if !ok {
					return
				}
				select {
				case <-done:
					return
				default:
				}
				handler(raw)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}, nil
}
