package progress

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/arche/internal/logging"
)

// Hooks observe the fold. They run while the channel lock is held, in fold
// order, so they must be fast and must not call back into the channel.
type Hooks struct {
	OnFold      func(name string, e Event, s Summary)
	OnSkip      func(name string, e Event)
	OnDrop      func(name string, e Event, err error)
	OnSubscribe func(name string, active int)
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger used to report dropped events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		c.logger = logger
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks Hooks) Option {
	return func(c *Channel) {
		c.hooks = hooks
	}
}

// WithName labels the channel in logs and hooks, usually with the owning node id.
func WithName(name string) Option {
	return func(c *Channel) {
		c.name = name
	}
}

// Channel is a broadcast point for processing events with last-value replay.
// Safe for concurrent use.
type Channel struct {
	mu     sync.Mutex
	fold   FoldFunc
	state  Summary
	subs   map[*subscriber]struct{}
	closed bool

	name   string
	logger *slog.Logger
	hooks  Hooks
}

// NewChannel creates a channel folding events with step, starting at zero.
func NewChannel(step FoldFunc, zero Summary, opts ...Option) *Channel {
	c := &Channel{
		fold:   step,
		state:  zero.Clone(),
		subs:   make(map[*subscriber]struct{}),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCountChannel creates a channel that sums every event (root nodes).
func NewCountChannel(opts ...Option) *Channel {
	return NewChannel(CountAll, Summary{}, opts...)
}

// NewResolveChannel creates a channel that folds Resolve events and tracks
// their ids (observation meshes).
func NewResolveChannel(opts ...Option) *Channel {
	return NewChannel(CountResolved, Summary{IDs: []string{}}, opts...)
}

// Name returns the channel label.
func (c *Channel) Name() string {
	return c.name
}

// Post admits an event. It never waits on subscribers.
// Malformed events are logged and dropped without touching the summary; the
// returned error is informational and producers may ignore it.
func (c *Channel) Post(e Event) error {
	if err := e.Validate(); err != nil {
		c.logger.Warn("Dropping malformed processing event",
			"channel", c.name,
			"type", int(e.Type),
			"count", e.Count,
			"err", err,
		)
		if c.hooks.OnDrop != nil {
			c.hooks.OnDrop(c.name, e, err)
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	next, ok := c.fold(c.state, e)
	if !ok {
		if c.hooks.OnSkip != nil {
			c.hooks.OnSkip(c.name, e)
		}
		return nil
	}
	c.state = next

	for sub := range c.subs {
		sub.push(next.Clone())
	}
	if c.hooks.OnFold != nil {
		c.hooks.OnFold(c.name, e, next)
	}
	return nil
}

// Snapshot returns the current summary.
func (c *Channel) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe returns a stream that yields the current summary immediately and
// then one summary per subsequent fold step. The stream is closed when ctx is
// done or the channel is closed.
func (c *Channel) Subscribe(ctx context.Context) <-chan Summary {
	out := make(chan Summary)
	sub := newSubscriber()

	c.mu.Lock()
	sub.push(c.state.Clone())
	if c.closed {
		sub.close()
	} else {
		c.subs[sub] = struct{}{}
	}
	active := len(c.subs)
	if c.hooks.OnSubscribe != nil {
		c.hooks.OnSubscribe(c.name, active)
	}
	c.mu.Unlock()

	go c.forward(ctx, sub, out)
	return out
}

// Subscribers returns the number of attached subscribers.
func (c *Channel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close detaches every subscriber after delivering what was already folded.
// Subsequent posts return ErrClosed.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for sub := range c.subs {
		sub.close()
		delete(c.subs, sub)
	}
	if c.hooks.OnSubscribe != nil {
		c.hooks.OnSubscribe(c.name, 0)
	}
}

func (c *Channel) forward(ctx context.Context, sub *subscriber, out chan<- Summary) {
	defer close(out)
	defer c.detach(sub)

	for {
		batch, open := sub.drain()
		for _, s := range batch {
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
		if !open {
			return
		}
		select {
		case <-sub.notify:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Channel) detach(sub *subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[sub]; !ok {
		return
	}
	delete(c.subs, sub)
	if c.hooks.OnSubscribe != nil {
		c.hooks.OnSubscribe(c.name, len(c.subs))
	}
}

// subscriber is an unbounded mailbox so a slow consumer never stalls Post.
type subscriber struct {
	mu     sync.Mutex
	queue  []Summary
	closed bool
	notify chan struct{}
}

func newSubscriber() *subscriber {
	return &subscriber{notify: make(chan struct{}, 1)}
}

func (s *subscriber) push(v Summary) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, v)
	}
	s.mu.Unlock()
	s.wake()
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

func (s *subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// drain empties the queue. open is false once the mailbox is closed and
// nothing remains after this batch.
func (s *subscriber) drain() (batch []Summary, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch = s.queue
	s.queue = nil
	return batch, !s.closed
}
