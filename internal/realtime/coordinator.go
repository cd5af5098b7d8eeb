// Package realtime keeps store slices fresh by reloading them when their topic changes.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/logger"
	"gochat/internal/metrics"
)

var (
	ErrHandleClosed      = errors.New("subscription handle is closed")
	ErrCoordinatorClosed = errors.New("coordinator is closed")
)

// ReloadFunc fetches a fresh copy of a slice. It returns the mutation to perform on success;
// the coordinator decides whether that mutation still runs.
type ReloadFunc func(ctx context.Context) (apply func(), err error)

const (
	outcomeApplied   = "applied"
	outcomeFailed    = "failed"
	outcomeStale     = "stale"
	outcomeDiscarded = "discarded"
)

// Bounds for re-establishing a change stream that the notifier closed.
const (
	minRewatchBackoff = 200 * time.Millisecond
	maxRewatchBackoff = 10 * time.Second
)

type Coordinator struct {
	notifier   common.ChangeNotifier
	minBackoff time.Duration
	maxBackoff time.Duration

	mu      sync.Mutex
	handles map[*Handle]struct{}
	closed  bool
}

func NewCoordinator(notifier common.ChangeNotifier) *Coordinator {
	return &Coordinator{
		notifier:   notifier,
		minBackoff: minRewatchBackoff,
		maxBackoff: maxRewatchBackoff,
		handles:    make(map[*Handle]struct{}),
	}
}

// Subscribe starts watching topic. Each notification schedules reload; the first load is the
// caller's job via Handle.Sync. The subscription ends when ctx is done or on Unsubscribe.
func (c *Coordinator) Subscribe(ctx context.Context, topic common.Topic, reload ReloadFunc) (*Handle, error) {
	if !topic.IsValid() {
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
	if reload == nil {
		return nil, errors.New("reload func is required")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCoordinatorClosed
	}
	c.mu.Unlock()

	hctx, cancel := context.WithCancel(ctx)
	events, err := c.notifier.Watch(hctx, topic)
	if err != nil {
		cancel()
		return nil, common.Transient("watch "+topic.String(), err)
	}

	h := &Handle{
		coordinator: c,
		topic:       topic,
		reload:      reload,
		ctx:         hctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return nil, ErrCoordinatorClosed
	}
	c.handles[h] = struct{}{}
	c.mu.Unlock()

	go h.watch(events)

	logger.Log.Debug("subscribed", zap.String("topic", topic.String()))
	return h, nil
}

// Close unsubscribes every handle and waits for their goroutines to exit.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	handles := make([]*Handle, 0, len(c.handles))
	for h := range c.handles {
		handles = append(handles, h)
	}
	c.mu.Unlock()

	for _, h := range handles {
		h.Unsubscribe()
		h.wait()
	}
}

func (c *Coordinator) remove(h *Handle) {
	c.mu.Lock()
	delete(c.handles, h)
	c.mu.Unlock()
}

// Handle is one topic subscription. At most one reload runs at a time; notifications that
// arrive meanwhile collapse into a single follow-up reload.
type Handle struct {
	coordinator *Coordinator
	topic       common.Topic
	reload      ReloadFunc
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	reloads     sync.WaitGroup

	mu       sync.Mutex
	inFlight bool
	pending  bool
	closed   bool
	issued   uint64
	applied  uint64
}

func (h *Handle) Topic() common.Topic { return h.topic }

// Sync reloads now and waits for the result. It shares the sequence guard with
// notification-driven reloads, so a newer result already applied is never overwritten.
func (h *Handle) Sync(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHandleClosed
	}
	h.issued++
	seq := h.issued
	h.mu.Unlock()

	apply, err := h.reload(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finish(seq, apply, err)
}

// Unsubscribe stops notifications and drops any pending follow-up. Once it returns no
// reload result is applied. Calling it more than once is a no-op.
func (h *Handle) Unsubscribe() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.pending = false
	h.mu.Unlock()

	h.cancel()
	h.coordinator.remove(h)
	logger.Log.Debug("unsubscribed", zap.String("topic", h.topic.String()))
}

func (h *Handle) watch(events <-chan struct{}) {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				if events = h.rewatch(); events == nil {
					return
				}
				// changes made while the stream was down were never announced
				h.trigger()
				continue
			}
			metrics.Notifications.WithLabelValues(h.topic.String()).Inc()
			h.trigger()
		}
	}
}

// rewatch re-establishes the change stream after the notifier closed it, doubling the
// delay between attempts. It returns nil once the handle is done.
func (h *Handle) rewatch() <-chan struct{} {
	c := h.coordinator
	topic := h.topic.String()
	delay := c.minBackoff

	for attempt := 1; ; attempt++ {
		logger.Log.Warn("change stream lost, re-watching",
			zap.String("topic", topic),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay))

		timer := time.NewTimer(delay)
		select {
		case <-h.ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		events, err := c.notifier.Watch(h.ctx, h.topic)
		if err == nil {
			metrics.Rewatches.WithLabelValues(topic).Inc()
			return events
		}
		if h.ctx.Err() != nil {
			return nil
		}
		logger.Log.Warn("re-watch failed", zap.String("topic", topic), zap.Error(err))
		delay = min(delay*2, c.maxBackoff)
	}
}

func (h *Handle) trigger() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if h.inFlight {
		h.pending = true
		metrics.CoalescedNotifications.WithLabelValues(h.topic.String()).Inc()
		return
	}

	h.inFlight = true
	h.issued++
	h.reloads.Add(1)
	go h.run(h.issued)
}

func (h *Handle) run(seq uint64) {
	defer h.reloads.Done()

	for {
		apply, err := h.reload(h.ctx)

		h.mu.Lock()
		if err := h.finish(seq, apply, err); err != nil {
			logger.Log.Warn("reload failed",
				zap.String("topic", h.topic.String()),
				zap.Uint64("seq", seq),
				zap.Error(err))
		}
		if h.pending && !h.closed {
			h.pending = false
			h.issued++
			seq = h.issued
			h.mu.Unlock()
			continue
		}
		h.inFlight = false
		h.mu.Unlock()
		return
	}
}

// finish must be called with h.mu held.
func (h *Handle) finish(seq uint64, apply func(), err error) error {
	topic := h.topic.String()

	if err != nil {
		metrics.Reloads.WithLabelValues(topic, outcomeFailed).Inc()
		return common.Transient("reload "+topic, err)
	}
	if h.closed {
		metrics.Reloads.WithLabelValues(topic, outcomeDiscarded).Inc()
		return nil
	}
	if seq <= h.applied {
		metrics.Reloads.WithLabelValues(topic, outcomeStale).Inc()
		logger.Log.Debug("dropped stale reload",
			zap.String("topic", topic),
			zap.Uint64("seq", seq),
			zap.Uint64("applied", h.applied))
		return nil
	}

	if apply != nil {
		apply()
	}
	h.applied = seq
	metrics.Reloads.WithLabelValues(topic, outcomeApplied).Inc()
	return nil
}

func (h *Handle) wait() {
	<-h.done
	h.reloads.Wait()
}
