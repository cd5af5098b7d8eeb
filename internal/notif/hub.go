package notif

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/logger"
	"gochat/internal/metrics"
)

var ErrHubClosed = errors.New("notification hub is shut down")

type watcher struct {
	ch chan struct{}
}

// Hub fans topic changes out to watchers in process. Each watcher holds at most one
// undelivered signal; a burst of publishes collapses into that one signal.
type Hub struct {
	watchers     map[common.Topic]map[*watcher]struct{}
	eventChannel chan common.Topic
	workerPool   int
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	wg           sync.WaitGroup
	closed       bool
}

func NewHub(workerPoolSize, bufferSize int) *Hub {
	if workerPoolSize < 1 {
		workerPoolSize = 1
	}
	if bufferSize < 1 {
		bufferSize = 1000
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		watchers:     make(map[common.Topic]map[*watcher]struct{}),
		eventChannel: make(chan common.Topic, bufferSize),
		workerPool:   workerPoolSize,
		ctx:          ctx,
		cancel:       cancel,
	}

	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go h.processEvents()
	}

	return h
}

// Watch returns a channel that receives a signal after each change of topic.
// The channel is closed when ctx is done or the hub shuts down.
func (h *Hub) Watch(ctx context.Context, topic common.Topic) (<-chan struct{}, error) {
	if !topic.IsValid() {
		return nil, errors.New("unknown topic: " + topic.String())
	}

	w := &watcher{ch: make(chan struct{}, 1)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if h.watchers[topic] == nil {
		h.watchers[topic] = make(map[*watcher]struct{})
	}
	h.watchers[topic][w] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-h.ctx.Done():
		}
		h.remove(topic, w)
	}()

	return w.ch, nil
}

func (h *Hub) remove(topic common.Topic, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.watchers[topic][w]; !ok {
		return
	}
	delete(h.watchers[topic], w)
	close(w.ch)
}

// Publish signals every watcher of topic without blocking.
func (h *Hub) Publish(topic common.Topic) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for w := range h.watchers[topic] {
		select {
		case w.ch <- struct{}{}:
		default:
			// a signal is already waiting
		}
	}
}

// PublishAsync hands the publish to the worker pool. Dropped when the buffer is full.
func (h *Hub) PublishAsync(topic common.Topic) {
	select {
	case <-h.ctx.Done():
		return
	default:
	}

	select {
	case h.eventChannel <- topic:
	default:
		metrics.DroppedEvents.WithLabelValues(topic.String()).Inc()
		logger.Log.Warn("event channel full, dropping publish", zap.String("topic", topic.String()))
	}
}

func (h *Hub) WatcherCount(topic common.Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[topic])
}

func (h *Hub) processEvents() {
	defer h.wg.Done()

	for {
		select {
		case topic := <-h.eventChannel:
			h.Publish(topic)
		case <-h.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers and closes every watcher channel.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for topic, ws := range h.watchers {
		for w := range ws {
			close(w.ch)
		}
		delete(h.watchers, topic)
	}
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()
	logger.Log.Info("notification hub shutdown complete")
}
