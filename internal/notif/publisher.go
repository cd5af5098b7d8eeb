package notif

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/logger"
	"gochat/internal/metrics"
)

const defaultPublishTimeout = 5 * time.Second

// TopicSender delivers one change signal, e.g. *Client.
type TopicSender interface {
	PublishContext(ctx context.Context, topic common.Topic) error
}

// AsyncPublisher hands publishes to a background sender so writers never wait on the
// notifier. A topic already queued is not queued again; when the buffer is full the
// publish is dropped.
type AsyncPublisher struct {
	sender  TopicSender
	timeout time.Duration
	queue   chan common.Topic
	done    chan struct{}

	mu     sync.Mutex
	queued map[common.Topic]bool
	closed bool
}

func NewAsyncPublisher(sender TopicSender, bufferSize int) *AsyncPublisher {
	if bufferSize < 1 {
		bufferSize = 1000
	}
	p := &AsyncPublisher{
		sender:  sender,
		timeout: defaultPublishTimeout,
		queue:   make(chan common.Topic, bufferSize),
		done:    make(chan struct{}),
		queued:  make(map[common.Topic]bool),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) Publish(topic common.Topic) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		logger.Log.Debug("publisher closed, dropping publish", zap.String("topic", topic.String()))
		return
	}
	if p.queued[topic] {
		return
	}

	select {
	case p.queue <- topic:
		p.queued[topic] = true
	default:
		metrics.DroppedEvents.WithLabelValues(topic.String()).Inc()
		logger.Log.Warn("publish queue full, dropping publish", zap.String("topic", topic.String()))
	}
}

// Close stops accepting publishes and waits until the queued ones were sent or timed out.
func (p *AsyncPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
}

func (p *AsyncPublisher) run() {
	defer close(p.done)

	for topic := range p.queue {
		p.mu.Lock()
		delete(p.queued, topic)
		p.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.sender.PublishContext(ctx, topic); err != nil {
			logger.Log.Warn("remote publish failed", zap.String("topic", topic.String()), zap.Error(err))
		}
		cancel()
	}
}
