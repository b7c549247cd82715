package bus

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gatherly/community-service/internal/api/metrics"
	"github.com/gatherly/community-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Handler consumes a single notification. Handlers must be safe for
// concurrent use; notifications for the same event id always arrive on the
// same worker, in publish order.
type Handler func(context.Context, ports.Notification)

// Dispatcher is an in-process notification bus. Notifications are routed to a
// fixed set of workers by hashing the event id, guaranteeing per-event
// delivery ordering. It replaces ad-hoc cross-component messaging with typed
// topics and explicit subscriptions.
type Dispatcher struct {
	workers []chan ports.Notification
	log     zerolog.Logger

	mu       sync.RWMutex
	handlers map[ports.NotificationTopic][]Handler
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.Notification, numWorkers),
		log:      log,
		handlers: make(map[ports.NotificationTopic][]Handler),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notification, channelBuffer)
	}
	return d
}

// Subscribe registers a handler for the given topic. Subscriptions are
// expected to be set up before Start; later additions are still safe.
func (d *Dispatcher) Subscribe(topic ports.NotificationTopic, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[topic] = append(d.handlers[topic], h)
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish sends a notification to the worker responsible for its event id.
// Non-blocking up to channelBuffer capacity; overflow drops the notification
// with a warning rather than stalling the request path.
func (d *Dispatcher) Publish(n ports.Notification) {
	idx := d.shardIndex(n.EventID)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Warn().
			Str("topic", string(n.Topic)).
			Str("event_id", n.EventID).
			Msg("notification dropped, worker queue full")
	}
}

// shardIndex maps an event id deterministically to a worker index.
func (d *Dispatcher) shardIndex(eventID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(eventID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			d.deliver(ctx, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n ports.Notification) {
	d.mu.RLock()
	handlers := append([]Handler{}, d.handlers[n.Topic]...)
	d.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, n)
	}
	metrics.NotificationsPublishedTotal.WithLabelValues(string(n.Topic)).Inc()
}
