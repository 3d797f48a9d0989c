// Package notify carries structured engine events to whoever renders them.
// Engine operations return the events they emit; the hub additionally keeps
// a bounded backlog for polling clients and forwards to optional sinks.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"agriadvisor/entities"
	"agriadvisor/pkg/logger"
)

// Publisher forwards events outside the process.
type Publisher interface {
	Publish(ctx context.Context, ev entities.Event) error
}

// Emitter is what engine components depend on.
type Emitter interface {
	Emit(ctx context.Context, ev entities.Event) entities.Event
}

const (
	DefaultBacklog = 512
	sinkQueue      = 256
	publishTimeout = 3 * time.Second
)

type Hub struct {
	mu      sync.Mutex
	seq     uint64
	backlog []entities.Event
	max     int
	sinks   []Publisher
	log     *logger.Logger
	now     func() time.Time

	queue  chan entities.Event
	done   chan struct{}
	closed bool
}

// NewHub builds a hub. With sinks, a single forwarding goroutine publishes
// events in sequence order until Close.
func NewHub(backlog int, log *logger.Logger, sinks ...Publisher) *Hub {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	h := &Hub{max: backlog, sinks: sinks, log: logger.OrNop(log).With("component", "notify"), now: time.Now}
	if len(sinks) > 0 {
		h.queue = make(chan entities.Event, sinkQueue)
		h.done = make(chan struct{})
		go h.forward()
	}
	return h
}

// Emit stamps the event with an id, sequence number and time and records
// it. Sinks are fed from a queue, so Emit never waits on them; when the
// queue is full the event is dropped for sinks but stays in the backlog.
func (h *Hub) Emit(_ context.Context, ev entities.Event) entities.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	ev.Seq = h.seq
	ev.ID = uuid.NewString()
	if ev.At.IsZero() {
		ev.At = h.now().UTC()
	}
	h.backlog = append(h.backlog, ev)
	if over := len(h.backlog) - h.max; over > 0 {
		h.backlog = append([]entities.Event(nil), h.backlog[over:]...)
	}
	if h.queue != nil && !h.closed {
		select {
		case h.queue <- ev:
		default:
			h.log.Warn("event sink queue full, dropping", "kind", ev.Kind, "seq", ev.Seq)
		}
	}
	return ev
}

func (h *Hub) forward() {
	defer close(h.done)
	for ev := range h.queue {
		for _, s := range h.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			if err := s.Publish(ctx, ev); err != nil {
				h.log.Warn("event sink publish failed", "kind", ev.Kind, "seq", ev.Seq, "error", err)
			}
			cancel()
		}
	}
}

// Close stops forwarding after the queued events are published. Later
// events still reach the backlog.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.queue == nil || h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()
	<-h.done
}

// Since returns backlog events with Seq > seq, oldest first, up to limit
// (0 means no limit).
func (h *Hub) Since(seq uint64, limit int) []entities.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []entities.Event
	for _, ev := range h.backlog {
		if ev.Seq <= seq {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// LastSeq is the sequence number of the newest event.
func (h *Hub) LastSeq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}
