package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
)

type Handler interface {
	Handle(ctx context.Context, event entity.DatasetEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event entity.DatasetEvent) error

func (f HandlerFunc) Handle(ctx context.Context, event entity.DatasetEvent) error {
	return f(ctx, event)
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
	// DedupeWindow is how many recent event ids are remembered to drop
	// redeliveries. Defaults to 1024.
	DedupeWindow int
}

// Consumer drains a Bus with a fixed pool of workers. An event id seen among
// the last DedupeWindow events is skipped; failed handlers are retried with
// exponential backoff.
type Consumer struct {
	bus         *Bus
	handler     Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        *recentIDs
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *Consumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 2
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	window := cfg.DedupeWindow
	if window < 1 {
		window = 1024
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		bus:         bus,
		handler:     handler,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		seen:        newRecentIDs(window),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (c *Consumer) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
}

// Stop closes the bus and waits for queued events to drain. If ctx ends
// first, in-flight retries are abandoned.
func (c *Consumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		return ctx.Err()
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.processEvent(event)
	}
}

func (c *Consumer) processEvent(event entity.DatasetEvent) {
	if c.handler == nil {
		return
	}

	if event.EventID != 0 {
		if !c.seen.add(event.EventID) {
			slog.Info("skip duplicate dataset event", "event_id", event.EventID, "dataset_id", event.DatasetID)
			return
		}
	}

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.handler.Handle(c.ctx, event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.Error("failed to handle dataset event after retries",
				"event_id", event.EventID, "dataset_id", event.DatasetID, "kind", event.Kind, "error", err)
			return
		}

		if !sleepBackoff(c.ctx, backoff) {
			return
		}
		backoff *= 2
	}
}

func sleepBackoff(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// recentIDs remembers the last size ids added, forgetting the oldest first.
type recentIDs struct {
	mu    sync.Mutex
	ids   map[int64]struct{}
	order []int64
	next  int
}

func newRecentIDs(size int) *recentIDs {
	return &recentIDs{
		ids:   make(map[int64]struct{}, size),
		order: make([]int64, 0, size),
	}
}

// add records id and reports whether it was new.
func (r *recentIDs) add(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; ok {
		return false
	}

	if len(r.order) < cap(r.order) {
		r.order = append(r.order, id)
	} else {
		delete(r.ids, r.order[r.next])
		r.order[r.next] = id
		r.next = (r.next + 1) % len(r.order)
	}
	r.ids[id] = struct{}{}

	return true
}

func (r *recentIDs) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
