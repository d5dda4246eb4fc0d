package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindEntryCommitted     Kind = "entry_committed"
	KindQCResolved         Kind = "qc_resolved"
	KindAdjustmentResolved Kind = "adjustment_resolved"
	KindInventoryLifecycle Kind = "inventory_lifecycle"
)

// Event describes one committed change. It carries enough for a read view to
// know what to refresh, never enough to base a write on.
type Event struct {
	Kind    Kind      `json:"kind"`
	EntryID string    `json:"entry_id,omitempty"`
	Codes   []string  `json:"codes,omitempty"`
	At      time.Time `json:"at"`
}

// Bus is the commit notification channel consumed by read views.
type Bus interface {
	Publish(ctx context.Context, ev Event)
	Subscribe() (<-chan Event, func())
}

// Mirror forwards events beyond the local process (redis PUBLISH).
type Mirror interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

const mirrorChannel = "ledger.events"

// Broker fans events out to in-process subscribers and mirrors them to other
// instances. Slow subscribers drop events rather than block writers.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	mirror Mirror
	logger *zap.Logger
}

func NewBroker(mirror Mirror, log *zap.Logger) *Broker {
	return &Broker{
		subs:   make(map[int]chan Event),
		mirror: mirror,
		logger: log,
	}
}

func (b *Broker) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// subscriber lagging; it refreshes on the next event
		}
	}
	b.mu.Unlock()

	if b.mirror != nil {
		payload, err := json.Marshal(ev)
		if err == nil {
			err = b.mirror.Publish(ctx, mirrorChannel, payload)
		}
		if err != nil {
			b.logger.Warn("failed to mirror event", zap.String("kind", string(ev.Kind)), zap.Error(err))
		}
	}
}

func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
