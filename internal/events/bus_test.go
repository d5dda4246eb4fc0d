package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureMirror struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
}

func (m *captureMirror) Publish(ctx context.Context, channel string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, channel)
	m.payloads = append(m.payloads, payload)
	return nil
}

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker(nil, zap.NewNop())

	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	b.Publish(context.Background(), Event{Kind: KindEntryCommitted, EntryID: "e-1", Codes: []string{"SP-01"}})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, KindEntryCommitted, ev.Kind)
			assert.Equal(t, "e-1", ev.EntryID)
			assert.False(t, ev.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBroker_CancelStopsDelivery(t *testing.T) {
	b := NewBroker(nil, zap.NewNop())

	ch, cancel := b.Subscribe()
	cancel()

	// Publishing after cancel must not panic on the closed channel.
	b.Publish(context.Background(), Event{Kind: KindQCResolved})

	_, open := <-ch
	assert.False(t, open)

	// cancel is idempotent
	cancel()
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker(nil, zap.NewNop())

	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Overflow the buffer; extra events drop instead of blocking.
		for i := 0; i < 100; i++ {
			b.Publish(context.Background(), Event{Kind: KindEntryCommitted})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a lagging subscriber")
	}
}

func TestBroker_MirrorsJSON(t *testing.T) {
	mirror := &captureMirror{}
	b := NewBroker(mirror, zap.NewNop())

	b.Publish(context.Background(), Event{Kind: KindAdjustmentResolved, EntryID: "e-9", Codes: []string{"SP-02"}})

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	require.Len(t, mirror.payloads, 1)
	assert.Equal(t, "ledger.events", mirror.channels[0])

	var ev Event
	require.NoError(t, json.Unmarshal(mirror.payloads[0], &ev))
	assert.Equal(t, KindAdjustmentResolved, ev.Kind)
	assert.Equal(t, []string{"SP-02"}, ev.Codes)
}
