package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/jasmine/pkg/kafka"
	"github.com/Ramsey-B/jasmine/pkg/models"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published []*kafka.MatchEvent
	err       error
	block     chan struct{}
	done      chan struct{}
}

func newCapturingPublisher() *capturingPublisher {
	return &capturingPublisher{done: make(chan struct{}, 8)}
}

func (p *capturingPublisher) PublishMatchEvent(_ context.Context, event *kafka.MatchEvent) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	p.published = append(p.published, event)
	p.mu.Unlock()
	p.done <- struct{}{}
	return p.err
}

func (p *capturingPublisher) await(t *testing.T) {
	t.Helper()
	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("event was never published")
	}
}

func newTestEmitter(producer publisher) *Emitter {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return &Emitter{producer: producer, logger: logger}
}

func TestMatchComputed_PublishesEvent(t *testing.T) {
	producer := newCapturingPublisher()
	emitter := newTestEmitter(producer)

	emitter.MatchComputed(context.Background(), &models.MatchResult{
		UserID1: "user-a",
		UserID2: "user-b",
	})
	producer.await(t)

	require.Len(t, producer.published, 1)
	event := producer.published[0]
	assert.Equal(t, EventTypeMatchComputed, event.EventType)
	assert.Equal(t, "user-a", event.UserID)
	assert.Equal(t, "user-b", event.TargetUserID)
}

func TestMatchPage_DoesNotBlockOnSlowBroker(t *testing.T) {
	producer := newCapturingPublisher()
	producer.block = make(chan struct{})
	emitter := newTestEmitter(producer)

	returned := make(chan struct{})
	go func() {
		emitter.MatchPage(context.Background(), "viewer", &models.CandidatePage{
			Page:            1,
			PageSize:        20,
			TotalConsidered: 3,
		})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("MatchPage blocked on the broker")
	}

	close(producer.block)
	producer.await(t)

	require.Len(t, producer.published, 1)
	assert.Equal(t, EventTypeMatchPage, producer.published[0].EventType)
}

func TestPublish_SurvivesCancelledRequest(t *testing.T) {
	producer := newCapturingPublisher()
	emitter := newTestEmitter(producer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emitter.MatchComputed(ctx, &models.MatchResult{UserID1: "user-a", UserID2: "user-b"})
	producer.await(t)

	assert.Len(t, producer.published, 1)
}

func TestPublish_BrokerErrorIsSwallowed(t *testing.T) {
	producer := newCapturingPublisher()
	producer.err = errors.New("broker unavailable")
	emitter := newTestEmitter(producer)

	assert.NotPanics(t, func() {
		emitter.MatchComputed(context.Background(), &models.MatchResult{UserID1: "user-a", UserID2: "user-b"})
		producer.await(t)
	})
}

func TestNewEmitter_NilProducerDisablesPublishing(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	emitter := NewEmitter(nil, logger)

	assert.NotPanics(t, func() {
		emitter.MatchComputed(context.Background(), &models.MatchResult{UserID1: "user-a", UserID2: "user-b"})
	})
}
