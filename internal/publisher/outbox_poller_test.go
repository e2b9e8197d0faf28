package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	r "github.com/obinna-o/go_marketgate/internal/checkout/repository"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mu           sync.Mutex
	events       []*r.OutboxEvent
	getErr       error
	markErr      error
	processedIDs []int64
}

func (m *mockRepo) RecordVerifiedOrder(context.Context, *r.OrderRecord) error { return nil }

func (m *mockRepo) GetOrderByReference(context.Context, string) (*r.OrderRecord, error) {
	return nil, r.ErrOrderNotFound
}

func (m *mockRepo) GetUnprocessedEvents(context.Context, int) ([]*r.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	ev := m.events
	m.events = nil
	return ev, nil
}

func (m *mockRepo) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.processedIDs = append(m.processedIDs, id)
	return nil
}

func (m *mockRepo) processed() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.processedIDs...)
}

func (m *mockRepo) Close() error { return nil }

type mockWriter struct {
	messages []kafka.Message
	err      error
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func outboxEvent(id int64, reference string) *r.OutboxEvent {
	payload, _ := json.Marshal(map[string]interface{}{
		"reference": reference,
		"order_id":  "ord_9",
	})
	return &r.OutboxEvent{
		ID:          id,
		AggregateID: reference,
		EventType:   "checkout.completed",
		Payload:     payload,
		CreatedAt:   time.Now(),
	}
}

func TestProcessUnpublishedEvents_PublishesAndMarks(t *testing.T) {
	repo := &mockRepo{events: []*r.OutboxEvent{outboxEvent(1, "pay_123")}}
	writer := &mockWriter{}
	poller := &OutboxPoller{eventTick: time.Second, repo: repo, writer: writer}

	poller.processUnpublishedEvents(context.Background())

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "pay_123", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "checkout.completed", string(msg.Headers[0].Value))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "pay_123", payload["reference"])

	assert.Equal(t, []int64{1}, repo.processedIDs)
}

func TestProcessUnpublishedEvents_PublishFailureLeavesEventUnmarked(t *testing.T) {
	repo := &mockRepo{events: []*r.OutboxEvent{outboxEvent(1, "pay_123")}}
	writer := &mockWriter{err: errors.New("broker unavailable")}
	poller := &OutboxPoller{eventTick: time.Second, repo: repo, writer: writer}

	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, repo.processedIDs, "unpublished event must stay unprocessed for retry")
}

func TestProcessUnpublishedEvents_MarkFailureDoesNotStopBatch(t *testing.T) {
	repo := &mockRepo{
		events:  []*r.OutboxEvent{outboxEvent(1, "pay_123"), outboxEvent(2, "pay_456")},
		markErr: errors.New("database deadlock"),
	}
	writer := &mockWriter{}
	poller := &OutboxPoller{eventTick: time.Second, repo: repo, writer: writer}

	poller.processUnpublishedEvents(context.Background())

	// both were still published; marking is retried on the next tick
	assert.Len(t, writer.messages, 2)
}

func TestProcessUnpublishedEvents_FetchErrorIsGraceful(t *testing.T) {
	repo := &mockRepo{getErr: errors.New("database connection error")}
	writer := &mockWriter{}
	poller := &OutboxPoller{eventTick: time.Second, repo: repo, writer: writer}

	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, writer.messages)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo := &mockRepo{events: []*r.OutboxEvent{outboxEvent(1, "pay_123")}}
	writer := &mockWriter{}
	poller := &OutboxPoller{eventTick: 10 * time.Millisecond, repo: repo, writer: writer}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(repo.processed()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
