package events_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"github.com/robalyx/verdict/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testKey = "verdict:test_side_effects"

func setupStream(t *testing.T) (*events.Stream, rueidis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	stream := events.NewStream(client, testKey, "settlement", 1000, zaptest.NewLogger(t))
	require.NoError(t, stream.EnsureGroup(t.Context()))

	return stream, client
}

type recordingHandler struct {
	mu   sync.Mutex
	seen []*events.Event
	fail map[events.Type]bool
}

func (h *recordingHandler) Handle(_ context.Context, e *events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.fail[e.Type] {
		return errors.New("handler failed")
	}
	h.seen = append(h.seen, e)
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func newEvent(eventType events.Type) *events.Event {
	e := events.New(eventType, uuid.New(), uuid.New(), uuid.New())
	e.Feedback = "clear and specific"
	return e
}

func TestEnsureGroupIsIdempotent(t *testing.T) {
	t.Parallel()

	stream, _ := setupStream(t)
	require.NoError(t, stream.EnsureGroup(t.Context()))
}

func TestConsumerAppliesAndAcknowledges(t *testing.T) {
	t.Parallel()

	stream, _ := setupStream(t)
	ctx := t.Context()

	published := []*events.Event{
		newEvent(events.TypeCreditAward),
		newEvent(events.TypeReputationUpdate),
		newEvent(events.TypeAudit),
	}
	for _, e := range published {
		_, err := stream.Publish(ctx, e)
		require.NoError(t, err)
	}

	handler := &recordingHandler{}
	consumer := events.NewConsumer(stream, handler, events.ConsumerOptions{
		Name:        "worker-1",
		BatchSize:   10,
		Concurrency: 2,
	}, zaptest.NewLogger(t))

	processed, err := consumer.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, processed)
	assert.Equal(t, 3, handler.count())

	ids := make(map[uuid.UUID]bool)
	for _, e := range handler.seen {
		ids[e.ID] = true
	}
	for _, e := range published {
		assert.True(t, ids[e.ID])
	}

	pending, err := stream.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	processed, err = consumer.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestFailedEventIsRedelivered(t *testing.T) {
	t.Parallel()

	stream, _ := setupStream(t)
	ctx := t.Context()

	_, err := stream.Publish(ctx, newEvent(events.TypeCreditAward))
	require.NoError(t, err)
	_, err = stream.Publish(ctx, newEvent(events.TypeAudit))
	require.NoError(t, err)

	handler := &recordingHandler{fail: map[events.Type]bool{events.TypeCreditAward: true}}
	consumer := events.NewConsumer(stream, handler, events.ConsumerOptions{
		Name:        "worker-1",
		BatchSize:   10,
		Concurrency: 1,
		ClaimIdle:   time.Millisecond,
	}, zaptest.NewLogger(t))

	processed, err := consumer.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	pending, err := stream.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	// Handler recovers and the idle entry is reclaimed
	handler.mu.Lock()
	handler.fail = nil
	handler.mu.Unlock()
	time.Sleep(20 * time.Millisecond)

	processed, err = consumer.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 2, handler.count())

	pending, err = stream.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestMalformedEntryIsParked(t *testing.T) {
	t.Parallel()

	stream, client := setupStream(t)
	ctx := t.Context()

	err := client.Do(ctx,
		client.B().Xadd().Key(testKey).Id("*").FieldValue().FieldValue("event", "not json").Build(),
	).Error()
	require.NoError(t, err)

	handler := &recordingHandler{}
	consumer := events.NewConsumer(stream, handler, events.ConsumerOptions{Name: "worker-1"}, zaptest.NewLogger(t))

	processed, err := consumer.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Zero(t, handler.count())

	pending, err := stream.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	dead := deadEntries(t, client, stream)
	require.Len(t, dead, 1)
	assert.Equal(t, "not json", dead[0].FieldValues["event"])
	assert.Equal(t, "malformed", dead[0].FieldValues["reason"])
}

// deadEntries reads the dead-letter stream of a stream.
func deadEntries(t *testing.T, client rueidis.Client, stream *events.Stream) []rueidis.XRangeEntry {
	t.Helper()

	entries, err := client.Do(t.Context(),
		client.B().Xrange().Key(stream.DeadKey()).Start("-").End("+").Build(),
	).AsXRange()
	require.NoError(t, err)
	return entries
}

// attemptCounter fails every event of one type and counts the attempts.
type attemptCounter struct {
	recordingHandler
	attempts atomic.Int32
	failType events.Type
}

func (h *attemptCounter) Handle(ctx context.Context, e *events.Event) error {
	if e.Type == h.failType {
		h.attempts.Add(1)
		return errors.New("handler failed")
	}
	return h.recordingHandler.Handle(ctx, e)
}

func TestExhaustedEventIsParked(t *testing.T) {
	t.Parallel()

	stream, client := setupStream(t)
	ctx := t.Context()

	poison := newEvent(events.TypeCreditAward)
	poisonID, err := stream.Publish(ctx, poison)
	require.NoError(t, err)
	_, err = stream.Publish(ctx, newEvent(events.TypeAudit))
	require.NoError(t, err)

	handler := &attemptCounter{failType: events.TypeCreditAward}
	consumer := events.NewConsumer(stream, handler, events.ConsumerOptions{
		Name:          "worker-1",
		BatchSize:     10,
		ClaimIdle:     time.Millisecond,
		MaxDeliveries: 3,
	}, zaptest.NewLogger(t))

	// First delivery plus one reclaim leave the entry pending
	for range 2 {
		_, err := consumer.ProcessOnce(ctx)
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	counts, err := stream.Deliveries(ctx, poisonID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[poisonID])
	assert.Empty(t, deadEntries(t, client, stream))

	// The third delivery reaches the limit
	processed, err := consumer.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, int32(3), handler.attempts.Load())
	assert.Equal(t, 1, handler.count())

	pending, err := stream.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	dead := deadEntries(t, client, stream)
	require.Len(t, dead, 1)
	assert.Equal(t, poisonID, dead[0].FieldValues["source_id"])
	assert.Equal(t, "max_deliveries", dead[0].FieldValues["reason"])

	parked, err := events.Decode(dead[0].FieldValues["event"])
	require.NoError(t, err)
	assert.Equal(t, poison.ID, parked.ID)

	// Parked entries are not redelivered
	time.Sleep(10 * time.Millisecond)
	processed, err = consumer.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Equal(t, int32(3), handler.attempts.Load())
}

func TestDeliveriesSkipsAcknowledgedEntries(t *testing.T) {
	t.Parallel()

	stream, _ := setupStream(t)
	ctx := t.Context()

	id, err := stream.Publish(ctx, newEvent(events.TypeAudit))
	require.NoError(t, err)

	entries, err := stream.Read(ctx, "worker-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	counts, err := stream.Deliveries(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[id])

	require.NoError(t, stream.Ack(ctx, id))

	counts, err = stream.Deliveries(ctx, id)
	require.NoError(t, err)
	assert.NotContains(t, counts, id)
}

func TestConsumerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	stream, _ := setupStream(t)
	handler := &recordingHandler{}
	consumer := events.NewConsumer(stream, handler, events.ConsumerOptions{
		Name:         "worker-1",
		PollInterval: 5 * time.Millisecond,
	}, zaptest.NewLogger(t))

	_, err := stream.Publish(t.Context(), newEvent(events.TypeAudit))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	require.Eventually(t, func() bool { return handler.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, *events.Event) (string, error) {
	return "", errors.New("stream unavailable")
}

func TestDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("inline without publisher", func(t *testing.T) {
		t.Parallel()

		handler := &recordingHandler{}
		d := events.NewDispatcher(nil, handler, zaptest.NewLogger(t))

		queued, err := d.Dispatch(t.Context(), newEvent(events.TypeAudit))
		require.NoError(t, err)
		assert.False(t, queued)
		assert.Equal(t, 1, handler.count())
	})

	t.Run("falls back inline when publishing fails", func(t *testing.T) {
		t.Parallel()

		handler := &recordingHandler{}
		d := events.NewDispatcher(failingPublisher{}, handler, zaptest.NewLogger(t))

		queued, err := d.Dispatch(t.Context(), newEvent(events.TypeAudit))
		require.NoError(t, err)
		assert.False(t, queued)
		assert.Equal(t, 1, handler.count())
	})

	t.Run("queues to the stream", func(t *testing.T) {
		t.Parallel()

		stream, _ := setupStream(t)
		handler := &recordingHandler{}
		d := events.NewDispatcher(stream, handler, zaptest.NewLogger(t))

		queued, err := d.Dispatch(t.Context(), newEvent(events.TypeCreditAward))
		require.NoError(t, err)
		assert.True(t, queued)
		assert.Zero(t, handler.count())
	})

	t.Run("returns inline handler failure", func(t *testing.T) {
		t.Parallel()

		handler := &recordingHandler{fail: map[events.Type]bool{events.TypeAudit: true}}
		d := events.NewDispatcher(nil, handler, zaptest.NewLogger(t))

		_, err := d.Dispatch(t.Context(), newEvent(events.TypeAudit))
		require.Error(t, err)
	})
}
