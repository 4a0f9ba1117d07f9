package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool

	// nilでなければ書き込みの途中で止める
	entered chan struct{}
	release chan struct{}
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.entered != nil {
		w.entered <- struct{}{}
		<-w.release
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func blockingWriter() *fakeWriter {
	return &fakeWriter{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func TestKafkaPublisher_Publish_KeyedByUser(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, 8, zap.NewNop())

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := model.CartEvent{
		ID:         "ev-1",
		Type:       model.CartEventItemAdded,
		UserID:     42,
		CartID:     7,
		ItemID:     3,
		VariantID:  11,
		Quantity:   2,
		OccurredAt: at,
	}

	require.NoError(t, p.Publish(context.Background(), ev))
	require.NoError(t, p.Close())

	msgs := w.written()
	require.Len(t, msgs, 1)

	msg := msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, "cart.item_added", string(msg.Headers[0].Value))

	var got model.CartEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev, got)
}

func TestKafkaPublisher_KeepsOrder(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, 16, zap.NewNop())

	for i := int64(1); i <= 10; i++ {
		require.NoError(t, p.Publish(context.Background(), model.CartEvent{Type: model.CartEventItemAdded, UserID: 1, ItemID: i}))
	}
	require.NoError(t, p.Close())

	msgs := w.written()
	require.Len(t, msgs, 10)
	for i, msg := range msgs {
		var ev model.CartEvent
		require.NoError(t, json.Unmarshal(msg.Value, &ev))
		assert.Equal(t, int64(i+1), ev.ItemID)
	}
}

// 書き込みが詰まっていてもPublishは待たない
func TestKafkaPublisher_PublishDoesNotWaitForSlowWriter(t *testing.T) {
	w := blockingWriter()
	p := newKafkaPublisher(w, 8, zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), model.CartEvent{Type: model.CartEventItemAdded, UserID: 1}))
	<-w.entered

	//書き込み中でも次のPublishはすぐ返る
	returned := make(chan error, 1)
	go func() {
		returned <- p.Publish(context.Background(), model.CartEvent{Type: model.CartEventItemRemoved, UserID: 1})
	}()
	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on the writer")
	}
	assert.Empty(t, w.written())

	close(w.release)
	require.NoError(t, p.Close())
	assert.Len(t, w.written(), 2)
}

// リクエストが取り消されても積んだイベントは書かれる
func TestKafkaPublisher_IgnoresCanceledContext(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, 8, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Publish(ctx, model.CartEvent{Type: model.CartEventCartDeleted, UserID: 9}))
	require.NoError(t, p.Close())
	assert.Len(t, w.written(), 1)
}

func TestKafkaPublisher_QueueFull(t *testing.T) {
	w := blockingWriter()
	p := newKafkaPublisher(w, 1, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, model.CartEvent{UserID: 1}))
	<-w.entered

	require.NoError(t, p.Publish(ctx, model.CartEvent{UserID: 1}))
	assert.ErrorIs(t, p.Publish(ctx, model.CartEvent{UserID: 1}), ErrQueueFull)

	close(w.release)
	require.NoError(t, p.Close())
	assert.Len(t, w.written(), 2)
}

func TestKafkaPublisher_WriteErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := newKafkaPublisher(&fakeWriter{err: errors.New("broker down")}, 8, zap.New(core))

	require.NoError(t, p.Publish(context.Background(), model.CartEvent{Type: model.CartEventCartDeleted, UserID: 1}))
	require.NoError(t, p.Close())

	entries := logs.FilterMessage("cart events write failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["count"])
	assert.Equal(t, "broker down", entries[0].ContextMap()["error"])
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, 8, zap.NewNop())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), model.CartEvent{}), ErrPublisherClosed)
	//2回目も落ちない
	require.NoError(t, p.Close())
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	assert.NoError(t, p.Publish(context.Background(), model.CartEvent{}))
	assert.NoError(t, p.Close())
}
