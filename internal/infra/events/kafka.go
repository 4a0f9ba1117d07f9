package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/metrics"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultQueueSize = 1024
	maxBatch         = 100
	writeTimeout     = 10 * time.Second
)

var (
	ErrQueueFull       = errors.New("kafka: publish queue full")
	ErrPublisherClosed = errors.New("kafka: publisher closed")
)

// KafkaPublisher はカートイベントをKafkaへ書く。キーはuser_id（同じユーザーは同じパーティション）。
// Publish はキューに積むだけで、書き込みは裏の1本のgoroutineが順番に行う。
type KafkaPublisher struct {
	writer messageWriter
	log    *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message
	done   chan struct{}
}

// *kafka.Writer を満たす最小の口（テストで差し替える）
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchSize:              maxBatch,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}, defaultQueueSize, log)
}

func newKafkaPublisher(w messageWriter, queueSize int, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &KafkaPublisher{
		writer: w,
		log:    log,
		queue:  make(chan kafka.Message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish は待たない。ctxはコミット済みのイベントなので見ない。
func (p *KafkaPublisher) Publish(_ context.Context, ev model.CartEvent) error {
	msg, err := toMessage(ev)
	if err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)

	for msg := range p.queue {
		batch := []kafka.Message{msg}
	fill:
		for len(batch) < maxBatch {
			select {
			case m, ok := <-p.queue:
				if !ok {
					break fill
				}
				batch = append(batch, m)
			default:
				break fill
			}
		}
		p.write(batch)
	}
}

func (p *KafkaPublisher) write(batch []kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		metrics.ObservePublishFailures(len(batch))
		p.log.Warn("cart events write failed", zap.Int("count", len(batch)), zap.Error(err))
	}
}

func toMessage(ev model.CartEvent) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.UserID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
		Time: ev.OccurredAt,
	}, nil
}

// Close は積まれた分を書き切ってから閉じる。
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}

// NopPublisher はブローカー未設定時に使う。
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.CartEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
