package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"storefront/constants"
	"storefront/model"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

const defaultQueueSize = 256

var ErrPublishQueueFull = errors.New("kafka publish queue is full")

type Envelope struct {
	EventType string                 `json:"event_type"`
	Data      model.OrderPlacedEvent `json:"data"`
}

// KafkaPublisher writes order.placed events keyed by order code. Events are
// queued and sent by one background worker, so callers never wait on brokers.
type KafkaPublisher struct {
	producer  sarama.SyncProducer
	topic     string
	queueSize int
	onError   func(event model.OrderPlacedEvent, err error)

	queue     chan *sarama.ProducerMessage
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

type PublisherOption func(*KafkaPublisher)

func WithQueueSize(n int) PublisherOption {
	return func(p *KafkaPublisher) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithErrorHandler is called from the worker for every failed send.
func WithErrorHandler(fn func(event model.OrderPlacedEvent, err error)) PublisherOption {
	return func(p *KafkaPublisher) {
		if fn != nil {
			p.onError = fn
		}
	}
}

// NewKafkaProducer bounds every broker wait to a few seconds.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Timeout = 5 * time.Second
	config.Producer.Retry.Max = 2
	config.Producer.Retry.Backoff = 200 * time.Millisecond
	config.Net.DialTimeout = 3 * time.Second
	config.Net.ReadTimeout = 5 * time.Second
	config.Net.WriteTimeout = 5 * time.Second
	config.Metadata.Retry.Max = 1
	config.Metadata.Retry.Backoff = 250 * time.Millisecond
	return sarama.NewSyncProducer(brokers, config)
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, opts ...PublisherOption) *KafkaPublisher {
	if topic == "" {
		topic = constants.EVENT_ORDER_PLACED
	}
	p := &KafkaPublisher{
		producer:  producer,
		topic:     topic,
		queueSize: defaultQueueSize,
		onError: func(event model.OrderPlacedEvent, err error) {
			log.Printf("Kafka publish failed order=%s: %v", event.OrderCode, err)
		},
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.queue = make(chan *sarama.ProducerMessage, p.queueSize)
	go p.run()
	return p
}

// NotifyOrderPlaced enqueues the event and returns at once. A full queue
// drops the event with ErrPublishQueueFull.
func (p *KafkaPublisher) NotifyOrderPlaced(_ context.Context, event model.OrderPlacedEvent) error {
	data, err := json.Marshal(Envelope{EventType: constants.EVENT_ORDER_PLACED, Data: event})
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic:    p.topic,
		Key:      sarama.StringEncoder(event.OrderCode),
		Value:    sarama.ByteEncoder(data),
		Metadata: event,
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("send %s: %w", p.topic, sarama.ErrClosedClient)
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return fmt.Errorf("send %s order=%s: %w", p.topic, event.OrderCode, ErrPublishQueueFull)
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		event, _ := msg.Metadata.(model.OrderPlacedEvent)
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			p.onError(event, fmt.Errorf("send %s: %w", p.topic, err))
			continue
		}
		log.Printf("Published %s order=%s partition=%d offset=%d", p.topic, event.OrderCode, partition, offset)
	}
}

// Close drains queued events and closes the producer.
func (p *KafkaPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
	<-p.done
	return p.producer.Close()
}
