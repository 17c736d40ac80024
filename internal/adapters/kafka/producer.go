package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

// Producer handles Kafka message publishing, one writer per topic
type Producer struct {
	mu      sync.Mutex
	writers map[string]*kafka.Writer
	brokers []string
	timeout time.Duration
	log     *logger.Logger
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers      []string
	WriteTimeout time.Duration
}

// Keyed is one message to publish
type Keyed struct {
	Key   string
	Value interface{}
}

// NewProducer creates a new Kafka producer. Writers connect lazily.
func NewProducer(cfg ProducerConfig) *Producer {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		brokers: cfg.Brokers,
		timeout: timeout,
		log:     logger.Get().Component("kafka_producer"),
	}
}

func (p *Producer) getWriter(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           p.timeout,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}

	p.writers[topic] = w
	return w
}

// Publish sends one JSON encoded event to a topic
func (p *Producer) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	return p.PublishBatch(ctx, topic, []Keyed{{Key: key, Value: event}})
}

// PublishBatch JSON encodes and sends all events in one write
func (p *Producer) PublishBatch(ctx context.Context, topic string, events []Keyed) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e.Value)
		if err != nil {
			return errors.Wrapf(err, "marshal event %s", e.Key)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(e.Key), Value: data})
	}

	if err := p.getWriter(topic).WriteMessages(ctx, msgs...); err != nil {
		p.log.Errorw("Failed to publish", "topic", topic, "messages", len(msgs), "error", err)
		return errors.Wrapf(err, "publish to %s", topic)
	}

	p.log.Debugw("Published", "topic", topic, "messages", len(msgs))
	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs errors.MultiError
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs.Add(errors.Wrapf(err, "close writer for %s", topic))
		}
	}
	return errs.ToError()
}
