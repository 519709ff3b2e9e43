// Package broker implements L4: the outbound broker adapter, publishing
// ordered, key-partitioned messages and wrapping the call in L1 retry and
// L2 circuit breaking.
package broker

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/boniface/scylladb-cdc-sub001/internal/breaker"
	"github.com/boniface/scylladb-cdc-sub001/internal/retry"
)

// ErrBrokerTransient marks a publish failure the retry policy should
// attempt again.
var ErrBrokerTransient = errors.New("broker: transient publish failure")

// ErrBrokerPermanent marks a publish failure retrying cannot fix.
var ErrBrokerPermanent = errors.New("broker: permanent publish failure")

// Message is the wire shape a publish call sends: topic = event_type, key
// = aggregate_id bytes, value = payload, per spec §6.
type Message struct {
	Topic         string
	Key           []byte
	Value         []byte
	EventID       string
	CorrelationID string
	CausationID   string
	EventVersion  int
}

// Writer is the kafka-go surface the adapter depends on, narrowed for
// testability; production code always gets one backed by a real
// kafka.Writer, tests may supply their own.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher lazily manages one kafka.Writer per topic, same as the
// producer it is adapted from, and publishes every message through a
// shared retry policy and circuit breaker so a struggling broker degrades
// predictably instead of stalling the whole fan-out pipeline.
type Publisher struct {
	brokerAddrs []string
	mu          sync.Mutex
	writers     map[string]Writer
	newWriter   func(addrs []string, topic string) Writer

	policy  retry.Policy
	circuit *breaker.Breaker
}

// Config configures a Publisher's retry and breaker behavior.
type Config struct {
	BrokerAddrs      []string
	RetryPolicy      retry.Policy
	BreakerConfig    breaker.Config
	// WriterFactory overrides how per-topic writers are constructed.
	// Tests use this to inject a fake instead of dialing a real broker;
	// production callers should leave it nil.
	WriterFactory func(addrs []string, topic string) Writer
}

// New constructs a Publisher.
func New(cfg Config) *Publisher {
	factory := cfg.WriterFactory
	if factory == nil {
		factory = newKafkaWriter
	}
	return &Publisher{
		brokerAddrs: cfg.BrokerAddrs,
		writers:     make(map[string]Writer),
		newWriter:   factory,
		policy:      cfg.RetryPolicy,
		circuit:     breaker.New(cfg.BreakerConfig),
	}
}

// Publish sends one message, retrying transient failures under the
// configured policy and failing fast with breaker.ErrCircuitOpen when the
// breaker is open. It returns the number of attempts made, so a caller
// routing a failure to the dead-letter queue can report a real failure
// count instead of a hardcoded one.
func (p *Publisher) Publish(ctx context.Context, msg Message) (int, error) {
	_, attempts, err := p.policy.Do(ctx, func(ctx context.Context) error {
		err := p.circuit.Execute(ctx, func(ctx context.Context) error {
			return p.writerForTopic(msg.Topic).WriteMessages(ctx, toKafkaMessage(msg))
		})
		if errors.Is(err, breaker.ErrCircuitOpen) {
			return retry.PermanentError(err)
		}
		return err
	})
	return attempts, err
}

// CircuitState reports the current state of the publish circuit breaker,
// for health reporting.
func (p *Publisher) CircuitState() breaker.State {
	return p.circuit.State()
}

// Close releases every writer the Publisher has opened.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}

func (p *Publisher) writerForTopic(topic string) Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(p.brokerAddrs, topic)
	p.writers[topic] = w
	return w
}

func newKafkaWriter(addrs []string, topic string) Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
}

func toKafkaMessage(msg Message) kafka.Message {
	headers := []kafka.Header{
		{Key: "event_id", Value: []byte(msg.EventID)},
		{Key: "correlation_id", Value: []byte(msg.CorrelationID)},
		{Key: "event_version", Value: []byte(strconv.Itoa(msg.EventVersion))},
	}
	if msg.CausationID != "" {
		headers = append(headers, kafka.Header{Key: "causation_id", Value: []byte(msg.CausationID)})
	}
	return kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}
