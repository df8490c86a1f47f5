package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"dropspace/pkg/platform/circuit"
)

const probeTimeout = 2 * time.Second

// KafkaSink publishes audit events to a Kafka/Redpanda topic. Kafka is the
// durable audit trail; the in-memory store only serves local inspection.
type KafkaSink struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
}

// NewKafkaSink connects to the brokers and makes sure the topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	sink := &KafkaSink{
		client:  client,
		topic:   topic,
		breaker: circuit.New("audit-kafka", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
	}
	if err := sink.ensureTopic(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return sink, nil
}

func (s *KafkaSink) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(s.client)
	responses, err := adm.CreateTopics(ctx, 1, 1, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, response := range responses {
		if response.Err != nil && !errors.Is(response.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", response.Topic, response.Err)
		}
	}
	return nil
}

// Append publishes one event, keyed by action so per-action ordering holds.
// While the breaker is open produce attempts run with a short probe timeout,
// so a down broker costs milliseconds per event instead of a full produce
// timeout. Dropped events are reported to the worker; the in-memory store
// still holds a copy.
func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	if s.breaker.IsOpen() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, probeTimeout)
		defer cancel()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Action),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		s.breaker.RecordFailure()
		return fmt.Errorf("produce audit event: %w", err)
	}
	s.breaker.RecordSuccess()
	return nil
}

// Close flushes and releases the producer.
func (s *KafkaSink) Close() {
	s.client.Close()
}
