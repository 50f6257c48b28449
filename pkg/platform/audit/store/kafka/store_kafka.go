// Package kafka publishes audit events to a Kafka topic so external
// indexers can consume the audit feed. Kafka ordering per partition gives
// downstream consumers the emission order for a given subject.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "fides/pkg/platform/audit"
)

type Store struct {
	client *kgo.Client
	topic  string
}

// Options configures the Kafka audit sink.
type Options struct {
	Brokers []string
	Topic   string
	// Partitions used when the topic has to be created. Zero means 1.
	Partitions int32
}

// New connects to the brokers and ensures the audit topic exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	if len(opts.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(opts.Brokers...),
		kgo.DefaultProduceTopic(opts.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(3),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, opts); err != nil {
		client.Close()
		return nil, err
	}

	return &Store{client: client, topic: opts.Topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, opts Options) error {
	adm := kadm.NewClient(client)
	partitions := opts.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	resp, err := adm.CreateTopic(ctx, partitions, 1, nil, opts.Topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create audit topic %q: %w", opts.Topic, resp.Err)
	}
	return nil
}

// Append produces one event, keyed by subject so per-entity history stays
// ordered within a partition. The produce is synchronous: audit loss on
// crash would break the append-only contract.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the client.
func (s *Store) Close() {
	s.client.Close()
}
