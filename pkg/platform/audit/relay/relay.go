package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kerr"

	"safereturn/pkg/platform/audit/store/postgres"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = time.Second
)

// Relay drains the audit outbox into a Kafka topic. It is the second half
// of the transactional outbox: domain writes and their audit rows commit
// together, then the relay makes delivery happen eventually.
type Relay struct {
	store  *postgres.Store
	client *kgo.Client
	topic  string
	logger *slog.Logger

	batchSize    int
	pollInterval time.Duration
}

// New connects a Kafka producer for the given brokers and ensures the audit
// topic exists.
func New(ctx context.Context, brokers []string, topic string, store *postgres.Store, logger *slog.Logger) (*Relay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Relay{
		store:        store,
		client:       client,
		topic:        topic,
		logger:       logger,
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
	}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", topic, resp.Err)
	}
	return nil
}

// Run polls the outbox until the context is cancelled. Each published batch
// is stamped published_at so a crash between produce and stamp re-delivers
// rather than losing events; consumers must tolerate duplicates.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.publishBatch(ctx); err != nil {
				r.logger.Error("audit relay batch failed", "error", err)
			}
		}
	}
}

func (r *Relay) publishBatch(ctx context.Context) error {
	rows, err := r.store.Unpublished(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	records := make([]*kgo.Record, len(rows))
	for i, row := range rows {
		records[i] = &kgo.Record{
			Topic: r.topic,
			Key:   []byte(row.AggregateID),
			Value: row.Payload,
		}
	}
	if err := r.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	if err := r.store.MarkPublished(ctx, ids); err != nil {
		return err
	}
	r.logger.Debug("audit batch relayed", "count", len(rows))
	return nil
}

// Close flushes buffered records and releases the Kafka client.
func (r *Relay) Close() {
	r.client.Close()
}
