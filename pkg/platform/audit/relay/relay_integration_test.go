//go:build integration

package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "safereturn/pkg/domain"
	"safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/audit/store/postgres"
	"safereturn/pkg/testutil/containers"
)

// TestRelayDeliversOutboxToKafka writes audit events through the outbox
// store, runs the relay against a real broker, and consumes them back.
func TestRelayDeliversOutboxToKafka(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	broker := containers.NewRedpandaContainer(t)

	store := postgres.New(pg.DB)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	topic := "safereturn.case-events.test"

	rel, err := New(ctx, broker.Brokers, topic, store, logger)
	require.NoError(t, err)
	defer rel.Close()

	personID := id.PersonID(uuid.New())
	events := []audit.Event{
		{Timestamp: time.Now().UTC(), PersonID: personID, Subject: personID.String(), Action: string(audit.EventCheckinSubmitted)},
		{Timestamp: time.Now().UTC(), PersonID: personID, Subject: personID.String(), Action: string(audit.EventRiskTierChanged)},
	}
	for _, e := range events {
		require.NoError(t, store.Append(ctx, e))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = rel.Run(runCtx) }()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	received := map[string]bool{}
	deadline := time.After(30 * time.Second)
	for len(received) < len(events) {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for audit events, got %d of %d", len(received), len(events))
		default:
		}
		pollCtx, pollCancel := context.WithTimeout(ctx, 2*time.Second)
		fetches := consumer.PollFetches(pollCtx)
		pollCancel()
		fetches.EachRecord(func(r *kgo.Record) {
			var payload struct {
				Action string `json:"Action"`
			}
			require.NoError(t, json.Unmarshal(r.Value, &payload))
			received[payload.Action] = true
		})
	}
	require.True(t, received[string(audit.EventCheckinSubmitted)])
	require.True(t, received[string(audit.EventRiskTierChanged)])

	// the relay stamped the rows; nothing left to deliver
	require.Eventually(t, func() bool {
		rows, err := store.Unpublished(ctx, 10)
		return err == nil && len(rows) == 0
	}, 10*time.Second, 500*time.Millisecond)
}
