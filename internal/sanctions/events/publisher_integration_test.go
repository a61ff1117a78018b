//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"sdnguard/internal/sanctions/models"
	"sdnguard/pkg/testutil/containers"
)

func TestKafkaPublisherDeliversEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := containers.NewRedpandaContainer(t)
	const topic = "sanctions.screening.completed"

	admClient, err := kgo.NewClient(kgo.SeedBrokers(broker.SeedBroker))
	require.NoError(t, err)
	defer admClient.Close()
	adm := kadm.NewClient(admClient)
	_, err = adm.CreateTopics(ctx, 1, 1, nil, topic)
	require.NoError(t, err)

	pub, err := NewKafkaPublisher([]string{broker.SeedBroker}, topic)
	require.NoError(t, err)

	bulk := models.NewBulkCheckResult([]models.CustomerCheckResult{
		models.CheckFromLookup("Jane Doe", models.NewLookupResult(nil)),
		models.CheckFromLookup("Ali Hassan", models.NewLookupResult([]models.WatchlistRecord{{ID: "NK-1"}})),
	})
	pub.Publish(ctx, FromBulk(ctx, bulk)...)
	require.NoError(t, pub.Close(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.SeedBroker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	got := map[string]ScreeningEvent{}
	for len(got) < 2 {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			var ev ScreeningEvent
			require.NoError(t, json.Unmarshal(r.Value, &ev))
			require.Equal(t, ev.CustomerName, string(r.Key))
			got[ev.CustomerName] = ev
		})
	}

	require.Equal(t, models.RiskClear, got["Jane Doe"].RiskLevel)
	require.Equal(t, models.RiskCritical, got["Ali Hassan"].RiskLevel)
	require.Equal(t, []string{"NK-1"}, got["Ali Hassan"].MatchedIDs)
}
