//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"badgeledger/internal/platform/config"
	"badgeledger/pkg/testutil/containers"
)

func TestProducerRoundTrip(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	p, err := NewProducer(config.KafkaConfig{Brokers: rp.Brokers, Topic: "ledger-events", ClientID: "test"})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Ping(ctx))
	require.NoError(t, p.EnsureTopic(ctx, 1, 1))
	require.NoError(t, p.EnsureTopic(ctx, 1, 1), "second call tolerates an existing topic")
	require.NoError(t, p.Produce(ctx, &kgo.Record{Key: []byte("minted"), Value: []byte(`{"seq":1}`)}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics("ledger-events"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "minted", string(records[0].Key))
	assert.JSONEq(t, `{"seq":1}`, string(records[0].Value))
}
