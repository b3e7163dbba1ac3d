package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"badgeledger/internal/platform/config"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{Topic: "events"})
	assert.ErrorContains(t, err, "no brokers")
}
