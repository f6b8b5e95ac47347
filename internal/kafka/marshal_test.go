package kafka

import (
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	topic   string
	key     []byte
	value   []byte
	headers []kafka.Header
}

type recordingPublisher struct{ msgs []recorded }

func (p *recordingPublisher) Publish(topic string, key, value []byte, headers ...kafka.Header) {
	p.msgs = append(p.msgs, recorded{topic: topic, key: key, value: value, headers: headers})
}

type samplePayload struct {
	SellerOrderID int64  `json:"seller_order_id"`
	To            string `json:"to"`
}

func TestPublishEvent(t *testing.T) {
	p := &recordingPublisher{}

	err := PublishEvent(p, "marketplace.seller_order.status", "SellerOrderStatusChanged", "api", "42",
		samplePayload{SellerOrderID: 42, To: "delivered"})
	require.NoError(t, err)
	require.Len(t, p.msgs, 1)

	msg := p.msgs[0]
	assert.Equal(t, "marketplace.seller_order.status", msg.topic)
	assert.Equal(t, []byte("42"), msg.key)
	require.Len(t, msg.headers, 2)
	assert.Equal(t, HeaderEventType, msg.headers[0].Key)
	assert.Equal(t, []byte("SellerOrderStatusChanged"), msg.headers[0].Value)

	var env Envelope
	require.NoError(t, UnmarshalEnvelope(msg.value, &env))
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "42", env.CorrelationID)
	assert.Equal(t, "api", env.Producer)

	payload, err := UnwrapPayload[samplePayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, samplePayload{SellerOrderID: 42, To: "delivered"}, payload)
}

func TestUnwrapPayloadRejectsGarbage(t *testing.T) {
	_, err := UnwrapPayload[samplePayload](json.RawMessage(`{"seller_order_id":"x"}`))
	assert.Error(t, err)
}
