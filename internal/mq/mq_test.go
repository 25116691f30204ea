package mq

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techzara/platform/config"
)

type recordingBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
}

func (b *recordingBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.channel = channel
	b.data = data
	b.attrs = attrs
	return "msg-1", nil
}

func (b *recordingBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return nil
}

func (b *recordingBackend) Close() error {
	return nil
}

func TestPublishJSON(t *testing.T) {
	backend := &recordingBackend{}
	attrs := map[string]string{"type": "user.created"}

	id, err := New(backend).PublishJSON(context.Background(), "user.events", map[string]int{"user_id": 5}, attrs)
	require.NoError(t, err)

	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "user.events", backend.channel)
	assert.JSONEq(t, `{"user_id":5}`, string(backend.data))
	assert.Equal(t, map[string]string{"type": "user.created", AttrContentType: "application/json"}, backend.attrs)
	assert.Len(t, attrs, 1, "caller attributes must not be modified")
}

func TestPublishJSONEncodeError(t *testing.T) {
	_, err := New(&recordingBackend{}).PublishJSON(context.Background(), "c", json.RawMessage(`{`), nil)
	assert.Error(t, err)
}

func TestOpenDisabled(t *testing.T) {
	for _, backend := range []string{"", config.MQBackendNone} {
		m, err := Open(context.Background(), config.MQConfig{Backend: backend})
		require.NoError(t, err)
		assert.Nil(t, m)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.EqualError(t, err, `unknown mq backend "kafka"`)
}

func TestNewRabbitMQClientRequiresURL(t *testing.T) {
	_, err := NewRabbitMQClient(config.RabbitMQConfig{})
	assert.EqualError(t, err, "rabbitmq url is required")
}

func TestHeadersToAttributes(t *testing.T) {
	assert.Nil(t, headersToAttributes(nil))

	attrs := headersToAttributes(amqp.Table{
		"type":  "user.deleted",
		"raw":   []byte("bytes"),
		"count": int32(3),
	})
	assert.Equal(t, map[string]string{"type": "user.deleted", "raw": "bytes", "count": "3"}, attrs)
}

func TestNewMessageID(t *testing.T) {
	a, b := newMessageID(), newMessageID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestSubscriptionName(t *testing.T) {
	assert.Equal(t, "user.events-sub", (&PubSubClient{subscriptionSuffix: "-sub"}).subscriptionName("user.events"))
	assert.Equal(t, "user.events", (&PubSubClient{}).subscriptionName("user.events"))
}
