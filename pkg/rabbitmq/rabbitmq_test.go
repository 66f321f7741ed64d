package rabbitmq

import (
	"encoding/json"
	"testing"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventMessage(t *testing.T) {
	msg, err := NewEventMessage("champion.created", map[string]interface{}{
		"userID":     4821,
		"championID": 77,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "champion.created", msg.Type)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.NotEmpty(t, msg.MessageId)
	assert.False(t, msg.Timestamp.IsZero())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, float64(77), body["championID"])
}

func TestNewEventMessage_UnencodablePayload(t *testing.T) {
	_, err := NewEventMessage("user.registered", map[string]interface{}{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestLogEvent(t *testing.T) {
	assert.NoError(t, LogEvent(amqp.Delivery{Type: "user.registered", Body: []byte(`{"userID": 1}`)}))
	// malformed bodies are dropped rather than requeued
	assert.NoError(t, LogEvent(amqp.Delivery{Type: "user.registered", Body: []byte(`{`)}))
}

func TestPublishWithoutChannel(t *testing.T) {
	c := &Client{}
	assert.Error(t, c.PublishEvent("user.registered", nil))
	assert.Error(t, c.ConsumeEvents(LogEvent))
	assert.NoError(t, c.Close())
}
