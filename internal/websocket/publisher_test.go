package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_ImplementsEventPublisher(t *testing.T) {
	var publisher EventPublisher = NewHub()
	assert.NotNil(t, publisher)
}

func TestHub_PublishReachesUserClients(t *testing.T) {
	hub := NewHub()
	client := newMockClient("client-1", "user-a")
	hub.Register(client)

	hub.Publish("user-a", AccountAdjusted(map[string]interface{}{"id": float64(3)}))

	time.Sleep(10 * time.Millisecond)

	msgs := client.GetMessages()
	require.Len(t, msgs, 1)
	assert.Contains(t, string(msgs[0]), "account.adjusted")
}

func TestNoOpPublisher_DoesNothing(t *testing.T) {
	publisher := &NoOpPublisher{}

	require.NotPanics(t, func() {
		publisher.Publish("user-a", TransactionCreated(nil))
	})
}
