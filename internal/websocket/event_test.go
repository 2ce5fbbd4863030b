package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":     1,
		"name":   "Cash",
		"amount": "100.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
	after := time.Now()

	assert.Equal(t, "transaction.created", evt.Type)
	assert.Equal(t, EntityTypeTransaction, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before.UTC().Add(-time.Second)) && !evt.Timestamp.After(after.UTC().Add(time.Second)))
}

func TestEvent_ToJSON(t *testing.T) {
	evt := NewEvent(EventTypeUpdated, EntityTypeAccount, map[string]interface{}{"id": float64(42)})

	data, err := evt.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded map[string]interface{}
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, "account.updated", decoded["type"])
	assert.Equal(t, "account", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestEvent_Helpers(t *testing.T) {
	tests := []struct {
		name     string
		evt      Event
		expected string
		entity   EntityType
	}{
		{"transaction created", TransactionCreated(nil), "transaction.created", EntityTypeTransaction},
		{"transaction updated", TransactionUpdated(nil), "transaction.updated", EntityTypeTransaction},
		{"transaction deleted", TransactionDeleted(nil), "transaction.deleted", EntityTypeTransaction},
		{"transactions cleared", TransactionsCleared(nil), "transaction.cleared", EntityTypeTransaction},
		{"transfer created", TransferCreated(nil), "transfer.created", EntityTypeTransfer},
		{"account created", AccountCreated(nil), "account.created", EntityTypeAccount},
		{"account updated", AccountUpdated(nil), "account.updated", EntityTypeAccount},
		{"account adjusted", AccountAdjusted(nil), "account.adjusted", EntityTypeAccount},
		{"account deleted", AccountDeleted(nil), "account.deleted", EntityTypeAccount},
		{"category created", CategoryCreated(nil), "category.created", EntityTypeCategory},
		{"category updated", CategoryUpdated(nil), "category.updated", EntityTypeCategory},
		{"category deleted", CategoryDeleted(nil), "category.deleted", EntityTypeCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.evt.Type)
			assert.Equal(t, tt.entity, tt.evt.Entity)
		})
	}
}
