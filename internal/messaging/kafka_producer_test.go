package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
)

func TestEncodeStockEvent(t *testing.T) {
	ts := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	event := models.StockEvent{Type: models.EventStockOutgoing, ItemID: "item-1", Quantity: 3, Stock: 7, Timestamp: ts}

	msg, err := encodeStockEvent(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("item-1"), msg.Key)
	assert.Equal(t, ts, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "stock.outgoing", string(msg.Headers[0].Value))

	var decoded models.StockEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 7, decoded.Stock)
}
