package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e := New(SaleCompleted, SalePayload{ID: "s1", Items: []ItemPayload{{ProductID: "p1", Quantity: 2}}})
	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, SaleCompleted, e.EventType)
	assert.False(t, e.Timestamp.IsZero())

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"event_id", "event_type", "payload", "timestamp"} {
		assert.Contains(t, decoded, key)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), New(SaleRefunded, SalePayload{})))
	assert.NoError(t, p.Close())
}
