package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), TestCompleted, map[string]string{"id": "r1"}))

	events := r.Events()
	require.Len(t, events, 1)
	assert.Equal(t, TestCompleted, events[0].Type)
	assert.False(t, events[0].OccurredAt.IsZero())
}

func TestEnvelopeJSON(t *testing.T) {
	data, err := json.Marshal(Envelope{Type: SelectionCompleted, Payload: map[string]bool{"isAdaptive": true}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"quiz.selection.completed"`)
	assert.Contains(t, string(data), `"payload":{"isAdaptive":true}`)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), TestCompleted, nil))
	assert.NoError(t, p.Close())
}
