package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storedesk/helpdesk/internal/notify"
)

func TestEncodeDecode(t *testing.T) {
	evt, err := notify.NewEvent(notify.ConversationTopic("c1"), notify.EventNewMessage, map[string]string{"id": "m1"})
	require.NoError(t, err)

	data, err := encode(evt)
	require.NoError(t, err)

	got, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, "conversation:c1", got.Topic)
	assert.Equal(t, notify.EventNewMessage, got.Name)
	assert.JSONEq(t, `{"id":"m1"}`, string(got.Data))
}

func TestDecode_RejectsMissingTopic(t *testing.T) {
	_, err := decode([]byte(`{"event":"new_message"}`))
	assert.Error(t, err)

	_, err = decode([]byte(`not json`))
	assert.Error(t, err)
}
