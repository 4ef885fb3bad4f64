package webhook

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"id": "entry-1",
		"changes": [{
			"field": "messages",
			"value": {
				"messaging_product": "whatsapp",
				"contacts": [{"wa_id": "919876543210", "profile": {"name": "Rajesh Kumar"}}],
				"messages": [{
					"id": "wamid.abc123",
					"from": "919876543210",
					"type": "text",
					"timestamp": "1756600000",
					"text": {"body": "Brand: Kirloskar"}
				}]
			}
		}]
	}]
}`

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload([]byte(samplePayload))
	require.NoError(t, err)

	msg := p.FirstMessage()
	require.NotNil(t, msg)
	assert.Equal(t, "wamid.abc123", msg.ID)
	assert.Equal(t, "919876543210", msg.From)
	assert.Equal(t, "text", msg.Type)
	assert.Equal(t, "Brand: Kirloskar", msg.Body())
	assert.False(t, msg.IsReply())

	contact := p.FirstContact()
	require.NotNil(t, contact)
	assert.Equal(t, "Rajesh Kumar", contact.DisplayName())
}

func TestDecodePayload_Invalid(t *testing.T) {
	_, err := DecodePayload([]byte(`{not json`))
	assert.Error(t, err)
}

func TestFirstMessage_StatusUpdatePayload(t *testing.T) {
	p, err := DecodePayload([]byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "entry-1", "changes": [{"field": "messages", "value": {"messaging_product": "whatsapp"}}]}]
	}`))
	require.NoError(t, err)

	assert.Nil(t, p.FirstMessage())
	assert.Nil(t, p.FirstContact())
}

func TestMessage_IsReply(t *testing.T) {
	reply := &Message{Context: &Context{ID: "wamid.original"}}
	assert.True(t, reply.IsReply())

	assert.False(t, (&Message{}).IsReply())
	assert.False(t, (&Message{Context: &Context{}}).IsReply())
}

func TestMessage_MediaItems_StableOrder(t *testing.T) {
	msg := &Message{
		Document: &Media{ID: "doc"},
		Image:    &Media{ID: "img"},
		Video:    &Media{ID: "vid"},
	}

	items := msg.MediaItems()
	require.Len(t, items, 3)
	assert.Equal(t, "img", items[0].ID)
	assert.Equal(t, "vid", items[1].ID)
	assert.Equal(t, "doc", items[2].ID)

	assert.Empty(t, (&Message{}).MediaItems())
}

func TestContact_DisplayNameFallsBackToWaID(t *testing.T) {
	c := &Contact{WaID: "919876543210"}
	assert.Equal(t, "919876543210", c.DisplayName())
}

func TestEnvelopeRoundTrip(t *testing.T) {
	received := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	env := NewEnvelope(json.RawMessage(samplePayload), received)

	assert.Equal(t, StatusQueued, env.ProcessingStatus)
	assert.Equal(t, ServiceVersion, env.ServiceVersion)
	assert.Equal(t, received, env.ReceivedAt)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env.ProcessingStatus, decoded.ProcessingStatus)
	assert.True(t, env.ReceivedAt.Equal(decoded.ReceivedAt))

	// The payload survives opaque and still decodes downstream
	p, err := DecodePayload(decoded.Payload)
	require.NoError(t, err)
	require.NotNil(t, p.FirstMessage())
}
