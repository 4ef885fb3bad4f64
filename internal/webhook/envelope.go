package webhook

import (
	"encoding/json"
	"fmt"
	"time"
)

// ServiceVersion is stamped on every queued envelope
const ServiceVersion = "1.0.0"

// StatusQueued marks an envelope that has been accepted and enqueued
const StatusQueued = "queued"

// Envelope wraps a raw webhook payload with ingestion metadata before it is
// pushed onto the queue. The payload itself stays opaque at the receiver;
// only the parser worker decodes it.
type Envelope struct {
	ReceivedAt       time.Time       `json:"received_at"`
	ProcessingStatus string          `json:"processing_status"`
	ServiceVersion   string          `json:"service_version"`
	Payload          json.RawMessage `json:"payload"`
}

// NewEnvelope stamps a raw payload for enqueueing
func NewEnvelope(payload json.RawMessage, receivedAt time.Time) Envelope {
	return Envelope{
		ReceivedAt:       receivedAt.UTC(),
		ProcessingStatus: StatusQueued,
		ServiceVersion:   ServiceVersion,
		Payload:          payload,
	}
}

// DecodeEnvelope parses a queued envelope back from its serialized form
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode queue envelope: %w", err)
	}
	return &env, nil
}
