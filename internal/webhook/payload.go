// Package webhook defines the typed shape of inbound WhatsApp Business
// webhook payloads and the queue envelope they travel in. Payload shape is
// validated once here, at the boundary, so downstream code works with
// well-typed records instead of probing optional fields.
package webhook

import (
	"encoding/json"
	"fmt"
)

// Payload is the WhatsApp Business webhook payload
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Messages         []Message `json:"messages"`
	Contacts         []Contact `json:"contacts"`
}

// Message is one inbound WhatsApp message
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Type      string    `json:"type"`
	Timestamp string    `json:"timestamp"`
	Text      *Text     `json:"text,omitempty"`
	Context   *Context  `json:"context,omitempty"`
	Image     *Media    `json:"image,omitempty"`
	Video     *Media    `json:"video,omitempty"`
	Document  *Media    `json:"document,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

// Context is present when the message replies to an earlier message
type Context struct {
	From string `json:"from"`
	ID   string `json:"id"`
}

// Media is an attached image, video or document reference
type Media struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

// DecodePayload parses and shape-checks a raw webhook payload
func DecodePayload(raw json.RawMessage) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	return &p, nil
}

// FirstMessage returns the first inbound message of the payload, or nil
// when the payload carries none (a status update, for example)
func (p *Payload) FirstMessage() *Message {
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) > 0 {
				return &change.Value.Messages[0]
			}
		}
	}
	return nil
}

// FirstContact returns the first contact record of the payload, or nil
func (p *Payload) FirstContact() *Contact {
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Contacts) > 0 {
				return &change.Value.Contacts[0]
			}
		}
	}
	return nil
}

// IsReply reports whether the message references an earlier message
func (m *Message) IsReply() bool {
	return m.Context != nil && m.Context.ID != ""
}

// Body returns the text body, empty for non-text messages
func (m *Message) Body() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}

// MediaItems collects the message's media references in a stable order:
// image, video, document.
func (m *Message) MediaItems() []Media {
	var items []Media
	if m.Image != nil {
		items = append(items, *m.Image)
	}
	if m.Video != nil {
		items = append(items, *m.Video)
	}
	if m.Document != nil {
		items = append(items, *m.Document)
	}
	return items
}

// DisplayName returns the contact's profile name, falling back to the
// WhatsApp ID
func (c *Contact) DisplayName() string {
	if c.Profile.Name != "" {
		return c.Profile.Name
	}
	return c.WaID
}
