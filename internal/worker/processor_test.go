package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"genmarket/internal/model"
	"genmarket/internal/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func queuedPayload(t *testing.T, payload webhook.Payload) []byte {
	t.Helper()
	rawPayload, err := json.Marshal(payload)
	assert.NoError(t, err)
	env := webhook.NewEnvelope(rawPayload, time.Now())
	raw, err := json.Marshal(env)
	assert.NoError(t, err)
	return raw
}

func textPayload(messageID, from, body string) webhook.Payload {
	return webhook.Payload{
		Object: "whatsapp_business_account",
		Entry: []webhook.Entry{{
			Changes: []webhook.Change{{
				Field: "messages",
				Value: webhook.Value{
					Messages: []webhook.Message{{
						ID:   messageID,
						From: from,
						Type: "text",
						Text: &webhook.Text{Body: body},
					}},
					Contacts: []webhook.Contact{{
						WaID:    from,
						Profile: webhook.Profile{Name: "Ramesh"},
					}},
				},
			}},
		}},
	}
}

const listingText = "Type: Used Generator\nBrand: Kirloskar\nModel: KG1-62.5AS\nPrice: ₹850000\nHours: 12500\nLocation: Mumbai, Maharashtra\nDescription: Good condition"

func newTestProcessor() (*Processor, *MockUserRepository, *MockGeneratorRepository, *MockMediaResolver, *MockReplyResolver) {
	users := new(MockUserRepository)
	gens := new(MockGeneratorRepository)
	media := new(MockMediaResolver)
	replies := new(MockReplyResolver)
	p := NewProcessor(users, gens, media, replies, zap.NewNop())
	return p, users, gens, media, replies
}

func TestProcess_CreatesPendingReviewListing(t *testing.T) {
	p, users, gens, _, _ := newTestProcessor()

	seller := &model.User{ID: 5, WhatsAppID: "919876543210"}
	users.On("FindOrCreate", mock.Anything, "919876543210", "Ramesh").Return(seller, nil)
	users.On("TouchActivity", mock.Anything, seller).Return(nil)
	users.On("IncrementListings", mock.Anything, seller).Return(nil)

	gens.On("Create", mock.Anything, mock.MatchedBy(func(gen *model.Generator) bool {
		return gen.Status == model.StatusPendingReview &&
			gen.Brand == "Kirloskar" &&
			gen.Model == "KG1-62.5AS" &&
			gen.Price == 850000 &&
			gen.HoursRun == 12500 &&
			gen.SellerID == 5 &&
			gen.AuditTrail.WhatsAppMessageID == "wamid.1" &&
			gen.AuditTrail.OriginalMessageText == listingText &&
			len(gen.AuditTrail.ParsingErrors) == 0
	})).Return(nil)

	err := p.Process(context.Background(), queuedPayload(t, textPayload("wamid.1", "919876543210", listingText)))

	assert.NoError(t, err)
	users.AssertExpectations(t)
	gens.AssertExpectations(t)
}

func TestProcess_CreatesFailedParsingListing(t *testing.T) {
	p, users, gens, _, _ := newTestProcessor()

	seller := &model.User{ID: 5, WhatsAppID: "919876543210"}
	users.On("FindOrCreate", mock.Anything, mock.Anything, mock.Anything).Return(seller, nil)
	users.On("TouchActivity", mock.Anything, seller).Return(nil)
	users.On("IncrementListings", mock.Anything, seller).Return(nil)

	gens.On("Create", mock.Anything, mock.MatchedBy(func(gen *model.Generator) bool {
		return gen.Status == model.StatusFailedParsing &&
			len(gen.AuditTrail.ParsingErrors) > 0
	})).Return(nil)

	err := p.Process(context.Background(), queuedPayload(t, textPayload("wamid.2", "919876543210", "selling my generator, call me")))

	assert.NoError(t, err)
	gens.AssertExpectations(t)
	// The listing counter moves even when parsing failed
	users.AssertCalled(t, "IncrementListings", mock.Anything, seller)
}

func TestProcess_ReplyDelegatesToSoldWorkflow(t *testing.T) {
	p, users, gens, _, replies := newTestProcessor()

	seller := &model.User{ID: 5, WhatsAppID: "919876543210"}
	users.On("FindOrCreate", mock.Anything, mock.Anything, mock.Anything).Return(seller, nil)
	users.On("TouchActivity", mock.Anything, seller).Return(nil)

	payload := textPayload("wamid.3", "919876543210", "sold")
	payload.Entry[0].Changes[0].Value.Messages[0].Context = &webhook.Context{ID: "wamid.orig"}

	replies.On("Resolve", mock.Anything, mock.MatchedBy(func(msg *webhook.Message) bool {
		return msg.IsReply() && msg.Context.ID == "wamid.orig"
	}), seller).Return(SoldResult{Outcome: OutcomeMarkedSold})

	err := p.Process(context.Background(), queuedPayload(t, payload))

	assert.NoError(t, err)
	replies.AssertExpectations(t)
	gens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcess_NonTextMessageIgnored(t *testing.T) {
	p, users, gens, media, _ := newTestProcessor()

	seller := &model.User{ID: 5}
	users.On("FindOrCreate", mock.Anything, mock.Anything, mock.Anything).Return(seller, nil)
	users.On("TouchActivity", mock.Anything, seller).Return(nil)

	payload := textPayload("wamid.4", "919876543210", "")
	payload.Entry[0].Changes[0].Value.Messages[0].Type = "audio"
	payload.Entry[0].Changes[0].Value.Messages[0].Text = nil

	err := p.Process(context.Background(), queuedPayload(t, payload))

	assert.NoError(t, err)
	gens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	media.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestProcess_NoMessagesIsNoOp(t *testing.T) {
	p, users, _, _, _ := newTestProcessor()

	err := p.Process(context.Background(), queuedPayload(t, webhook.Payload{Object: "whatsapp_business_account"}))

	assert.NoError(t, err)
	users.AssertNotCalled(t, "FindOrCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_DuplicateMessageIDSurfacesAsError(t *testing.T) {
	p, users, gens, _, _ := newTestProcessor()

	seller := &model.User{ID: 5}
	users.On("FindOrCreate", mock.Anything, mock.Anything, mock.Anything).Return(seller, nil)
	users.On("TouchActivity", mock.Anything, seller).Return(nil)

	gens.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("create listing wamid.1: %w", errors.New("duplicate key value violates unique constraint")))

	err := p.Process(context.Background(), queuedPayload(t, textPayload("wamid.1", "919876543210", listingText)))

	assert.Error(t, err)
	users.AssertNotCalled(t, "IncrementListings", mock.Anything, mock.Anything)
}

func TestProcess_MediaAttachedToListing(t *testing.T) {
	p, users, gens, media, _ := newTestProcessor()

	seller := &model.User{ID: 5}
	users.On("FindOrCreate", mock.Anything, mock.Anything, mock.Anything).Return(seller, nil)
	users.On("TouchActivity", mock.Anything, seller).Return(nil)
	users.On("IncrementListings", mock.Anything, seller).Return(nil)

	payload := textPayload("wamid.5", "919876543210", listingText)
	payload.Entry[0].Changes[0].Value.Messages[0].Image = &webhook.Media{
		URL:      "https://example.com/img.jpg",
		MimeType: "image/jpeg",
	}

	media.On("Resolve", mock.Anything, mock.MatchedBy(func(items []webhook.Media) bool {
		return len(items) == 1 && items[0].URL == "https://example.com/img.jpg"
	})).Return([]model.GeneratorImage{{URL: "https://cdn.example.com/stored.jpg"}})

	gens.On("Create", mock.Anything, mock.MatchedBy(func(gen *model.Generator) bool {
		return len(gen.Images) == 1 && gen.Images[0].URL == "https://cdn.example.com/stored.jpg"
	})).Return(nil)

	err := p.Process(context.Background(), queuedPayload(t, payload))

	assert.NoError(t, err)
	media.AssertExpectations(t)
	gens.AssertExpectations(t)
}

func TestProcess_MalformedEnvelope(t *testing.T) {
	p, users, _, _, _ := newTestProcessor()

	err := p.Process(context.Background(), []byte("not json"))

	assert.Error(t, err)
	users.AssertNotCalled(t, "FindOrCreate", mock.Anything, mock.Anything, mock.Anything)
}
