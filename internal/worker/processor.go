// Package worker drains the ingestion queue and turns WhatsApp messages
// into listings and status transitions.
package worker

import (
	"context"
	"fmt"
	"time"

	"genmarket/internal/model"
	"genmarket/internal/parser"
	"genmarket/internal/repository"
	"genmarket/internal/webhook"
	"genmarket/prometheus"

	"go.uber.org/zap"
)

// MediaResolver resolves message media references into stored images
type MediaResolver interface {
	Resolve(ctx context.Context, items []webhook.Media) []model.GeneratorImage
}

// ReplyResolver handles reply messages (the SOLD workflow)
type ReplyResolver interface {
	Resolve(ctx context.Context, msg *webhook.Message, user *model.User) SoldResult
}

// Processor runs the per-message pipeline: decode, resolve user, then
// either hand replies to the SOLD workflow or parse text messages into
// listings.
type Processor struct {
	users      repository.UserRepository
	generators repository.GeneratorRepository
	media      MediaResolver
	replies    ReplyResolver
	log        *zap.Logger
}

func NewProcessor(
	users repository.UserRepository,
	generators repository.GeneratorRepository,
	media MediaResolver,
	replies ReplyResolver,
	log *zap.Logger,
) *Processor {
	return &Processor{
		users:      users,
		generators: generators,
		media:      media,
		replies:    replies,
		log:        log,
	}
}

// Process handles one queued payload end-to-end. Panics are recovered into
// errors so a poison message can never take the consumer loop down.
func (p *Processor) Process(ctx context.Context, raw []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing message: %v", r)
		}
	}()

	env, err := webhook.DecodeEnvelope(raw)
	if err != nil {
		return err
	}

	payload, err := webhook.DecodePayload(env.Payload)
	if err != nil {
		return err
	}

	msg := payload.FirstMessage()
	if msg == nil {
		// Status updates and other message-less payloads are a no-op
		p.log.Debug("No messages found in payload")
		return nil
	}

	var displayName string
	if contact := payload.FirstContact(); contact != nil {
		displayName = contact.DisplayName()
	}

	user, err := p.users.FindOrCreate(ctx, msg.From, displayName)
	if err != nil {
		return err
	}
	if err := p.users.TouchActivity(ctx, user); err != nil {
		p.log.Warn("Failed to touch user activity",
			zap.String("whatsapp_id", user.WhatsAppID),
			zap.Error(err))
	}

	// Replies are never parsed as new listings
	if msg.IsReply() {
		result := p.replies.Resolve(ctx, msg, user)
		prometheus.SoldOutcomeCounter.WithLabelValues(string(result.Outcome)).Inc()
		p.log.Info("Reply resolved",
			zap.String("outcome", string(result.Outcome)),
			zap.String("message", result.Message))
		return nil
	}

	if msg.Type != "text" {
		// Non-text, non-reply messages are out of scope
		return nil
	}

	return p.createListing(ctx, msg, user)
}

func (p *Processor) createListing(ctx context.Context, msg *webhook.Message, user *model.User) error {
	messageText := msg.Body()
	parseResult := parser.Parse(messageText)

	var images []model.GeneratorImage
	if items := msg.MediaItems(); len(items) > 0 {
		images = p.media.Resolve(ctx, items)
	}

	status := model.StatusPendingReview
	if !parseResult.Success {
		status = model.StatusFailedParsing
	}

	gen := &model.Generator{
		Brand:        parseResult.Data.Brand,
		Model:        parseResult.Data.Model,
		Price:        parseResult.Data.Price,
		HoursRun:     parseResult.Data.HoursRun,
		LocationText: parseResult.Data.LocationText,
		Description:  parseResult.Data.Description,
		Images:       images,
		Status:       status,
		SellerID:     user.ID,
		AuditTrail: model.AuditTrail{
			WhatsAppMessageID:   msg.ID,
			OriginalMessageText: messageText,
			ParsedAt:            time.Now().UTC(),
			ParsingErrors:       parseResult.Errors,
		},
	}

	if err := p.generators.Create(ctx, gen); err != nil {
		// Includes the idempotency backstop: a duplicate message ID fails
		// the unique index and surfaces here.
		return err
	}

	if err := p.users.IncrementListings(ctx, user); err != nil {
		p.log.Warn("Failed to increment listing count",
			zap.String("whatsapp_id", user.WhatsAppID),
			zap.Error(err))
	}

	prometheus.ListingsCreatedCounter.WithLabelValues(status).Inc()
	p.log.Info("Listing created",
		zap.Uint("generator_id", gen.ID),
		zap.String("status", status),
		zap.Int("parsing_errors", len(parseResult.Errors)))

	return nil
}
