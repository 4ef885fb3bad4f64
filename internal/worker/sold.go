package worker

import (
	"context"
	"fmt"
	"strings"

	"genmarket/internal/model"
	"genmarket/internal/repository"
	"genmarket/internal/webhook"

	"go.uber.org/zap"
)

// Outcome classifies the resolution of a SOLD reply. These are values, not
// errors: every precondition failure is a legitimate, expected result.
type Outcome string

const (
	OutcomeIgnored      Outcome = "ignored"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeAlreadySold  Outcome = "already_sold"
	OutcomeInvalidState Outcome = "invalid_status"
	OutcomeMarkedSold   Outcome = "marked_sold"
	OutcomeError        Outcome = "error"
)

// SoldResult is the structured outcome of one reply resolution
type SoldResult struct {
	Outcome   Outcome
	Message   string
	Generator *model.Generator
}

// SoldResolver interprets a reply message as a mark-as-sold request
type SoldResolver struct {
	generators repository.GeneratorRepository
	users      repository.UserRepository
	log        *zap.Logger
}

func NewSoldResolver(generators repository.GeneratorRepository, users repository.UserRepository, log *zap.Logger) *SoldResolver {
	return &SoldResolver{
		generators: generators,
		users:      users,
		log:        log,
	}
}

// Resolve runs the sequential precondition checks for a SOLD reply,
// short-circuiting at the first failure. The check order is a deliberate
// authorization boundary: the seller check comes before any state check, so
// an unauthorized replier learns nothing about the listing beyond
// "not found" or "unauthorized".
func (s *SoldResolver) Resolve(ctx context.Context, msg *webhook.Message, user *model.User) SoldResult {
	replyText := strings.ToLower(strings.TrimSpace(msg.Body()))
	if replyText != "sold" {
		return SoldResult{
			Outcome: OutcomeIgnored,
			Message: `Reply text is not "SOLD"`,
		}
	}

	if !msg.IsReply() {
		return SoldResult{
			Outcome: OutcomeIgnored,
			Message: "No context/original message ID found",
		}
	}
	originalMessageID := msg.Context.ID

	gen, err := s.generators.FindByMessageID(ctx, originalMessageID)
	if err != nil {
		s.log.Error("SOLD reply lookup failed",
			zap.String("original_message_id", originalMessageID),
			zap.Error(err))
		return SoldResult{
			Outcome: OutcomeError,
			Message: "Internal error processing SOLD reply",
		}
	}
	if gen == nil {
		return SoldResult{
			Outcome: OutcomeNotFound,
			Message: "Listing not found for the original message",
		}
	}

	if gen.SellerID != user.ID {
		return SoldResult{
			Outcome:   OutcomeUnauthorized,
			Message:   "User is not authorized to mark this listing as sold",
			Generator: gen,
		}
	}

	if gen.Status == model.StatusSold {
		return SoldResult{
			Outcome:   OutcomeAlreadySold,
			Message:   "Listing is already marked as sold",
			Generator: gen,
		}
	}

	if gen.Status != model.StatusForSale {
		return SoldResult{
			Outcome:   OutcomeInvalidState,
			Message:   fmt.Sprintf("Listing cannot be sold from status: %s", gen.Status),
			Generator: gen,
		}
	}

	if err := s.generators.MarkAsSold(ctx, gen, nil); err != nil {
		s.log.Error("Failed to mark listing sold",
			zap.Uint("generator_id", gen.ID),
			zap.Error(err))
		return SoldResult{
			Outcome:   OutcomeError,
			Message:   "Internal error processing SOLD reply",
			Generator: gen,
		}
	}

	if err := s.users.IncrementSales(ctx, user); err != nil {
		// The listing is sold regardless; the counter is best-effort
		s.log.Warn("Failed to increment successful sales",
			zap.String("whatsapp_id", user.WhatsAppID),
			zap.Error(err))
	}

	s.log.Info("Listing marked as sold",
		zap.Uint("generator_id", gen.ID),
		zap.Uint("seller_id", user.ID))

	return SoldResult{
		Outcome:   OutcomeMarkedSold,
		Message:   "Listing successfully marked as sold",
		Generator: gen,
	}
}
