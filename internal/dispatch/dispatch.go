// Package dispatch converts approved review cards into client-visible
// messages.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/notify"
	"github.com/BalancedBite/CoachPipe/internal/store"
	"github.com/BalancedBite/CoachPipe/internal/util"
)

// Dispatcher delivers reviewed cards to clients.
type Dispatcher struct {
	store    store.Store
	notifier notify.Notifier
}

// NewDispatcher creates a dispatcher. notifier may be nil to skip pings.
func NewDispatcher(st store.Store, notifier notify.Notifier) *Dispatcher {
	return &Dispatcher{store: st, notifier: notifier}
}

// Deliver renders the card into a Message, inserts it, and marks the card
// sent. Invoking it again on an already-sent card is a safe error and does
// not insert a second Message; the upfront status check is the duplicate
// protection, since no DB uniqueness constraint exists to catch it.
func (d *Dispatcher) Deliver(ctx context.Context, cardID string) (*models.Message, error) {
	card, err := d.store.GetCard(cardID)
	if err != nil {
		return nil, err
	}
	if card.Status == models.CardStatusSent {
		slog.Warn("Dispatcher.Deliver: card already sent, skipping", "card_id", cardID)
		return nil, models.ErrCardAlreadySent
	}

	metadata, err := json.Marshal(map[string]string{
		"card_id":   card.ID,
		"card_type": string(card.CardType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message metadata: %w", err)
	}

	msg := models.Message{
		ID:            util.GenerateMessageID(),
		ClientID:      card.ClientID,
		SenderType:    models.SenderTypeSystem,
		MessageType:   models.MessageTypeCardDelivery,
		Content:       deliveryContent(card.CardType),
		AttachmentURL: attachmentURL(card),
		Metadata:      metadata,
		CreatedAt:     time.Now(),
	}

	if err := d.store.AddMessage(msg); err != nil {
		return nil, fmt.Errorf("failed to insert delivery message: %w", err)
	}
	if err := d.store.MarkCardSent(card.ID); err != nil {
		// The message is already visible; surface the inconsistency loudly.
		slog.Error("Dispatcher.Deliver: message inserted but card not marked sent", "card_id", card.ID, "error", err)
		return nil, fmt.Errorf("failed to mark card sent: %w", err)
	}

	if d.notifier != nil {
		// Best-effort ping; a notify failure never fails the delivery.
		payload := models.NotificationPayload{
			Title: "New update from your coach",
			Body:  msg.Content,
			URL:   "/messages",
			ID:    msg.ID,
		}
		if err := d.notifier.Notify(ctx, card.ClientID, payload); err != nil {
			slog.Warn("Dispatcher.Deliver: notification failed", "card_id", card.ID, "error", err)
		}
	}

	slog.Info("Dispatcher.Deliver: card delivered", "card_id", card.ID, "client_id", card.ClientID, "message_id", msg.ID)
	return &msg, nil
}

// deliveryContent summarizes the card type for the client-facing message.
func deliveryContent(ct models.CardType) string {
	switch ct {
	case models.CardTypeHealthAssessment:
		return "Your health assessment results are ready. Open your dashboard to see the full analysis."
	case models.CardTypeStressCard:
		return "Your stress check-in results are ready. Open your dashboard to see the full analysis."
	case models.CardTypeSleepCard:
		return "Your sleep assessment results are ready. Open your dashboard to see the full analysis."
	case models.CardTypeActionPlan:
		return "Your coach has prepared an action plan for you. Open your dashboard to review it."
	case models.CardTypeDietPlan:
		return "Your personalized diet plan is ready. Open your dashboard to review it."
	default:
		return "Your coach has sent you an update. Open your dashboard to review it."
	}
}

// attachmentURL pulls an attachment reference out of the card content where
// one exists (currently only the diet plan's grocery image).
func attachmentURL(card *models.PendingReviewCard) string {
	if card.CardType != models.CardTypeDietPlan {
		return ""
	}
	var content struct {
		GroceryImageURL string `json:"grocery_image_url"`
	}
	if err := json.Unmarshal(card.GeneratedContent, &content); err != nil {
		return ""
	}
	return content.GroceryImageURL
}
