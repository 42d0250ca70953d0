package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/store"
)

// recordingNotifier captures notifications and optionally fails.
type recordingNotifier struct {
	payloads []models.NotificationPayload
	err      error
}

func (n *recordingNotifier) Notify(ctx context.Context, clientID string, payload models.NotificationPayload) error {
	n.payloads = append(n.payloads, payload)
	return n.err
}

func seedCard(t *testing.T, st store.Store, id string, ct models.CardType, content string) {
	t.Helper()
	card := models.PendingReviewCard{
		ID:               id,
		ClientID:         "client-1",
		CardType:         ct,
		GeneratedContent: []byte(content),
		Status:           models.CardStatusPending,
		AIGeneratedAt:    time.Now(),
		CreatedAt:        time.Now(),
	}
	if err := st.AddCard(card); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}
}

func TestDeliverCreatesMessageAndMarksSent(t *testing.T) {
	st := store.NewInMemoryStore()
	seedCard(t, st, "card-1", models.CardTypeHealthAssessment, `{"analysis": {}}`)
	notifier := &recordingNotifier{}
	d := NewDispatcher(st, notifier)

	msg, err := d.Deliver(context.Background(), "card-1")
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if msg.MessageType != models.MessageTypeCardDelivery || msg.SenderType != models.SenderTypeSystem {
		t.Errorf("unexpected message: %+v", msg)
	}
	if !strings.Contains(msg.Content, "health assessment") {
		t.Errorf("unexpected content: %s", msg.Content)
	}

	var metadata map[string]string
	if err := json.Unmarshal(msg.Metadata, &metadata); err != nil {
		t.Fatalf("metadata not parseable: %v", err)
	}
	if metadata["card_id"] != "card-1" || metadata["card_type"] != string(models.CardTypeHealthAssessment) {
		t.Errorf("unexpected metadata: %v", metadata)
	}

	card, _ := st.GetCard("card-1")
	if card.Status != models.CardStatusSent {
		t.Errorf("expected sent card, got %s", card.Status)
	}

	if len(notifier.payloads) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.payloads))
	}
	if notifier.payloads[0].ID != msg.ID {
		t.Errorf("notification should reference the message, got %+v", notifier.payloads[0])
	}
}

func TestDeliverIsIdempotent(t *testing.T) {
	st := store.NewInMemoryStore()
	seedCard(t, st, "card-1", models.CardTypeStressCard, `{}`)
	d := NewDispatcher(st, nil)

	if _, err := d.Deliver(context.Background(), "card-1"); err != nil {
		t.Fatalf("first Deliver failed: %v", err)
	}
	_, err := d.Deliver(context.Background(), "card-1")
	if !errors.Is(err, models.ErrCardAlreadySent) {
		t.Fatalf("expected ErrCardAlreadySent, got %v", err)
	}

	// The second call must not have inserted a second message.
	msgs, _ := st.ListMessages("client-1")
	if len(msgs) != 1 {
		t.Errorf("expected exactly 1 message after double delivery, got %d", len(msgs))
	}
}

func TestDeliverUnknownCard(t *testing.T) {
	d := NewDispatcher(store.NewInMemoryStore(), nil)
	_, err := d.Deliver(context.Background(), "ghost")
	if !errors.Is(err, models.ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
}

func TestDeliverNotifyFailureDoesNotFailDelivery(t *testing.T) {
	st := store.NewInMemoryStore()
	seedCard(t, st, "card-1", models.CardTypeSleepCard, `{}`)
	notifier := &recordingNotifier{err: errors.New("push endpoint gone")}
	d := NewDispatcher(st, notifier)

	if _, err := d.Deliver(context.Background(), "card-1"); err != nil {
		t.Fatalf("delivery must survive notify failure, got %v", err)
	}
	card, _ := st.GetCard("card-1")
	if card.Status != models.CardStatusSent {
		t.Errorf("expected sent card, got %s", card.Status)
	}
}

func TestDeliverDietPlanCarriesAttachment(t *testing.T) {
	st := store.NewInMemoryStore()
	seedCard(t, st, "card-1", models.CardTypeDietPlan, `{"plan": {}, "grocery_image_url": "https://img.example.com/g.png"}`)
	d := NewDispatcher(st, nil)

	msg, err := d.Deliver(context.Background(), "card-1")
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if msg.AttachmentURL != "https://img.example.com/g.png" {
		t.Errorf("expected grocery image attachment, got %q", msg.AttachmentURL)
	}
}

func TestDeliveryContentCoversAllCardTypes(t *testing.T) {
	types := []models.CardType{
		models.CardTypeHealthAssessment,
		models.CardTypeStressCard,
		models.CardTypeSleepCard,
		models.CardTypeActionPlan,
		models.CardTypeDietPlan,
	}
	seen := make(map[string]bool)
	for _, ct := range types {
		content := deliveryContent(ct)
		if content == "" {
			t.Errorf("empty delivery content for %s", ct)
		}
		if seen[content] {
			t.Errorf("duplicate delivery content for %s", ct)
		}
		seen[content] = true
	}
}
