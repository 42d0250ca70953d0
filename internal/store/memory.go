// Package store provides storage backends for CoachPipe.
//
// This file implements an in-memory store used in tests and single-process
// development runs.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/models"
)

// InMemoryStore keeps all workflow tables in process memory.
type InMemoryStore struct {
	mu            sync.Mutex
	clients       map[string]models.Client
	requests      map[string]models.AssessmentRequest
	assessments   map[string]models.Assessment
	cards         map[string]models.PendingReviewCard
	cardOrder     []string // insertion order, tie-break for listing
	messages      []models.Message
	states        map[string]models.ClientWorkflowState
	subscriptions []models.PushSubscription
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		clients:     make(map[string]models.Client),
		requests:    make(map[string]models.AssessmentRequest),
		assessments: make(map[string]models.Assessment),
		cards:       make(map[string]models.PendingReviewCard),
		states:      make(map[string]models.ClientWorkflowState),
	}
}

// AddClient stores a client profile.
func (s *InMemoryStore) AddClient(c models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
	return nil
}

// GetClient retrieves a client by ID.
func (s *InMemoryStore) GetClient(id string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, models.ErrClientNotFound
	}
	return &c, nil
}

// AddAssessmentRequest stores an assessment request.
func (s *InMemoryStore) AddAssessmentRequest(r models.AssessmentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
	return nil
}

// GetAssessmentRequest retrieves an assessment request by ID.
func (s *InMemoryStore) GetAssessmentRequest(id string) (*models.AssessmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, models.ErrRequestNotFound
	}
	return &r, nil
}

// MarkRequestCompleted sets status=completed and the completion timestamp.
func (s *InMemoryStore) MarkRequestCompleted(id string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return models.ErrRequestNotFound
	}
	r.Status = models.RequestStatusCompleted
	r.CompletedAt = &completedAt
	s.requests[id] = r
	return nil
}

// AddAssessment stores an assessment row.
func (s *InMemoryStore) AddAssessment(a models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = a
	return nil
}

// GetAssessment retrieves an assessment by ID.
func (s *InMemoryStore) GetAssessment(id string) (*models.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[id]
	if !ok {
		return nil, models.ErrAssessmentNotFound
	}
	return &a, nil
}

// AddCard stores a pending review card.
func (s *InMemoryStore) AddCard(c models.PendingReviewCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[c.ID] = c
	s.cardOrder = append(s.cardOrder, c.ID)
	return nil
}

// GetCard retrieves a card by ID.
func (s *InMemoryStore) GetCard(id string) (*models.PendingReviewCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return nil, models.ErrCardNotFound
	}
	return &c, nil
}

// ListActiveCards returns pending/edited cards, newest ai_generated_at first.
func (s *InMemoryStore) ListActiveCards() ([]models.PendingReviewCardWithClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PendingReviewCardWithClient
	// Walk in insertion order so equal timestamps keep a stable order.
	for _, id := range s.cardOrder {
		c := s.cards[id]
		if c.Status != models.CardStatusPending && c.Status != models.CardStatusEdited {
			continue
		}
		name := s.clients[c.ClientID].Name
		out = append(out, models.PendingReviewCardWithClient{PendingReviewCard: c, ClientName: name})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AIGeneratedAt.After(out[j].AIGeneratedAt)
	})
	return out, nil
}

// UpdateCardContent replaces generated content and moves the card to edited.
func (s *InMemoryStore) UpdateCardContent(id string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return models.ErrCardNotFound
	}
	if c.Status == models.CardStatusSent {
		return models.ErrCardAlreadySent
	}
	c.GeneratedContent = append([]byte(nil), content...)
	c.Status = models.CardStatusEdited
	s.cards[id] = c
	return nil
}

// MarkCardSent moves the card to sent.
func (s *InMemoryStore) MarkCardSent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return models.ErrCardNotFound
	}
	if c.Status == models.CardStatusSent {
		return models.ErrCardAlreadySent
	}
	c.Status = models.CardStatusSent
	s.cards[id] = c
	return nil
}

// AddMessage stores a message.
func (s *InMemoryStore) AddMessage(m models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return nil
}

// ListMessages returns all messages for a client, oldest first.
func (s *InMemoryStore) ListMessages(clientID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.ClientID == clientID {
			out = append(out, m)
		}
	}
	return out, nil
}

// RecentRetargetingContents returns contents of the latest retargeting
// messages for a client, newest first, up to limit.
func (s *InMemoryStore) RecentRetargetingContents(clientID string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := s.messages[i]
		if m.ClientID == clientID && m.MessageType == models.MessageTypeRetargeting {
			out = append(out, m.Content)
		}
	}
	return out, nil
}

// MarkMessageRead flips a message's read flag.
func (s *InMemoryStore) MarkMessageRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].IsRead = true
			return nil
		}
	}
	return models.ErrMessageNotFound
}

// UpsertWorkflowState inserts or replaces a client's workflow state.
func (s *InMemoryStore) UpsertWorkflowState(st models.ClientWorkflowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.ClientID] = st
	return nil
}

// GetWorkflowState retrieves a client's workflow state.
func (s *InMemoryStore) GetWorkflowState(clientID string) (*models.ClientWorkflowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[clientID]
	if !ok {
		return nil, models.ErrClientNotFound
	}
	return &st, nil
}

// ListRetargetingCandidates returns states eligible for the retargeting sweep.
func (s *InMemoryStore) ListRetargetingCandidates() ([]models.ClientWorkflowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ClientWorkflowState
	for _, st := range s.states {
		if st.ServiceType != models.ServiceTypeConsultation || !st.RetargetingEnabled {
			continue
		}
		if st.WorkflowStage != models.StageConsultationComplete && st.WorkflowStage != models.StageSoftRetargeting {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

// RecordRetargetingSent sets the last-sent timestamp and advances the stage.
func (s *InMemoryStore) RecordRetargetingSent(clientID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[clientID]
	if !ok {
		return models.ErrClientNotFound
	}
	st.RetargetingLastSent = &sentAt
	st.WorkflowStage = models.StageSoftRetargeting
	s.states[clientID] = st
	return nil
}

// AddPushSubscription registers a push subscription.
func (s *InMemoryStore) AddPushSubscription(sub models.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = append(s.subscriptions, sub)
	return nil
}

// ListPushSubscriptions returns a client's registered subscriptions.
func (s *InMemoryStore) ListPushSubscriptions(clientID string) ([]models.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PushSubscription
	for _, sub := range s.subscriptions {
		if sub.ClientID == clientID {
			out = append(out, sub)
		}
	}
	return out, nil
}
