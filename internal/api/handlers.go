package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/util"
)

// submitAssessmentHandler accepts a completed intake form and runs the
// matching card generator. POST /assessments/submit.
func (s *Server) submitAssessmentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}
	var req models.SubmitAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.submitAssessmentHandler: invalid JSON payload", "error", err)
		writeEnvelope(w, models.Error("invalid JSON payload"))
		return
	}
	result, err := s.intake.Submit(r.Context(), req)
	if err != nil {
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	slog.Info("Server.submitAssessmentHandler: assessment submitted", "request_id", req.RequestID, "assessment_type", req.AssessmentType, "client_id", req.ClientID)
	writeEnvelope(w, models.SuccessWithMessage(result.Message, result.Result))
}

// pendingCardsHandler lists cards awaiting review (pending or edited), newest
// generated first. GET /cards/pending.
func (s *Server) pendingCardsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r)
		return
	}
	cardList, err := s.st.ListActiveCards()
	if err != nil {
		slog.Error("Server.pendingCardsHandler: failed to list cards", "error", err)
		writeEnvelope(w, models.Error("failed to list pending cards"))
		return
	}
	writeEnvelope(w, models.Success(cardList))
}

// editCardHandler replaces a card's generated content with the admin's
// edited version. POST /cards/edit.
func (s *Server) editCardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}
	var req models.EditCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.editCardHandler: invalid JSON payload", "error", err)
		writeEnvelope(w, models.Error("invalid JSON payload"))
		return
	}
	if err := req.Validate(); err != nil {
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	if err := s.st.UpdateCardContent(req.CardID, req.GeneratedContent); err != nil {
		slog.Warn("Server.editCardHandler: failed to update card", "card_id", req.CardID, "error", err)
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	slog.Info("Server.editCardHandler: card content updated", "card_id", req.CardID)
	writeEnvelope(w, models.SuccessWithMessage("Card updated", nil))
}

// sendCardHandler dispatches a reviewed card to its client as a message.
// POST /cards/send.
func (s *Server) sendCardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}
	var req models.SendCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.sendCardHandler: invalid JSON payload", "error", err)
		writeEnvelope(w, models.Error("invalid JSON payload"))
		return
	}
	if err := req.Validate(); err != nil {
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	msg, err := s.dispatcher.Deliver(r.Context(), req.CardID)
	if err != nil {
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	slog.Info("Server.sendCardHandler: card delivered", "card_id", req.CardID, "message_id", msg.ID, "client_id", msg.ClientID)
	writeEnvelope(w, models.SuccessWithMessage("Card sent", msg))
}

// dietPlanHandler generates a diet plan card for review. POST /plans/diet.
func (s *Server) dietPlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}
	var req models.DietPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.dietPlanHandler: invalid JSON payload", "error", err)
		writeEnvelope(w, models.Error("invalid JSON payload"))
		return
	}
	if err := req.Validate(); err != nil {
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	card, err := s.dietPlans.Generate(r.Context(), req.ClientID, req.Goals)
	if err != nil {
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	slog.Info("Server.dietPlanHandler: diet plan generated", "card_id", card.ID, "client_id", req.ClientID)
	writeEnvelope(w, models.SuccessWithMessage("Diet plan generated and queued for review", card))
}

// messagesHandler lists a client's delivered messages. GET /messages?client_id=.
func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r)
		return
	}
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeEnvelope(w, models.Error(models.ErrEmptyClientID.Error()))
		return
	}
	messages, err := s.st.ListMessages(clientID)
	if err != nil {
		slog.Error("Server.messagesHandler: failed to list messages", "client_id", clientID, "error", err)
		writeEnvelope(w, models.Error("failed to list messages"))
		return
	}
	writeEnvelope(w, models.Success(messages))
}

// markMessageReadHandler flips a message's read flag. POST /messages/read.
func (s *Server) markMessageReadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}
	var req models.MarkMessageReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.markMessageReadHandler: invalid JSON payload", "error", err)
		writeEnvelope(w, models.Error("invalid JSON payload"))
		return
	}
	if err := req.Validate(); err != nil {
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	if err := s.st.MarkMessageRead(req.MessageID); err != nil {
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	writeEnvelope(w, models.SuccessWithMessage("Message marked as read", nil))
}

// runRetargetingHandler triggers a retargeting sweep outside the cron
// schedule. POST /retargeting/run.
func (s *Server) runRetargetingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}
	result := s.retargeter.Run(r.Context())
	slog.Info("Server.runRetargetingHandler: sweep finished", "total", result.Total, "sent", result.SuccessCount)
	writeEnvelope(w, models.Success(result))
}

// pushSubscribeHandler registers a browser push subscription for a client.
// POST /push/subscribe.
func (s *Server) pushSubscribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}
	var req models.PushSubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.pushSubscribeHandler: invalid JSON payload", "error", err)
		writeEnvelope(w, models.Error("invalid JSON payload"))
		return
	}
	if err := req.Validate(); err != nil {
		writeEnvelope(w, models.Error(err.Error()))
		return
	}
	sub := models.PushSubscription{
		ID:        util.GenerateSubscriptionID(),
		ClientID:  req.ClientID,
		Endpoint:  req.Endpoint,
		Keys:      req.Keys,
		CreatedAt: time.Now(),
	}
	if err := s.st.AddPushSubscription(sub); err != nil {
		slog.Error("Server.pushSubscribeHandler: failed to store subscription", "client_id", req.ClientID, "error", err)
		writeEnvelope(w, models.Error("failed to store push subscription"))
		return
	}
	slog.Info("Server.pushSubscribeHandler: subscription registered", "subscription_id", sub.ID, "client_id", sub.ClientID)
	writeEnvelope(w, models.SuccessWithMessage("Subscription registered", sub))
}

// healthzHandler reports liveness. GET /healthz.
func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r)
		return
	}
	writeEnvelope(w, models.SuccessWithMessage("ok", nil))
}

// writeMethodNotAllowed is the one transport-level failure that does not use
// the 200 envelope.
func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	slog.Warn("Server: method not allowed", "method", r.Method, "path", r.URL.Path)
	writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("method not allowed"))
}
