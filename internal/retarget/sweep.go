package retarget

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/store"
	"github.com/BalancedBite/CoachPipe/internal/util"
)

// RecentMessageWindow is how many recent retargeting messages are checked
// for repeat avoidance.
const RecentMessageWindow = 5

// ClientResult records the sweep outcome for one client.
type ClientResult struct {
	ClientID string `json:"client_id"`
	Sent     bool   `json:"sent"`
	Skipped  string `json:"skipped,omitempty"` // reason when not sent and no error
	Error    string `json:"error,omitempty"`
}

// SweepResult aggregates one sweep invocation.
type SweepResult struct {
	Results      []ClientResult `json:"results"`
	SuccessCount int            `json:"success_count"`
	Total        int            `json:"total"`
}

// Runner executes retargeting sweeps. now and shuffle are injectable for
// deterministic tests.
type Runner struct {
	store   store.Store
	now     func() time.Time
	shuffle func([]string)
}

// NewRunner creates a sweep runner with real time and randomness.
func NewRunner(st store.Store) *Runner {
	return &Runner{
		store: st,
		now:   time.Now,
		shuffle: func(pool []string) {
			rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		},
	}
}

// Run sweeps all eligible clients sequentially. Per-client failures are
// recorded individually and never abort the rest of the sweep.
func (r *Runner) Run(ctx context.Context) SweepResult {
	var result SweepResult

	candidates, err := r.store.ListRetargetingCandidates()
	if err != nil {
		slog.Error("retarget.Runner.Run: failed to list candidates", "error", err)
		return result
	}
	result.Total = len(candidates)

	for _, state := range candidates {
		cr := ClientResult{ClientID: state.ClientID}
		sent, skipReason, err := r.processClient(ctx, state)
		switch {
		case err != nil:
			cr.Error = err.Error()
			slog.Error("retarget.Runner.Run: client sweep failed", "client_id", state.ClientID, "error", err)
		case sent:
			cr.Sent = true
			result.SuccessCount++
		default:
			cr.Skipped = skipReason
		}
		result.Results = append(result.Results, cr)
	}

	slog.Info("retarget.Runner.Run: sweep complete", "total", result.Total, "sent", result.SuccessCount)
	return result
}

// processClient evaluates one client and sends at most one message.
func (r *Runner) processClient(ctx context.Context, state models.ClientWorkflowState) (sent bool, skipReason string, err error) {
	now := r.now()

	// Frequency gate: infinite gap when never sent.
	if state.RetargetingLastSent != nil {
		gap := state.RetargetingFreq.GapDays()
		daysSince := int(now.Sub(*state.RetargetingLastSent).Hours() / 24)
		if daysSince < gap {
			return false, fmt.Sprintf("last sent %d days ago, gap is %d days", daysSince, gap), nil
		}
	}

	content, err := r.selectMessage(state.ClientID)
	if err != nil {
		return false, "", err
	}

	msg := models.Message{
		ID:          util.GenerateMessageID(),
		ClientID:    state.ClientID,
		SenderType:  models.SenderTypeSystem,
		MessageType: models.MessageTypeRetargeting,
		Content:     content,
		CreatedAt:   now,
	}
	if err := r.store.AddMessage(msg); err != nil {
		return false, "", fmt.Errorf("failed to insert retargeting message: %w", err)
	}
	if err := r.store.RecordRetargetingSent(state.ClientID, now); err != nil {
		return false, "", fmt.Errorf("failed to record retargeting send: %w", err)
	}
	return true, "", nil
}

// selectMessage shuffles the template pool and picks the first rendered
// template not matching any of the client's last five retargeting messages.
// When every shuffled template is a recent repeat, the first shuffled one is
// used anyway: a repeated tip beats silence.
func (r *Runner) selectMessage(clientID string) (string, error) {
	name := "there"
	if client, err := r.store.GetClient(clientID); err == nil && client.Name != "" {
		name = client.Name
	}
	vars := map[string]string{"name": name}

	recent, err := r.store.RecentRetargetingContents(clientID, RecentMessageWindow)
	if err != nil {
		return "", fmt.Errorf("failed to load recent retargeting messages: %w", err)
	}
	recentSet := make(map[string]bool, len(recent))
	for _, c := range recent {
		recentSet[c] = true
	}

	pool := make([]string, len(EducationalTips))
	copy(pool, EducationalTips)
	r.shuffle(pool)

	for _, tmpl := range pool {
		rendered := Render(tmpl, vars)
		if !recentSet[rendered] {
			return rendered, nil
		}
	}
	return Render(pool[0], vars), nil
}
