package cards

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/store"
)

// Intake accepts client-submitted assessment forms, completes the
// originating request, and dispatches to exactly one card generator.
type Intake struct {
	store    store.Store
	registry *Registry
}

// NewIntake creates the intake handler.
func NewIntake(st store.Store, registry *Registry) *Intake {
	return &Intake{store: st, registry: registry}
}

// SubmitResult is returned to the caller on successful submission.
type SubmitResult struct {
	Message string  `json:"message"`
	Result  *Result `json:"result"`
}

// Submit processes a submitted intake form.
//
// Order matters: validation happens before any mutation, so an unknown
// assessment type aborts with no side effects. The status update happens
// before generation; if it fails, generation is not attempted. If the
// generator fails afterwards, the request stays completed - the business
// rule is to never re-prompt a client who already filled the form.
func (i *Intake) Submit(ctx context.Context, req models.SubmitAssessmentRequest) (*SubmitResult, error) {
	if err := req.Validate(); err != nil {
		slog.Warn("Intake.Submit: validation failed", "request_id", req.RequestID, "assessment_type", req.AssessmentType, "error", err)
		return nil, err
	}

	gen, ok := i.registry.Lookup(req.AssessmentType)
	if !ok {
		// Unreachable for validated requests, kept as a guard for new enum values.
		return nil, models.ErrUnknownAssessmentType
	}

	if err := i.store.MarkRequestCompleted(req.RequestID, time.Now()); err != nil {
		slog.Error("Intake.Submit: failed to complete assessment request, aborting before generation", "request_id", req.RequestID, "error", err)
		return nil, fmt.Errorf("failed to complete assessment request: %w", err)
	}

	result, err := gen.Generate(ctx, req.ClientID, req.ClientName, req.FormData)
	if err != nil {
		slog.Error("Intake.Submit: generation failed, request remains completed", "request_id", req.RequestID, "assessment_type", req.AssessmentType, "error", err)
		return nil, err
	}

	slog.Info("Intake.Submit: assessment processed", "request_id", req.RequestID, "assessment_type", req.AssessmentType, "card_id", result.Card.ID)
	return &SubmitResult{
		Message: successMessage(req.AssessmentType),
		Result:  result,
	}, nil
}

func successMessage(at models.AssessmentType) string {
	switch at {
	case models.AssessmentTypeHealth:
		return "Thank you! Your health assessment has been submitted and your coach will review the results shortly."
	case models.AssessmentTypeStress:
		return "Thank you! Your stress check-in has been submitted and your coach will review the results shortly."
	case models.AssessmentTypeSleep:
		return "Thank you! Your sleep assessment has been submitted and your coach will review the results shortly."
	default:
		return "Thank you! Your assessment has been submitted."
	}
}
