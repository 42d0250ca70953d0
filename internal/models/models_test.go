package models

import "testing"

func TestIsValidAssessmentType(t *testing.T) {
	valid := []AssessmentType{AssessmentTypeHealth, AssessmentTypeStress, AssessmentTypeSleep}
	for _, at := range valid {
		if !IsValidAssessmentType(at) {
			t.Errorf("expected %s to be valid", at)
		}
	}

	invalid := []AssessmentType{"", "nutrition_assessment", "health", "HEALTH_ASSESSMENT"}
	for _, at := range invalid {
		if IsValidAssessmentType(at) {
			t.Errorf("expected %q to be invalid", at)
		}
	}
}

func TestIsValidCardType(t *testing.T) {
	valid := []CardType{CardTypeHealthAssessment, CardTypeStressCard, CardTypeSleepCard, CardTypeActionPlan, CardTypeDietPlan}
	for _, ct := range valid {
		if !IsValidCardType(ct) {
			t.Errorf("expected %s to be valid", ct)
		}
	}
	if IsValidCardType("grocery_list") {
		t.Error("expected grocery_list to be invalid")
	}
}

func TestCanTransitionCardStatus(t *testing.T) {
	tests := []struct {
		from    CardStatus
		to      CardStatus
		allowed bool
	}{
		{CardStatusPending, CardStatusEdited, true},
		{CardStatusPending, CardStatusSent, true},
		{CardStatusEdited, CardStatusSent, true},
		{CardStatusEdited, CardStatusPending, false},
		{CardStatusSent, CardStatusPending, false},
		{CardStatusSent, CardStatusEdited, false},
		{CardStatusSent, CardStatusSent, false},
		{CardStatusPending, CardStatusPending, false},
	}
	for _, tt := range tests {
		if got := CanTransitionCardStatus(tt.from, tt.to); got != tt.allowed {
			t.Errorf("CanTransitionCardStatus(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestRetargetingFrequencyGapDays(t *testing.T) {
	tests := []struct {
		freq RetargetingFrequency
		want int
	}{
		{FrequencyWeekly, 7},
		{FrequencyBiWeekly, 14},
		{FrequencyMonthly, 30},
		{"", 30},
		{"daily", 30},
	}
	for _, tt := range tests {
		if got := tt.freq.GapDays(); got != tt.want {
			t.Errorf("GapDays(%q) = %d, want %d", tt.freq, got, tt.want)
		}
	}
}

func TestSubmitAssessmentRequestValidate(t *testing.T) {
	base := SubmitAssessmentRequest{
		RequestID:      "req-1",
		AssessmentType: AssessmentTypeHealth,
		ClientID:       "client-1",
		FormData:       []byte(`{"age": 30}`),
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*SubmitAssessmentRequest)
		wantErr error
	}{
		{"missing request id", func(r *SubmitAssessmentRequest) { r.RequestID = "" }, ErrEmptyRequestID},
		{"missing client id", func(r *SubmitAssessmentRequest) { r.ClientID = "" }, ErrEmptyClientID},
		{"unknown type", func(r *SubmitAssessmentRequest) { r.AssessmentType = "mystery" }, ErrUnknownAssessmentType},
		{"empty form", func(r *SubmitAssessmentRequest) { r.FormData = nil }, ErrEmptyFormData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			if err := req.Validate(); err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEditCardRequestValidate(t *testing.T) {
	req := EditCardRequest{CardID: "card-1", GeneratedContent: []byte(`{}`)}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if err := (&EditCardRequest{GeneratedContent: []byte(`{}`)}).Validate(); err != ErrEmptyCardID {
		t.Errorf("expected ErrEmptyCardID, got %v", err)
	}
	if err := (&EditCardRequest{CardID: "card-1"}).Validate(); err != ErrEmptyCardContent {
		t.Errorf("expected ErrEmptyCardContent, got %v", err)
	}
}

func TestPushSubscribeRequestValidate(t *testing.T) {
	req := PushSubscribeRequest{ClientID: "client-1", Endpoint: "https://push.example.com/sub"}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if err := (&PushSubscribeRequest{Endpoint: "x"}).Validate(); err != ErrEmptyClientID {
		t.Errorf("expected ErrEmptyClientID, got %v", err)
	}
	if err := (&PushSubscribeRequest{ClientID: "x"}).Validate(); err != ErrEmptyEndpoint {
		t.Errorf("expected ErrEmptyEndpoint, got %v", err)
	}
}

func TestAPIResponseBuilders(t *testing.T) {
	ok := Success(map[string]int{"n": 1})
	if ok.Status != string(APIStatusOK) || ok.Error != "" {
		t.Errorf("unexpected success envelope: %+v", ok)
	}

	withMsg := SuccessWithMessage("done", nil)
	if withMsg.Message != "done" || withMsg.Status != string(APIStatusOK) {
		t.Errorf("unexpected envelope: %+v", withMsg)
	}

	failed := Error("boom")
	if failed.Status != string(APIStatusError) || failed.Error != "boom" {
		t.Errorf("unexpected error envelope: %+v", failed)
	}
}
