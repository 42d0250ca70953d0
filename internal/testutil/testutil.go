// Package testutil provides common test utilities and helpers for CoachPipe tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BalancedBite/CoachPipe/internal/api"
	"github.com/BalancedBite/CoachPipe/internal/cards"
	"github.com/BalancedBite/CoachPipe/internal/dispatch"
	"github.com/BalancedBite/CoachPipe/internal/genai"
	"github.com/BalancedBite/CoachPipe/internal/models"
	"github.com/BalancedBite/CoachPipe/internal/notify"
	"github.com/BalancedBite/CoachPipe/internal/retarget"
	"github.com/BalancedBite/CoachPipe/internal/store"
)

// NewTestServer creates a test API server wired with an in-memory store and
// mock AI. This centralizes the server wiring used across handler tests.
func NewTestServer() (*api.Server, *store.InMemoryStore) {
	st := store.NewInMemoryStore()
	ai := genai.NewMockClient()
	registry := cards.NewRegistry(st, ai)
	intake := cards.NewIntake(st, registry)
	dietPlans := cards.NewDietPlanGenerator(st, ai)
	dispatcher := dispatch.NewDispatcher(st, notify.NewLogNotifier())
	retargeter := retarget.NewRunner(st)
	return api.NewServer(st, intake, dietPlans, dispatcher, retargeter), st
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// SeedClient adds a client with a profile usable by the health generator.
func SeedClient(t *testing.T, st store.Store, id, name string) {
	t.Helper()
	err := st.AddClient(models.Client{
		ID:       id,
		Name:     name,
		Gender:   "male",
		Age:      30,
		HeightCm: 170,
		WeightKg: 70,
	})
	if err != nil {
		t.Fatalf("failed to seed client %s: %v", id, err)
	}
}

// SeedAssessmentRequest adds an open assessment request for the client.
func SeedAssessmentRequest(t *testing.T, st store.Store, requestID, clientID string, at models.AssessmentType) {
	t.Helper()
	err := st.AddAssessmentRequest(models.AssessmentRequest{
		ID:             requestID,
		ClientID:       clientID,
		AssessmentType: at,
		Status:         models.RequestStatusPending,
		RequestedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed assessment request %s: %v", requestID, err)
	}
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
