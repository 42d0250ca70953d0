package util

import (
	"strings"
	"testing"
)

func TestGenerateRandomHex(t *testing.T) {
	hex := GenerateRandomHex(32)
	if len(hex) != 32 {
		t.Errorf("expected 32 chars, got %d", len(hex))
	}
	for _, ch := range hex {
		if !strings.ContainsRune("0123456789abcdef", ch) {
			t.Errorf("unexpected character %q in hex string", ch)
		}
	}

	if GenerateRandomHex(0) != "" {
		t.Error("expected empty string for zero length")
	}
	if GenerateRandomHex(-5) != "" {
		t.Error("expected empty string for negative length")
	}
}

func TestGenerateIDPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"assessment", GenerateAssessmentID, "asm_"},
		{"card", GenerateCardID, "card_"},
		{"message", GenerateMessageID, "msg_"},
		{"subscription", GenerateSubscriptionID, "sub_"},
	}
	for _, tt := range tests {
		id := tt.gen()
		if !strings.HasPrefix(id, tt.prefix) {
			t.Errorf("%s ID %q missing prefix %q", tt.name, id, tt.prefix)
		}
		if len(id) != len(tt.prefix)+32 {
			t.Errorf("%s ID %q has unexpected length %d", tt.name, id, len(id))
		}
	}
}

func TestGenerateRandomIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateMessageID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"on", false, true},
		{"TRUE", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"off", true, false},
		{"", true, true},
		{"", false, false},
		{"maybe", true, true},
		{"maybe", false, false},
		{" true ", false, true},
	}
	for _, tt := range tests {
		key := "COACHPIPE_TEST_BOOL"
		if tt.value == "" {
			t.Setenv(key, "")
		} else {
			t.Setenv(key, tt.value)
		}
		if got := ParseBoolEnv(key, tt.def); got != tt.expected {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.expected)
		}
	}
}

func TestGetenvDefault(t *testing.T) {
	t.Setenv("COACHPIPE_TEST_STR", "set")
	if got := GetenvDefault("COACHPIPE_TEST_STR", "fallback"); got != "set" {
		t.Errorf("expected set, got %s", got)
	}
	t.Setenv("COACHPIPE_TEST_STR", "")
	if got := GetenvDefault("COACHPIPE_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %s", got)
	}
}
