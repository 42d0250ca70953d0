// Package util provides utility functions for the CoachPipe application.
package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
// Uses math/rand/v2; these IDs are identifiers, not secrets.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateAssessmentID generates a unique assessment ID with "asm_" prefix.
func GenerateAssessmentID() string {
	return GenerateRandomID("asm_", 32)
}

// GenerateCardID generates a unique review-card ID with "card_" prefix.
func GenerateCardID() string {
	return GenerateRandomID("card_", 32)
}

// GenerateMessageID generates a unique message ID with "msg_" prefix.
func GenerateMessageID() string {
	return GenerateRandomID("msg_", 32)
}

// GenerateSubscriptionID generates a unique push-subscription ID with "sub_" prefix.
func GenerateSubscriptionID() string {
	return GenerateRandomID("sub_", 32)
}
