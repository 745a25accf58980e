// Package classifier decides a guest message's intent when no keyword rule
// matched. The remote classifier is optional; every failure degrades to a
// deterministic local word check.
package classifier

import (
	"context"
	"strings"
)

// Intent is one of the three guest request domains.
type Intent string

const (
	IntentFrontDesk    Intent = "front-desk"
	IntentFood         Intent = "food"
	IntentHousekeeping Intent = "housekeeping"
)

// Status is the outcome of a classification call.
type Status int

const (
	StatusOK Status = iota
	// StatusUnavailable covers transport errors, timeouts and missing credentials.
	StatusUnavailable
	// StatusMalformed means the classifier answered with something other
	// than one of the three intents.
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	case StatusMalformed:
		return "malformed"
	}
	return "unknown"
}

// Result carries the intent when Status is StatusOK, and the raw answer or
// error otherwise.
type Result struct {
	Intent Intent
	Status Status
	Raw    string
	Err    error
}

// Classifier maps a message to an intent.
type Classifier interface {
	Classify(ctx context.Context, message string) Result
}

// ParseIntent accepts a classifier answer that is exactly one of the three
// intents, ignoring case, surrounding whitespace and a trailing period.
func ParseIntent(raw string) (Intent, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, ".\"'`")
	switch Intent(s) {
	case IntentFrontDesk, IntentFood, IntentHousekeeping:
		return Intent(s), true
	}
	return "", false
}

var (
	fallbackFoodWords     = []string{"food", "hungry", "menu", "eat", "order"}
	fallbackCleaningWords = []string{"clean", "laundry", "towel", "toothpaste", "pillow", "blanket"}
)

// Fallback is the deterministic local check used when the classifier
// cannot answer: food words win, then cleaning words, else front desk.
func Fallback(message string) Intent {
	msg := strings.ToLower(message)
	if containsAny(msg, fallbackFoodWords) {
		return IntentFood
	}
	if containsAny(msg, fallbackCleaningWords) {
		return IntentHousekeeping
	}
	return IntentFrontDesk
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
