// Package heuristics holds the keyword classifiers applied to chat text.
// Matching is case-insensitive substring containment.
package heuristics

import (
	"regexp"
	"strings"

	"github.com/storedesk/helpdesk/internal/model"
)

var (
	negativeKeywords = []string{"angry", "frustrated", "terrible", "awful", "hate", "worst"}
	positiveKeywords = []string{"thanks", "thank you", "great", "awesome", "love", "perfect"}

	humanRequestPhrases = []string{
		"speak to human",
		"talk to person",
		"human agent",
		"representative",
		"manager",
		"supervisor",
	}
	uncertainReplyPhrases = []string{"i don't know", "i'm not sure", "escalate"}

	orderPattern = regexp.MustCompile(`(?i)#(\d+)|order\s+(\d+)|order\s+number\s+(\d+)`)
)

// Sentiment classifies text. Negative keywords take precedence over positive ones.
func Sentiment(text string) model.Sentiment {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, negativeKeywords):
		return model.SentimentNegative
	case containsAny(lower, positiveKeywords):
		return model.SentimentPositive
	default:
		return model.SentimentNeutral
	}
}

// CustomerRequestsHuman reports whether the customer asked for a person.
func CustomerRequestsHuman(text string) bool {
	return containsAny(strings.ToLower(text), humanRequestPhrases)
}

// ReplyNeedsHuman reports whether the assistant's reply signals it is out of its depth.
func ReplyNeedsHuman(reply string) bool {
	return containsAny(strings.ToLower(reply), uncertainReplyPhrases)
}

// ShouldEscalate reports whether a conversation needs a human agent.
func ShouldEscalate(customerText, reply string) bool {
	return CustomerRequestsHuman(customerText) || ReplyNeedsHuman(reply)
}

// ExtractOrderNumber returns the first order number mentioned in text.
func ExtractOrderNumber(text string) (string, bool) {
	m := orderPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	for _, g := range m[1:] {
		if g != "" {
			return g, true
		}
	}
	return "", false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
