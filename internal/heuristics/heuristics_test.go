package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storedesk/helpdesk/internal/model"
)

func TestSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.Sentiment
	}{
		{"negative keyword", "I am so ANGRY about this", model.SentimentNegative},
		{"positive keyword", "thanks for the quick answer", model.SentimentPositive},
		{"positive phrase", "Thank You so much", model.SentimentPositive},
		{"neither", "where is my parcel", model.SentimentNeutral},
		{"empty", "", model.SentimentNeutral},
		{"negative wins", "thanks, but this is the worst service", model.SentimentNegative},
		{"substring match", "I hated it", model.SentimentNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentiment(tt.text))
		})
	}
}

func TestShouldEscalate(t *testing.T) {
	tests := []struct {
		name     string
		customer string
		reply    string
		want     bool
	}{
		{"customer asks for a person", "Can I talk to person please", "Of course, one moment.", true},
		{"customer asks for a manager", "get me your MANAGER", "", true},
		{"reply unsure", "what is the warranty", "I'm not sure about that.", true},
		{"reply does not know", "hi", "Sorry, I don't know.", true},
		{"reply escalates", "hi", "Let me escalate this.", true},
		{"nothing", "where is my order", "It ships tomorrow.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldEscalate(tt.customer, tt.reply))
		})
	}
}

func TestExtractOrderNumber(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"my order #12345 is late", "12345", true},
		{"order number 987", "987", true},
		{"ORDER 42 never arrived", "42", true},
		{"no number here", "", false},
		{"order numbers are hard", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ExtractOrderNumber(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
