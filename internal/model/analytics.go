package model

import "time"

// DateRange bounds an analytics report, both ends inclusive.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overview is the headline dashboard report.
type Overview struct {
	TotalConversations             int64   `json:"total_conversations"`
	OpenConversations              int64   `json:"open_conversations"`
	ResolvedConversations          int64   `json:"resolved_conversations"`
	TotalMessages                  int64   `json:"total_messages"`
	AverageMessagesPerConversation float64 `json:"average_messages_per_conversation"`
}

// CommonQuestion is a recurring customer question.
type CommonQuestion struct {
	Question string `json:"question"`
	Count    int64  `json:"count"`
}

// ResponseTimes reports the gap between the first two messages of each
// conversation, in seconds.
type ResponseTimes struct {
	AverageResponseTime float64   `json:"average_response_time"`
	ResponseTimes       []float64 `json:"response_times"`
}

// Satisfaction tallies conversations by sentiment. Conversations without a
// sentiment count toward Total only.
type Satisfaction struct {
	Positive int64 `json:"positive"`
	Neutral  int64 `json:"neutral"`
	Negative int64 `json:"negative"`
	Total    int64 `json:"total"`
}
