package domain

import "time"

// KnowledgeEntry is one row of the instruction sheet.
type KnowledgeEntry struct {
	Category string
	Topic    string
	Answer   string
}

// KnowledgeBase is the full parsed state of the instruction spreadsheet.
type KnowledgeBase struct {
	Entries []KnowledgeEntry
	// Layered instruction blocks injected into the system prompt but never
	// shown to the user.
	CoreLite string
	Core     string
	Doctrine string

	IgnoreDomains  []string
	IgnoreKeywords []string
	Replacements   map[string]string

	LoadedAt time.Time
}

// ThreadMemory is the per-thread conversational state kept between runs.
type ThreadMemory struct {
	Language     string    `json:"language"`
	Category     string    `json:"category"`
	Tone         string    `json:"tone"`
	ProvidedInfo []string  `json:"provided_info"`
	LastUpdated  time.Time `json:"last_updated"`
	MessageCount int       `json:"message_count"`
}

// SenderRecord aggregates every interaction with one correspondent.
type SenderRecord struct {
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	Interactions int            `json:"interactions"`
	Topics       map[string]int `json:"topics"`
	LastSeen     time.Time      `json:"last_seen"`
}

// RejectedReply is a generated response that failed validation, archived
// for later review.
type RejectedReply struct {
	ThreadID   string    `bson:"thread_id"`
	MessageID  string    `bson:"message_id"`
	Sender     string    `bson:"sender"`
	Subject    string    `bson:"subject"`
	Reply      string    `bson:"reply"`
	Score      float64   `bson:"score"`
	Errors     []string  `bson:"errors"`
	Warnings   []string  `bson:"warnings"`
	RejectedAt time.Time `bson:"rejected_at"`
}

// EventBooking is a registration request extracted from a message about a
// capacity-limited event.
type EventBooking struct {
	EventName     string
	Email         string
	Name          string
	RequestedDate string
	Status        string
	Note          string
}
