package model

import (
	"time"
)

// Role represents the role of a turn author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single entry of the conversation log. Turns are never edited
// after they are appended.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Seq is assigned on append and never reused, even after a removal.
	Seq int `json:"seq"`

	// Index is the position of the turn in the log (populated on read).
	Index int `json:"index"`
}

// SendMessageRequest is the request to send a chat message.
type SendMessageRequest struct {
	Text     string       `json:"text"`
	Language LanguageCode `json:"language,omitempty"`
	Mode     Mode         `json:"mode,omitempty"`
}

// WebSearchRequest is the request to run a web search.
type WebSearchRequest struct {
	Query    string       `json:"query"`
	Language LanguageCode `json:"language,omitempty"`
}

// VoiceInputRequest is the request to capture one spoken utterance.
type VoiceInputRequest struct {
	Language LanguageCode `json:"language,omitempty"`
}

// SpeechRequest is the request to read a turn aloud.
type SpeechRequest struct {
	Content  string       `json:"content"`
	Language LanguageCode `json:"language,omitempty"`
}

// CycleResponse is returned by every operation that ends a turn cycle.
type CycleResponse struct {
	Turns []Turn `json:"turns"`
	Mode  Mode   `json:"mode,omitempty"`
}

// ListTurnsResponse is the response for listing turns.
type ListTurnsResponse struct {
	Turns   []Turn `json:"turns"`
	NextSeq int    `json:"next_seq"`
}

// TurnEventType distinguishes turn log changes.
type TurnEventType string

const (
	TurnAppended TurnEventType = "appended"
	TurnRemoved  TurnEventType = "removed"
)

// TurnEvent describes a change to the turn log.
type TurnEvent struct {
	Type TurnEventType `json:"type"`
	Turn Turn          `json:"turn"`
}

// HeartbeatEvent represents a heartbeat event.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
