// Package model defines data structures for the multilingual assistant.
package model

import (
	"time"
)

// Conversation is the summary of a conversation held by the server.
type Conversation struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	TurnCount     int       `json:"turn_count"`
	DocumentCount int       `json:"document_count"`
	LastTurn      *Turn     `json:"last_turn,omitempty"`
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	HasMore       bool           `json:"has_more"`
}
