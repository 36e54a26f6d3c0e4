package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

const (
	// StreamName is the name of the turn feed stream.
	StreamName = "CHAT_EVENTS"

	// SubjectPrefix is the prefix for all turn feed subjects.
	SubjectPrefix = "chat"
)

// turnRecord is the payload published for every turn event.
type turnRecord struct {
	ConversationID string              `json:"conversation_id"`
	Type           model.TurnEventType `json:"type"`
	Turn           model.Turn          `json:"turn"`
	PublishedAt    time.Time           `json:"published_at"`
}

// TurnFeed publishes turn events to JetStream for external observers. The
// stream lives in memory and is never read back by this service.
type TurnFeed struct {
	client *Client
}

// NewTurnFeed creates a new turn feed.
func NewTurnFeed(client *Client) *TurnFeed {
	return &TurnFeed{client: client}
}

// EnsureStream ensures the turn feed stream exists.
func (f *TurnFeed) EnsureStream(ctx context.Context) error {
	js := f.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxBytes:    256 * 1024 * 1024,
		Storage:     jetstream.MemoryStorage,
		Replicas:    1,
		Discard:     jetstream.DiscardOld,
		Description: "Conversation turn events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// TurnSubject returns the subject for a turn event.
func TurnSubject(conversationID string, eventType model.TurnEventType, role model.Role) string {
	return fmt.Sprintf("%s.%s.turn.%s.%s", SubjectPrefix, conversationID, eventType, role)
}

// PublishTurn publishes a turn event and returns its stream sequence.
func (f *TurnFeed) PublishTurn(ctx context.Context, conversationID string, event model.TurnEvent) (uint64, error) {
	subject := TurnSubject(conversationID, event.Type, event.Turn.Role)

	data, err := json.Marshal(turnRecord{
		ConversationID: conversationID,
		Type:           event.Type,
		Turn:           event.Turn,
		PublishedAt:    time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal turn event: %w", err)
	}

	ack, err := f.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish turn event: %w", err)
	}

	return ack.Sequence, nil
}
