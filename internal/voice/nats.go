package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectRecognize  = "speech.recognize"
	SubjectSynthesize = "speech.synthesize"
	SubjectVoices     = "speech.voices"
)

type recognizeRequest struct {
	Locale string `json:"locale"`
}

type synthesizeRequest struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
	Voice  string `json:"voice,omitempty"`
}

type speechReply struct {
	Text   string  `json:"text,omitempty"`
	Voices []Voice `json:"voices,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// NATSBridge relays speech work to an external speech worker over NATS
// request/reply.
type NATSBridge struct {
	conn    *nats.Conn
	timeout time.Duration
}

// NewNATSBridge creates a bridge. timeout bounds requests whose context has no deadline.
func NewNATSBridge(conn *nats.Conn, timeout time.Duration) *NATSBridge {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NATSBridge{conn: conn, timeout: timeout}
}

// Recognize asks the worker to listen for one utterance.
func (b *NATSBridge) Recognize(ctx context.Context, locale string) (string, error) {
	reply, err := b.request(ctx, SubjectRecognize, recognizeRequest{Locale: locale})
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// Voices asks the worker for its voice list.
func (b *NATSBridge) Voices(ctx context.Context) ([]Voice, error) {
	reply, err := b.request(ctx, SubjectVoices, struct{}{})
	if err != nil {
		return nil, err
	}
	return reply.Voices, nil
}

// Speak asks the worker to read text aloud and waits for completion.
func (b *NATSBridge) Speak(ctx context.Context, text, locale string, voice *Voice) error {
	req := synthesizeRequest{Text: text, Locale: locale}
	if voice != nil {
		req.Voice = voice.Name
	}
	_, err := b.request(ctx, SubjectSynthesize, req)
	return err
}

func (b *NATSBridge) request(ctx context.Context, subject string, payload any) (*speechReply, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", subject, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	msg, err := b.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("%s request failed: %w", subject, err)
	}

	return decodeReply(msg.Data)
}

func decodeReply(data []byte) (*speechReply, error) {
	var reply speechReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode speech reply: %w", err)
	}
	if reply.Error != "" {
		return nil, errors.New(reply.Error)
	}
	return &reply, nil
}
