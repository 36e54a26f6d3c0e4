// Package voice owns the speech recognition and synthesis collaborators.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/multilingual-assistant/internal/language"
	"github.com/capitalize-ai/multilingual-assistant/internal/model"
	"github.com/capitalize-ai/multilingual-assistant/pkg/logger"
	"github.com/capitalize-ai/multilingual-assistant/pkg/metrics"
)

// ErrUnsupported is returned when no speech backend is available.
var ErrUnsupported = errors.New("speech not supported")

// ErrNoSpeech is returned when recognition finished without any text.
var ErrNoSpeech = errors.New("no speech recognized")

// SpeechError wraps a recognition or synthesis failure.
type SpeechError struct {
	Op  string
	Err error
}

func (e *SpeechError) Error() string {
	return fmt.Sprintf("speech %s: %v", e.Op, e.Err)
}

func (e *SpeechError) Unwrap() error {
	return e.Err
}

// Voice is a synthesis voice offered by the backend.
type Voice struct {
	Name    string `json:"name"`
	Locale  string `json:"locale"`
	Default bool   `json:"default,omitempty"`
}

// Recognizer turns one spoken utterance into text. Recognition is one-shot.
type Recognizer interface {
	Recognize(ctx context.Context, locale string) (string, error)
}

// Synthesizer reads text aloud.
type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, text, locale string, voice *Voice) error
}

// Service is the speech resource injected into the orchestrator.
type Service struct {
	recognizer  Recognizer
	synthesizer Synthesizer
	logger      *logger.Logger

	mu          sync.Mutex
	voices      []Voice
	initialized bool

	// recognitions holds the in-flight recognition of each session.
	recognitions map[string]*recognition
}

type recognition struct {
	cancel context.CancelFunc
}

// NewService creates a voice service around the given collaborators.
func NewService(recognizer Recognizer, synthesizer Synthesizer, log *logger.Logger) *Service {
	return &Service{
		recognizer:  recognizer,
		synthesizer:  synthesizer,
		logger:       log,
		recognitions: make(map[string]*recognition),
	}
}

// Initialize enumerates the available voices. The service stays usable when
// enumeration fails; synthesis then runs without an explicit voice.
func (s *Service) Initialize(ctx context.Context) error {
	voices, err := s.synthesizer.Voices(ctx)

	s.mu.Lock()
	s.initialized = true
	if err == nil {
		s.voices = voices
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("voice enumeration failed", zap.Error(err))
		return &SpeechError{Op: "initialize", Err: err}
	}

	s.logger.Info("voice service initialized", zap.Int("voices", len(voices)))
	return nil
}

// Initialized reports whether Initialize has run.
func (s *Service) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// StartRecognition listens for one utterance in the given language on behalf
// of session. A recognition already in flight for the same session is stopped
// first; other sessions are unaffected.
func (s *Service) StartRecognition(ctx context.Context, session string, code model.LanguageCode) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	own := &recognition{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.recognitions[session]; ok {
		prev.cancel()
	}
	s.recognitions[session] = own
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.recognitions[session] == own {
			delete(s.recognitions, session)
		}
		s.mu.Unlock()
	}()

	text, err := s.recognizer.Recognize(ctx, language.LocaleFor(code))
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoSpeech
	}
	if err != nil {
		metrics.RecordSpeech("recognize", "error")
		return "", &SpeechError{Op: "recognize", Err: err}
	}

	metrics.RecordSpeech("recognize", "success")
	return strings.TrimSpace(text), nil
}

// Stop cancels the in-flight recognition of session, if any.
func (s *Service) Stop(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.recognitions[session]; ok {
		r.cancel()
		delete(s.recognitions, session)
	}
}

// Listening reports whether session has a recognition in flight.
func (s *Service) Listening(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.recognitions[session]
	return ok
}

// Speak reads text aloud using the locale mapped from code.
func (s *Service) Speak(ctx context.Context, text string, code model.LanguageCode) error {
	locale := language.LocaleFor(code)
	voice := s.BestVoice(locale)

	if err := s.synthesizer.Speak(ctx, text, locale, voice); err != nil {
		metrics.RecordSpeech("synthesize", "error")
		return &SpeechError{Op: "synthesize", Err: err}
	}

	metrics.RecordSpeech("synthesize", "success")
	return nil
}

// BestVoice picks a voice for locale: exact locale prefix, then same language,
// then the first voice. It returns nil when no voices are known.
func (s *Service) BestVoice(locale string) *Voice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.voices) == 0 {
		return nil
	}

	for i := range s.voices {
		if strings.HasPrefix(s.voices[i].Locale, locale) {
			v := s.voices[i]
			return &v
		}
	}

	lang, _, _ := strings.Cut(locale, "-")
	for i := range s.voices {
		if strings.HasPrefix(s.voices[i].Locale, lang) {
			v := s.voices[i]
			return &v
		}
	}

	v := s.voices[0]
	return &v
}

// Unavailable is the collaborator used when no speech backend is configured.
type Unavailable struct{}

// Recognize always fails with ErrUnsupported.
func (Unavailable) Recognize(ctx context.Context, locale string) (string, error) {
	return "", ErrUnsupported
}

// Voices always fails with ErrUnsupported.
func (Unavailable) Voices(ctx context.Context) ([]Voice, error) {
	return nil, ErrUnsupported
}

// Speak always fails with ErrUnsupported.
func (Unavailable) Speak(ctx context.Context, text, locale string, voice *Voice) error {
	return ErrUnsupported
}
