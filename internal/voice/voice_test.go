package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
	"github.com/capitalize-ai/multilingual-assistant/pkg/logger"
)

type fakeRecognizer struct {
	text    string
	err     error
	block   bool
	locales []string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, locale string) (string, error) {
	f.locales = append(f.locales, locale)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

// blockingRecognizer waits until its context ends.
type blockingRecognizer struct{}

func (blockingRecognizer) Recognize(ctx context.Context, locale string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type fakeSynthesizer struct {
	voices    []Voice
	voicesErr error
	speakErr  error
	spoken    []string
	locales   []string
	chosen    []*Voice
}

func (f *fakeSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	return f.voices, f.voicesErr
}

func (f *fakeSynthesizer) Speak(ctx context.Context, text, locale string, voice *Voice) error {
	f.spoken = append(f.spoken, text)
	f.locales = append(f.locales, locale)
	f.chosen = append(f.chosen, voice)
	return f.speakErr
}

func TestStartRecognitionUsesLocale(t *testing.T) {
	rec := &fakeRecognizer{text: "  hola  "}
	svc := NewService(rec, &fakeSynthesizer{}, logger.NewNop())

	text, err := svc.StartRecognition(context.Background(), "conv-a", model.LanguageSpanish)
	require.NoError(t, err)
	assert.Equal(t, "hola", text)
	assert.Equal(t, []string{"es-ES"}, rec.locales)
}

func TestStartRecognitionErrors(t *testing.T) {
	tests := []struct {
		name string
		rec  *fakeRecognizer
		want error
	}{
		{name: "backend failure", rec: &fakeRecognizer{err: errors.New("mic busy")}},
		{name: "empty transcript", rec: &fakeRecognizer{text: "   "}, want: ErrNoSpeech},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.rec, &fakeSynthesizer{}, logger.NewNop())
			_, err := svc.StartRecognition(context.Background(), "conv-a", model.LanguageEnglish)
			require.Error(t, err)

			var speechErr *SpeechError
			require.ErrorAs(t, err, &speechErr)
			assert.Equal(t, "recognize", speechErr.Op)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestStopCancelsRecognition(t *testing.T) {
	svc := NewService(&fakeRecognizer{block: true}, &fakeSynthesizer{}, logger.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.StartRecognition(context.Background(), "conv-a", model.LanguageEnglish)
		done <- err
	}()

	assert.Eventually(t, func() bool {
		return svc.Listening("conv-a")
	}, time.Second, 5*time.Millisecond)

	svc.Stop("conv-b")
	assert.True(t, svc.Listening("conv-a"))

	svc.Stop("conv-a")

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("recognition did not stop")
	}
}

func TestRecognitionIsolatedPerSession(t *testing.T) {
	svc := NewService(&blockingRecognizer{}, &fakeSynthesizer{}, logger.NewNop())

	results := map[string]chan error{
		"conv-a": make(chan error, 1),
		"conv-b": make(chan error, 1),
	}
	start := func(session string) {
		go func() {
			_, err := svc.StartRecognition(context.Background(), session, model.LanguageEnglish)
			results[session] <- err
		}()
		assert.Eventually(t, func() bool {
			return svc.Listening(session)
		}, time.Second, 5*time.Millisecond)
	}

	start("conv-a")
	start("conv-b")

	// Starting b must not preempt a.
	select {
	case err := <-results["conv-a"]:
		t.Fatalf("conv-a recognition ended early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	svc.Stop("conv-b")
	select {
	case err := <-results["conv-b"]:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("conv-b recognition did not stop")
	}
	assert.True(t, svc.Listening("conv-a"))

	svc.Stop("conv-a")
	select {
	case err := <-results["conv-a"]:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("conv-a recognition did not stop")
	}
}

func TestRestartInSameSessionKeepsNewCancel(t *testing.T) {
	svc := NewService(&blockingRecognizer{}, &fakeSynthesizer{}, logger.NewNop())

	first := make(chan error, 1)
	go func() {
		_, err := svc.StartRecognition(context.Background(), "conv-a", model.LanguageEnglish)
		first <- err
	}()
	assert.Eventually(t, func() bool { return svc.Listening("conv-a") }, time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := svc.StartRecognition(context.Background(), "conv-a", model.LanguageEnglish)
		second <- err
	}()

	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("first recognition was not replaced")
	}

	// The replaced call's cleanup must leave the new recognition stoppable.
	assert.Eventually(t, func() bool { return svc.Listening("conv-a") }, time.Second, 5*time.Millisecond)
	svc.Stop("conv-a")

	select {
	case err := <-second:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("second recognition did not stop")
	}
}

func TestSpeakPicksVoice(t *testing.T) {
	syn := &fakeSynthesizer{voices: []Voice{
		{Name: "Alex", Locale: "en-US"},
		{Name: "Mei", Locale: "zh-CN"},
		{Name: "Pablo", Locale: "es-MX"},
	}}
	svc := NewService(&fakeRecognizer{}, syn, logger.NewNop())
	require.NoError(t, svc.Initialize(context.Background()))
	assert.True(t, svc.Initialized())

	require.NoError(t, svc.Speak(context.Background(), "你好", model.LanguageChinese))
	require.NoError(t, svc.Speak(context.Background(), "hola", model.LanguageSpanish))
	require.NoError(t, svc.Speak(context.Background(), "bonjour", model.LanguageFrench))

	require.Len(t, syn.chosen, 3)
	assert.Equal(t, "Mei", syn.chosen[0].Name)
	assert.Equal(t, "Pablo", syn.chosen[1].Name)
	assert.Equal(t, "Alex", syn.chosen[2].Name)
	assert.Equal(t, []string{"zh-CN", "es-ES", "fr-FR"}, syn.locales)
}

func TestSpeakWithoutVoices(t *testing.T) {
	syn := &fakeSynthesizer{voicesErr: ErrUnsupported}
	svc := NewService(&fakeRecognizer{}, syn, logger.NewNop())

	err := svc.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.True(t, svc.Initialized())

	require.NoError(t, svc.Speak(context.Background(), "hi", model.LanguageEnglish))
	require.Len(t, syn.chosen, 1)
	assert.Nil(t, syn.chosen[0])
}

func TestSpeakFailure(t *testing.T) {
	syn := &fakeSynthesizer{speakErr: errors.New("audio device lost")}
	svc := NewService(&fakeRecognizer{}, syn, logger.NewNop())

	err := svc.Speak(context.Background(), "hi", model.LanguageEnglish)
	var speechErr *SpeechError
	require.ErrorAs(t, err, &speechErr)
	assert.Equal(t, "synthesize", speechErr.Op)
	assert.Contains(t, err.Error(), "audio device lost")
}

func TestUnavailable(t *testing.T) {
	svc := NewService(Unavailable{}, Unavailable{}, logger.NewNop())

	_, err := svc.StartRecognition(context.Background(), "conv-a", model.LanguageEnglish)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, svc.Speak(context.Background(), "hi", model.LanguageEnglish), ErrUnsupported)
}

func TestDecodeReply(t *testing.T) {
	reply, err := decodeReply([]byte(`{"text":"hello","voices":[{"name":"Alex","locale":"en-US","default":true}]}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Text)
	require.Len(t, reply.Voices, 1)
	assert.True(t, reply.Voices[0].Default)

	_, err = decodeReply([]byte(`{"error":"no microphone"}`))
	assert.EqualError(t, err, "no microphone")

	_, err = decodeReply([]byte(`not json`))
	assert.Error(t, err)
}
