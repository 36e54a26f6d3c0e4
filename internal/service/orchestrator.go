// Package service runs the turn cycles of each conversation.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"github.com/capitalize-ai/multilingual-assistant/internal/conversation"
	"github.com/capitalize-ai/multilingual-assistant/internal/llm"
	"github.com/capitalize-ai/multilingual-assistant/internal/model"
	"github.com/capitalize-ai/multilingual-assistant/internal/prompt"
	"github.com/capitalize-ai/multilingual-assistant/internal/search"
	"github.com/capitalize-ai/multilingual-assistant/internal/voice"
	"github.com/capitalize-ai/multilingual-assistant/pkg/logger"
	"github.com/capitalize-ai/multilingual-assistant/pkg/metrics"
)

// User-visible texts appended to the turn log.
const (
	ApologyText       = "I'm sorry, I encountered an error. Please try again."
	SearchApologyText = "I'm sorry, I encountered an error searching the web. Please try again."
	VoiceApologyText  = "I'm sorry, I encountered an error with voice recognition. Please try typing your message instead."
	ListeningText     = "Listening... Speak now."
)

var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrEmptyQuery   = errors.New("search query is empty")
	ErrNoFiles      = errors.New("no files to upload")
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
)

// fileKeywords switch a message to file mode when documents are present.
var fileKeywords = []string{"file", "document", "uploaded"}

// FileReadError reports an upload that could not be read as text.
type FileReadError struct {
	Name string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read file %q: %v", e.Name, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}

// FileApologyText is the assistant reply for an upload that could not be read.
func FileApologyText(name string) string {
	return fmt.Sprintf("I'm sorry, I encountered an error reading the file %s. Please try again.", name)
}

// UploadedText is the system turn listing a batch of uploaded files.
func UploadedText(names []string) string {
	return fmt.Sprintf("Files uploaded: %s. You can ask questions about these files.", strings.Join(names, ", "))
}

// RemovedText is the system turn noting a removed file.
func RemovedText(name string) string {
	return "File removed: " + name
}

// SearchIntentText is the user turn recorded for a web search.
func SearchIntentText(query string) string {
	return "Search the web for: " + query
}

// TurnPublisher receives every change to a conversation's turn log.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, conversationID string, event model.TurnEvent) (uint64, error)
}

type noopPublisher struct{}

func (noopPublisher) PublishTurn(ctx context.Context, conversationID string, event model.TurnEvent) (uint64, error) {
	return 0, nil
}

// Upload is one file handed to UploadFiles.
type Upload struct {
	Name     string
	MimeType string
	Open     func() (io.ReadCloser, error)
}

// Options tunes an orchestrator.
type Options struct {
	// HistoryWindow caps the turns included in a chat prompt. Zero means all.
	HistoryWindow int
	// MaxUploadBytes caps the size of one uploaded file. Zero means no limit.
	MaxUploadBytes int64
}

// Orchestrator drives the turn cycles of one conversation.
type Orchestrator struct {
	id        string
	state     *conversation.State
	docs      *conversation.Documents
	generator llm.Generator
	composer  *prompt.Composer
	searcher  search.Searcher
	voice     *voice.Service
	publisher TurnPublisher
	logger    *logger.Logger
	opts      Options

	// cycle serialises operations that append turns so the log follows
	// request order.
	cycle sync.Mutex
}

// NewOrchestrator creates an orchestrator with an empty turn log.
func NewOrchestrator(id string, deps Dependencies, log *logger.Logger) *Orchestrator {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = noopPublisher{}
	}
	searcher := deps.Searcher
	if searcher == nil {
		searcher = search.NewPlaceholder()
	}
	composer := deps.Composer
	if composer == nil {
		composer = prompt.NewComposer(prompt.DefaultParams())
	}

	return &Orchestrator{
		id:        id,
		state:     conversation.NewState(),
		docs:      conversation.NewDocuments(),
		generator: deps.Generator,
		composer:  composer,
		searcher:  searcher,
		voice:     deps.Voice,
		publisher: publisher,
		logger:    log.With(zap.String("conversation_id", id)),
		opts:      deps.Options,
	}
}

// ID returns the conversation id.
func (o *Orchestrator) ID() string {
	return o.id
}

// State exposes the turn log for reads and subscriptions.
func (o *Orchestrator) State() *conversation.State {
	return o.state
}

// Documents returns the uploaded documents in upload order.
func (o *Orchestrator) Documents() []model.Document {
	return o.docs.List()
}

// SelectMode picks the generation mode for a message. A valid explicit mode
// wins; otherwise file mode is used when documents exist and the text refers
// to a file.
func SelectMode(explicit model.Mode, text string, documentCount int) model.Mode {
	if explicit.Valid() {
		if explicit == model.ModeFile && documentCount == 0 {
			return model.ModeChat
		}
		return explicit
	}

	if documentCount == 0 {
		return model.ModeChat
	}

	lower := strings.ToLower(text)
	for _, kw := range fileKeywords {
		if strings.Contains(lower, kw) {
			return model.ModeFile
		}
	}
	return model.ModeChat
}

// SendMessage appends the user's message and the assistant's reply.
func (o *Orchestrator) SendMessage(ctx context.Context, text string, lang model.LanguageCode, mode model.Mode) (*model.CycleResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	o.cycle.Lock()
	defer o.cycle.Unlock()

	user := o.append(ctx, model.RoleUser, text)
	reply, used := o.respond(ctx, text, lang, mode)

	return &model.CycleResponse{Turns: []model.Turn{user, reply}, Mode: used}, nil
}

// respond runs one generation for text and appends the assistant turn.
func (o *Orchestrator) respond(ctx context.Context, text string, lang model.LanguageCode, explicit model.Mode) (model.Turn, model.Mode) {
	docs := o.docs.List()
	mode := SelectMode(explicit, text, len(docs))

	in := prompt.Input{
		Mode:     mode,
		Language: lang,
		Query:    text,
	}
	switch mode {
	case model.ModeFile:
		in.Documents = docs
	case model.ModeSearch:
		results, err := o.searcher.Search(ctx, text)
		if err != nil {
			o.logger.Error("search failed", zap.Error(err))
			return o.append(ctx, model.RoleAssistant, SearchApologyText), mode
		}
		in.Results = results
	default:
		in.Turns = o.state.Recent(o.opts.HistoryWindow)
	}

	reply, err := o.generator.Generate(ctx, o.composer.Compose(in))
	if err != nil {
		o.logger.Error("generation failed", zap.String("mode", string(mode)), zap.Error(err))
		if mode == model.ModeSearch {
			return o.append(ctx, model.RoleAssistant, SearchApologyText), mode
		}
		return o.append(ctx, model.RoleAssistant, ApologyText), mode
	}

	return o.append(ctx, model.RoleAssistant, reply), mode
}

// UploadFiles reads every file as text and adds the readable ones to the
// document set. One system turn lists the uploaded names in upload order and
// each unreadable file gets its own apology turn.
func (o *Orchestrator) UploadFiles(ctx context.Context, uploads []Upload) (*model.CycleResponse, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}

	type readResult struct {
		doc model.Document
		err error
	}
	results := iter.Map(uploads, func(u *Upload) readResult {
		doc, err := o.readUpload(*u)
		return readResult{doc: doc, err: err}
	})

	o.cycle.Lock()
	defer o.cycle.Unlock()

	var (
		names  []string
		failed []string
	)
	for i, r := range results {
		if r.err != nil {
			o.logger.Warn("file read failed", zap.String("file", uploads[i].Name), zap.Error(r.err))
			metrics.RecordUpload("error")
			failed = append(failed, uploads[i].Name)
			continue
		}
		o.docs.Put(r.doc)
		metrics.RecordUpload("success")
		names = append(names, r.doc.Name)
	}

	resp := &model.CycleResponse{}
	if len(names) > 0 {
		resp.Turns = append(resp.Turns, o.append(ctx, model.RoleSystem, UploadedText(names)))
	}
	for _, name := range failed {
		resp.Turns = append(resp.Turns, o.append(ctx, model.RoleAssistant, FileApologyText(name)))
	}

	o.logger.Info("files uploaded", zap.Int("uploaded", len(names)), zap.Int("failed", len(failed)))
	return resp, nil
}

func (o *Orchestrator) readUpload(u Upload) (model.Document, error) {
	if u.Open == nil {
		return model.Document{}, &FileReadError{Name: u.Name, Err: errors.New("no content")}
	}

	rc, err := u.Open()
	if err != nil {
		return model.Document{}, &FileReadError{Name: u.Name, Err: err}
	}
	defer rc.Close()

	var r io.Reader = rc
	if o.opts.MaxUploadBytes > 0 {
		r = io.LimitReader(rc, o.opts.MaxUploadBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return model.Document{}, &FileReadError{Name: u.Name, Err: err}
	}
	if o.opts.MaxUploadBytes > 0 && int64(len(data)) > o.opts.MaxUploadBytes {
		return model.Document{}, &FileReadError{Name: u.Name, Err: ErrFileTooLarge}
	}

	return model.Document{
		Name:     u.Name,
		MimeType: u.MimeType,
		Content:  strings.ToValidUTF8(string(data), "�"),
		Size:     int64(len(data)),
	}, nil
}

// RemoveFile drops every document named name. The removal turn is appended
// even when nothing matched.
func (o *Orchestrator) RemoveFile(ctx context.Context, name string) (*model.CycleResponse, int) {
	o.cycle.Lock()
	defer o.cycle.Unlock()

	removed := o.docs.Remove(name)
	turn := o.append(ctx, model.RoleSystem, RemovedText(name))

	o.logger.Info("file removed", zap.String("file", name), zap.Int("documents", removed))
	return &model.CycleResponse{Turns: []model.Turn{turn}}, removed
}

// WebSearch records the search intent and appends an answer grounded on the
// searcher's results.
func (o *Orchestrator) WebSearch(ctx context.Context, query string, lang model.LanguageCode) (*model.CycleResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	o.cycle.Lock()
	defer o.cycle.Unlock()

	intent := o.append(ctx, model.RoleUser, SearchIntentText(query))
	reply, _ := o.respond(ctx, query, lang, model.ModeSearch)

	return &model.CycleResponse{Turns: []model.Turn{intent, reply}, Mode: model.ModeSearch}, nil
}

// VoiceInput captures one utterance and answers it like a typed message.
func (o *Orchestrator) VoiceInput(ctx context.Context, lang model.LanguageCode) (*model.CycleResponse, error) {
	o.cycle.Lock()
	defer o.cycle.Unlock()

	listening := o.append(ctx, model.RoleSystem, ListeningText)

	var (
		text string
		err  error
	)
	if o.voice == nil {
		err = voice.ErrUnsupported
	} else {
		text, err = o.voice.StartRecognition(ctx, o.id, lang)
	}

	o.remove(ctx, listening)

	if err != nil {
		o.logger.Warn("voice recognition failed", zap.Error(err))
		apology := o.append(ctx, model.RoleAssistant, VoiceApologyText)
		return &model.CycleResponse{Turns: []model.Turn{apology}}, nil
	}

	user := o.append(ctx, model.RoleUser, text)
	reply, mode := o.respond(ctx, text, lang, "")

	return &model.CycleResponse{Turns: []model.Turn{user, reply}, Mode: mode}, nil
}

// StopVoice cancels this conversation's in-flight recognition.
func (o *Orchestrator) StopVoice() {
	if o.voice != nil {
		o.voice.Stop(o.id)
	}
}

// TextToSpeech reads content aloud. It never changes the turn log.
func (o *Orchestrator) TextToSpeech(ctx context.Context, content string, lang model.LanguageCode) error {
	if o.voice == nil {
		return voice.ErrUnsupported
	}
	if err := o.voice.Speak(ctx, content, lang); err != nil {
		o.logger.Warn("text to speech failed", zap.Error(err))
		return err
	}
	return nil
}

func (o *Orchestrator) append(ctx context.Context, role model.Role, content string) model.Turn {
	turn := o.state.Append(role, content)
	metrics.RecordTurn(string(role))
	o.publish(ctx, model.TurnEvent{Type: model.TurnAppended, Turn: turn})
	return turn
}

func (o *Orchestrator) remove(ctx context.Context, turn model.Turn) {
	if o.state.Remove(turn.ID) {
		o.publish(ctx, model.TurnEvent{Type: model.TurnRemoved, Turn: turn})
	}
}

func (o *Orchestrator) publish(ctx context.Context, event model.TurnEvent) {
	if _, err := o.publisher.PublishTurn(ctx, o.id, event); err != nil {
		o.logger.Warn("failed to publish turn event",
			zap.String("turn_id", event.Turn.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
