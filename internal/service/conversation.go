package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/multilingual-assistant/internal/llm"
	"github.com/capitalize-ai/multilingual-assistant/internal/model"
	"github.com/capitalize-ai/multilingual-assistant/internal/prompt"
	"github.com/capitalize-ai/multilingual-assistant/internal/search"
	"github.com/capitalize-ai/multilingual-assistant/internal/voice"
	"github.com/capitalize-ai/multilingual-assistant/pkg/logger"
	"github.com/capitalize-ai/multilingual-assistant/pkg/metrics"
)

// ErrConversationNotFound is returned for unknown conversation ids.
var ErrConversationNotFound = errors.New("conversation not found")

// Dependencies are shared by every orchestrator the service creates.
type Dependencies struct {
	Generator llm.Generator
	Composer  *prompt.Composer
	Searcher  search.Searcher
	Voice     *voice.Service
	Publisher TurnPublisher
	Options   Options
}

type entry struct {
	id        string
	title     string
	createdAt time.Time
	orch      *Orchestrator
}

// ConversationService keeps the conversations of this process in memory.
type ConversationService struct {
	deps   Dependencies
	logger *logger.Logger

	conversations map[string]*entry
	mu            sync.RWMutex
}

// NewConversationService creates a new conversation service.
func NewConversationService(deps Dependencies, log *logger.Logger) *ConversationService {
	return &ConversationService{
		deps:          deps,
		logger:        log,
		conversations: make(map[string]*entry),
	}
}

// Create starts a new, empty conversation.
func (s *ConversationService) Create(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	id := uuid.Must(uuid.NewV7()).String()

	title := ""
	if req != nil {
		title = strings.TrimSpace(req.Title)
	}

	e := &entry{
		id:        id,
		title:     title,
		createdAt: time.Now(),
		orch:      NewOrchestrator(id, s.deps, s.logger),
	}

	s.mu.Lock()
	s.conversations[id] = e
	s.mu.Unlock()

	metrics.ConversationsTotal.Inc()
	s.logger.Info("conversation created", zap.String("conversation_id", id))

	conv := e.summary()
	return &conv, nil
}

// Get returns the summary of a conversation.
func (s *ConversationService) Get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	e, err := s.lookup(conversationID)
	if err != nil {
		return nil, err
	}
	conv := e.summary()
	return &conv, nil
}

// Orchestrator returns the orchestrator driving a conversation.
func (s *ConversationService) Orchestrator(conversationID string) (*Orchestrator, error) {
	e, err := s.lookup(conversationID)
	if err != nil {
		return nil, err
	}
	return e.orch, nil
}

// List returns conversations newest first.
func (s *ConversationService) List(ctx context.Context, limit, offset int) (*model.ListConversationsResponse, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.conversations))
	for _, e := range s.conversations {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	// UUIDv7 ids sort by creation time.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].id > entries[j].id
	})

	total := len(entries)
	start := offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + limit
	if limit <= 0 || end > total {
		end = total
	}

	convs := make([]model.Conversation, 0, end-start)
	for _, e := range entries[start:end] {
		convs = append(convs, e.summary())
	}

	return &model.ListConversationsResponse{
		Conversations: convs,
		Total:         total,
		HasMore:       end < total,
	}, nil
}

// Delete forgets a conversation and everything in it.
func (s *ConversationService) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	e, exists := s.conversations[conversationID]
	if exists {
		delete(s.conversations, conversationID)
	}
	s.mu.Unlock()

	if !exists {
		return ErrConversationNotFound
	}

	e.orch.StopVoice()
	s.logger.Info("conversation deleted", zap.String("conversation_id", conversationID))
	return nil
}

func (s *ConversationService) lookup(conversationID string) (*entry, error) {
	s.mu.RLock()
	e, exists := s.conversations[conversationID]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrConversationNotFound
	}
	return e, nil
}

func (e *entry) summary() model.Conversation {
	conv := model.Conversation{
		ID:            e.id,
		Title:         e.title,
		CreatedAt:     e.createdAt,
		UpdatedAt:     e.createdAt,
		TurnCount:     e.orch.state.Len(),
		DocumentCount: e.orch.docs.Len(),
	}
	if last, ok := e.orch.state.Last(); ok {
		conv.LastTurn = &last
		conv.UpdatedAt = last.CreatedAt
	}
	return conv
}
