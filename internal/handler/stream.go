package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
	"github.com/capitalize-ai/multilingual-assistant/internal/service"
	"github.com/capitalize-ai/multilingual-assistant/pkg/logger"
	"github.com/capitalize-ai/multilingual-assistant/pkg/metrics"
)

const (
	defaultHeartbeat = 30 * time.Second
	subscriberBuffer = 64
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	conversationService *service.ConversationService
	heartbeat           time.Duration
	logger              *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(convSvc *service.ConversationService, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		conversationService: convSvc,
		heartbeat:           defaultHeartbeat,
		logger:              log,
	}
}

// ReplayCompleteEvent marks the end of the replayed turns.
type ReplayCompleteEvent struct {
	NextSeq   int `json:"next_seq"`
	TurnCount int `json:"turn_count"`
}

// Stream handles GET /api/v1/conversations/:id/stream
// Replays turns whose seq is ?after=N or later (default 0), then streams live changes.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conversationID := chi.URLParam(r, "id")

	orch, ok := orchestrator(w, r, h.conversationService)
	if !ok {
		return
	}

	after := 0
	if a := r.URL.Query().Get("after"); a != "" {
		if parsed, err := strconv.Atoi(a); err == nil && parsed >= 0 {
			after = parsed
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Streams outlive the server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("write deadline not cleared", zap.Error(err))
	}

	// Subscribe before the replay so nothing appended in between is missed.
	events, cancel := orch.State().Subscribe(subscriberBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"conversation_id": conversationID,
	})

	replayed := make(map[string]struct{})
	turns, next := orch.State().Page(after)
	for _, turn := range turns {
		sendSSEEvent(w, flusher, "turn", turn)
		replayed[turn.ID] = struct{}{}
	}

	sendSSEEvent(w, flusher, "replay_complete", &ReplayCompleteEvent{
		NextSeq:   next,
		TurnCount: len(turns),
	})

	h.logger.Info("turn replay complete",
		zap.String("conversation_id", conversationID),
		zap.Int("turns_replayed", len(turns)),
	)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("SSE client disconnected", zap.String("conversation_id", conversationID))
			return

		case ev, open := <-events:
			if !open {
				return
			}
			if ev.Type == model.TurnAppended {
				if _, seen := replayed[ev.Turn.ID]; seen {
					continue
				}
				sendSSEEvent(w, flusher, "turn", ev.Turn)
				continue
			}
			sendSSEEvent(w, flusher, "turn_removed", ev.Turn)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
