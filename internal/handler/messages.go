package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/multilingual-assistant/internal/language"
	"github.com/capitalize-ai/multilingual-assistant/internal/middleware"
	"github.com/capitalize-ai/multilingual-assistant/internal/model"
	"github.com/capitalize-ai/multilingual-assistant/internal/service"
	"github.com/capitalize-ai/multilingual-assistant/internal/voice"
	"github.com/capitalize-ai/multilingual-assistant/pkg/logger"
)

// UploadLimits bounds multipart uploads.
type UploadLimits struct {
	MaxFiles     int
	MaxFileBytes int64
}

// MessageHandler handles the turn-cycle endpoints of a conversation.
type MessageHandler struct {
	service *service.ConversationService
	limits  UploadLimits
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.ConversationService, limits UploadLimits, log *logger.Logger) *MessageHandler {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 10
	}
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = 1 << 20
	}
	return &MessageHandler{
		service: svc,
		limits:  limits,
		logger:  log,
	}
}

// Send handles POST /api/v1/conversations/:id/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	orch, ok := orchestrator(w, r, h.service)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mode != "" && !req.Mode.Valid() {
		writeError(w, http.StatusBadRequest, "invalid mode")
		return
	}

	resp, err := orch.SendMessage(r.Context(), req.Text, language.Normalize(req.Language), req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Upload handles POST /api/v1/conversations/:id/files
// Expects multipart/form-data with one or more "files" parts.
func (h *MessageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	orch, ok := orchestrator(w, r, h.service)
	if !ok {
		return
	}

	// Oversized files are still accepted here so each one can be reported
	// individually; the form as a whole is capped.
	maxBody := int64(h.limits.MaxFiles)*(h.limits.MaxFileBytes+4096) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}
	if len(headers) > h.limits.MaxFiles {
		writeError(w, http.StatusBadRequest, "too many files")
		return
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		if err := middleware.ValidateFileName(fh.Filename); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		uploads = append(uploads, toUpload(fh))
	}

	resp, err := orch.UploadFiles(r.Context(), uploads)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func toUpload(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// documentInfo is a document without its content.
type documentInfo struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size"`
}

// ListFiles handles GET /api/v1/conversations/:id/files
func (h *MessageHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	orch, ok := orchestrator(w, r, h.service)
	if !ok {
		return
	}

	docs := orch.Documents()
	files := make([]documentInfo, 0, len(docs))
	for _, d := range docs {
		files = append(files, documentInfo{Name: d.Name, MimeType: d.MimeType, Size: d.Size})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
	})
}

// RemoveFile handles DELETE /api/v1/conversations/:id/files/:name
func (h *MessageHandler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	orch, ok := orchestrator(w, r, h.service)
	if !ok {
		return
	}

	// chi matches on the escaped path, so the parameter may still be encoded.
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file name encoding")
		return
	}
	if err := middleware.ValidateFileName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, removed := orch.RemoveFile(r.Context(), name)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"turns":   resp.Turns,
		"removed": removed,
	})
}

// Search handles POST /api/v1/conversations/:id/search
func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	orch, ok := orchestrator(w, r, h.service)
	if !ok {
		return
	}

	var req model.WebSearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := orch.WebSearch(r.Context(), req.Query, language.Normalize(req.Language))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Voice handles POST /api/v1/conversations/:id/voice
func (h *MessageHandler) Voice(w http.ResponseWriter, r *http.Request) {
	orch, ok := orchestrator(w, r, h.service)
	if !ok {
		return
	}

	var req model.VoiceInputRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := orch.VoiceInput(r.Context(), language.Normalize(req.Language))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// StopVoice handles POST /api/v1/conversations/:id/voice/stop
func (h *MessageHandler) StopVoice(w http.ResponseWriter, r *http.Request) {
	orch, ok := orchestrator(w, r, h.service)
	if !ok {
		return
	}

	orch.StopVoice()
	w.WriteHeader(http.StatusNoContent)
}

// Speech handles POST /api/v1/conversations/:id/speech
func (h *MessageHandler) Speech(w http.ResponseWriter, r *http.Request) {
	orch, ok := orchestrator(w, r, h.service)
	if !ok {
		return
	}

	var req model.SpeechRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := orch.TextToSpeech(r.Context(), req.Content, language.Normalize(req.Language))
	if errors.Is(err, voice.ErrUnsupported) {
		writeError(w, http.StatusServiceUnavailable, "speech synthesis unavailable")
		return
	}
	if err != nil {
		h.logger.Warn("speech request failed", zap.String("conversation_id", orch.ID()), zap.Error(err))
		writeError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
