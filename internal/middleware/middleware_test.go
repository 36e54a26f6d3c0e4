package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/capitalize-ai/multilingual-assistant/pkg/logger"
)

func TestValidateMessageContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "plain", content: "hello"},
		{name: "urdu", content: "سلام"},
		{name: "empty", content: "", wantErr: true},
		{name: "whitespace", content: "  \n", wantErr: true},
		{name: "too long", content: strings.Repeat("a", maxMessageLength+1), wantErr: true},
		{name: "invalid utf8", content: "ok\xff", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageContent(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantErr  bool
	}{
		{name: "plain", fileName: "report.pdf"},
		{name: "spaces", fileName: "my notes.txt"},
		{name: "empty", fileName: "", wantErr: true},
		{name: "slash", fileName: "../etc/passwd", wantErr: true},
		{name: "backslash", fileName: `a\b.txt`, wantErr: true},
		{name: "dot dot", fileName: "..", wantErr: true},
		{name: "too long", fileName: strings.Repeat("x", maxFileNameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileName(tt.fileName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateQueryAndTitle(t *testing.T) {
	assert.NoError(t, ValidateQuery("weather in Lahore"))
	assert.Error(t, ValidateQuery(" "))
	assert.Error(t, ValidateQuery(strings.Repeat("q", maxQueryLength+1)))

	assert.NoError(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle(strings.Repeat("t", maxTitleLength+1)))

	assert.NoError(t, ValidateConversationID(uuid.New().String()))
	assert.Error(t, ValidateConversationID("not-a-uuid"))
}

func TestRequireConversationID(t *testing.T) {
	r := chi.NewRouter()
	r.With(RequireConversationID).Get("/c/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c/nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid conversation ID format")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c/"+uuid.New().String(), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoggingSetsCorrelationID(t *testing.T) {
	var seen string
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(CorrelationIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))
}

func TestLoggingTagsConversation(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := &logger.Logger{Logger: zap.New(core)}

	r := chi.NewRouter()
	r.Use(Logging(log))
	r.Route("/c/{id}", func(r chi.Router) {
		r.Get("/turns", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/c/abc/turns", nil)
	req.Header.Set(CorrelationIDHeader, "corr-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "corr-1", fields["correlation_id"])
	assert.Equal(t, "abc", fields["conversation_id"])
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
