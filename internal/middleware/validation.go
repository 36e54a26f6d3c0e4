package middleware

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxMessageLength  = 100000
	maxQueryLength    = 1000
	maxTitleLength    = 256
	maxFileNameLength = 255
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("content cannot be empty")
	}
	if len(content) > maxMessageLength {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateQuery validates a web search query.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(query) > maxQueryLength {
		return errors.New("query exceeds maximum length")
	}
	if !utf8.ValidString(query) {
		return errors.New("query must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID validates a conversation ID.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}

// ValidateFileName validates an uploaded or removed file name.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("file name cannot be empty")
	}
	if len(name) > maxFileNameLength {
		return errors.New("file name exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("file name must be valid UTF-8")
	}
	if strings.ContainsAny(name, "/\\\x00") || path.Base(name) != name {
		return errors.New("file name must not contain path separators")
	}
	return nil
}

// ValidateTitle validates a conversation title.
func ValidateTitle(title string) error {
	if len(title) > maxTitleLength {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// RequireConversationID rejects requests whose {id} route parameter is not a
// valid conversation ID.
func RequireConversationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ValidateConversationID(conversationParam(r)); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"` + err.Error() + `"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func conversationParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}
