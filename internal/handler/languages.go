package handler

import (
	"net/http"

	"github.com/capitalize-ai/multilingual-assistant/internal/language"
)

// Languages handles GET /api/v1/languages
func Languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"default":   language.Default,
		"languages": language.Supported(),
	})
}
