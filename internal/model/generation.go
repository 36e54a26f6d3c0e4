package model

// LanguageCode identifies a response language.
type LanguageCode string

const (
	LanguageEnglish LanguageCode = "en"
	LanguageUrdu    LanguageCode = "ur"
	LanguageHindi   LanguageCode = "hi"
	LanguageChinese LanguageCode = "zh"
	LanguageSpanish LanguageCode = "es"
	LanguageFrench  LanguageCode = "fr"
	LanguageGerman  LanguageCode = "de"
	LanguageArabic  LanguageCode = "ar"
)

// Mode selects how a generation request is composed.
type Mode string

const (
	ModeChat   Mode = "chat"
	ModeFile   Mode = "file"
	ModeSearch Mode = "search"
)

// Valid reports whether m is a known composition mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeFile, ModeSearch:
		return true
	}
	return false
}

// Document is a file uploaded into a conversation, read as text.
type Document struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Content  string `json:"content,omitempty"`
	Size     int64  `json:"size"`
}

// SearchResult is a single web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// GenerationRequest is the composed payload for one generation call.
type GenerationRequest struct {
	Mode            Mode
	PromptText      string
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}
