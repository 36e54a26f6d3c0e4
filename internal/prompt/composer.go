package prompt

import (
	"strings"

	"github.com/capitalize-ai/multilingual-assistant/internal/language"
	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

const (
	searchPersona = "You are a helpful, multilingual assistant with the ability to search the web."

	fileLead     = "Here is a document that you should use to answer the user's question:"
	fileQuestion = "Please analyze this document and answer the following question based on its content only:"
)

// Params holds the sampling parameters applied per mode.
type Params struct {
	ChatTemperature   float64
	FileTemperature   float64
	SearchTemperature float64
	TopP              float64
	TopK              int
	MaxOutputTokens   int
}

// DefaultParams returns the stock sampling parameters.
func DefaultParams() Params {
	return Params{
		ChatTemperature:   0.7,
		FileTemperature:   0.3, // lower temperature for more factual responses
		SearchTemperature: 0.3,
		TopP:              0.9,
		TopK:              40,
		MaxOutputTokens:   2048,
	}
}

// Input is everything a composition may draw from. Mode is chosen by the caller.
type Input struct {
	Mode      model.Mode
	Language  model.LanguageCode
	Turns     []model.Turn
	Documents []model.Document
	Results   []model.SearchResult

	// Query is the literal user question (file mode) or search query (search mode).
	Query string
}

// Composer builds generation requests.
type Composer struct {
	params Params
}

// NewComposer creates a composer with the given parameters.
func NewComposer(params Params) *Composer {
	return &Composer{params: params}
}

// Compose assembles the prompt for in.Mode. It never mutates in.
func (c *Composer) Compose(in Input) *model.GenerationRequest {
	req := &model.GenerationRequest{
		Mode:            in.Mode,
		TopP:            c.params.TopP,
		TopK:            c.params.TopK,
		MaxOutputTokens: c.params.MaxOutputTokens,
	}

	switch in.Mode {
	case model.ModeFile:
		req.Temperature = c.params.FileTemperature
		req.PromptText = composeFile(in)
	case model.ModeSearch:
		req.Temperature = c.params.SearchTemperature
		req.PromptText = composeSearch(in)
	default:
		req.Mode = model.ModeChat
		req.Temperature = c.params.ChatTemperature
		req.PromptText = composeChat(in)
	}

	return req
}

func composeChat(in Input) string {
	preamble := language.Preamble(in.Language)
	history := FormatHistory(in.Turns)
	if history == "" {
		return preamble
	}
	return preamble + HistorySeparator + history
}

func composeFile(in Input) string {
	var b strings.Builder
	b.WriteString(language.Preamble(in.Language))
	b.WriteString("\n")
	b.WriteString(fileLead)
	b.WriteString("\n")
	b.WriteString(FormatFiles(in.Documents))
	b.WriteString("\n")
	b.WriteString(fileQuestion)
	b.WriteString("\n")
	b.WriteString(in.Query)
	return b.String()
}

func composeSearch(in Input) string {
	var b strings.Builder
	b.WriteString(language.Persona(searchPersona, in.Language))
	b.WriteString("\n")
	b.WriteString(`The user has asked you to search for information about: "` + in.Query + `"`)
	b.WriteString("\n")
	b.WriteString("Please provide a helpful response as if you had searched the web for this information.\n")
	b.WriteString("Include relevant facts, details, and a comprehensive answer to their query.\n")
	b.WriteString("Format your response in a clear, organized way.")
	if results := FormatSearchResults(in.Results); results != "" {
		b.WriteString("\n\nSearch results:\n")
		b.WriteString(results)
	}
	return b.String()
}
