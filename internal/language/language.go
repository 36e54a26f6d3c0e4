// Package language maps language codes to prompt instructions and speech locales.
package language

import (
	"strings"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

// Default is used whenever a code is missing or unknown.
const Default = model.LanguageEnglish

// BasePersona is the assistant persona that opens every prompt.
const BasePersona = "You are a helpful, multilingual assistant."

type entry struct {
	name   string
	locale string
}

var table = map[model.LanguageCode]entry{
	model.LanguageEnglish: {name: "English", locale: "en-US"},
	model.LanguageUrdu:    {name: "Urdu", locale: "ur-PK"},
	model.LanguageHindi:   {name: "Hindi", locale: "hi-IN"},
	model.LanguageChinese: {name: "Chinese", locale: "zh-CN"},
	model.LanguageSpanish: {name: "Spanish", locale: "es-ES"},
	model.LanguageFrench:  {name: "French", locale: "fr-FR"},
	model.LanguageGerman:  {name: "German", locale: "de-DE"},
	model.LanguageArabic:  {name: "Arabic", locale: "ar-SA"},
}

var order = []model.LanguageCode{
	model.LanguageEnglish,
	model.LanguageUrdu,
	model.LanguageHindi,
	model.LanguageChinese,
	model.LanguageSpanish,
	model.LanguageFrench,
	model.LanguageGerman,
	model.LanguageArabic,
}

// Normalize trims and lowercases code, falling back to English for unknown codes.
func Normalize(code model.LanguageCode) model.LanguageCode {
	c := model.LanguageCode(strings.ToLower(strings.TrimSpace(string(code))))
	if _, ok := table[c]; ok {
		return c
	}
	return Default
}

// InstructionFor returns the imperative sentence that asks the model to answer
// in the given language. English and unknown codes have no instruction.
func InstructionFor(code model.LanguageCode) string {
	c := Normalize(code)
	if c == Default {
		return ""
	}
	return "Please respond in " + table[c].name + " language."
}

// Preamble returns the default persona line followed by the language instruction.
func Preamble(code model.LanguageCode) string {
	return Persona(BasePersona, code)
}

// Persona appends the language instruction for code to persona.
func Persona(persona string, code model.LanguageCode) string {
	instruction := InstructionFor(code)
	if instruction == "" {
		return persona
	}
	return persona + " " + instruction + " Always respond in the requested language."
}

// LocaleFor returns the BCP 47 tag used by the speech collaborators.
func LocaleFor(code model.LanguageCode) string {
	return table[Normalize(code)].locale
}

// DisplayName returns the English name of the language.
func DisplayName(code model.LanguageCode) string {
	return table[Normalize(code)].name
}

// Language describes a supported language for the picker.
type Language struct {
	Code   model.LanguageCode `json:"code"`
	Name   string             `json:"name"`
	Locale string             `json:"locale"`
}

// Supported lists the supported languages in picker order.
func Supported() []Language {
	out := make([]Language, 0, len(order))
	for _, c := range order {
		out = append(out, Language{Code: c, Name: table[c].name, Locale: table[c].locale})
	}
	return out
}
