package rag

// Language selects the rendering language of an answer. It never affects
// retrieval; chunks are matched on embeddings regardless of the language the
// user asked in.
type Language string

const (
	LanguageEnglish   Language = "English"
	LanguageHindi     Language = "Hindi"
	LanguageTamil     Language = "Tamil"
	LanguageKannada   Language = "Kannada"
	LanguageMalayalam Language = "Malayalam"
	LanguageTelugu    Language = "Telugu"
)

var supportedLanguages = map[Language]bool{
	LanguageEnglish:   true,
	LanguageHindi:     true,
	LanguageTamil:     true,
	LanguageKannada:   true,
	LanguageMalayalam: true,
	LanguageTelugu:    true,
}

// NormalizeLanguage maps arbitrary input to a supported language. Anything
// unknown or empty falls back to English.
func NormalizeLanguage(s string) Language {
	lang := Language(s)
	if supportedLanguages[lang] {
		return lang
	}
	return LanguageEnglish
}

// SupportedLanguages lists the languages the answer generator can render.
func SupportedLanguages() []Language {
	return []Language{
		LanguageEnglish,
		LanguageHindi,
		LanguageTamil,
		LanguageKannada,
		LanguageMalayalam,
		LanguageTelugu,
	}
}
