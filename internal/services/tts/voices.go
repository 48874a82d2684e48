package tts

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultVoice is the system-wide default. A caller passing any other voice is
// expressing explicit intent and is honored verbatim.
const DefaultVoice = "alloy"

// Curated per-language defaults used when the caller sticks with the system
// default voice.
var languageVoices = map[string]string{
	"en": "alloy",   // neutral and clear
	"es": "nova",    // warm female tone
	"fr": "shimmer", // bright, crisp delivery
	"de": "onyx",    // confident male tone
	"it": "nova",
	"pt": "nova",
	"ru": "echo", // deep male tone
	"ja": "shimmer",
	"ko": "shimmer",
	"zh": "nova",
	"ar": "fable", // resonant male tone
	"hi": "nova",
}

// VoiceForLanguage selects the synthesis voice for a language. Explicit
// non-default voices win; otherwise the curated table applies, falling back to
// the default voice for unknown languages.
func VoiceForLanguage(lang, userVoice string) string {
	if voice := strings.TrimSpace(userVoice); voice != "" && voice != DefaultVoice {
		return voice
	}
	if voice, ok := languageVoices[NormalizeLanguage(lang)]; ok {
		return voice
	}
	return DefaultVoice
}

// NormalizeLanguage reduces a language identifier ("en", "en-US", "pt_BR",
// "Japanese"-style tags from model output) to the base ISO 639-1 code used by
// the voice table. Unparseable input normalizes to "en".
func NormalizeLanguage(lang string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(lang, "_", "-"))
	if trimmed == "" {
		return "en"
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}
