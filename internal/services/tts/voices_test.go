package tts

import "testing"

func TestVoiceForLanguageDefaults(t *testing.T) {
	cases := []struct {
		lang string
		want string
	}{
		{"en", "alloy"},
		{"es", "nova"},
		{"fr", "shimmer"},
		{"de", "onyx"},
		{"ru", "echo"},
		{"ar", "fable"},
		{"xx", "alloy"},       // unknown language falls back to default
		{"", "alloy"},         // empty language falls back to default
		{"pt-BR", "nova"},     // regional tag reduces to base
		{"zh_Hans_CN", "nova"}, // underscore separators tolerated
	}
	for _, tc := range cases {
		if got := VoiceForLanguage(tc.lang, DefaultVoice); got != tc.want {
			t.Errorf("VoiceForLanguage(%q) = %q, want %q", tc.lang, got, tc.want)
		}
	}
}

func TestVoiceForLanguageHonorsExplicitVoice(t *testing.T) {
	if got := VoiceForLanguage("es", "onyx"); got != "onyx" {
		t.Fatalf("explicit voice overridden: got %q", got)
	}
	// The system default is not an explicit selection.
	if got := VoiceForLanguage("es", DefaultVoice); got != "nova" {
		t.Fatalf("default voice should defer to language table: got %q", got)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"en-US":      "en",
		"pt_BR":      "pt",
		"ja":         "ja",
		"not a tag!": "en",
		"":           "en",
	}
	for input, want := range cases {
		if got := NormalizeLanguage(input); got != want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", input, got, want)
		}
	}
}
