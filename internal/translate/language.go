package translate

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// english name for a language code, used in LLM prompts. Empty and "auto"
// give an empty string; unknown values are passed through as given.
func languageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "auto") {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// canonical BCP 47 form of a code ("zh-cn" -> "zh-CN"), or "" for auto
func normalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "auto") {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}
