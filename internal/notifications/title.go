package notifications

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns a reverse-DNS application identifier into a readable
// name: "com.acme.crash-reporter" becomes "Crash Reporter".
func DisplayName(identifier string) string {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return "Unknown"
	}
	name := trimmed[strings.LastIndexByte(trimmed, '.')+1:]
	if name == "" {
		return trimmed
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.Und).String(name)
}
