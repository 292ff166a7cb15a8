package flow

import (
	"strings"
	"unicode"
)

const msgProviderGeneric = "Authentication failed, please try again"

// humanizeProviderError turns a provider callback error into a displayable
// message: the provider's description verbatim if given, else a title-cased
// rendering of the error code ("access_denied" becomes "Access Denied"),
// else a generic fallback.
func humanizeProviderError(code, description string) string {
	if description != "" {
		return description
	}
	if code == "" {
		return msgProviderGeneric
	}

	words := strings.Split(code, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
