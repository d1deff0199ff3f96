package intent

import "strings"

// Route says which remote operation should handle a chat message.
type Route string

const (
	// Chat sends the message to the conversational model.
	Chat Route = "chat"
	// Edit sends the message as an instruction to modify the current design.
	Edit Route = "edit"
)

// editKeywords are matched as plain substrings of the lower-cased message, so
// "groom" matches "room". Callers rely on that looseness.
var editKeywords = []string{
	"make", "change", "add", "remove", "replace", "set", "filter", "room", "design",
}

// Decision explains a classification.
type Decision struct {
	Route   Route
	Keyword string
}

// Classify decides whether text is an edit instruction. Without a generated
// image there is nothing to edit, so every message is routed to chat.
func Classify(text string, hasGeneratedImage bool) Decision {
	if !hasGeneratedImage {
		return Decision{Route: Chat}
	}

	if keyword, ok := matchKeyword(text); ok {
		return Decision{Route: Edit, Keyword: keyword}
	}
	return Decision{Route: Chat}
}

// Keywords returns the edit vocabulary.
func Keywords() []string {
	return append([]string(nil), editKeywords...)
}

func matchKeyword(text string) (string, bool) {
	normalized := strings.ToLower(text)
	for _, word := range editKeywords {
		if strings.Contains(normalized, word) {
			return word, true
		}
	}
	return "", false
}
