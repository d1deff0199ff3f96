package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyEditWithGeneratedImage(t *testing.T) {
	d := Classify("make the sofa blue", true)
	assert.Equal(t, Edit, d.Route)
	assert.Equal(t, "make", d.Keyword)
}

func TestClassifyFallsBackToChatWithoutImage(t *testing.T) {
	d := Classify("make the sofa blue", false)
	assert.Equal(t, Chat, d.Route)
	assert.Empty(t, d.Keyword)
}

func TestClassifyConversational(t *testing.T) {
	assert.Equal(t, Chat, Classify("Where can I buy that chair?", true).Route)
	assert.Equal(t, Chat, Classify("", true).Route)
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, Edit, Classify("ADD A BLUE RUG", true).Route)
	assert.Equal(t, Edit, Classify("Replace the lamp", true).Route)
}

func TestClassifyMatchesSubstrings(t *testing.T) {
	// Substring matching is the existing behavior: unrelated words that
	// contain a keyword still route to edit.
	tests := map[string]string{
		"who should groom my dog?": "room",
		"the sunset looks lovely":  "set",
		"I'm a designer by trade":  "design",
	}

	for text, keyword := range tests {
		d := Classify(text, true)
		assert.Equal(t, Edit, d.Route, text)
		assert.Equal(t, keyword, d.Keyword, text)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, Classify("change the walls", true), Classify("change the walls", true))
	}
}

func TestKeywordsIsCopy(t *testing.T) {
	words := Keywords()
	words[0] = "mutated"
	assert.Equal(t, "make", Keywords()[0])
}
