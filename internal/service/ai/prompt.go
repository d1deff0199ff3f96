package ai

import (
	"fmt"
	"strings"
)

const consultantSystemPrompt = `You are Lumina, a friendly professional interior design consultant.
The user is redesigning a room and may attach the current design as an image.

Guidelines:
- Talk about the room that is shown: colors, materials, furniture, lighting and layout.
- Keep answers concise and practical; prefer short paragraphs or bullet lists.
- When the user asks where to buy something, suggest concrete product types and retailers.
- Never claim you changed the image; image edits are handled separately.`

const (
	generateInstruction = "You are an expert interior designer. Keep the room's architecture, camera angle, windows and doors exactly where they are, and restyle only the furnishings, finishes and decor. %s. Return a single photorealistic image."
	editInstruction     = "You are editing an interior design rendering. Apply this change and keep everything else identical: %s. Return a single photorealistic image."
)

// buildGeneratePrompt frames a catalog style prompt for the image model.
func buildGeneratePrompt(stylePrompt string) string {
	return fmt.Sprintf(generateInstruction, strings.TrimRight(strings.TrimSpace(stylePrompt), "."))
}

// buildEditPrompt frames a free-form user instruction for the image model.
func buildEditPrompt(instruction string) string {
	return fmt.Sprintf(editInstruction, strings.TrimRight(strings.TrimSpace(instruction), "."))
}

// limitHistory keeps the most recent limit turns; limit <= 0 keeps all of them.
func limitHistory(history []Turn, limit int) []Turn {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}
