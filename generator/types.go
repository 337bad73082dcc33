package generator

import (
	"strings"

	"class_newsletter_writer/profile"
)

// GenerationConfig mirrors the generationConfig block of a generateContent call.
type GenerationConfig struct {
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// Prompt is one user turn made of ordered text parts.
type Prompt struct {
	Parts  []string
	Config GenerationConfig
}

// Text joins the parts for providers that take a single message.
func (p Prompt) Text() string {
	return strings.Join(p.Parts, "\n\n")
}

// RawResponse is a generateContent JSON document. Non-Gemini providers
// re-encode their answers into the same shape.
type RawResponse []byte

// GenerationRequest is consumed once by Agent.GenerateNewsletter.
type GenerationRequest struct {
	Memos      []string
	GoalCode   string
	CharCount  int // 0 means "use the goal's recommended length"
	GradeLevel string
	Profile    *profile.StyleProfile
}
