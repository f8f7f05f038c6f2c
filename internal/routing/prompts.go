package routing

import "github.com/promptline/smsrouter/internal/models"

// systemPrompts shape the backend call per category. Answers go out over a
// narrow channel, so every prompt pushes for brevity.
var systemPrompts = map[models.Category]string{
	models.CategoryCoding: "You are a senior software engineer answering over SMS. " +
		"Give working code with minimal prose.",
	models.CategoryDebug: "You are a debugging assistant answering over SMS. " +
		"Identify the most likely cause first, then the fix. Be terse.",
	models.CategoryDesign: "You are a UI/UX advisor answering over SMS. " +
		"Give concrete, actionable suggestions.",
	models.CategoryDocumentation: "You are a technical writer answering over SMS. " +
		"Explain plainly, step by step.",
	models.CategoryAnalysis: "You are a technical reviewer answering over SMS. " +
		"Lead with the conclusion, then the evidence.",
	models.CategoryGeneral: "You are a helpful assistant answering over SMS. Be brief.",
}

// SystemPromptFor returns the backend system prompt for a category.
func SystemPromptFor(category models.Category) string {
	if prompt, ok := systemPrompts[category]; ok {
		return prompt
	}
	return systemPrompts[models.CategoryGeneral]
}

// temperatureFor returns the sampling temperature hint: precise categories
// run cold, creative ones warmer.
func temperatureFor(category models.Category) float64 {
	switch category {
	case models.CategoryCoding, models.CategoryDebug:
		return 0.3
	default:
		return 0.7
	}
}
