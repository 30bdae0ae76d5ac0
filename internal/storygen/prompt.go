package storygen

import "strings"

// FormatInstruction завершает каждый промт. Модель должна вернуть ровно один JSON-объект.
const FormatInstruction = "\n\nRespond ONLY with a valid JSON object in this format (no explanation, no markdown, no extra text):\n\n" +
	"{\n  \"text\": \"<the next part of the story>\",\n  \"choices\": [\"<choice 1>\", \"<choice 2>\", \"<choice 3>\"]\n}\n\n" +
	"Do not include any commentary or formatting."

const (
	storySoFarLabel = " The story so far: "
	userChoseLabel  = " The user chose: "
)

// GenerationRequest - входные данные одной генерации главы.
// Пустой LastChoice означает, что выбора ещё не было (первая глава).
type GenerationRequest struct {
	Genre      string `json:"genre"`
	Tone       string `json:"tone"`
	StorySoFar string `json:"story_so_far,omitempty"`
	LastChoice string `json:"last_choice,omitempty"`
}

// Prompt - промт для этого запроса.
func (r GenerationRequest) Prompt() string {
	return BuildPrompt(r.Genre, r.Tone, r.StorySoFar, r.LastChoice)
}

// BuildPrompt собирает текст промта для следующей части истории.
func BuildPrompt(genre, tone, storySoFar, lastChoice string) string {
	var b strings.Builder
	b.Grow(256 + len(storySoFar) + len(lastChoice))

	b.WriteString("You are an interactive story generator. Write the next part of a ")
	b.WriteString(genre)
	b.WriteString(" story in a ")
	b.WriteString(tone)
	b.WriteString(" tone.")

	if storySoFar != "" {
		b.WriteString(storySoFarLabel)
		b.WriteString(storySoFar)
	}
	if lastChoice != "" {
		b.WriteString(userChoseLabel)
		b.WriteString(lastChoice)
	}

	b.WriteString(FormatInstruction)
	return b.String()
}
