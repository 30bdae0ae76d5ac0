package storygen

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StoryChunk - разобранный ответ модели: текст следующей части и варианты выбора.
type StoryChunk struct {
	Text    string   `json:"text"`
	Choices []string `json:"choices"`
}

// ExtractionStrategy - одна попытка извлечь StoryChunk из сырого ответа модели.
type ExtractionStrategy struct {
	Name    string
	Extract func(raw string) (StoryChunk, error)
}

var (
	errNoJSONObject = errors.New("no brace-delimited object found")
	errMissingText  = errors.New("field \"text\" must be a non-empty string")
	errMissingList  = errors.New("field \"choices\" must be an array of strings")
)

// DefaultStrategies - порядок важен: первая успешная стратегия побеждает.
var DefaultStrategies = []ExtractionStrategy{
	{Name: "strict", Extract: ExtractStrict},
	{Name: "brace-span", Extract: ExtractBraceSpan},
}

// ParseModelOutput разбирает ответ модели стратегиями DefaultStrategies.
func ParseModelOutput(raw string) (StoryChunk, error) {
	chunk, _, err := ParseWithStrategies(raw, DefaultStrategies)
	return chunk, err
}

// ParseWithStrategies применяет стратегии по порядку и возвращает имя сработавшей.
// Если ни одна не сработала, возвращает MalformedOutputError с причинами всех попыток.
func ParseWithStrategies(raw string, strategies []ExtractionStrategy) (StoryChunk, string, error) {
	var causes []error
	for _, s := range strategies {
		chunk, err := s.Extract(raw)
		if err == nil {
			return chunk, s.Name, nil
		}
		causes = append(causes, fmt.Errorf("%s: %w", s.Name, err))
	}
	return StoryChunk{}, "", newMalformedOutputError(errors.Join(causes...))
}

// ExtractStrict разбирает всю строку целиком как JSON-объект.
func ExtractStrict(raw string) (StoryChunk, error) {
	return decodeChunk(raw)
}

// ExtractBraceSpan берёт подстроку от первой '{' до последней '}' (жадно) и разбирает её.
// Если модель выдала несколько JSON-фрагментов, span захватит их все и разбор упадёт.
func ExtractBraceSpan(raw string) (StoryChunk, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return StoryChunk{}, errNoJSONObject
	}
	return decodeChunk(raw[start : end+1])
}

// rawChunk держит поля как json.RawMessage, чтобы проверить их типы отдельно.
type rawChunk struct {
	Text    json.RawMessage `json:"text"`
	Choices json.RawMessage `json:"choices"`
}

func decodeChunk(s string) (StoryChunk, error) {
	var rc rawChunk
	if err := json.Unmarshal([]byte(s), &rc); err != nil {
		return StoryChunk{}, err
	}

	var chunk StoryChunk
	if len(rc.Text) == 0 || json.Unmarshal(rc.Text, &chunk.Text) != nil || strings.TrimSpace(chunk.Text) == "" {
		return StoryChunk{}, errMissingText
	}
	if len(rc.Choices) == 0 || rc.Choices[0] != '[' || json.Unmarshal(rc.Choices, &chunk.Choices) != nil {
		return StoryChunk{}, errMissingList
	}
	if chunk.Choices == nil {
		chunk.Choices = []string{}
	}
	return chunk, nil
}
