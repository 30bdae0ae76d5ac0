package storygen

import "strconv"

// Choice - вариант продолжения внутри главы.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Chapter - сгенерированная глава. После создания не изменяется.
type Chapter struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

// AssembleChapter строит главу с номером priorCount+1.
// ID выборов: номер главы + буква по порядку ("2a", "2b", "2c").
// Это единственное место, где выдаются идентификаторы глав и выборов.
func AssembleChapter(priorCount int, chunk StoryChunk) Chapter {
	ordinal := strconv.Itoa(priorCount + 1)
	choices := make([]Choice, len(chunk.Choices))
	for i, text := range chunk.Choices {
		choices[i] = Choice{ID: ordinal + choiceSuffix(i), Text: text}
	}
	return Chapter{ID: ordinal, Text: chunk.Text, Choices: choices}
}

// choiceSuffix: a..z, затем aa, ab, ... чтобы ID оставались различными при любом числе выборов.
func choiceSuffix(i int) string {
	var buf []byte
	for {
		buf = append([]byte{byte('a' + i%26)}, buf...)
		i = i/26 - 1
		if i < 0 {
			return string(buf)
		}
	}
}

// FindChoice ищет выбор по ID.
func (c Chapter) FindChoice(id string) (Choice, bool) {
	for _, ch := range c.Choices {
		if ch.ID == id {
			return ch, true
		}
	}
	return Choice{}, false
}
