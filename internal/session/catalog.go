package session

// Option - элемент каталога для выбора в интерфейсе.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// LengthOption - длина истории с бюджетом глав.
type LengthOption struct {
	ID       Length `json:"id"`
	Label    string `json:"label"`
	Chapters int    `json:"chapters"`
}

// Catalog - предлагаемые жанры, тона и длины.
// Генерация принимает любые жанр и тон, каталог только подсказывает.
type Catalog struct {
	Genres  []Option       `json:"genres"`
	Tones   []Option       `json:"tones"`
	Lengths []LengthOption `json:"lengths"`
}

// DefaultCatalog возвращает стандартный каталог.
func DefaultCatalog() Catalog {
	return Catalog{
		Genres: []Option{
			{ID: "fantasy", Label: "Fantasy", Description: "Magic, mythical creatures and epic quests"},
			{ID: "sci-fi", Label: "Sci-Fi", Description: "Futuristic technology and space exploration"},
			{ID: "mystery", Label: "Mystery", Description: "Puzzles, secrets and detective work"},
			{ID: "romance", Label: "Romance", Description: "Love, relationships and emotional journeys"},
			{ID: "horror", Label: "Horror", Description: "Fear, suspense and the supernatural"},
			{ID: "adventure", Label: "Adventure", Description: "Exploration, danger and daring journeys"},
		},
		Tones: []Option{
			{ID: "funny", Label: "Funny"},
			{ID: "dark", Label: "Dark"},
			{ID: "romantic", Label: "Romantic"},
			{ID: "serious", Label: "Serious"},
			{ID: "mysterious", Label: "Mysterious"},
			{ID: "uplifting", Label: "Uplifting"},
		},
		Lengths: []LengthOption{
			{ID: LengthShort, Label: "Short", Chapters: LengthShort.Budget()},
			{ID: LengthMedium, Label: "Medium", Chapters: LengthMedium.Budget()},
			{ID: LengthLong, Label: "Long", Chapters: LengthLong.Budget()},
		},
	}
}
