package model

// QuestionCategory enumerates the practice exam categories.
type QuestionCategory string

const (
	CategoryGeneralKnowledge QuestionCategory = "general_knowledge"
	CategoryKorPor           QuestionCategory = "kor_por"
	CategoryTOEIC            QuestionCategory = "toeic"
	CategoryGATPAT           QuestionCategory = "gat_pat"
	CategoryONET             QuestionCategory = "o_net"
	CategoryMathematics      QuestionCategory = "mathematics"
	CategoryEnglish          QuestionCategory = "english"
	CategoryScience          QuestionCategory = "science"
	CategoryDrivingLicense   QuestionCategory = "driving_license"
)

// Categories lists every category in display order.
var Categories = []QuestionCategory{
	CategoryGeneralKnowledge,
	CategoryKorPor,
	CategoryTOEIC,
	CategoryGATPAT,
	CategoryONET,
	CategoryMathematics,
	CategoryEnglish,
	CategoryScience,
	CategoryDrivingLicense,
}

var categoryDisplayNames = map[QuestionCategory]string{
	CategoryGeneralKnowledge: "General Knowledge",
	CategoryKorPor:           "Civil Service (Kor Por)",
	CategoryTOEIC:            "TOEIC",
	CategoryGATPAT:           "GAT/PAT",
	CategoryONET:             "O-NET",
	CategoryMathematics:      "Mathematics",
	CategoryEnglish:          "English",
	CategoryScience:          "Science",
	CategoryDrivingLicense:   "Driving License",
}

// Valid reports whether c is a known category.
func (c QuestionCategory) Valid() bool {
	_, ok := categoryDisplayNames[c]
	return ok
}

// DisplayName returns the human-readable category name.
func (c QuestionCategory) DisplayName() string {
	if name, ok := categoryDisplayNames[c]; ok {
		return name
	}
	return string(c)
}

// QuestionDifficulty enumerates question difficulty tags.
type QuestionDifficulty string

const (
	DifficultyEasy   QuestionDifficulty = "easy"
	DifficultyMedium QuestionDifficulty = "medium"
	DifficultyHard   QuestionDifficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d QuestionDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
)

type QuestionStatus string

const (
	QuestionStatusDraft     QuestionStatus = "draft"
	QuestionStatusPublished QuestionStatus = "published"
)

// QuestionChoice is one selectable answer option.
type QuestionChoice struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"is_correct" yaml:"is_correct"`
}

// Question is a single practice question as served by the question bank.
type Question struct {
	ID            string             `json:"id" yaml:"id"`
	Question      string             `json:"question" yaml:"question"`
	QuestionImage string             `json:"question_image,omitempty" yaml:"question_image,omitempty"`
	Choices       []QuestionChoice   `json:"choices" yaml:"choices"`
	Hint          string             `json:"hint,omitempty" yaml:"hint,omitempty"`
	Explanation   string             `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Category      QuestionCategory   `json:"category" yaml:"category"`
	Difficulty    QuestionDifficulty `json:"difficulty" yaml:"difficulty"`
	Type          QuestionType       `json:"type" yaml:"type"`
	Status        QuestionStatus     `json:"status" yaml:"status"`
	Tags          []string           `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// CorrectChoiceID returns the id of the choice flagged correct, if any.
func (q *Question) CorrectChoiceID() (string, bool) {
	for _, c := range q.Choices {
		if c.IsCorrect {
			return c.ID, true
		}
	}
	return "", false
}

// HasChoice reports whether choiceID belongs to q.
func (q *Question) HasChoice(choiceID string) bool {
	for _, c := range q.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

// QuestionFilter narrows the published question pool fetched for a session.
type QuestionFilter struct {
	Category   QuestionCategory
	Difficulty QuestionDifficulty
	Search     string
	Limit      int
}
