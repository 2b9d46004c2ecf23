package questionpack

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stemsi/exstem-practice/internal/model"
)

const samplePack = `
category: science
questions:
  - id: sci-1
    question: "Water boils at 100 °C at sea level."
    choices:
      - { id: t, text: "True", is_correct: true }
      - { id: f, text: "False" }
  - id: sci-2
    question: "Which planet is largest?"
    difficulty: hard
    status: draft
    choices:
      - { id: a, text: "Mars" }
      - { id: b, text: "Jupiter", is_correct: true }
`

func TestDecodeDefaults(t *testing.T) {
	p, err := Decode(strings.NewReader(samplePack))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(p.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(p.Questions))
	}

	q := p.Questions[0]
	if q.Category != model.CategoryScience || q.Difficulty != model.DifficultyMedium {
		t.Errorf("defaults not applied: category=%s difficulty=%s", q.Category, q.Difficulty)
	}
	if q.Type != model.QuestionTypeMultipleChoice || q.Status != model.QuestionStatusPublished {
		t.Errorf("type/status defaults not applied: %s/%s", q.Type, q.Status)
	}
	if p.Questions[1].Difficulty != model.DifficultyHard {
		t.Errorf("per-question difficulty overridden")
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown category", "category: astrology\nquestions: []\n"},
		{"two correct", `
category: science
questions:
  - id: q
    question: "?"
    choices:
      - { id: a, text: "1", is_correct: true }
      - { id: b, text: "2", is_correct: true }
`},
		{"single choice", `
category: science
questions:
  - id: q
    question: "?"
    choices:
      - { id: a, text: "1", is_correct: true }
`},
		{"duplicate id", `
category: science
questions:
  - id: q
    question: "?"
    choices: [{ id: a, text: "1", is_correct: true }, { id: b, text: "2" }]
  - id: q
    question: "?"
    choices: [{ id: a, text: "1", is_correct: true }, { id: b, text: "2" }]
`},
		{"missing category", `
questions:
  - id: q
    question: "?"
    choices: [{ id: a, text: "1", is_correct: true }, { id: b, text: "2" }]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body))
			if !errors.Is(err, ErrInvalidPack) {
				t.Errorf("err = %v, want ErrInvalidPack", err)
			}
		})
	}
}

func TestDecodeRejectsUnknownField(t *testing.T) {
	_, err := Decode(strings.NewReader("category: science\nquestionz: []\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestCatalogListPublished(t *testing.T) {
	p, err := Decode(strings.NewReader(samplePack))
	if err != nil {
		t.Fatal(err)
	}
	cat, err := NewCatalog(p)
	if err != nil {
		t.Fatal(err)
	}

	got, _ := cat.ListPublished(context.Background(), model.QuestionFilter{Category: model.CategoryScience})
	if len(got) != 1 || got[0].ID != "sci-1" {
		t.Errorf("ListPublished = %+v, want only sci-1 (sci-2 is a draft)", got)
	}

	got, _ = cat.ListPublished(context.Background(), model.QuestionFilter{Category: model.CategoryMathematics})
	if len(got) != 0 {
		t.Errorf("ListPublished(mathematics) = %d questions, want 0", len(got))
	}

	counts, _ := cat.CountPublishedByCategory(context.Background())
	if counts[model.CategoryScience] != 1 {
		t.Errorf("count = %d, want 1", counts[model.CategoryScience])
	}

	if _, err := NewCatalog(p, p); !errors.Is(err, ErrInvalidPack) {
		t.Errorf("merging a pack twice should fail, got %v", err)
	}
}

func TestLoadDirBundledPacks(t *testing.T) {
	cat, err := LoadDir("../../questionpacks")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	math, _ := cat.ListPublished(context.Background(), model.QuestionFilter{Category: model.CategoryMathematics, Limit: 3})
	if len(math) != 3 {
		t.Errorf("limit not applied: got %d", len(math))
	}
	search, _ := cat.ListPublished(context.Background(), model.QuestionFilter{Search: "PRIME"})
	if len(search) != 1 || search[0].ID != "math-002" {
		t.Errorf("search = %+v", search)
	}
}
