// Package questionpack loads practice questions from YAML files. Packs seed the
// PostgreSQL question bank and serve as the offline question source of the
// terminal client.
package questionpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/stemsi/exstem-practice/internal/model"
	"gopkg.in/yaml.v3"
)

var ErrInvalidPack = errors.New("invalid question pack")

// Pack is one YAML file. Category and Difficulty are defaults for its questions.
type Pack struct {
	Name       string                   `yaml:"name"`
	Category   model.QuestionCategory   `yaml:"category"`
	Difficulty model.QuestionDifficulty `yaml:"difficulty"`
	Questions  []model.Question         `yaml:"questions"`
}

// Decode reads a pack and fills in question defaults.
func Decode(r io.Reader) (*Pack, error) {
	var p Pack
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode pack: %w", err)
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile reads the pack at path.
func LoadFile(path string) (*Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

func (p *Pack) normalize() error {
	if p.Difficulty == "" {
		p.Difficulty = model.DifficultyMedium
	}
	if p.Category != "" && !p.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidPack, p.Category)
	}
	if !p.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidPack, p.Difficulty)
	}

	seen := make(map[string]bool, len(p.Questions))
	for i := range p.Questions {
		q := &p.Questions[i]
		if q.Category == "" {
			q.Category = p.Category
		}
		if q.Difficulty == "" {
			q.Difficulty = p.Difficulty
		}
		if q.Type == "" {
			q.Type = model.QuestionTypeMultipleChoice
		}
		if q.Status == "" {
			q.Status = model.QuestionStatusPublished
		}
		if err := validateQuestion(q); err != nil {
			return fmt.Errorf("%w: question %d: %w", ErrInvalidPack, i+1, err)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidPack, q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

func validateQuestion(q *model.Question) error {
	switch {
	case q.ID == "":
		return errors.New("missing id")
	case strings.TrimSpace(q.Question) == "":
		return errors.New("missing question text")
	case !q.Category.Valid():
		return fmt.Errorf("unknown category %q", q.Category)
	case !q.Difficulty.Valid():
		return fmt.Errorf("unknown difficulty %q", q.Difficulty)
	case len(q.Choices) < 2:
		return errors.New("needs at least two choices")
	}

	correct := 0
	ids := make(map[string]bool, len(q.Choices))
	for _, c := range q.Choices {
		if c.ID == "" || ids[c.ID] {
			return fmt.Errorf("choice id %q is empty or repeated", c.ID)
		}
		ids[c.ID] = true
		if c.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("has %d correct choices, want 1", correct)
	}
	return nil
}

// Catalog is an in-memory question bank built from packs.
type Catalog struct {
	questions []model.Question
}

// NewCatalog merges packs in order. A question id appearing twice is an error.
func NewCatalog(packs ...*Pack) (*Catalog, error) {
	c := &Catalog{}
	seen := make(map[string]string)
	for _, p := range packs {
		for _, q := range p.Questions {
			if prev, ok := seen[q.ID]; ok {
				return nil, fmt.Errorf("%w: question %q in both %s and %s", ErrInvalidPack, q.ID, prev, p.Name)
			}
			seen[q.ID] = p.Name
			c.questions = append(c.questions, q)
		}
	}
	return c, nil
}

// LoadDir loads every .yaml/.yml file under dir into one catalog.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var packs []*Pack
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		p, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return NewCatalog(packs...)
}

// Questions returns every question in the catalog.
func (c *Catalog) Questions() []model.Question {
	return slices.Clone(c.questions)
}

// ListPublished returns published questions matching filter, in pack order.
func (c *Catalog) ListPublished(_ context.Context, filter model.QuestionFilter) ([]model.Question, error) {
	search := strings.ToLower(filter.Search)
	out := make([]model.Question, 0)
	for _, q := range c.questions {
		if q.Status != model.QuestionStatusPublished {
			continue
		}
		if filter.Category != "" && q.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && q.Difficulty != filter.Difficulty {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(q.Question), search) {
			continue
		}
		out = append(out, q)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// CountPublishedByCategory counts published questions per category.
func (c *Catalog) CountPublishedByCategory(context.Context) (map[model.QuestionCategory]int, error) {
	counts := make(map[model.QuestionCategory]int)
	for _, q := range c.questions {
		if q.Status == model.QuestionStatusPublished {
			counts[q.Category]++
		}
	}
	return counts, nil
}
