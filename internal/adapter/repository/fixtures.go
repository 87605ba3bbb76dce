package repository

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

type questionnaireFixture struct {
	ID          string `yaml:"id"`
	OwnerID     string `yaml:"owner_id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Active      *bool  `yaml:"active"`
	Questions   []struct {
		ID   string `yaml:"id"`
		Text string `yaml:"text"`
	} `yaml:"questions"`
}

// ReadQuestionnaireFixtures parses a YAML list of questionnaires. Questions
// are ordered as listed; missing question IDs become q1, q2, ...
func ReadQuestionnaireFixtures(r io.Reader) ([]*entities.Questionnaire, error) {
	var fixtures []questionnaireFixture
	if err := yaml.NewDecoder(r).Decode(&fixtures); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse questionnaire fixtures: %w", err)
	}

	out := make([]*entities.Questionnaire, 0, len(fixtures))
	for n, f := range fixtures {
		id, err := uuid.Parse(f.ID)
		if err != nil {
			return nil, fmt.Errorf("questionnaire %d: invalid id %q", n, f.ID)
		}
		owner, err := uuid.Parse(f.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("questionnaire %d: invalid owner_id %q", n, f.OwnerID)
		}

		q := &entities.Questionnaire{
			ID:          id,
			OwnerID:     owner,
			Title:       strings.TrimSpace(f.Title),
			Description: strings.TrimSpace(f.Description),
			IsActive:    f.Active == nil || *f.Active,
		}
		for i, question := range f.Questions {
			qid := question.ID
			if qid == "" {
				qid = fmt.Sprintf("q%d", i+1)
			}
			q.Questions = append(q.Questions, entities.Question{
				ID:    qid,
				Order: i + 1,
				Text:  strings.TrimSpace(question.Text),
			})
		}
		out = append(out, q)
	}
	return out, nil
}

// LoadQuestionnaireFixtures reads fixtures from a YAML file
func LoadQuestionnaireFixtures(path string) ([]*entities.Questionnaire, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open questionnaire fixtures: %w", err)
	}
	defer f.Close()
	return ReadQuestionnaireFixtures(f)
}
