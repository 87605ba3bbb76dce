package entities

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Question is one prompt of a questionnaire
type Question struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
	Text  string `json:"text"`
}

// Questionnaire is owned by the questionnaire service; this module only reads it
type Questionnaire struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Questions   []Question `gorm:"type:jsonb;serializer:json" json:"questions"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Questionnaire) TableName() string {
	return "questionnaires"
}

// OrderedQuestions returns a copy of the questions sorted by Order.
// Questions with an empty text are skipped.
func (q *Questionnaire) OrderedQuestions() []Question {
	if q == nil {
		return nil
	}
	out := make([]Question, 0, len(q.Questions))
	for _, question := range q.Questions {
		if question.Text == "" {
			continue
		}
		out = append(out, question)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
