package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
- id: 4f0a8f0e-3c0b-4a8b-9a57-8c6c1f7e2d11
  owner_id: 0b7c1a52-6a55-4f4e-8d2b-6b8e7a1f9c33
  title: Morning drinks
  questions:
    - text: What do you drink first thing in the morning?
    - id: why
      text: Why that one?
- id: 6d1e2b3c-7f8a-4b9c-8d0e-1f2a3b4c5d6e
  owner_id: 0b7c1a52-6a55-4f4e-8d2b-6b8e7a1f9c33
  title: Archived
  active: false
`

func TestReadQuestionnaireFixtures(t *testing.T) {
	qs, err := ReadQuestionnaireFixtures(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	require.Len(t, qs, 2)

	first := qs[0]
	assert.True(t, first.IsActive)
	require.Len(t, first.Questions, 2)
	assert.Equal(t, "q1", first.Questions[0].ID)
	assert.Equal(t, 1, first.Questions[0].Order)
	assert.Equal(t, "why", first.Questions[1].ID)
	assert.Equal(t, 2, first.Questions[1].Order)
	assert.False(t, qs[1].IsActive)

	repo := NewMemoryQuestionnaireRepository()
	for _, q := range qs {
		repo.Put(q)
	}
	got, err := repo.FindByID(context.Background(), uuid.MustParse("4f0a8f0e-3c0b-4a8b-9a57-8c6c1f7e2d11"))
	require.NoError(t, err)
	assert.Equal(t, "Morning drinks", got.Title)
}

func TestReadQuestionnaireFixturesErrors(t *testing.T) {
	_, err := ReadQuestionnaireFixtures(strings.NewReader("- id: nope\n  owner_id: 0b7c1a52-6a55-4f4e-8d2b-6b8e7a1f9c33\n"))
	assert.ErrorContains(t, err, "invalid id")

	qs, err := ReadQuestionnaireFixtures(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, qs)
}
