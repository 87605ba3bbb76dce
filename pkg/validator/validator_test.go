package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invite struct {
	Title string `json:"title" validate:"required,max=10"`
	Email string `json:"email" validate:"required,email"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(invite{Title: "Tea", Email: "ann@example.com"}))

	err := v.Validate(invite{Title: "a much too long title", Email: "nope"})
	require.Error(t, err)
	msg := Describe(err)
	assert.Contains(t, msg, "title: max=10")
	assert.Contains(t, msg, "email: email")
}

type roster struct {
	Participants []invite `json:"participants" validate:"distinct_emails,dive"`
}

func TestDistinctEmails(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(roster{}))
	require.NoError(t, v.Validate(roster{Participants: []invite{
		{Title: "a", Email: "ann@example.com"},
		{Title: "b", Email: "bob@example.com"},
	}}))

	err := v.Validate(roster{Participants: []invite{
		{Title: "a", Email: "ann@example.com"},
		{Title: "b", Email: "ANN@example.com"},
	}})
	require.Error(t, err)
	assert.Contains(t, Describe(err), "participants: distinct_emails")
}
