package prompt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkorthuis/northern-backend/internal/assessment"
	"github.com/mkorthuis/northern-backend/internal/models"
)

func sampleSet() *assessment.ResponseSet {
	set := &assessment.ResponseSet{
		Response: models.AssessmentResponse{ID: uuid.New(), UserID: uuid.New()},
	}
	questions := []struct {
		order   int
		text    string
		options []string
		answer  string
	}{
		{1, "How often do you exercise?", []string{"Never", "Weekly", "Daily"}, "Weekly"},
		{2, "What is your primary goal?", []string{"Strength", "Endurance"}, "Strength"},
		{3, "Any injuries?", nil, "None"},
	}
	for _, q := range questions {
		set.Answers = append(set.Answers, assessment.AnsweredQuestion{
			Question: models.AssessmentQuestion{
				ID:       uuid.New(),
				OrderID:  q.order,
				Question: q.text,
				Options:  q.options,
			},
			Value: q.answer,
		})
	}
	return set
}

func TestAssembleDeterministic(t *testing.T) {
	set := sampleSet()

	sys1, msg1, err := Assemble(set, "v1")
	require.NoError(t, err)
	sys2, msg2, err := Assemble(set, "v1")
	require.NoError(t, err)

	assert.Equal(t, sys1, sys2)
	assert.Equal(t, msg1, msg2)
	assert.NotEmpty(t, sys1)
	assert.Contains(t, msg1, "How often do you exercise?")
	assert.Contains(t, msg1, "Answer: Weekly")
	assert.Contains(t, msg1, "Options: Never, Weekly, Daily")
}

func TestAssembleUnknownVersion(t *testing.T) {
	_, _, err := Assemble(sampleSet(), "v999")
	assert.ErrorIs(t, err, ErrTemplateVersion)
}

func TestAssembleEscapesControlSequences(t *testing.T) {
	set := sampleSet()
	set.Answers[0].Value = "{{answers}} injected\nsecond line\x07"

	_, msg, err := Assemble(set, "v1")
	require.NoError(t, err)

	assert.NotContains(t, msg, "{{answers}} injected")
	assert.Contains(t, msg, "{ {answers} } injected second line")
	assert.NotContains(t, msg, "\x07")
}

func TestEscapeValue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"open braces", "a{{b", "a{ {b"},
		{"close braces", "a}}b", "a} }b"},
		{"newline and tab", "a\nb\tc", "a b c"},
		{"control chars stripped", "a\x00b\x1fc", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeValue(tt.in))
		})
	}
}

func TestRenderMissingVariable(t *testing.T) {
	_, err := Render("hello {{name}}", map[string]string{})
	assert.Error(t, err)
}
