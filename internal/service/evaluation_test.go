package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		score    int
		feedback string
	}{
		{"well formed", "SCORE: 8\nFEEDBACK: Solid answer.", 8, "Solid answer."},
		{"multiline feedback", "SCORE: 6\nFEEDBACK: You covered hooks.\nMention effects too.", 6, "You covered hooks.\nMention effects too."},
		{"lower case labels", "score: 3\nfeedback: Needs work", 3, "Needs work"},
		{"score with suffix", "SCORE: 9/10\nFEEDBACK: Great", 9, "Great"},
		{"no score", "FEEDBACK: Nice try", DefaultScore, "Nice try"},
		{"no feedback", "SCORE: 7", 7, DefaultFeedback},
		{"garbage", "I think this answer is fine.", DefaultScore, DefaultFeedback},
		{"empty", "", DefaultScore, DefaultFeedback},
		{"clamped", "SCORE: 42\nFEEDBACK: wow", MaxScore, "wow"},
		{"huge number", "SCORE: 99999999999999999999999\nFEEDBACK: x", MaxScore, "x"},
		{"zero", "SCORE: 0\nFEEDBACK: Wrong", 0, "Wrong"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev := ParseEvaluation(tc.raw)
			assert.Equal(t, tc.score, ev.Score)
			assert.Equal(t, tc.feedback, ev.Feedback)
		})
	}
}

func TestQuestionPromptIncludesPreviousQuestions(t *testing.T) {
	p := questionPrompt("React", 3, []string{"What is JSX?", "What are hooks?"})
	assert.Contains(t, p, "question 3 of 5")
	assert.Contains(t, p, "Previous questions: What is JSX?; What are hooks?")

	first := questionPrompt("React", 1, nil)
	assert.NotContains(t, first, "Previous questions")

	warm := questionPrompt("General Knowledge", 2, []string{"What color is grass?"})
	assert.Contains(t, warm, "question 2 of 3")
	assert.Contains(t, warm, "general knowledge")
}

func TestEvaluationPromptIsGenerousForWarmUp(t *testing.T) {
	assert.Contains(t, evaluationPrompt("General Knowledge", "q", "a"), "Be generous")
	assert.NotContains(t, evaluationPrompt("SQL Developer", "q", "a"), "Be generous")
	assert.Contains(t, evaluationPrompt("SQL Developer", "q", "a"), "about SQL Developer")
}
