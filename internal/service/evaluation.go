package service

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultScore    = 5
	DefaultFeedback = "Good effort!"
	MaxScore        = 10
)

var (
	scorePattern    = regexp.MustCompile(`(?i)SCORE:\s*(\d+)`)
	feedbackPattern = regexp.MustCompile(`(?is)FEEDBACK:\s*(.+)`)
)

// Evaluation is a parsed grading reply.
type Evaluation struct {
	Score    int
	Feedback string
}

// ParseEvaluation reads the "SCORE: n" / "FEEDBACK: text" reply format.
// Missing parts fall back to DefaultScore and DefaultFeedback; scores are clamped to 0..MaxScore.
func ParseEvaluation(raw string) Evaluation {
	ev := Evaluation{Score: DefaultScore, Feedback: DefaultFeedback}

	if m := scorePattern.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ev.Score = min(n, MaxScore)
		} else {
			// digits too long for an int
			ev.Score = MaxScore
		}
	}
	if m := feedbackPattern.FindStringSubmatch(raw); m != nil {
		if fb := strings.TrimSpace(m[1]); fb != "" {
			ev.Feedback = fb
		}
	}
	return ev
}
